// Command strata queries layered, environment-scoped configuration.
//
// It resolves values from the configuration directory directly, or asks a
// running stratad for them.
//
// Usage:
//
//	strata get <path>          - Print one value
//	strata dump                - Print the resolved configuration of an environment
//	strata envs                - List the environment cascade
//	strata export --out <file> - Write the resolved configuration to a file
//	strata reload              - Make stratad re-read its files
//	strata status              - Show stratad status
//
// Examples:
//
//	strata get example.DATABASE_URL --env production
//	strata get foo:enabled --default true
//	strata dump --env staging
//	strata export --out build/production.yml --env production
//
// Paths may separate keys with '.', ':' or '/'. Settings not given as flags
// come from CONFIG_DIR, CONFIG_FILES, CONFIG_ENV and CONFIG_ENVS.
package main

import (
	"os"

	"github.com/lc/strata/internal/log"
)

func main() {
	defer log.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
