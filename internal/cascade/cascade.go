// Package cascade builds one merged configuration per environment.
//
// Environments are processed in their declared order. Each one starts from a
// copy of the previous environment's result and then layers its own section
// from every document on top, so a declared order of
//
//	production, staging, development, local, testing
//
// is a fallback chain: testing inherits from local, local from development,
// and so on down to production.
package cascade

import (
	"github.com/lc/strata/internal/log"
	"github.com/lc/strata/pkg/value"
)

// Build returns the resolved configuration of every environment in
// environments. docs are the loaded documents in load order; only their
// top-level sections named after an environment are used.
func Build(docs []value.Value, environments []string, lists value.ListStrategy) map[string]value.Value {
	configs := make(map[string]value.Value, len(environments))

	baseline := value.NewMap()
	for _, env := range environments {
		config := value.Merge(value.NewMap(), baseline, lists)
		for i, doc := range docs {
			section, ok := doc.Get(env)
			if !ok || section.IsNull() {
				continue
			}
			if section.Kind() != value.Map {
				log.Warn("cascade: skipping non-map environment section",
					"environment", env, "document", i, "kind", section.Kind().String())
				continue
			}
			config = value.Merge(config, section, lists)
		}
		configs[env] = config
		baseline = config
	}
	return configs
}
