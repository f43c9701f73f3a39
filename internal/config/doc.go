// Package config holds the settings of the resolution engine and of the
// stratad daemon.
//
// # Source
//
// Source names the configuration files and the environment cascade:
//
//	directory: config
//	files: [config.yml, localhost.yml, secrets.yml]
//	environment: local
//	environments: [production, staging, development, local, testing]
//	throw_exceptions: true
//	allow_environment_variables: true
//	merge_lists: false
//
// DefaultSource returns the values above, except that the process variables
// CONFIG_DIR, CONFIG_FILES, CONFIG_ENV and CONFIG_ENVS take precedence when
// set. CONFIG_FILES and CONFIG_ENVS are space-delimited lists.
//
// # Daemon configuration
//
// stratad reads ~/.strata/stratad.yaml:
//
//	socket:
//	  path: /tmp/stratad.sock
//	source:
//	  directory: /etc/myapp/config
//	  environment: production
//
// Keys that are absent keep their defaults. A missing file is not an error;
// Default is used instead.
//
// # Validation
//
// Source.Validate reports all problems at once, wrapped in ErrInvalidConfig:
//   - directory and file names must not be empty
//   - the cascade must declare at least one environment, without duplicates
//   - the default environment must be part of the cascade
//
// Once loaded, a Config should be treated as immutable.
package config
