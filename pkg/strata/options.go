package strata

import (
	"github.com/lc/strata/internal/config"
	"github.com/lc/strata/internal/envvar"
	"github.com/lc/strata/internal/filesys"
	"github.com/lc/strata/internal/loader"
	"github.com/lc/strata/internal/secrets"
	"github.com/lc/strata/pkg/value"
)

// Option configures a Configuration.
type Option func(c *Configuration)

// WithDirectory sets the directory holding the configuration files.
func WithDirectory(dir string) Option {
	return func(c *Configuration) { c.source.Directory = dir }
}

// WithFiles sets the layered file names, lowest precedence first.
func WithFiles(files ...string) Option {
	return func(c *Configuration) { c.source.Files = append([]string(nil), files...) }
}

// WithEnvironment sets the environment queried when a call names none.
func WithEnvironment(env string) Option {
	return func(c *Configuration) { c.source.Environment = env }
}

// WithEnvironments sets the cascade, baseline first. Each environment
// inherits everything resolved for the ones before it.
func WithEnvironments(envs ...string) Option {
	return func(c *Configuration) { c.source.Environments = append([]string(nil), envs...) }
}

// WithThrowExceptions sets whether resolution failures are returned as
// errors by default.
func WithThrowExceptions(throw bool) Option {
	return func(c *Configuration) { c.source.ThrowExceptions = throw }
}

// WithEnvironmentVariables sets whether environment variables may override
// file values by default.
func WithEnvironmentVariables(allow bool) Option {
	return func(c *Configuration) { c.source.AllowEnvironmentVariables = allow }
}

// WithListStrategy selects how lists from different layers combine.
// value.ReplaceLists is the default; value.MergeLists restores index-wise
// merging.
func WithListStrategy(s value.ListStrategy) Option {
	return func(c *Configuration) { c.source.MergeLists = s == value.MergeLists }
}

// WithSource replaces every source setting at once.
func WithSource(src config.Source) Option {
	return func(c *Configuration) {
		c.source = src
		c.source.Files = append([]string(nil), src.Files...)
		c.source.Environments = append([]string(nil), src.Environments...)
	}
}

// WithFS sets the file system configuration files are read from.
func WithFS(fsys filesys.ReadFS) Option {
	return func(c *Configuration) { c.fs = fsys }
}

// WithEnv sets the environment used for CONFIG_* defaults, overrides and
// the env placeholder resolver. Its position among the options does not
// matter.
func WithEnv(env envvar.Lookuper) Option {
	return func(c *Configuration) { c.env = env }
}

// WithParser replaces the default parser, which reads YAML, JSON and TOML.
func WithParser(p loader.Parser) Option {
	return func(c *Configuration) { c.parser = p }
}

// WithResolvers registers additional placeholder resolvers. They replace
// the built-in env and file resolvers when they share a scheme.
func WithResolvers(rs ...secrets.Resolver) Option {
	return func(c *Configuration) { c.resolvers = append(c.resolvers, rs...) }
}

// GetOption adjusts a single query.
type GetOption func(a *args)

type args struct {
	environment string
	def         any
	hasDefault  bool
	throw       *bool
	allowEnv    *bool
}

// Env queries env instead of the default environment.
func Env(env string) GetOption {
	return func(a *args) { a.environment = env }
}

// Default is returned when no value is found.
func Default(v any) GetOption {
	return func(a *args) {
		a.def = v
		a.hasDefault = true
	}
}

// Throw overrides whether resolution failures are returned as errors.
func Throw(throw bool) GetOption {
	return func(a *args) { a.throw = &throw }
}

// EnvironmentVariables overrides whether an environment variable named after
// the last path segment may replace the value.
func EnvironmentVariables(allow bool) GetOption {
	return func(a *args) { a.allowEnv = &allow }
}
