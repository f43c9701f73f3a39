package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lc/strata/internal/envvar"
	"github.com/lc/strata/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the daemon configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultDirectory is where configuration files are looked up.
	DefaultDirectory = "config"
	// DefaultEnvironment is the environment queried when none is given.
	DefaultEnvironment = "local"
	// DefaultSocketPath is the default path of the daemon's Unix socket.
	DefaultSocketPath = "/tmp/stratad.sock"
	// DefaultConfigPath is the daemon config file, relative to the home directory.
	DefaultConfigPath = ".strata/stratad.yaml"
)

// Process variables that override the built-in source defaults.
const (
	EnvDirectory    = "CONFIG_DIR"
	EnvFiles        = "CONFIG_FILES"
	EnvEnvironment  = "CONFIG_ENV"
	EnvEnvironments = "CONFIG_ENVS"
)

// DefaultFiles returns the default layered files, lowest precedence first.
func DefaultFiles() []string {
	return []string{"config.yml", "localhost.yml", "secrets.yml"}
}

// DefaultEnvironments returns the default cascade, baseline first.
func DefaultEnvironments() []string {
	return []string{"production", "staging", "development", "local", "testing"}
}

// Source describes where configuration comes from and how it is resolved.
type Source struct {
	Directory                 string   `yaml:"directory"`
	Files                     []string `yaml:"files"`
	Environment               string   `yaml:"environment"`
	Environments              []string `yaml:"environments"`
	ThrowExceptions           bool     `yaml:"throw_exceptions"`
	AllowEnvironmentVariables bool     `yaml:"allow_environment_variables"`
	MergeLists                bool     `yaml:"merge_lists"`
}

// DefaultSource returns the built-in defaults, overridden by CONFIG_DIR,
// CONFIG_FILES, CONFIG_ENV and CONFIG_ENVS when they are set in env. List
// variables are space-delimited.
func DefaultSource(env envvar.Lookuper) Source {
	src := Source{
		Directory:                 DefaultDirectory,
		Files:                     DefaultFiles(),
		Environment:               DefaultEnvironment,
		Environments:              DefaultEnvironments(),
		ThrowExceptions:           true,
		AllowEnvironmentVariables: true,
	}
	if dir := strings.TrimSpace(envvar.Get(env, EnvDirectory)); dir != "" {
		src.Directory = dir
	}
	if files := envvar.List(env, EnvFiles); files != nil {
		src.Files = files
	}
	if name := strings.TrimSpace(envvar.Get(env, EnvEnvironment)); name != "" {
		src.Environment = name
	}
	if envs := envvar.List(env, EnvEnvironments); envs != nil {
		src.Environments = envs
	}
	return src
}

// Validate reports every problem with s at once.
func (s Source) Validate() error {
	var errs error
	if strings.TrimSpace(s.Directory) == "" {
		errs = multierr.Append(errs, errors.New("directory cannot be empty"))
	}
	if len(s.Files) == 0 {
		errs = multierr.Append(errs, errors.New("at least one file is required"))
	}
	for i, f := range s.Files {
		if strings.TrimSpace(f) == "" {
			errs = multierr.Append(errs, fmt.Errorf("file %d has an empty name", i))
		}
	}
	if len(s.Environments) == 0 {
		errs = multierr.Append(errs, errors.New("at least one environment is required"))
	}
	seen := make(map[string]struct{}, len(s.Environments))
	for i, name := range s.Environments {
		if strings.TrimSpace(name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("environment %d has an empty name", i))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("environment %q is declared twice", name))
		}
		seen[name] = struct{}{}
	}
	if !slices.Contains(s.Environments, s.Environment) {
		errs = multierr.Append(errs, fmt.Errorf("default environment %q is not in the cascade %v", s.Environment, s.Environments))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

// Config holds the stratad daemon configuration.
type Config struct {
	Socket SocketConfig `yaml:"socket"`
	Source Source       `yaml:"source"`
}

// SocketConfig holds socket-related configuration.
type SocketConfig struct {
	Path string `yaml:"path"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ReadWriteFS
	env  envvar.Lookuper
	path string
}

var _ Provider = (*FSProvider)(nil)

// New creates a provider for ~/.strata/stratad.yaml on the OS file system,
// taking source defaults from the process environment. If the home
// directory cannot be determined, the path is resolved against the current
// directory.
func New() Provider {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine home directory: %v\n", err)
		home = ""
	}
	return NewWithPath(filesys.OS(), envvar.OS(), filepath.Join(home, DefaultConfigPath))
}

// NewWithPath creates a provider reading path through fsys, with source
// defaults taken from env.
func NewWithPath(fsys filesys.ReadWriteFS, env envvar.Lookuper, path string) Provider {
	return &FSProvider{
		fs:   fsys,
		env:  env,
		path: path,
	}
}

// Default returns the daemon configuration used when no file exists.
func Default(env envvar.Lookuper) *Config {
	return &Config{
		Socket: SocketConfig{Path: DefaultSocketPath},
		Source: DefaultSource(env),
	}
}

// Load reads the daemon configuration. Keys absent from the file keep their
// defaults; a missing file yields Default.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			return Default(p.env), nil
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the daemon configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Socket.Path) == "" {
		return fmt.Errorf("%w: socket path cannot be empty", ErrInvalidConfig)
	}
	return c.Source.Validate()
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default(p.env)
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}
	return cfg, nil
}
