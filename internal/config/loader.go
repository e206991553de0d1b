// Package config loads the .strata.yml project configuration: database
// connection settings and the locations of schema definition files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file looked up in the
// working directory.
const ConfigFileName = ".strata.yml"

// Config is the full project configuration.
type Config struct {
	Version  string         `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema"`
}

// DatabaseConfig holds backend connection settings.
type DatabaseConfig struct {
	Driver            string `yaml:"driver"`
	ConnectionString  string `yaml:"connection_string"`
	MaxConnections    int    `yaml:"max_connections"`
	ConnectionTimeout int    `yaml:"connection_timeout"` // seconds
}

// SchemaConfig points at the schema definition files.
type SchemaConfig struct {
	Paths            []string `yaml:"paths"`
	ValidationStrict bool     `yaml:"validation_strict"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: "0.1.0",
		Database: DatabaseConfig{
			Driver:            "postgresql",
			ConnectionString:  "postgresql://localhost:5432/strata",
			MaxConnections:    10,
			ConnectionTimeout: 30,
		},
		Schema: SchemaConfig{
			Paths:            []string{"./schemas"},
			ValidationStrict: true,
		},
	}
}

// Loader reads and writes the project configuration file.
type Loader struct {
	workDir  string
	filePath string
}

// NewLoader creates a loader rooted at workDir.
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir:  workDir,
		filePath: filepath.Join(workDir, ConfigFileName),
	}
}

// Load reads the configuration file, expands ${ENV_VAR} references and
// resolves schema paths to absolute paths.
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration not found at %s (run 'strata init' to create one)", l.filePath)
		}
		return nil, fmt.Errorf("failed to read %s: %w", l.filePath, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.filePath, err)
	}

	if err := l.validate(&cfg); err != nil {
		return nil, err
	}
	l.resolvePaths(&cfg)

	return &cfg, nil
}

// LoadOrDefault loads the configuration, falling back to Defaults when the
// file does not exist.
func (l *Loader) LoadOrDefault() (*Config, error) {
	if _, err := os.Stat(l.filePath); os.IsNotExist(err) {
		return Defaults(), nil
	}
	return l.Load()
}

// Save writes the configuration back to the project file.
func (l *Loader) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(l.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", l.filePath, err)
	}
	return nil
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Database.Driver != "" && cfg.Database.Driver != "postgresql" {
		return fmt.Errorf("unsupported database driver %q (only postgresql)", cfg.Database.Driver)
	}
	return nil
}

func (l *Loader) resolvePaths(cfg *Config) {
	for i, p := range cfg.Schema.Paths {
		if !filepath.IsAbs(p) {
			cfg.Schema.Paths[i] = filepath.Join(l.workDir, p)
		}
	}
}

// Template returns a commented starter configuration.
func Template() string {
	return `# Strata Configuration
version: "0.1.0"

database:
  driver: "postgresql"
  # Supports ${ENV_VAR} expansion, e.g. "${DATABASE_URL}"
  connection_string: "postgresql://localhost:5432/strata"
  max_connections: 10
  connection_timeout: 30

schema:
  paths:
    - "./schemas"
  validation_strict: true
`
}
