// Package config provides configuration loading for the memorial tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"memorial/internal/database"
	"memorial/internal/engine"
	"memorial/internal/memorial"
	"memorial/internal/source"
)

// Config represents the complete tool configuration
type Config struct {
	Engine   engine.Config     `yaml:"engine"`
	Input    InputConfig       `yaml:"input"`
	Document memorial.Document `yaml:"document"`
	Output   OutputConfig      `yaml:"output"`
	Database DatabaseConfig    `yaml:"database"`
	Log      LogConfig         `yaml:"log"`
	Metrics  MetricsConfig     `yaml:"metrics"`
}

// InputConfig names the layers of a run
type InputConfig struct {
	// Parcels is the parcel layer (.shp or .geojson), required
	Parcels string `yaml:"parcels"`
	// Streets is the named street layer, required
	Streets string `yaml:"streets"`
	// Others holds lower priority reference features (optional)
	Others string `yaml:"others"`
	// Blocks holds block outlines (optional, derived from parcels when empty)
	Blocks string        `yaml:"blocks"`
	Fields source.Fields `yaml:"fields"`
}

// OutputConfig configures where results are written
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig configures the optional Oracle result store
type DatabaseConfig struct {
	Enabled           bool `yaml:"enabled"`
	database.DBConfig `yaml:",inline"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the prometheus textfile export
type MetricsConfig struct {
	// Textfile is written at the end of a run when set
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: engine.DefaultConfig(),
		Input: InputConfig{
			Fields: source.DefaultFields(),
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Database: DatabaseConfig{
			DBConfig: database.DBConfig{
				Host:    "localhost",
				Port:    "1521",
				Service: "XE",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Input.Parcels == "" {
		return fmt.Errorf("input.parcels is required")
	}
	if c.Input.Streets == "" {
		return fmt.Errorf("input.streets is required")
	}
	if c.Input.Fields.ID == "" || c.Input.Fields.Block == "" {
		return fmt.Errorf("input.fields.id and input.fields.block are required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Database.Enabled && c.Database.Username == "" {
		return fmt.Errorf("database.username is required when the database is enabled")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := overlay(config, path); err != nil {
		return nil, err
	}
	return config, nil
}

// overlay decodes the YAML file at path over c. Keys absent from the file
// keep their current values
func overlay(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Engine tunables travel together
	if other.Engine != (engine.Config{}) {
		c.Engine = other.Engine
	}

	// Input
	if other.Input.Parcels != "" {
		c.Input.Parcels = other.Input.Parcels
	}
	if other.Input.Streets != "" {
		c.Input.Streets = other.Input.Streets
	}
	if other.Input.Others != "" {
		c.Input.Others = other.Input.Others
	}
	if other.Input.Blocks != "" {
		c.Input.Blocks = other.Input.Blocks
	}
	if other.Input.Fields != (source.Fields{}) {
		c.Input.Fields = other.Input.Fields
	}

	// Document
	if other.Document.Neighborhood != "" {
		c.Document.Neighborhood = other.Document.Neighborhood
	}
	if other.Document.Municipality != "" {
		c.Document.Municipality = other.Document.Municipality
	}
	if other.Document.State != "" {
		c.Document.State = other.Document.State
	}
	if other.Document.Unit != "" {
		c.Document.Unit = other.Document.Unit
	}

	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}

	// Database
	if other.Database.Enabled {
		c.Database = other.Database
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}

// ApplyEnv overrides the configuration from the environment, loading .env
// first when present
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"MEMORIAL_PARCELS", &c.Input.Parcels},
		{"MEMORIAL_STREETS", &c.Input.Streets},
		{"MEMORIAL_OTHERS", &c.Input.Others},
		{"MEMORIAL_BLOCKS", &c.Input.Blocks},
		{"MEMORIAL_OUTPUT_DIR", &c.Output.Dir},
		{"MEMORIAL_NEIGHBORHOOD", &c.Document.Neighborhood},
		{"MEMORIAL_MUNICIPALITY", &c.Document.Municipality},
		{"MEMORIAL_STATE", &c.Document.State},
		{"MEMORIAL_METRICS_TEXTFILE", &c.Metrics.Textfile},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	c.Database.DBConfig = database.LoadDatabaseConfig(c.Database.DBConfig)

	if v := os.Getenv("MEMORIAL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEMORIAL_WORKERS: %w", err)
		}
		c.Engine.Workers = n
	}
	if v := os.Getenv("MEMORIAL_DB_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MEMORIAL_DB_ENABLED: %w", err)
		}
		c.Database.Enabled = b
	}
	return nil
}

const (
	// ProjectConfigFile is read from the working directory when no file is given
	ProjectConfigFile = "memorial.yaml"
	// UserConfigFile is relative to the home directory
	UserConfigFile = ".config/memorial/config.yaml"
)

// Load builds the configuration with layered precedence: defaults, the user
// config, the given file (or memorial.yaml in the working directory), then
// the environment. Callers validate after applying flags
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if home, err := os.UserHomeDir(); err == nil {
		err := overlay(cfg, filepath.Join(home, UserConfigFile))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if path == "" {
		if _, err := os.Stat(ProjectConfigFile); err == nil {
			path = ProjectConfigFile
		}
	}
	if path != "" {
		if err := overlay(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
