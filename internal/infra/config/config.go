// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Jamendo  JamendoConfig  `yaml:"jamendo"`
	Storage  StorageConfig  `yaml:"storage"`
	Playback PlaybackConfig `yaml:"playback"`
}

// JamendoConfig represents catalog API configuration.
type JamendoConfig struct {
	BaseURL  string `yaml:"base_url" default:"https://api.jamendo.com/v3.0/tracks" validate:"required,url"`
	ClientID string `yaml:"client_id" validate:"required"`
	Limit    int    `yaml:"limit" default:"200" validate:"gte=1,lte=200"`
	Offset   int    `yaml:"offset" validate:"gte=0"`
	Search   string `yaml:"search"`
}

// StorageConfig represents the durable playback-state store configuration.
// Settings is backend-specific and decoded on demand.
type StorageConfig struct {
	Type     string         `yaml:"type" default:"file" validate:"oneof=file sqlite memory"`
	Settings map[string]any `yaml:"settings"`
}

// storageSettings holds the settings shared by the file and sqlite backends.
type storageSettings struct {
	Path string `mapstructure:"path"`
}

// Path returns the backend path from the settings map, falling back to a
// backend-specific default.
func (s *StorageConfig) Path() (string, error) {
	var settings storageSettings
	if err := mapstructure.Decode(s.Settings, &settings); err != nil {
		return "", errors.Wrap(err, "failed to decode storage settings")
	}
	if settings.Path != "" {
		return settings.Path, nil
	}
	if s.Type == "sqlite" {
		return "jambox.db", nil
	}
	return "jambox_state.json", nil
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	ProgressIntervalMs int `yaml:"progress_interval_ms" default:"500" validate:"gte=100,lte=5000"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("JAMENDO_CLIENT_ID"); v != "" {
		c.Jamendo.ClientID = v
	}
	if v := os.Getenv("JAMENDO_BASE_URL"); v != "" {
		c.Jamendo.BaseURL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
