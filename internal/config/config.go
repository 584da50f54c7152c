// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all addressbook configuration.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Contacts Contacts `yaml:"contacts"`
	Log      Log      `yaml:"log"`
	UI       UI       `yaml:"ui"`
}

// Storage holds backing file settings.
type Storage struct {
	Dir string `yaml:"dir"` // Directory holding <book>.txt files
}

// Contacts holds contact editing settings.
type Contacts struct {
	ValidateUpdates bool `yaml:"validate_updates"` // Re-validate values on update
}

// Log holds diagnostic logging settings.
type Log struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	File  string `yaml:"file"`  // Empty writes to stderr
}

// UI holds terminal settings.
type UI struct {
	Plain bool `yaml:"plain"` // Line prompts even on a TTY
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: Storage{Dir: "."},
		Log:     Log{Level: "warn"},
	}
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
// Invalid YAML or unknown fields in any file is an error.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Storage.Dir == "" {
		return errors.New("config: storage.dir cannot be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// LoadDotEnv loads variables from a .env file at path into the process
// environment. Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ADDRESSBOOK_DIR, ADDRESSBOOK_LOG_LEVEL,
// ADDRESSBOOK_LOG_FILE, ADDRESSBOOK_VALIDATE_UPDATES.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ADDRESSBOOK_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("ADDRESSBOOK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ADDRESSBOOK_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("ADDRESSBOOK_VALIDATE_UPDATES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid ADDRESSBOOK_VALIDATE_UPDATES %q: %w", v, err)
		}
		c.Contacts.ValidateUpdates = b
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Storage  *rawStorage  `yaml:"storage"`
	Contacts *rawContacts `yaml:"contacts"`
	Log      *rawLog      `yaml:"log"`
	UI       *rawUI       `yaml:"ui"`
}

type rawStorage struct {
	Dir *string `yaml:"dir"`
}

type rawContacts struct {
	ValidateUpdates *bool `yaml:"validate_updates"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

type rawUI struct {
	Plain *bool `yaml:"plain"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Storage != nil && layer.Storage.Dir != nil {
		c.Storage.Dir = *layer.Storage.Dir
	}
	if layer.Contacts != nil && layer.Contacts.ValidateUpdates != nil {
		c.Contacts.ValidateUpdates = *layer.Contacts.ValidateUpdates
	}
	if layer.Log != nil {
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.File != nil {
			c.Log.File = *layer.Log.File
		}
	}
	if layer.UI != nil && layer.UI.Plain != nil {
		c.UI.Plain = *layer.UI.Plain
	}
}
