package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Themes are the catppuccin flavors a config may name
var Themes = []string{"mocha", "macchiato", "frappe", "latte"}

// Config holds the application configuration
type Config struct {
	// Theme is the catppuccin flavor (mocha, macchiato, frappe, latte)
	Theme string `yaml:"theme"`

	// MinInputLength is how many characters must be typed before the dropdown opens
	MinInputLength int `yaml:"min_input_length"`

	// MinItemLength is the candidate count the dropdown must exceed to open
	MinItemLength int `yaml:"min_item_length"`

	// SelectOnTab commits the highlighted item on Tab
	SelectOnTab bool `yaml:"select_on_tab"`

	// TokenizedMatches matches any whitespace-separated word of the query
	TokenizedMatches bool `yaml:"tokenized_matches"`

	// MaxVisible caps the number of dropdown rows
	MaxVisible int `yaml:"max_visible"`

	Prompt      string `yaml:"prompt"`
	Placeholder string `yaml:"placeholder"`

	// Field is the record field shown for structured (JSON/YAML) items
	Field string `yaml:"field"`

	// LogFile receives JSON logs; empty disables logging
	LogFile string `yaml:"log_file"`

	// LogLevel is the zap level; -1 enables debug and verbose lines
	LogLevel int8 `yaml:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Theme:          "mocha",
		MinInputLength: 2,
		MinItemLength:  0,
		SelectOnTab:    true,
		MaxVisible:     8,
		Prompt:         "> ",
		Placeholder:    "Type to search...",
		Field:          "name",
	}
}

// Load reads the config from a YAML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) //nolint:gosec // config path from known locations or the --config flag
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, fmt.Errorf("read config %s: %w", cleanPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", cleanPath, err)
	}

	return cfg, nil
}

// DefaultPaths lists the config locations checked in order
func DefaultPaths() []string {
	paths := []string{
		"typeahead.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "typeahead", "config.yaml"),
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "typeahead", "config.yaml"))
	}
	return paths
}

// LoadFromDefaultPath attempts to load config from standard locations
func LoadFromDefaultPath() (*Config, error) {
	for _, path := range DefaultPaths() {
		cleanPath := filepath.Clean(path)
		if _, err := os.Stat(cleanPath); err == nil {
			return Load(cleanPath)
		}
	}

	return DefaultConfig(), nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var err error
	if !c.knownTheme() {
		err = multierr.Append(err, fmt.Errorf("unknown theme %q (want one of %s)", c.Theme, strings.Join(Themes, ", ")))
	}
	if c.MinInputLength < 0 {
		err = multierr.Append(err, errors.New("min_input_length must not be negative"))
	}
	if c.MinItemLength < 0 {
		err = multierr.Append(err, errors.New("min_item_length must not be negative"))
	}
	if c.MaxVisible <= 0 {
		err = multierr.Append(err, errors.New("max_visible must be positive"))
	}
	return err
}

func (c *Config) knownTheme() bool {
	for _, t := range Themes {
		if strings.EqualFold(t, c.Theme) {
			return true
		}
	}
	return false
}

// global config instance
var globalConfig *Config

// Global returns the global config instance, loading it if necessary
func Global() *Config {
	if globalConfig == nil {
		cfg, err := LoadFromDefaultPath()
		if err != nil {
			cfg = DefaultConfig()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// SetGlobal sets the global config instance (useful for testing)
func SetGlobal(cfg *Config) {
	globalConfig = cfg
}
