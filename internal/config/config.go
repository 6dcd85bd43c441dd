package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds configuration options for CSS generation
type Config struct {
	// Minified suppresses tabs and newlines in generated CSS
	Minified bool `yaml:"minified"`

	// Selector is the default selector used when none is given
	Selector string `yaml:"selector"`

	// Strict rejects unrecognized description shapes instead of dropping them
	Strict bool `yaml:"strict"`

	// MaxDepth limits selector nesting, 0 means unlimited
	MaxDepth int `yaml:"max_depth"`

	Logging LoggingConfig `yaml:"logging"`
	Embed   EmbedConfig   `yaml:"embed"`
}

// LoggingConfig controls console logging
type LoggingConfig struct {
	// Level is one of none, normal, debug
	Level string `yaml:"level"`
}

// EmbedConfig controls how generated CSS is placed into HTML documents
type EmbedConfig struct {
	// Target selects elements receiving a style attribute; empty means a <style> block in <head>
	Target string `yaml:"target"`

	// ReplaceStyle overwrites existing style attributes instead of appending
	ReplaceStyle bool `yaml:"replace_style"`

	// StyleID marks the injected <style> element so rebuilds replace it
	StyleID string `yaml:"style_id"`
}

// Default returns a permissive, pretty-printing configuration
func Default() Config {
	return Config{
		Minified: false,
		Selector: "",
		Strict:   false, // keep dropping malformed input silently
		MaxDepth: 0,     // no nesting limit
		Logging: LoggingConfig{
			Level: "normal",
		},
		Embed: EmbedConfig{
			Target:       "",
			ReplaceStyle: false,
			StyleID:      "cssbuilder",
		},
	}
}

// Load reads YAML configuration from path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	if err := cfg.unmarshal(data); err != nil {
		return cfg, fmt.Errorf("failed to load configuration %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads YAML configuration from data on top of the defaults
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.unmarshal(data); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) unmarshal(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return c.Validate()
}

// Validate checks option values
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("invalid max_depth %d: must not be negative", c.MaxDepth)
	}

	validLevels := []string{"none", "normal", "debug"}
	for _, level := range validLevels {
		if c.Logging.Level == level {
			return nil
		}
	}
	return fmt.Errorf("invalid logging level: %s (valid: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
}

// Dump serializes the configuration as YAML
func Dump(c Config) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize configuration: %w", err)
	}
	return data, nil
}
