package config

import (
	"fmt"
	"time"
)

// Config represents a spool.yaml configuration file.
// All values are optional and act as defaults for spool run flags.
// CLI flags always override config values.
type Config struct {
	Input   string        `yaml:"input"`
	Format  string        `yaml:"format"`
	Strict  bool          `yaml:"strict"`
	Journal string        `yaml:"journal"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// AdapterConfig holds run-notification adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
