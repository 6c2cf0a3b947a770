// Package config defines the plugin store configuration and file loaders.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds plugin store settings.
type Config struct {
	// CacheDir is the root of the content-addressed artifact cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// WorkDir is where new directory generations are built before
	// publishing. Should live on the same volume as CacheDir so the
	// final move is an atomic rename.
	WorkDir string `yaml:"work_dir" json:"work_dir"`

	// IndexPath is the SQLite plugin index location.
	// Empty means no persistent index.
	IndexPath string `yaml:"index_path" json:"index_path"`

	// Retry configures contention retries for filesystem mutations.
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// KeepOldOnPublish keeps the previous generation in place until the
	// new one is installed, closing the publish gap window.
	KeepOldOnPublish bool `yaml:"keep_old_on_publish" json:"keep_old_on_publish"`
}

// RetryConfig configures the filesystem retry policy.
type RetryConfig struct {
	// MaxRetries is the number of retried attempts before the final one.
	// Negative means "use the platform default".
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// Interval is the pause between attempts.
	Interval Duration `yaml:"interval" json:"interval"`
}

// Default returns the configuration defaults.
// The retry bound is resolved per platform by the fsops package.
func Default() Config {
	return Config{
		CacheDir: "plugins",
		WorkDir:  "plugins/_work",
		Retry: RetryConfig{
			MaxRetries: -1,
			Interval:   Duration(100 * time.Millisecond),
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c Config) Validate() error {
	if c.CacheDir == "" {
		return errors.New("cache_dir must not be empty")
	}
	if c.WorkDir == "" {
		return errors.New("work_dir must not be empty")
	}
	if c.Retry.Interval < 0 {
		return errors.New("retry.interval must not be negative")
	}
	return nil
}

// Duration is a time.Duration that unmarshals from either a duration
// string ("100ms") or a number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return d.set(s[1 : len(s)-1])
	}
	var secs float64
	if _, err := fmt.Sscanf(s, "%g", &secs); err != nil {
		return fmt.Errorf("invalid duration %s", s)
	}
	return d.set(secs)
}

// set converts a raw decoded value into a Duration.
func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
