// Package config loads the statekit.json configuration used by the
// inspector bridge CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "statekit.json"

	// DefaultPort is the default inspector bridge port.
	DefaultPort = 7331

	// DefaultHost is the default inspector bridge host.
	DefaultHost = "localhost"

	// DefaultHistory is the default time-travel history window.
	DefaultHistory = 100
)

// Config represents the complete statekit.json configuration.
type Config struct {
	// Name is the project name, used as the metrics namespace.
	Name string `json:"name,omitempty"`

	// Host is the bridge listen host.
	Host string `json:"host,omitempty"`

	// Port is the bridge listen port.
	Port int `json:"port,omitempty"`

	// History is the time-travel history window in entries.
	History int `json:"history,omitempty"`

	// ReadTimeoutSec bounds inspector connection silence, in seconds.
	ReadTimeoutSec int `json:"readTimeout,omitempty"`

	// WriteTimeoutSec bounds each outbound frame write, in seconds.
	WriteTimeoutSec int `json:"writeTimeout,omitempty"`

	// IndexAlwaysNotifies controls the sequence index-assignment
	// notification policy of reactive stores built by the CLI.
	IndexAlwaysNotifies *bool `json:"indexAlwaysNotifies,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Name:            "statekit",
		Host:            DefaultHost,
		Port:            DefaultPort,
		History:         DefaultHistory,
		ReadTimeoutSec:  60,
		WriteTimeoutSec: 10,
	}
}

// Load reads statekit.json from dir, applying defaults for missing
// fields. A missing file yields the defaults; a malformed or invalid file
// yields an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.configPath = path

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.History < 1 {
		return fmt.Errorf("history must be at least 1, got %d", c.History)
	}
	if c.ReadTimeoutSec < 1 || c.WriteTimeoutSec < 1 {
		return errors.New("timeouts must be at least 1 second")
	}
	return nil
}

// Addr returns the bridge listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReadTimeout returns the read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}
