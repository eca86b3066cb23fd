/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the gridstate server configuration from a TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends understood by storage.Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendPebble = "pebble"
)

// Duration wraps time.Duration so it can be written as "300ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration back in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the top level configuration document.
type Config struct {
	Listen  string        `toml:"listen"`
	Log     LogConfig     `toml:"log"`
	Storage StorageConfig `toml:"storage"`
	Table   TableConfig   `toml:"table"`
	Users   UsersConfig   `toml:"users"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `toml:"level"`       // debug, info, warn, error
	Development bool   `toml:"development"` // console encoder instead of JSON
	File        string `toml:"file"`        // rotate into this file when set
	MaxSizeMB   int    `toml:"max_size_mb"`
	MaxBackups  int    `toml:"max_backups"`
}

// StorageConfig selects where persisted table preferences live.
type StorageConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	// Watch enables fsnotify change notifications for the file backend.
	Watch bool `toml:"watch"`
}

// TableConfig holds defaults applied to every table mount.
type TableConfig struct {
	PageSize       int      `toml:"page_size"`
	PageSizes      []int    `toml:"page_sizes"`
	SearchDebounce Duration `toml:"search_debounce"`
}

// UsersConfig points at user profile YAML files. Empty uses the embedded demo profiles.
type UsersConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:8097",
		Log: LogConfig{
			Level:       "info",
			Development: true,
			MaxSizeMB:   50,
			MaxBackups:  3,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Table: TableConfig{
			PageSize:       10,
			PageSizes:      []int{10, 25, 50, 100},
			SearchDebounce: Duration{300 * time.Millisecond},
		},
	}
}

// Load reads path on top of Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile, BackendPebble:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage backend %q requires storage.dir", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Table.PageSize <= 0 {
		return fmt.Errorf("table.page_size must be positive, got %d", c.Table.PageSize)
	}
	if c.Table.SearchDebounce.Duration < 0 {
		return fmt.Errorf("table.search_debounce must not be negative")
	}
	return nil
}
