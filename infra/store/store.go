// Package store provides the resolution history backends.
package store

import (
	"fmt"
	"strings"

	"github.com/kilianp07/splan/core/history"
)

// Backends.
const (
	BackendNone   = "none"
	BackendSQLite = "sqlite"
	BackendJSONL  = "jsonl"
)

// Config selects and configures the history backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies an SQLite database under the working directory.
func (c *Config) SetDefaults() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendJSONL:
			c.Path = "splan-history.jsonl"
		default:
			c.Path = "splan-history.db"
		}
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 30
	}
}

// Validate rejects unknown backends.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendSQLite, BackendJSONL:
		return nil
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Backend)
	}
}

// New opens the configured backend.
func New(cfg Config) (history.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendJSONL:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	default:
		return history.NopStore{}, nil
	}
}
