package config

import (
	"fmt"
	"time"
)

// ServiceConfig holds the timers of the long-running service.
type ServiceConfig struct {
	// RefreshMinutes is the upstream reload interval.
	RefreshMinutes int `json:"refresh_minutes"`
	// ResolveSeconds is the re-resolution interval; the result depends on the
	// current date and entity states even without new documents.
	ResolveSeconds int `json:"resolve_seconds"`
	// WatchConfig reloads the configuration file when it changes.
	WatchConfig *bool `json:"watch_config"`
}

// SetDefaults applies sane defaults.
func (c *ServiceConfig) SetDefaults() {
	if c.RefreshMinutes <= 0 {
		c.RefreshMinutes = 10
	}
	if c.ResolveSeconds <= 0 {
		c.ResolveSeconds = 30
	}
	if c.WatchConfig == nil {
		v := true
		c.WatchConfig = &v
	}
}

// Validate checks mandatory fields.
func (c ServiceConfig) Validate() error {
	if c.ResolveSeconds > c.RefreshMinutes*60 {
		return fmt.Errorf("resolve_seconds (%d) exceeds refresh interval", c.ResolveSeconds)
	}
	return nil
}

// RefreshInterval returns the upstream reload interval.
func (c ServiceConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMinutes) * time.Minute
}

// ResolveInterval returns the re-resolution interval.
func (c ServiceConfig) ResolveInterval() time.Duration {
	return time.Duration(c.ResolveSeconds) * time.Second
}

// Watch reports whether the config file is watched.
func (c ServiceConfig) Watch() bool { return c.WatchConfig == nil || *c.WatchConfig }
