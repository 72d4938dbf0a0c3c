package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/splan/core/metrics"
	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/infra/entities"
	"github.com/kilianp07/splan/infra/mqtt"
	"github.com/kilianp07/splan/infra/splan"
	"github.com/kilianp07/splan/infra/store"
)

// EnvPrefix prefixes environment overrides; "__" separates nested keys, e.g.
// SPLAN_TIMETABLE__SPLAN__CLASS=5a.
const EnvPrefix = "SPLAN_"

type Config struct {
	Timetable timetable.Config  `json:"timetable"`
	Fetch     splan.FetchConfig `json:"fetch"`
	MQTT      mqtt.Config       `json:"mqtt"`
	Entities  entities.Config   `json:"entities"`
	Metrics   metrics.Config    `json:"metrics"`
	Store     store.Config      `json:"store"`
	Logging   LoggingConfig     `json:"logging"`
	Service   ServiceConfig     `json:"service"`
}

// Load reads the file at path (yaml or json), applies SPLAN_ environment
// overrides, fills defaults and validates every section. An empty path
// loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Timetable.SetDefaults()
	c.Fetch.SetDefaults()
	c.MQTT.SetDefaults()
	c.Store.SetDefaults()
	c.Logging.SetDefaults()
	c.Service.SetDefaults()
}

// Validate checks every section and prefixes errors with the section name.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"timetable", c.Timetable.Validate},
		{"fetch", c.Fetch.Validate},
		{"mqtt", c.MQTT.Validate},
		{"entities", c.Entities.Validate},
		{"store", c.Store.Validate},
		{"logging", c.Logging.Validate},
		{"service", c.Service.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}
