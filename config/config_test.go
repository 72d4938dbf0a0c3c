package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/splan/core/source"
	"github.com/kilianp07/splan/core/timetable"
	"github.com/kilianp07/splan/core/week"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `timetable:
  days: ["Mo", "Di", "Mi"]
  rows:
    - time: "1. 08:00-08:45"
      cells: ["Ma", "De", "En"]
    - break: true
      time: "09:30"
      label: "Hofpause"
  week:
    mode: kw_parity
    a_is_even: false
  splan:
    enabled: true
    school_id: "10000000"
    class: "5a"
    plan_kind: teacher
    sub_days: 30
  filter:
    allow_prefixes: ["5a"]
fetch:
  username: "user"
  password: "pass"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  qos: 1
entities:
  topics:
    input_text.week_map: "home/week_map"
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9102"
store:
  backend: jsonl
logging:
  level: DEBUG
service:
  refresh_minutes: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"days", len(cfg.Timetable.Days), 3},
		{"rows", len(cfg.Timetable.Rows), 2},
		{"break", cfg.Timetable.Rows[1].Break, true},
		{"week.mode", cfg.Timetable.Week.Mode, week.ModeParity},
		{"a_is_even", *cfg.Timetable.Week.AIsEven, false},
		{"splan.class", cfg.Timetable.Splan.Class, "5a"},
		{"plan_kind", cfg.Timetable.Splan.PlanKind, source.PlanTeacher},
		{"sub_days clamped", cfg.Timetable.Splan.SubDays, timetable.MaxSubDays},
		{"format default", cfg.Timetable.Splan.Format, timetable.FormatAuto},
		{"time_key default", cfg.Timetable.Source.TimeKey, source.DefaultTimeKey},
		{"fetch.username", cfg.Fetch.Username, "user"},
		{"fetch.timeout", cfg.Fetch.TimeoutSeconds, 20},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "splan"},
		{"entity topic", cfg.Entities.Topics["input_text.week_map"], "home/week_map"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9102"},
		{"store.path", cfg.Store.Path, "splan-history.jsonl"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"refresh", cfg.Service.RefreshMinutes, 5},
		{"resolve", cfg.Service.ResolveSeconds, 30},
		{"watch", cfg.Service.Watch(), true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"timetable":{"splan":{"enabled":true,"class":"5a"}}}`)
	t.Setenv("SPLAN_TIMETABLE__SPLAN__CLASS", "6b")
	t.Setenv("SPLAN_LOGGING__LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "6b", cfg.Timetable.Splan.Class)
	assert.True(t, cfg.Timetable.Splan.Enabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, timetable.DefaultDays, cfg.Timetable.Days)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeConfig(t, "config.yaml", "logging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "logging")

	_, err = Load(writeConfig(t, "config.yaml", "mqtt:\n  enabled: true\n"))
	assert.ErrorContains(t, err, "mqtt: broker is required")

	_, err = Load(writeConfig(t, "config.yaml", "timetable:\n  splan:\n    format: csv\n"))
	assert.ErrorContains(t, err, "timetable")

	_, err = Load(writeConfig(t, "config.yaml", "service:\n  refresh_minutes: 1\n  resolve_seconds: 120\n"))
	assert.ErrorContains(t, err, "service")
}
