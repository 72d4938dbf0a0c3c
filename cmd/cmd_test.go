package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/splan/core/history"
	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/timetable"
)

const manualConfig = `timetable:
  days: [Mo, Di]
  rows:
    - time: "1. 08:00-08:45"
      cells: ["Ma", "De"]
    - break: true
      time: "08:45"
      label: "Pause"
    - time: "2. 08:50-09:35"
      cells: ["En", ""]
  week:
    mode: kw_parity
store:
  backend: none
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manualConfig), 0o644))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", path}, args...))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestResolveCommandJSON(t *testing.T) {
	out := execute(t, "resolve", "-o", "json", "--date", "2026-02-11")
	var res timetable.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, timetable.SourceManual, res.Source)
	require.Len(t, res.Rows, 3)
	assert.True(t, res.Rows[1].Break)
	assert.Equal(t, []string{"Ma", "De"}, res.Rows[0].Cells)
}

func TestResolveCommandYAML(t *testing.T) {
	out := execute(t, "resolve", "-o", "yaml", "--date", "2026-02-11")
	var res map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, "manual", res["source"])
}

func TestResolveCommandTable(t *testing.T) {
	out := execute(t, "resolve", "--date", "2026-02-11", "-o", "table")
	assert.Contains(t, out, "Ma")
	assert.Contains(t, out, "Pause")
	assert.Contains(t, out, "source: manual")
}

func TestResolveCommandMarksToday(t *testing.T) {
	out := execute(t, "resolve", "--date", "2026-02-10", "-o", "table")
	assert.Contains(t, out, "DI *")
	assert.NotContains(t, out, "MO *")
}

func TestWeekCommand(t *testing.T) {
	out := execute(t, "week", "--date", "2026-02-11")
	assert.Contains(t, out, "week:   2026/07")
	assert.Contains(t, out, "mode:   kw_parity")
	assert.Contains(t, out, "active: B")
}

func TestHistoryCommandEmpty(t *testing.T) {
	out := execute(t, "history", "-o", "json", "--limit", "5")
	assert.Equal(t, "null", strings.TrimSpace(out))
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-02-11")
	require.NoError(t, err)
	assert.Equal(t, 12, d.Hour())
	assert.Equal(t, time.Month(2), d.Month())

	_, err = parseDate("11.02.2026")
	assert.Error(t, err)
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("yaml"))
	assert.Error(t, checkFormat("xml"))
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, []history.Record{{
		ID: 7, Time: time.Date(2026, 2, 11, 8, 0, 0, 0, time.UTC), Source: timetable.SourceSplan, Week: "A",
		Err: strings.Repeat("x", 80), Result: timetable.Result{Rows: []model.Row{{Time: "1."}}},
	}})
	out := buf.String()
	assert.Contains(t, out, "splan")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("x", 61))
}
