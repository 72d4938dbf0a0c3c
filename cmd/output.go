package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/splan/core/history"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/core/timetable"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (table, json or yaml)", f)
	}
}

func printStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// renderResult prints the grid with one column per configured day.
func renderResult(w io.Writer, res timetable.Result, days []string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = true
	header := table.Row{"Time"}
	today := textnorm.TodayIndex(days, res.At)
	for i, d := range days {
		if i == today {
			d += " *"
		}
		header = append(header, d)
	}
	tw.AppendHeader(header)
	for _, r := range res.Rows {
		row := table.Row{r.Time}
		if r.Break {
			for range days {
				row = append(row, r.Label)
			}
			tw.AppendRow(row, table.RowConfig{AutoMerge: true})
			continue
		}
		for _, c := range r.Cells {
			row = append(row, c)
		}
		tw.AppendRow(row)
	}
	caption := fmt.Sprintf("source: %s", orDash(string(res.Source)))
	if res.Week != "" {
		caption += fmt.Sprintf(", week %s", res.Week)
	}
	if res.Err != "" {
		caption += ", error: " + res.Err
	}
	tw.SetCaption(caption)
	tw.Render()
}

func renderHistory(w io.Writer, recs []history.Record) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Time", "Source", "Week", "Rows", "Error"})
	for _, r := range recs {
		tw.AppendRow(table.Row{
			r.ID,
			r.Time.Local().Format("2006-01-02 15:04:05"),
			orDash(string(r.Source)),
			orDash(r.Week),
			len(r.Result.Rows),
			truncate(r.Err, 60),
		})
	}
	tw.Render()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
