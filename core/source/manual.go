package source

import (
	"strings"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
)

// ManualRow is a row as authored in configuration. Break rows only use Time
// and Label.
type ManualRow struct {
	Break      bool               `json:"break"`
	Time       string             `json:"time"`
	Label      string             `json:"label"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Cells      []string           `json:"cells"`
	CellStyles []*model.CellStyle `json:"cell_styles"`
}

// times returns the explicit start/end, falling back to a range embedded in
// the time label.
func (r ManualRow) times() (start, end string) {
	start = strings.TrimSpace(r.Start)
	end = strings.TrimSpace(r.End)
	if start == "" || end == "" {
		s, e, _ := textnorm.ParseTimeRange(r.Time)
		if start == "" {
			start = s
		}
		if end == "" {
			end = e
		}
	}
	return start, end
}

// ManualRows normalises authored rows: every lesson row gets exactly one cell
// per day and start/end taken from the label when not given explicitly.
func ManualRows(rows []ManualRow, days []string) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if r.Break {
			out = append(out, model.NewBreakRow(r.Time, r.Label))
			continue
		}
		start, end := r.times()
		row := model.NewLessonRow(r.Time, start, end, r.Cells, len(days))
		row.CellStyles = normalizeStyles(r.CellStyles, len(days))
		out = append(out, row)
	}
	return out
}

// ManualHourTimes maps the hour number of every lesson row whose label starts
// with "N." to the times it declares. Rows without any time are skipped.
func ManualHourTimes(rows []ManualRow) map[int]model.HourTimeSpec {
	out := make(map[int]model.HourTimeSpec)
	for _, r := range rows {
		if r.Break {
			continue
		}
		h, ok := textnorm.ParseHourLabel(r.Time)
		if !ok {
			continue
		}
		start, end := r.times()
		if start == "" && end == "" {
			continue
		}
		if _, seen := out[h]; !seen {
			out[h] = model.HourTimeSpec{Start: start, End: end}
		}
	}
	return out
}

func normalizeStyles(in []*model.CellStyle, n int) []*model.CellStyle {
	out := make([]*model.CellStyle, n)
	set := false
	for i := 0; i < n && i < len(in); i++ {
		out[i] = normalizeStyle(in[i])
		set = set || out[i] != nil
	}
	if !set {
		return nil
	}
	return out
}

func normalizeStyle(s *model.CellStyle) *model.CellStyle {
	if s == nil {
		return nil
	}
	c := model.CellStyle{
		BG:     strings.TrimSpace(s.BG),
		Color:  strings.TrimSpace(s.Color),
		Border: strings.TrimSpace(s.Border),
	}
	if s.BGAlpha != nil {
		a := min(1, max(0, *s.BGAlpha))
		c.BGAlpha = &a
	}
	if c.BG == "" && c.Color == "" && c.Border == "" && c.BGAlpha == nil {
		return nil
	}
	return &c
}
