package mqtt

import (
	"strings"
	"time"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/core/timetable"
)

// State values of the timetable sensor.
const (
	StateOK    = "ok"
	StateError = "error"
)

// Meta describes where a published timetable came from. TodayIndex is the
// day column of the resolution date, -1 when no column matches.
type Meta struct {
	SchoolID    string    `json:"school_id,omitempty"`
	Class       string    `json:"class,omitempty"`
	PlanKind    string    `json:"plan_kind,omitempty"`
	Format      string    `json:"format,omitempty"`
	WeekLabel   string    `json:"week_label,omitempty"`
	Days        []string  `json:"days"`
	TodayIndex  int       `json:"today_index"`
	ShowRoom    bool      `json:"show_room"`
	ShowTeacher bool      `json:"show_teacher"`
	Documents   []string  `json:"documents,omitempty"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
}

// StateMessage is the retained payload of the state topic.
type StateMessage struct {
	State     string           `json:"state"`
	Error     string           `json:"error,omitempty"`
	Source    string           `json:"source"`
	Week      string           `json:"week"`
	UpdatedAt time.Time        `json:"updated_at"`
	Rows      []model.Row      `json:"rows"`
	RowsHA    []map[string]any `json:"rows_ha"`
	Meta      Meta             `json:"meta"`
}

// NewStateMessage builds the state payload of a resolution result. rows_ha
// carries one key per day with the first "/" token of the cell, which is
// what dashboards show for the viewer's own lesson.
func NewStateMessage(res timetable.Result, cfg timetable.Config, st *timetable.FetchState) StateMessage {
	msg := StateMessage{
		State:     StateOK,
		Error:     res.Err,
		Source:    string(res.Source),
		Week:      res.Week.String(),
		UpdatedAt: res.At,
		Rows:      res.Rows,
		RowsHA:    make([]map[string]any, 0, len(res.Rows)),
		Meta: Meta{
			Days:        cfg.Days,
			TodayIndex:  textnorm.TodayIndex(cfg.Days, res.At),
			ShowRoom:    cfg.Splan.ShowsRoom(),
			ShowTeacher: cfg.Splan.ShowTeacher,
		},
	}
	if res.Err != "" {
		msg.State = StateError
	}
	if msg.Rows == nil {
		msg.Rows = []model.Row{}
	}
	if cfg.Splan.Enabled {
		msg.Meta.SchoolID = cfg.Splan.SchoolID
		msg.Meta.Class = cfg.Splan.Class
		msg.Meta.PlanKind = string(cfg.Splan.PlanKind)
		msg.Meta.Format = string(cfg.Splan.Format)
	}
	if st != nil {
		msg.Meta.WeekLabel = st.WeekLabel
		msg.Meta.Documents = st.Documents
		msg.Meta.FetchedAt = st.FetchedAt
	}
	for _, r := range res.Rows {
		msg.RowsHA = append(msg.RowsHA, haRow(r, cfg.Days))
	}
	return msg
}

func haRow(r model.Row, days []string) map[string]any {
	if r.Break {
		return map[string]any{"time": r.Time, "break": true, "label": r.Label}
	}
	out := map[string]any{"time": r.Time, "start": r.Start, "end": r.End}
	for i, d := range days {
		cell := ""
		if i < len(r.Cells) {
			cell = firstToken(r.Cells[i])
		}
		out[d] = cell
	}
	return out
}

func firstToken(cell string) string {
	line, _, _ := strings.Cut(cell, "\n")
	for _, p := range strings.Split(line, "/") {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return ""
}
