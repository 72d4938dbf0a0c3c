package timetable

import (
	"time"

	"github.com/kilianp07/splan/core/model"
)

// FetchState is everything the data loader fetched for one pass. The
// resolution pipeline only reads it.
type FetchState struct {
	Basis       *model.Basis         `json:"basis,omitempty"`
	WeekLessons []model.LessonRecord `json:"week_lessons,omitempty"`
	// Substitutions holds daily overrides keyed by weekday (1=Monday).
	Substitutions map[int][]model.LessonRecord `json:"substitutions,omitempty"`
	Mobile        *model.MobileWeek            `json:"mobile,omitempty"`
	// WeekLabel is the school week the weekly plan was selected for.
	WeekLabel string `json:"week_label,omitempty"`
	// Documents lists the upstream documents that were loaded.
	Documents []string `json:"documents,omitempty"`
	// Err describes why the XML chain could not be resolved.
	Err       string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// EntityLookup reads entity states from an external key-value store. An
// empty attribute selects the state itself.
type EntityLookup interface {
	Entity(id, attribute string) (any, bool)
}

// Source names the precedence level a result was taken from.
type Source string

const (
	SourceNone    Source = ""
	SourceSplan   Source = "splan"
	SourceMobile  Source = "mobile"
	SourceEntityA Source = "entity_a"
	SourceEntityB Source = "entity_b"
	SourceEntity  Source = "entity"
	SourceManual  Source = "manual"
)

// Result is the outcome of one resolution pass.
type Result struct {
	Rows   []model.Row `json:"rows"`
	Source Source      `json:"source"`
	Week   model.Week  `json:"week,omitempty"`
	Err    string      `json:"error,omitempty"`
	At     time.Time   `json:"at"`
}
