package model

import "time"

// Week is an A/B week designator. The zero value means "no designator":
// records without one apply every week.
type Week string

const (
	WeekNone Week = ""
	WeekA    Week = "A"
	WeekB    Week = "B"
)

// String returns a human-readable representation of the designator.
func (w Week) String() string {
	if w == WeekNone {
		return "-"
	}
	return string(w)
}

// Matches reports whether a record tagged with w applies in the active week.
// Untagged records and an unset active week match everything.
func (w Week) Matches(active Week) bool {
	return w == WeekNone || active == WeekNone || w == active
}

// SchoolWeekWindow is one school week declared in the basis document. It
// selects the weekly plan file for every date between From and To inclusive.
type SchoolWeekWindow struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Week  Week      `json:"week,omitempty"`
}

// Contains reports whether the calendar date of t lies inside the window.
func (w SchoolWeekWindow) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	from := time.Date(w.From.Year(), w.From.Month(), w.From.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(w.To.Year(), w.To.Month(), w.To.Day(), 23, 59, 59, 0, time.UTC)
	return !d.Before(from) && !d.After(to)
}

// Basis is the content of the plan basis document: the class short names
// known to the school and the school week calendar.
type Basis struct {
	Classes []string           `json:"classes"`
	Weeks   []SchoolWeekWindow `json:"weeks"`
}
