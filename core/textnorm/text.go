package textnorm

import (
	"strings"

	"github.com/kilianp07/splan/core/model"
)

// ChangedMarker prefixes a cell whose subject, teacher or room was changed by
// a substitution.
const ChangedMarker = "🔁 "

// Clean replaces non-breaking spaces and trims surrounding whitespace.
func Clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

// IsCancelled reports whether a resolved cell shows no lesson: empty, a dash,
// a "---" marker or text starting with "AUSFALL".
func IsCancelled(s string) bool {
	t := strings.TrimSpace(s)
	switch {
	case t == "", t == "-", t == "–":
		return true
	case strings.HasPrefix(t, "---"):
		return true
	case strings.HasPrefix(strings.ToUpper(t), "AUSFALL"):
		return true
	}
	return false
}

// NormalizeWeek maps "a"/"B"/" A " to a designator. Any other value is
// WeekNone.
func NormalizeWeek(s string) model.Week {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return model.WeekA
	case "B":
		return model.WeekB
	}
	return model.WeekNone
}

// SubjectWithInfo joins a subject and an info line. A missing or "AUSFALL"
// subject is rendered as the "---" cancellation marker.
func SubjectWithInfo(subject, info string) string {
	s := strings.TrimSpace(subject)
	i := strings.TrimSpace(info)
	if s == "" || strings.EqualFold(s, "AUSFALL") {
		s = "---"
	}
	if i == "" {
		return s
	}
	return s + "\n" + i
}
