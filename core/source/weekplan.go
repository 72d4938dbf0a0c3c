package source

import (
	"strings"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/internal/xmltree"
)

// PlanKind selects whose timetable is extracted from a weekly plan.
type PlanKind string

const (
	PlanClass   PlanKind = "class"
	PlanTeacher PlanKind = "teacher"
	PlanRoom    PlanKind = "room"
)

// ParsePlanKind maps a configuration value to a PlanKind, defaulting to
// PlanClass.
func ParsePlanKind(s string) PlanKind {
	switch PlanKind(strings.ToLower(strings.TrimSpace(s))) {
	case PlanTeacher:
		return PlanTeacher
	case PlanRoom:
		return PlanRoom
	}
	return PlanClass
}

// ParseWeekPlan extracts the lessons of a weekly plan document (Std entries
// with PlTg, PlSt, PlFa, PlLe, PlRa, PlWo and PlKl) for one class, teacher or
// room. An empty ident keeps every entry. Entries without day, hour or any
// of subject, teacher and room are skipped.
func ParseWeekPlan(root *xmltree.Node, kind PlanKind, ident string) []model.LessonRecord {
	ident = strings.TrimSpace(ident)
	var out []model.LessonRecord
	for _, std := range root.FindAll("Std") {
		day, hour := std.ChildInt("PlTg"), std.ChildInt("PlSt")
		if day <= 0 || hour <= 0 {
			continue
		}
		rec := model.LessonRecord{
			Day:     day,
			Hour:    hour,
			Subject: std.ChildText("PlFa"),
			Teacher: std.ChildText("PlLe"),
			Room:    std.ChildText("PlRa"),
			Week:    textnorm.NormalizeWeek(std.ChildText("PlWo")),
		}
		if !keep(rec, std.ChildText("PlKl"), kind, ident) || rec.Empty() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func keep(rec model.LessonRecord, class string, kind PlanKind, ident string) bool {
	if ident == "" {
		return true
	}
	switch kind {
	case PlanTeacher:
		return textnorm.MatchIdent(rec.Teacher, ident)
	case PlanRoom:
		return textnorm.MatchIdent(rec.Room, ident)
	default:
		return class == "" || textnorm.MatchClass(class, ident)
	}
}
