package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/internal/xmltree"
)

const changedFlag = "geaendert"

// SubstitutionFilename returns the daily substitution document of a date.
func SubstitutionFilename(t time.Time) string {
	return fmt.Sprintf("WPlanKl_%s.xml", textnorm.FormatCompactDate(t))
}

// ParseSubstitutions extracts the lessons of a daily substitution document
// and assigns them to day (1=Monday). When the document groups lessons by
// class (Klassen/Kl) and kind is PlanClass, only the classes matching ident
// are read; teacher and room plans keep the entries naming ident.
func ParseSubstitutions(root *xmltree.Node, day int, kind PlanKind, ident string) []model.LessonRecord {
	ident = strings.TrimSpace(ident)
	scopes := []*xmltree.Node{root}
	if kind == PlanClass && ident != "" {
		if kls := root.Select("Klassen", "Kl"); len(kls) > 0 {
			scopes = scopes[:0]
			for _, kl := range kls {
				if textnorm.MatchClass(kl.ChildText("Kurz"), ident) {
					scopes = append(scopes, kl)
				}
			}
		}
	}
	var out []model.LessonRecord
	for _, scope := range scopes {
		for _, std := range scope.FindAll("Std") {
			rec, ok := substitution(std, day)
			if !ok {
				continue
			}
			if kind != PlanClass && !keep(rec, "", kind, ident) {
				continue
			}
			out = append(out, rec)
		}
	}
	return out
}

func substitution(std *xmltree.Node, day int) (model.LessonRecord, bool) {
	hour := std.ChildInt("St")
	if hour <= 0 {
		return model.LessonRecord{}, false
	}
	fa, le, ra := std.Find("Fa"), std.Find("Le"), std.Find("Ra")
	return model.LessonRecord{
		Day:            day,
		Hour:           hour,
		Subject:        fa.Text(),
		Teacher:        le.Text(),
		Room:           ra.Text(),
		Info:           std.ChildText("If"),
		Start:          std.ChildText("Beginn"),
		End:            std.ChildText("Ende"),
		ChangedSubject: changed(fa, "FaAe"),
		ChangedTeacher: changed(le, "LeAe"),
		ChangedRoom:    changed(ra, "RaAe"),
	}, true
}

func changed(n *xmltree.Node, attr string) bool {
	return strings.Contains(strings.ToLower(n.Attr(attr)), changedFlag)
}
