package source

import (
	"fmt"
	"time"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/internal/xmltree"
)

// BasisFilename is the plan basis document published next to the weekly
// plans.
const BasisFilename = "SPlanKl_Basis.xml"

// ParseBasis reads the class list (Klassen/Kl/Kurz) and the school week
// calendar (Schulwochen/Sw) of a basis document. Weeks with a missing label
// or an unparseable date range are dropped.
func ParseBasis(root *xmltree.Node) model.Basis {
	var b model.Basis
	for _, k := range root.Select("Klassen", "Kl", "Kurz") {
		if c := k.Text(); c != "" {
			b.Classes = append(b.Classes, c)
		}
	}
	for _, sw := range root.Select("Schulwochen", "Sw") {
		label := sw.Text()
		from, okFrom := textnorm.ParseGermanDate(sw.Attr("SwDatumVon"))
		to, okTo := textnorm.ParseGermanDate(sw.Attr("SwDatumBis"))
		if label == "" || !okFrom || !okTo {
			continue
		}
		b.Weeks = append(b.Weeks, model.SchoolWeekWindow{
			Label: label,
			From:  from,
			To:    to,
			Week:  textnorm.NormalizeWeek(sw.Attr("SwWo")),
		})
	}
	return b
}

// FindSchoolWeek returns the window containing the date of t. When windows
// overlap the one starting last wins; equal starts keep document order.
func FindSchoolWeek(b model.Basis, t time.Time) (model.SchoolWeekWindow, bool) {
	var (
		best  model.SchoolWeekWindow
		found bool
	)
	for _, w := range b.Weeks {
		if !w.Contains(t) {
			continue
		}
		if !found || w.From.After(best.From) {
			best, found = w, true
		}
	}
	return best, found
}

// WeekPlanFilenames returns the candidate weekly plan files for a school week
// label: the label as published and its zero padded form.
func WeekPlanFilenames(label string) []string {
	raw := fmt.Sprintf("SPlanKl_Sw%s.xml", label)
	padded := fmt.Sprintf("SPlanKl_Sw%s.xml", textnorm.PadWeekLabel(label))
	if raw == padded {
		return []string{raw}
	}
	return []string{raw, padded}
}
