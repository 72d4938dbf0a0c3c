package source

import (
	"fmt"
	"time"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/internal/xmltree"
)

// MobileDayFilename returns the per-day class plan of the mobile export.
func MobileDayFilename(t time.Time) string {
	return fmt.Sprintf("PlanKl%s.xml", textnorm.FormatCompactDate(t))
}

// ParseClassDay reads the lessons of one class from a per-day class plan
// (Klassen/Kl with Kurz and Pl/Std entries). The class is looked up under
// every spelling returned by textnorm.ClassVariants. A lesson without a
// subject shows its info text instead.
func ParseClassDay(root *xmltree.Node, class string) ([]model.MobileLesson, bool) {
	kl := findClass(root, class)
	if kl == nil {
		return nil, false
	}
	var out []model.MobileLesson
	for _, std := range kl.Select("Pl", "Std") {
		hour := std.ChildInt("St")
		if hour <= 0 {
			continue
		}
		l := model.MobileLesson{
			Hour:    model.HourNumber(hour),
			Subject: std.ChildText("Fa"),
			Teacher: std.ChildText("Le"),
			Room:    std.ChildText("Ra"),
			Info:    std.ChildText("If"),
			Start:   std.ChildText("Beginn"),
			End:     std.ChildText("Ende"),
		}
		if l.Subject == "" {
			l.Subject, l.Info = l.Info, ""
		}
		if l.Subject == "" && l.Info == "" {
			continue
		}
		out = append(out, l)
	}
	return out, true
}

func findClass(root *xmltree.Node, class string) *xmltree.Node {
	kls := root.Select("Klassen", "Kl")
	for _, v := range textnorm.ClassVariants(class) {
		for _, kl := range kls {
			if kl.ChildText("Kurz") == v {
				return kl
			}
		}
	}
	return nil
}
