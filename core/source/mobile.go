package source

import (
	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
)

// MobileLessons groups a mobile week by ISO weekday (1=Monday). Days whose
// date cannot be parsed are skipped; a later date on the same weekday
// replaces the earlier one. order lists the weekdays by first appearance.
func MobileLessons(w model.MobileWeek) (byDay map[int][]model.LessonRecord, order []int) {
	byDay = make(map[int][]model.LessonRecord)
	for _, d := range w.Days {
		t, ok := textnorm.ParseCompactDate(d.Date)
		if !ok {
			continue
		}
		wd := textnorm.ISOWeekday(t)
		if _, seen := byDay[wd]; !seen {
			order = append(order, wd)
		}
		recs := make([]model.LessonRecord, 0, len(d.Lessons))
		for _, l := range d.Lessons {
			if l.Hour <= 0 {
				continue
			}
			recs = append(recs, model.LessonRecord{
				Day:     wd,
				Hour:    int(l.Hour),
				Subject: textnorm.Clean(l.Subject),
				Teacher: textnorm.Clean(l.Teacher),
				Room:    textnorm.Clean(l.Room),
				Info:    textnorm.Clean(l.Info),
				Start:   textnorm.Clean(l.Start),
				End:     textnorm.Clean(l.End),
			})
		}
		byDay[wd] = recs
	}
	return byDay, order
}
