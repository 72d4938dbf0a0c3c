package timetable

import (
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/splan/core/filter"
	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/source"
	"github.com/kilianp07/splan/core/textnorm"
	"github.com/kilianp07/splan/core/timegrid"
)

// hourRow is a rendered lesson row with the period it belongs to. When raw is
// set, collapsing looks at those unfiltered cells instead of the row's.
type hourRow struct {
	hour int
	row  model.Row
	raw  []string
}

func xmlRows(cfg Config, state *FetchState, wk model.Week, f *filter.Filter, now time.Time) []model.Row {
	manual := source.ManualHourTimes(cfg.Rows)
	hours := hourSet(manual)
	for _, l := range state.WeekLessons {
		if l.Hour > 0 {
			hours[l.Hour] = struct{}{}
		}
	}
	ordered := sortedHours(hours)
	grid := timegrid.Build(ordered, manual)
	columns := textnorm.WeekdayNumbers(cfg.Days)
	today := textnorm.ISOWeekday(now)

	var rows []hourRow
	for _, h := range ordered {
		cells := make([]string, len(columns))
		for i, day := range columns {
			if day == 0 {
				continue
			}
			var base []model.LessonRecord
			for _, l := range state.WeekLessons {
				if l.Day == day && l.Hour == h && l.Week.Matches(wk) {
					base = append(base, l)
				}
			}
			var texts []string
			if sub, ok := findHour(state.Substitutions[day], h); ok && day == today {
				texts = append(texts, cfg.overlay(sub, base))
			} else {
				for _, b := range base {
					texts = append(texts, cfg.lessonText(b.Subject, b.Room, b.Teacher))
				}
			}
			cells[i] = f.Apply(joinUnique(texts))
		}
		rows = append(rows, hourRow{hour: h, row: gridRow(h, grid[h], cells)})
	}
	return withBreaks(cfg.Rows, collapse(rows, manual))
}

func mobileRows(cfg Config, w model.MobileWeek, f *filter.Filter) []model.Row {
	byDay, order := source.MobileLessons(w)
	manual := source.ManualHourTimes(cfg.Rows)
	hours := hourSet(manual)
	for _, recs := range byDay {
		for _, l := range recs {
			hours[l.Hour] = struct{}{}
		}
	}
	ordered := sortedHours(hours)
	if len(ordered) == 0 {
		return nil
	}

	partial := make(map[int]model.HourTimeSpec, len(ordered))
	for _, h := range ordered {
		spec := manual[h]
		if t, ok := lessonTimes(byDay, order, h); ok {
			spec.Start = fallback(t.Start, spec.Start)
			spec.End = fallback(t.End, spec.End)
		}
		partial[h] = spec
	}
	grid := timegrid.Build(ordered, partial)
	columns := textnorm.WeekdayNumbers(cfg.Days)

	var rows []hourRow
	for _, h := range ordered {
		cells := make([]string, len(columns))
		raw := make([]string, len(columns))
		for i, day := range columns {
			if l, ok := findHour(byDay[day], h); ok {
				raw[i] = cfg.mobileText(l)
				cells[i] = f.Apply(raw[i])
			}
		}
		rows = append(rows, hourRow{hour: h, row: gridRow(h, grid[h], cells), raw: raw})
	}
	return withBreaks(cfg.Rows, collapse(rows, manual))
}

// lessonTimes returns the times of the first lesson at hour h carrying any,
// scanning days in document order.
func lessonTimes(byDay map[int][]model.LessonRecord, order []int, h int) (model.HourTimeSpec, bool) {
	for _, d := range order {
		if l, ok := findHour(byDay[d], h); ok && (l.Start != "" || l.End != "") {
			return model.HourTimeSpec{Start: l.Start, End: l.End}, true
		}
	}
	return model.HourTimeSpec{}, false
}

func findHour(recs []model.LessonRecord, h int) (model.LessonRecord, bool) {
	for _, r := range recs {
		if r.Hour == h {
			return r, true
		}
	}
	return model.LessonRecord{}, false
}

// lessonText renders "subject (room · teacher)" according to the show flags.
func (c Config) lessonText(subject, room, teacher string) string {
	subject = strings.TrimSpace(subject)
	var extra []string
	if room = strings.TrimSpace(room); c.Splan.ShowsRoom() && room != "" {
		extra = append(extra, room)
	}
	if teacher = strings.TrimSpace(teacher); c.Splan.ShowTeacher && teacher != "" {
		extra = append(extra, teacher)
	}
	if len(extra) == 0 {
		return subject
	}
	return subject + " (" + strings.Join(extra, " · ") + ")"
}

// overlay renders a substitution over the base lessons of the same slot.
// Empty substitution fields fall back to the first base lesson.
func (c Config) overlay(sub model.LessonRecord, base []model.LessonRecord) string {
	var first model.LessonRecord
	if len(base) > 0 {
		first = base[0]
	}
	text := c.lessonText(
		fallback(sub.Subject, first.Subject),
		fallback(sub.Room, first.Room),
		fallback(sub.Teacher, first.Teacher),
	)
	if sub.Changed() {
		text = textnorm.ChangedMarker + text
	}
	if c.Splan.ShowsInfo() && sub.Info != "" {
		text += "\n" + sub.Info
	}
	return strings.TrimSpace(text)
}

// mobileText renders a mobile lesson: the subject with its info line and the
// room/teacher suffix on the first line. Cancelled lessons stay bare.
func (c Config) mobileText(l model.LessonRecord) string {
	text := textnorm.SubjectWithInfo(l.Subject, l.Info)
	if strings.HasPrefix(text, "---") {
		return text
	}
	first, rest, hasRest := strings.Cut(text, "\n")
	line := c.lessonText(first, l.Room, l.Teacher)
	if hasRest {
		return line + "\n" + rest
	}
	return line
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func joinUnique(texts []string) string {
	seen := make(map[string]bool, len(texts))
	var out []string
	for _, t := range texts {
		if strings.TrimSpace(t) == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return strings.Join(out, " / ")
}

func hourSet(manual map[int]model.HourTimeSpec) map[int]struct{} {
	hours := make(map[int]struct{}, len(manual))
	for h := range manual {
		hours[h] = struct{}{}
	}
	return hours
}

func sortedHours(hours map[int]struct{}) []int {
	out := make([]int, 0, len(hours))
	for h := range hours {
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

func gridRow(h int, spec model.HourTimeSpec, cells []string) model.Row {
	start, end := strings.TrimSpace(spec.Start), strings.TrimSpace(spec.End)
	return model.Row{
		Time:  textnorm.HourLabel(h, start, end),
		Start: start,
		End:   end,
		Cells: cells,
	}
}

// collapse drops periods where every cell is cancelled, unless the period has
// manually configured times.
func collapse(rows []hourRow, manual map[int]model.HourTimeSpec) []hourRow {
	out := rows[:0]
	for _, r := range rows {
		cells := r.raw
		if cells == nil {
			cells = r.row.Cells
		}
		if _, ok := manual[r.hour]; ok || hasLesson(cells) {
			out = append(out, r)
		}
	}
	return out
}

func hasLesson(cells []string) bool {
	for _, c := range cells {
		if !textnorm.IsCancelled(c) {
			return true
		}
	}
	return false
}

// withBreaks interleaves the manual break rows into a generated grid. A
// break follows the rendered period with the greatest hour not after the
// hour of the manual row preceding it; breaks without such a period lead.
func withBreaks(manual []source.ManualRow, rows []hourRow) []model.Row {
	if len(rows) == 0 {
		return nil
	}
	var lead []model.Row
	after := make(map[int][]model.Row)
	anchor := 0
	for _, m := range manual {
		if !m.Break {
			if h, ok := textnorm.ParseHourLabel(m.Time); ok {
				anchor = h
			}
			continue
		}
		br := model.NewBreakRow(m.Time, m.Label)
		idx := -1
		for i, r := range rows {
			if r.hour <= anchor {
				idx = i
			}
		}
		if idx < 0 {
			lead = append(lead, br)
			continue
		}
		after[idx] = append(after[idx], br)
	}

	out := append([]model.Row(nil), lead...)
	for i, r := range rows {
		out = append(out, r.row)
		out = append(out, after[i]...)
	}
	return out
}
