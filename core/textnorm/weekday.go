package textnorm

import (
	"strings"
	"time"
)

var weekdayAliases = map[int][]string{
	1: {"mo", "mon", "monday", "montag"},
	2: {"di", "die", "tue", "tues", "tuesday", "dienstag"},
	3: {"mi", "wed", "wednesday", "mittwoch"},
	4: {"do", "thu", "thur", "thurs", "thursday", "donnerstag"},
	5: {"fr", "fri", "friday", "freitag"},
	6: {"sa", "sat", "saturday", "samstag"},
	7: {"so", "sun", "sunday", "sonntag"},
}

var weekdayByAlias = func() map[string]int {
	m := make(map[string]int)
	for day, names := range weekdayAliases {
		for _, n := range names {
			m[n] = day
		}
	}
	return m
}()

func dayKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), "")
}

// WeekdayNumber maps a German or English day name or abbreviation
// ("Mo", "Di.", "Thursday") to 1=Monday..7=Sunday.
func WeekdayNumber(name string) (int, bool) {
	d, ok := weekdayByAlias[dayKey(name)]
	return d, ok
}

// WeekdayNumbers maps every configured day name, 0 for unknown names.
func WeekdayNumbers(days []string) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i], _ = WeekdayNumber(d)
	}
	return out
}

// ISOWeekday returns 1=Monday..7=Sunday for t.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// TodayIndex returns the index of the configured day column matching t, or -1.
func TodayIndex(days []string, t time.Time) int {
	today := ISOWeekday(t)
	for i, d := range days {
		if n, ok := WeekdayNumber(d); ok && n == today {
			return i
		}
	}
	return -1
}

// IsWeekend reports whether t is a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	return ISOWeekday(t) >= 6
}
