package textnorm

import (
	"regexp"
	"strconv"
	"time"
)

var (
	germanDateRe  = regexp.MustCompile(`^\s*(\d{1,2})\.\s*(\d{1,2})\.\s*(\d{4})\s*$`)
	compactDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
)

// ParseGermanDate parses "2.2.2026" or "02. 02. 2026" into a UTC date.
func ParseGermanDate(s string) (time.Time, bool) {
	m := germanDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return buildDate(m[3], m[2], m[1])
}

// ParseCompactDate parses "YYYYMMDD" into a UTC date.
func ParseCompactDate(s string) (time.Time, bool) {
	m := compactDateRe.FindStringSubmatch(Clean(s))
	if m == nil {
		return time.Time{}, false
	}
	return buildDate(m[1], m[2], m[3])
}

// FormatCompactDate renders t as "YYYYMMDD" in t's location.
func FormatCompactDate(t time.Time) string {
	return t.Format("20060102")
}

func buildDate(ys, ms, ds string) (time.Time, bool) {
	y, _ := strconv.Atoi(ys)
	mo, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// reject 31.2. style dates that time.Date normalises
	if t.Month() != time.Month(mo) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
