package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	timeRangeRe = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[-–—]\s*(\d{1,2}:\d{2})`)
	hourLabelRe = regexp.MustCompile(`^\s*(\d{1,2})\s*\.`)
)

// ParseTimeRange extracts the first "HH:MM–HH:MM" range from free text such as
// "1. 08:00–08:45". Dash, en dash and em dash separators are accepted.
func ParseTimeRange(s string) (start, end string, ok bool) {
	m := timeRangeRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseHourLabel reads the leading period number of labels like "3." or
// "3. 10:00–10:45".
func ParseHourLabel(s string) (int, bool) {
	m := hourLabelRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ClockMinutes converts "H:MM" or "HH:MM" to minutes since midnight.
func ClockMinutes(s string) (int, bool) {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, false
	}
	hh, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hh < 0 {
		return 0, false
	}
	mm, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}

// FormatClock renders minutes since midnight as zero padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// HourLabel renders the row label of a period: "3." or "3. 10:00–10:45" when
// both bounds are known.
func HourLabel(hour int, start, end string) string {
	label := strconv.Itoa(hour) + "."
	if start != "" && end != "" {
		label += " " + start + "–" + end
	}
	return label
}
