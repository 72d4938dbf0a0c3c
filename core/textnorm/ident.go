package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	classTokenSep = regexp.MustCompile(`[,/;|\s]+`)
	classRangeRe  = regexp.MustCompile(`(?i)^(\d+)([a-z])\s*-\s*(\d+)([a-z])$`)
	classRe       = regexp.MustCompile(`(?i)^(\d+)([a-z])$`)
)

// MatchClass reports whether the class field of a weekly plan entry refers to
// target. The field may list several classes ("5a, 5b"), contain a range
// ("5a-5c") or embed the class in longer text.
func MatchClass(field, target string) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	if t == "" {
		return false
	}
	f := strings.ToLower(Clean(field))
	if f == "" {
		return false
	}
	if f == t {
		return true
	}
	for _, tok := range classTokenSep.Split(f, -1) {
		if tok == "" {
			continue
		}
		if tok == t || classInRange(tok, t) {
			return true
		}
	}
	return strings.Contains(f, t)
}

func classInRange(token, target string) bool {
	r := classRangeRe.FindStringSubmatch(token)
	if r == nil {
		return false
	}
	c := classRe.FindStringSubmatch(target)
	if c == nil {
		return false
	}
	fromGrade, _ := strconv.Atoi(r[1])
	toGrade, _ := strconv.Atoi(r[3])
	grade, _ := strconv.Atoi(c[1])
	if fromGrade != toGrade || grade != fromGrade {
		return false
	}
	lo, hi := r[2][0], r[4][0]
	if lo > hi {
		lo, hi = hi, lo
	}
	letter := c[2][0]
	return letter >= lo && letter <= hi
}

// MatchIdent compares teacher or room identifiers: trimmed and
// case-insensitive.
func MatchIdent(field, target string) bool {
	return strings.EqualFold(Clean(field), strings.TrimSpace(target))
}

// ClassVariants returns the spellings a class is published under: "05a" is
// also tried as "5a" and "5a" as "05a". The input comes first.
func ClassVariants(class string) []string {
	t := strings.TrimSpace(class)
	if t == "" {
		return nil
	}
	out := []string{t}
	r := []rune(t)
	if len(r) >= 2 && r[0] == '0' && unicode.IsDigit(r[1]) {
		out = append(out, strings.TrimLeft(t, "0"))
	}
	if len(r) >= 2 && unicode.IsDigit(r[0]) && unicode.IsLetter(r[1]) && r[0] != '0' {
		out = append(out, "0"+t)
	}
	seen := make(map[string]bool, len(out))
	uniq := out[:0]
	for _, v := range out {
		if !seen[v] {
			seen[v] = true
			uniq = append(uniq, v)
		}
	}
	return uniq
}

// PadWeekLabel left pads one digit school week labels: "7" -> "07".
func PadWeekLabel(label string) string {
	t := strings.TrimSpace(label)
	if len([]rune(t)) == 1 {
		return "0" + t
	}
	return t
}
