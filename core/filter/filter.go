// Package filter post-processes resolved cell text: it keeps the subject
// tokens that belong to the viewer and drops the rest.
package filter

import (
	"regexp"
	"strings"
)

var groupPrefixRe = regexp.MustCompile(`(?i)^(\d+[a-z]+)`)

// Rules configures the cell text filter.
type Rules struct {
	// MainOnly drops tokens starting with a digit such as "5a-Englisch".
	MainOnly *bool `json:"main_only"`
	// AllowPrefixes keeps digit-prefixed tokens whose class group ("5a" in
	// "5a-Kurs") starts with one of the prefixes.
	AllowPrefixes []string `json:"allow_prefixes"`
	// Exclude lists case-insensitive regular expressions. A pattern that does
	// not compile is matched as a plain substring.
	Exclude []string `json:"exclude"`
}

// SetDefaults fills unset fields.
func (r *Rules) SetDefaults() {
	if r.MainOnly == nil {
		v := true
		r.MainOnly = &v
	}
}

type matcher func(string) bool

// Filter is a compiled set of Rules. The zero value passes tokens through
// unchanged apart from dedup and dash removal.
type Filter struct {
	mainOnly bool
	showInfo bool
	prefixes []string
	exclude  []matcher
}

// New compiles rules. showInfo keeps the info line below the tokens.
func New(rules Rules, showInfo bool) *Filter {
	f := &Filter{
		mainOnly: rules.MainOnly == nil || *rules.MainOnly,
		showInfo: showInfo,
	}
	for _, p := range rules.AllowPrefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			f.prefixes = append(f.prefixes, p)
		}
	}
	for _, p := range rules.Exclude {
		if p = strings.TrimSpace(p); p != "" {
			f.exclude = append(f.exclude, compile(p))
		}
	}
	return f
}

func compile(pattern string) matcher {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		lower := strings.ToLower(pattern)
		return func(s string) bool { return strings.Contains(strings.ToLower(s), lower) }
	}
	return re.MatchString
}

// Apply filters one cell. The first line holds slash separated tokens, the
// remaining lines are an info text.
func (f *Filter) Apply(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	primary, info, _ := strings.Cut(text, "\n")
	info = trimLines(info)

	var tokens []string
	for _, tok := range strings.Split(primary, "/") {
		tok = strings.TrimSpace(tok)
		if tok == "" || dashOnly(tok) || f.excluded(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}

	var main, allowed []string
	for _, tok := range tokens {
		if !f.mainOnly || !startsWithDigit(tok) {
			main = append(main, tok)
		}
		if f.allowed(tok) {
			allowed = append(allowed, tok)
		}
	}
	out := strings.Join(dedupe(append(main, allowed...)), " / ")
	if f.showInfo && info != "" {
		return strings.TrimSpace(out + "\n" + info)
	}
	return out
}

// Text filters text with rules in one call.
func Text(text string, rules Rules, showInfo bool) string {
	return New(rules, showInfo).Apply(text)
}

func (f *Filter) excluded(tok string) bool {
	for _, m := range f.exclude {
		if m(tok) {
			return true
		}
	}
	return false
}

func (f *Filter) allowed(tok string) bool {
	m := groupPrefixRe.FindStringSubmatch(tok)
	if m == nil {
		return false
	}
	group := strings.ToLower(m[1])
	for _, p := range f.prefixes {
		if strings.HasPrefix(group, p) {
			return true
		}
	}
	return false
}

func dashOnly(s string) bool {
	return strings.Trim(s, "-–—") == ""
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
