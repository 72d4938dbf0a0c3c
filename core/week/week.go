// Package week resolves the active A/B week designator.
package week

import (
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
)

// Mode selects how the designator is computed.
type Mode string

const (
	// ModeOff disables A/B weeks.
	ModeOff Mode = "off"
	// ModeParity derives the designator from the ISO week number.
	ModeParity Mode = "kw_parity"
	// ModeMap looks the designator up in an external week map and falls back
	// to ModeParity.
	ModeMap Mode = "week_map"
)

// ParseMode normalises a configured mode. Unknown values map to ModeOff.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeParity:
		return ModeParity
	case ModeMap:
		return ModeMap
	}
	return ModeOff
}

// Config holds the week designator settings.
type Config struct {
	Mode Mode `json:"mode"`
	// AIsEven makes even ISO weeks "A" weeks. Defaults to true.
	AIsEven *bool `json:"a_is_even"`
	// MapEntity and MapAttribute name the entity holding the week map.
	MapEntity    string `json:"map_entity"`
	MapAttribute string `json:"map_attribute"`
}

// SetDefaults applies defaults.
func (c *Config) SetDefaults() {
	c.Mode = ParseMode(string(c.Mode))
	if c.AIsEven == nil {
		v := true
		c.AIsEven = &v
	}
	c.MapEntity = strings.TrimSpace(c.MapEntity)
	c.MapAttribute = strings.TrimSpace(c.MapAttribute)
}

func (c Config) aIsEven() bool { return c.AIsEven == nil || *c.AIsEven }

// ISOWeek returns the ISO-8601 year and week number of the calendar date of
// t (Thursday anchored, weeks start on Monday).
func ISOWeek(t time.Time) (year, week int) {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC).ISOWeek()
}

// FromParity returns "A" when the parity of the ISO week equals the
// configured even/odd choice and "B" otherwise.
func FromParity(t time.Time, aIsEven bool) model.Week {
	_, w := ISOWeek(t)
	if (w%2 == 0) == aIsEven {
		return model.WeekA
	}
	return model.WeekB
}

// FromMap looks up t's ISO week in a decoded JSON week map. Both
// {"2026": {"7": "A"}} and {"7": "B"} are accepted; the year scoped entry
// wins. Any other shape yields WeekNone.
func FromMap(t time.Time, m any) model.Week {
	obj, ok := m.(map[string]any)
	if !ok {
		return model.WeekNone
	}
	y, w := ISOWeek(t)
	wk := strconv.Itoa(w)
	if byYear, ok := obj[strconv.Itoa(y)].(map[string]any); ok {
		if d := designator(byYear[wk]); d != model.WeekNone {
			return d
		}
	}
	return designator(obj[wk])
}

func designator(v any) model.Week {
	s, ok := v.(string)
	if !ok {
		return model.WeekNone
	}
	return textnorm.NormalizeWeek(s)
}

// Resolve returns the active designator for now. mapValue is the decoded
// week map (only consulted in ModeMap); a missing or malformed map falls back
// to ISO parity. ModeOff yields WeekNone.
func Resolve(cfg Config, now time.Time, mapValue any) model.Week {
	switch ParseMode(string(cfg.Mode)) {
	case ModeParity:
		return FromParity(now, cfg.aIsEven())
	case ModeMap:
		if d := FromMap(now, mapValue); d != model.WeekNone {
			return d
		}
		return FromParity(now, cfg.aIsEven())
	}
	return model.WeekNone
}
