package timetable

import (
	"fmt"
	"strings"

	"github.com/kilianp07/splan/core/filter"
	"github.com/kilianp07/splan/core/source"
	"github.com/kilianp07/splan/core/week"
)

// DefaultDays are the day columns used when none are configured.
var DefaultDays = []string{"Mo", "Di", "Mi", "Do", "Fr"}

// Substitution lookahead bounds.
const (
	DefaultSubDays = 3
	MaxSubDays     = 14
)

// WeekSelector chooses the designator used for the XML weekly plan.
const (
	WeekAuto = "auto"
	WeekA    = "A"
	WeekB    = "B"
)

// Format is the upstream document family read by the data loader.
type Format string

const (
	FormatAuto       Format = "auto"
	FormatWdatenk    Format = "wdatenk"
	FormatMobileJSON Format = "mobile_json"
	FormatMobdaten   Format = "mobdaten"
)

// Config is the resolution configuration. Defaults are applied once by
// SetDefaults before any resolution runs; the pipeline never mutates it.
type Config struct {
	Days   []string           `json:"days"`
	Rows   []source.ManualRow `json:"rows"`
	Source SourceConfig       `json:"source"`
	Week   week.Config        `json:"week"`
	Splan  SplanConfig        `json:"splan"`
	Filter filter.Rules       `json:"filter"`
}

// SourceConfig names the entities holding JSON row arrays.
type SourceConfig struct {
	Entity     string `json:"entity"`
	Attribute  string `json:"attribute"`
	TimeKey    string `json:"time_key"`
	EntityA    string `json:"entity_a"`
	AttributeA string `json:"attribute_a"`
	EntityB    string `json:"entity_b"`
	AttributeB string `json:"attribute_b"`
}

// SplanConfig configures the Stundenplan24 XML and mobile sources.
type SplanConfig struct {
	Enabled     bool            `json:"enabled"`
	URL         string          `json:"url"`
	SchoolID    string          `json:"school_id"`
	Class       string          `json:"class"`
	Week        string          `json:"week"`
	PlanKind    source.PlanKind `json:"plan_kind"`
	Format      Format          `json:"format"`
	ShowRoom    *bool           `json:"show_room"`
	ShowTeacher bool            `json:"show_teacher"`
	SubEnabled  bool            `json:"sub_enabled"`
	SubDays     int             `json:"sub_days"`
	SubShowInfo *bool           `json:"sub_show_info"`
}

// ShowsRoom reports whether rendered cells include the room.
func (s SplanConfig) ShowsRoom() bool { return s.ShowRoom == nil || *s.ShowRoom }

// ShowsInfo reports whether substitution info lines are kept.
func (s SplanConfig) ShowsInfo() bool { return s.SubShowInfo == nil || *s.SubShowInfo }

// SetDefaults fills unset fields and normalises enumerations. Unknown values
// fall back to their default instead of being rejected.
func (c *Config) SetDefaults() {
	var days []string
	for _, d := range c.Days {
		if d = strings.TrimSpace(d); d != "" {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		days = append([]string(nil), DefaultDays...)
	}
	c.Days = days

	c.Source.Entity = strings.TrimSpace(c.Source.Entity)
	c.Source.Attribute = strings.TrimSpace(c.Source.Attribute)
	c.Source.EntityA = strings.TrimSpace(c.Source.EntityA)
	c.Source.AttributeA = strings.TrimSpace(c.Source.AttributeA)
	c.Source.EntityB = strings.TrimSpace(c.Source.EntityB)
	c.Source.AttributeB = strings.TrimSpace(c.Source.AttributeB)
	if c.Source.TimeKey = strings.TrimSpace(c.Source.TimeKey); c.Source.TimeKey == "" {
		c.Source.TimeKey = source.DefaultTimeKey
	}

	c.Week.SetDefaults()
	c.Filter.SetDefaults()
	c.Splan.setDefaults()
}

func (s *SplanConfig) setDefaults() {
	s.URL = strings.TrimSpace(s.URL)
	s.SchoolID = strings.TrimSpace(s.SchoolID)
	s.Class = strings.TrimSpace(s.Class)
	switch w := strings.ToUpper(strings.TrimSpace(s.Week)); w {
	case WeekA, WeekB:
		s.Week = w
	default:
		s.Week = WeekAuto
	}
	s.PlanKind = source.ParsePlanKind(string(s.PlanKind))
	if s.Format = Format(strings.ToLower(strings.TrimSpace(string(s.Format)))); s.Format == "" {
		s.Format = FormatAuto
	}
	if s.ShowRoom == nil {
		v := true
		s.ShowRoom = &v
	}
	if s.SubShowInfo == nil {
		v := true
		s.SubShowInfo = &v
	}
	switch {
	case s.SubDays <= 0:
		s.SubDays = DefaultSubDays
	case s.SubDays > MaxSubDays:
		s.SubDays = MaxSubDays
	}
}

// Validate rejects settings that cannot be normalised. A missing URL or class
// is not an error here: the data loader reports it on the resolution result.
func (c Config) Validate() error {
	switch c.Splan.Format {
	case FormatAuto, FormatWdatenk, FormatMobileJSON, FormatMobdaten:
	default:
		return fmt.Errorf("splan.format: unknown format %q", c.Splan.Format)
	}
	return nil
}
