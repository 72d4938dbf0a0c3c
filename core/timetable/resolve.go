// Package timetable merges the configured sources into one ordered grid of
// rows.
package timetable

import (
	"time"

	"github.com/kilianp07/splan/core/filter"
	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/source"
	"github.com/kilianp07/splan/core/week"
)

// Resolve runs one resolution pass. Sources are tried in precedence order:
// the Stundenplan24 plan (mobile week first, then XML), the week specific
// entities, the generic entity and finally the manual rows. The first source
// yielding rows wins. Resolve is pure: state and entities are only read.
func Resolve(cfg Config, state *FetchState, entities EntityLookup, now time.Time) Result {
	res := Result{At: now}
	if cfg.Splan.Enabled && state != nil {
		res.Err = state.Err
		if rows, wk, src := resolveSplan(cfg, state, entities, now); len(rows) > 0 {
			res.Rows, res.Week, res.Source = rows, wk, src
			return res
		}
	}

	active := ActiveWeek(cfg.Week, entities, now)
	res.Week = active
	if cfg.Week.Mode != week.ModeOff {
		if active == model.WeekA && cfg.Source.EntityA != "" {
			if rows := entityRows(cfg, entities, cfg.Source.EntityA, cfg.Source.AttributeA); len(rows) > 0 {
				res.Rows, res.Source = rows, SourceEntityA
				return res
			}
		}
		if active == model.WeekB && cfg.Source.EntityB != "" {
			if rows := entityRows(cfg, entities, cfg.Source.EntityB, cfg.Source.AttributeB); len(rows) > 0 {
				res.Rows, res.Source = rows, SourceEntityB
				return res
			}
		}
	}
	if cfg.Source.Entity != "" {
		if rows := entityRows(cfg, entities, cfg.Source.Entity, cfg.Source.Attribute); len(rows) > 0 {
			res.Rows, res.Source = rows, SourceEntity
			return res
		}
	}
	res.Rows, res.Source = source.ManualRows(cfg.Rows, cfg.Days), SourceManual
	return res
}

// ActiveWeek resolves the designator of the configured week mode, reading the
// week map entity when the mode needs it.
func ActiveWeek(cfg week.Config, entities EntityLookup, now time.Time) model.Week {
	var m any
	if cfg.Mode == week.ModeMap && cfg.MapEntity != "" && entities != nil {
		if v, ok := entities.Entity(cfg.MapEntity, cfg.MapAttribute); ok {
			m = source.DecodeValue(v)
		}
	}
	return week.Resolve(cfg, now, m)
}

func entityRows(cfg Config, entities EntityLookup, id, attribute string) []model.Row {
	if entities == nil {
		return nil
	}
	v, ok := entities.Entity(id, attribute)
	if !ok {
		return nil
	}
	return source.EntityRows(v, cfg.Days, cfg.Source.TimeKey)
}

func resolveSplan(cfg Config, state *FetchState, entities EntityLookup, now time.Time) ([]model.Row, model.Week, Source) {
	f := filter.New(cfg.Filter, cfg.Splan.ShowsInfo())
	if state.Mobile != nil && len(state.Mobile.Days) > 0 {
		return mobileRows(cfg, *state.Mobile, f), model.WeekNone, SourceMobile
	}
	if len(state.WeekLessons) == 0 {
		return nil, model.WeekNone, SourceNone
	}
	wk := splanWeek(cfg, state, entities, now)
	return xmlRows(cfg, state, wk, f, now), wk, SourceSplan
}

// splanWeek picks the designator for the weekly plan: a forced A/B, the
// marker of the school week containing now, or the configured week mode.
func splanWeek(cfg Config, state *FetchState, entities EntityLookup, now time.Time) model.Week {
	switch cfg.Splan.Week {
	case WeekA:
		return model.WeekA
	case WeekB:
		return model.WeekB
	}
	if state.Basis != nil {
		if w, ok := source.FindSchoolWeek(*state.Basis, now); ok && w.Week != model.WeekNone {
			return w.Week
		}
	}
	return ActiveWeek(cfg.Week, entities, now)
}
