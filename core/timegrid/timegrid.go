// Package timegrid turns partial per-period start/end times into a column of
// times that never runs backwards.
package timegrid

import (
	"sort"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/textnorm"
)

// DefaultSlotMinutes is the period length assumed when a rebased period has
// no usable duration of its own.
const DefaultSlotMinutes = 45

// Build returns the start/end time of every hour in hours that has any time
// information in partial. Hours are processed in ascending order. A period
// whose start lies before the end of the previous period is treated as a
// stale label: it is moved to start at the previous end and keeps its own
// duration, or DefaultSlotMinutes when that duration is unknown.
//
// Hours without information are absent from the result. partial is not
// modified.
func Build(hours []int, partial map[int]model.HourTimeSpec) map[int]model.HourTimeSpec {
	out := make(map[int]model.HourTimeSpec, len(partial))
	for h, spec := range partial {
		if !spec.IsZero() {
			out[h] = spec
		}
	}

	ordered := append([]int(nil), hours...)
	sort.Ints(ordered)

	prevEnd, havePrev := 0, false
	for _, h := range ordered {
		spec, ok := out[h]
		if !ok {
			continue
		}
		start, startOK := textnorm.ClockMinutes(spec.Start)
		end, endOK := textnorm.ClockMinutes(spec.End)
		if havePrev && startOK && start < prevEnd {
			newStart := prevEnd
			if endOK && end <= newStart {
				if dur := end - start; dur > 0 {
					end = newStart + dur
				} else {
					end = newStart + DefaultSlotMinutes
				}
			}
			spec.Start = textnorm.FormatClock(newStart)
			if endOK {
				spec.End = textnorm.FormatClock(end)
			}
			out[h] = spec
		}
		if m, ok := textnorm.ClockMinutes(spec.End); ok {
			prevEnd, havePrev = m, true
		}
	}
	return out
}
