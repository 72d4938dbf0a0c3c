// Package source adapts the upstream timetable shapes (manual rows, entity
// JSON, the Stundenplan24 XML exports and the mobile JSON week) to rows or
// lesson records.
//
// Adapters never fail: malformed input yields no data so that the
// resolution pipeline can fall through to the next source.
package source
