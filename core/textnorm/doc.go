// Package textnorm contains the pure string helpers shared by the timetable
// adapters: weekday names, clock times and ranges, hour labels, dates,
// class/teacher/room identifiers and the cancellation predicate.
//
// None of the functions panic. Parsers report failure through a boolean
// instead of an error because an unparseable value simply means "absent".
package textnorm
