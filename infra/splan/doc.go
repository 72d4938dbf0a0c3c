// Package splan loads Stundenplan24 documents over HTTP and turns them into
// the FetchState consumed by the timetable resolver.
package splan
