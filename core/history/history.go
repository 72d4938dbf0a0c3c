// Package history defines the persisted log of resolution passes.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/splan/core/timetable"
)

// ErrNotFound is returned when a store holds no matching record.
var ErrNotFound = errors.New("history: record not found")

// Record captures one published resolution.
type Record struct {
	ID     int64            `json:"id,omitempty"`
	Time   time.Time        `json:"time"`
	PassID string           `json:"pass_id"`
	Source timetable.Source `json:"source"`
	Week   string           `json:"week,omitempty"`
	Err    string           `json:"error,omitempty"`
	Result timetable.Result `json:"result"`
}

// NewRecord builds the record of a resolution pass.
func NewRecord(passID string, res timetable.Result) Record {
	return Record{
		Time:   res.At,
		PassID: passID,
		Source: res.Source,
		Week:   string(res.Week),
		Err:    res.Err,
		Result: res,
	}
}

// Query filters stored records. A zero Limit returns everything; records
// are returned newest first.
type Query struct {
	Since  time.Time
	Until  time.Time
	Source timetable.Source
	Limit  int
}

// Match reports whether r passes the time and source filters of q.
func (q Query) Match(r Record) bool {
	if !q.Since.IsZero() && r.Time.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && r.Time.After(q.Until) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	return true
}

// Store persists resolution records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Latest(ctx context.Context) (Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Latest(context.Context) (Record, error)         { return Record{}, ErrNotFound }
func (NopStore) Close() error                                   { return nil }
