package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/splan/core/model"
	"github.com/kilianp07/splan/core/timetable"
)

func TestNewRecord(t *testing.T) {
	at := time.Date(2026, 2, 11, 8, 0, 0, 0, time.UTC)
	res := timetable.Result{Source: timetable.SourceSplan, Week: model.WeekB, At: at, Rows: []model.Row{{Time: "1."}}}
	r := NewRecord("p1", res)
	assert.Equal(t, "p1", r.PassID)
	assert.Equal(t, "B", r.Week)
	assert.Equal(t, at, r.Time)
	assert.Equal(t, timetable.SourceSplan, r.Source)
	assert.Len(t, r.Result.Rows, 1)
}

func TestQueryMatch(t *testing.T) {
	at := time.Date(2026, 2, 11, 8, 0, 0, 0, time.UTC)
	r := Record{Time: at, Source: timetable.SourceManual}
	assert.True(t, Query{}.Match(r))
	assert.True(t, Query{Since: at, Until: at}.Match(r))
	assert.False(t, Query{Since: at.Add(time.Second)}.Match(r))
	assert.False(t, Query{Until: at.Add(-time.Second)}.Match(r))
	assert.False(t, Query{Source: timetable.SourceSplan}.Match(r))
}

func TestNopStore(t *testing.T) {
	var s Store = NopStore{}
	assert.NoError(t, s.Append(context.Background(), Record{}))
	_, err := s.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
