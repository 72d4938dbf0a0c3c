package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourNumberUnmarshal(t *testing.T) {
	cases := map[string]HourNumber{
		`3`:      3,
		`3.0`:    3,
		`"4"`:    4,
		`" 5 "`:  5,
		`"x"`:    0,
		`null`:   0,
		`""`:     0,
	}
	for in, want := range cases {
		var h HourNumber
		require.NoError(t, json.Unmarshal([]byte(in), &h), in)
		assert.Equal(t, want, h, in)
	}
}

func TestMobileLessonDecode(t *testing.T) {
	var l MobileLesson
	require.NoError(t, json.Unmarshal([]byte(`{"stunde":"2","fach":"Ma","raum":"101"}`), &l))
	assert.Equal(t, HourNumber(2), l.Hour)
	assert.Equal(t, "Ma", l.Subject)
	assert.Equal(t, "101", l.Room)
}

func TestWeekMatches(t *testing.T) {
	assert.True(t, WeekNone.Matches(WeekA))
	assert.True(t, WeekA.Matches(WeekNone))
	assert.True(t, WeekB.Matches(WeekB))
	assert.False(t, WeekA.Matches(WeekB))
	assert.Equal(t, "-", WeekNone.String())
	assert.Equal(t, "A", WeekA.String())
}

func TestSchoolWeekWindowContains(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	w := SchoolWeekWindow{
		From: time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, w.Contains(time.Date(2026, 2, 9, 0, 30, 0, 0, loc)))
	assert.True(t, w.Contains(time.Date(2026, 2, 15, 23, 0, 0, 0, loc)))
	assert.False(t, w.Contains(time.Date(2026, 2, 8, 23, 59, 0, 0, loc)))
	assert.False(t, w.Contains(time.Date(2026, 2, 16, 0, 0, 0, 0, loc)))
}

func TestRows(t *testing.T) {
	b := NewBreakRow("09:30-09:45", "")
	assert.True(t, b.Break)
	assert.Equal(t, DefaultBreakLabel, b.Label)

	r := NewLessonRow("1.", "08:00", "08:45", []string{"Ma", "De", "En"}, 2)
	assert.Equal(t, []string{"Ma", "De"}, r.Cells)
	r = NewLessonRow("2.", "", "", []string{"Ma"}, 3)
	assert.Equal(t, []string{"Ma", "", ""}, r.Cells)
	assert.False(t, r.Break)
}

func TestLessonRecord(t *testing.T) {
	assert.True(t, LessonRecord{Day: 1, Hour: 1}.Empty())
	assert.False(t, LessonRecord{Room: "101"}.Empty())
	assert.True(t, LessonRecord{ChangedRoom: true}.Changed())
	assert.False(t, LessonRecord{}.Changed())
	assert.True(t, HourTimeSpec{}.IsZero())
}
