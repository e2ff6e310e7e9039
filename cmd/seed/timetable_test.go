package main

import (
	"context"
	"strings"
	"testing"

	"classbook/internal/memstore"
	"classbook/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
classes:
  - title: Reformer Pilates
    instructor: Derya
    day: Monday
    start: "18:00"
    duration: 50
    eligibility: female
    capacity: 8
  - title: Boxing
    day: wednesday
    start: "7:30"
    eligibility: Mixed
    capacity: 12
`

func TestParseTimetable(t *testing.T) {
	tt, err := ParseTimetable(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, tt.Classes, 2)
	assert.Equal(t, "Derya", tt.Classes[0].Instructor)
	assert.Equal(t, 12, tt.Classes[1].Capacity)

	_, err = ParseTimetable(strings.NewReader("classes:\n  - title: x\n    room: 4\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestApply_CreatesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := schedule.NewService(memstore.New())

	tt, err := ParseTimetable(strings.NewReader(sample))
	require.NoError(t, err)

	created, err := Apply(ctx, svc, tt)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	list, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, schedule.Monday, list[0].DayOfWeek)
	assert.Equal(t, 50, list[0].DurationMinutes)
	assert.Equal(t, schedule.ClockTime("07:30"), list[1].StartTime)
	assert.Equal(t, schedule.EligibilityMixed, list[1].Eligibility)

	created, err = Apply(ctx, svc, tt)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestApply_StopsOnInvalidClass(t *testing.T) {
	ctx := context.Background()
	svc := schedule.NewService(memstore.New())

	tt := &Timetable{Classes: []Class{
		{Title: "Yoga", Day: "Friday", Start: "09:00", Eligibility: "mixed", Capacity: 10},
		{Title: "Broken", Day: "Caturday", Start: "09:00", Eligibility: "mixed", Capacity: 10},
	}}

	created, err := Apply(ctx, svc, tt)
	assert.ErrorIs(t, err, schedule.ErrInvalidWeekday)
	assert.Contains(t, err.Error(), "class 2 (Broken)")
	assert.Equal(t, 1, created)

	tt.Classes = []Class{{Title: "Empty", Day: "Friday", Start: "10:00", Eligibility: "mixed", Capacity: 0}}
	_, err = Apply(ctx, svc, tt)
	assert.ErrorIs(t, err, schedule.ErrInvalidTemplate)
}
