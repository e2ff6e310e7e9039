package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func tpl(title string, day Weekday, start string) Template {
	return Template{
		ID:              uuid.New(),
		Title:           title,
		DayOfWeek:       day,
		StartTime:       ClockTime(start),
		DurationMinutes: 60,
		Eligibility:     EligibilityMixed,
		Capacity:        10,
	}
}

func TestNextOccurrenceDate(t *testing.T) {
	wednesday := MustParseDate("2024-06-05")
	monday := MustParseDate("2024-06-03")

	tests := []struct {
		name  string
		day   Weekday
		today Date
		want  string
	}{
		{"monday from wednesday", Monday, wednesday, "2024-06-10"},
		{"same day resolves to today", Monday, monday, "2024-06-03"},
		{"sunday from monday", Sunday, monday, "2024-06-09"},
		{"tomorrow", Thursday, wednesday, "2024-06-06"},
		{"across month end", Monday, MustParseDate("2024-06-29"), "2024-07-01"},
		{"across year end", Wednesday, MustParseDate("2024-12-30"), "2025-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrenceDate(tpl("x", tt.day, "18:00"), tt.today)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

// Every weekday/today pairing must land within the next 7 days on the right weekday.
func TestNextOccurrenceDate_AllPairs(t *testing.T) {
	start := MustParseDate("2024-06-02") // Sunday
	for offset := 0; offset < 7; offset++ {
		today := start.AddDays(offset)
		for day := Sunday; day <= Saturday; day++ {
			got := NextOccurrenceDate(tpl("x", day, "09:00"), today)

			assert.Equal(t, day, got.Weekday(), "today=%s day=%s", today, day)
			assert.False(t, got.Before(today))
			assert.Less(t, today.DaysUntil(got), 7)
			assert.True(t, IsOccurrenceDate(tpl("x", day, "09:00"), got))
		}
	}
}

// The resolver must agree with an independent RFC 5545 recurrence engine.
func TestNextOccurrenceDate_MatchesRRule(t *testing.T) {
	start := MustParseDate("2024-02-25")
	for offset := 0; offset < 14; offset++ {
		today := start.AddDays(offset)
		for day := Sunday; day <= Saturday; day++ {
			r, err := rrule.NewRRule(rrule.ROption{
				Freq:      rrule.WEEKLY,
				Byweekday: []rrule.Weekday{day.RRule()},
				Dtstart:   today.Time(),
				Count:     1,
			})
			require.NoError(t, err)

			all := r.All()
			require.Len(t, all, 1)
			assert.Equal(t, DateOf(all[0]).String(), NextOccurrenceDate(tpl("x", day, "09:00"), today).String(),
				"today=%s day=%s", today, day)
		}
	}
}

func TestWeekdayMatchesTimePackage(t *testing.T) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		assert.Equal(t, d.String(), Weekday(d).String())
	}
	assert.Equal(t, Monday, MustParseDate("2024-06-03").Weekday())
	assert.Equal(t, Sunday, MustParseDate("2024-06-09").Weekday())
}

func TestOccurrencesInWindow(t *testing.T) {
	today := MustParseDate("2024-06-05") // Wednesday
	evening := tpl("Evening", Wednesday, "18:00")
	morning := tpl("Morning", Wednesday, "07:30")
	monday := tpl("Monday", Monday, "10:00")
	friday := tpl("Friday", Friday, "12:00")

	seq := OccurrencesInWindow([]Template{evening, monday, friday, morning}, today, 7)

	var got []string
	for occ := range seq {
		got = append(got, occ.Date.String()+" "+occ.Template.Title)
	}

	assert.Equal(t, []string{
		"2024-06-05 Morning",
		"2024-06-05 Evening",
		"2024-06-07 Friday",
		"2024-06-10 Monday",
	}, got)

	var again int
	for range seq {
		again++
	}
	assert.Equal(t, 4, again, "sequence is restartable")
}

func TestOccurrencesInWindow_EarlyStopAndBounds(t *testing.T) {
	today := MustParseDate("2024-06-03")
	daily := []Template{
		tpl("a", Monday, "09:00"),
		tpl("b", Tuesday, "09:00"),
		tpl("c", Wednesday, "09:00"),
	}

	var first []Occurrence
	for occ := range OccurrencesInWindow(daily, today, 7) {
		first = append(first, occ)
		if len(first) == 2 {
			break
		}
	}
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Template.Title)

	assert.Empty(t, slices.Collect(OccurrencesInWindow(daily, today, 0)))
	assert.Len(t, slices.Collect(OccurrencesInWindow(daily, today, 1)), 1)
	assert.Len(t, slices.Collect(OccurrencesInWindow(daily, today, 14)), 6)
}

func TestSortTemplates(t *testing.T) {
	list := []Template{
		tpl("sun", Sunday, "09:00"),
		tpl("mon-late", Monday, "19:00"),
		tpl("sat", Saturday, "08:00"),
		tpl("mon-early", Monday, "06:00"),
	}

	SortTemplates(list)

	var titles []string
	for _, t := range list {
		titles = append(titles, t.Title)
	}
	assert.Equal(t, []string{"mon-early", "mon-late", "sat", "sun"}, titles)
}

func TestOccurrenceTimes(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	occ := Occurrence{Template: tpl("x", Monday, "18:30"), Date: MustParseDate("2024-06-03")}

	start := occ.StartsAt(loc)
	assert.Equal(t, 18, start.Hour())
	assert.Equal(t, 30, start.Minute())
	assert.Equal(t, start.Add(time.Hour), occ.EndsAt(loc))
}
