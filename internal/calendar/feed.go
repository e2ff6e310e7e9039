// Package calendar exports the weekly timetable as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"classbook/internal/schedule"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

const (
	productID = "-//classbook//timetable//EN"
	uidDomain = "classbook"

	localLayout = "20060102T150405"
)

// WeeklyRule returns the recurrence of t with its first occurrence on or after today.
func WeeklyRule(t schedule.Template, today schedule.Date, loc *time.Location) (*rrule.RRule, error) {
	first := schedule.Occurrence{Template: t, Date: schedule.NextOccurrenceDate(t, today)}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{t.DayOfWeek.RRule()},
		Dtstart:   first.StartsAt(loc),
	})
}

// Feed builds one recurring VEVENT per template.
func Feed(templates []schedule.Template, today schedule.Date, loc *time.Location, now time.Time) (*ical.Calendar, error) {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Class timetable")
	cal.SetXWRCalName("Class timetable")
	cal.SetXWRTimezone(loc.String())
	cal.SetRefreshInterval("PT1H")
	if loc != time.UTC {
		cal.AddVTimezone(Timezone(loc, today.Time().Year()))
	}

	for _, t := range templates {
		rule, err := WeeklyRule(t, today, loc)
		if err != nil {
			return nil, fmt.Errorf("recurrence for %s: %w", t.ID, err)
		}

		start := rule.OrigOptions.Dtstart
		end := start.Add(time.Duration(t.DurationMinutes) * time.Minute)

		event := cal.AddEvent(t.ID.String() + "@" + uidDomain)
		event.SetDtStampTime(now)
		if !t.CreatedAt.IsZero() {
			event.SetCreatedTime(t.CreatedAt)
		}
		setLocalTime(event, ical.ComponentPropertyDtStart, start, loc)
		setLocalTime(event, ical.ComponentPropertyDtEnd, end, loc)
		event.AddRrule(rule.OrigOptions.RRuleString())
		event.SetSummary(t.Title)
		event.SetDescription(describe(t))
	}

	return cal, nil
}

// setLocalTime writes a wall-clock time with its TZID so the class keeps its
// local start time across daylight saving changes.
func setLocalTime(event *ical.VEvent, prop ical.ComponentProperty, t time.Time, loc *time.Location) {
	if loc == time.UTC {
		event.SetProperty(prop, t.UTC().Format(localLayout)+"Z")
		return
	}
	event.SetProperty(prop, t.In(loc).Format(localLayout), ical.WithTZID(loc.String()))
}

func describe(t schedule.Template) string {
	var lines []string
	if t.Instructor != nil {
		lines = append(lines, "Instructor: "+*t.Instructor)
	}
	lines = append(lines,
		"Open to: "+string(t.Eligibility),
		fmt.Sprintf("Capacity: %d", t.Capacity),
	)
	return strings.Join(lines, "\n")
}
