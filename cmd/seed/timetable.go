package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"classbook/internal/schedule"

	"gopkg.in/yaml.v3"
)

// Timetable is the YAML file an operator keeps the weekly schedule in.
type Timetable struct {
	Classes []Class `yaml:"classes"`
}

type Class struct {
	Title       string `yaml:"title"`
	Instructor  string `yaml:"instructor"`
	Day         string `yaml:"day"`
	Start       string `yaml:"start"`
	Duration    int    `yaml:"duration"`
	Eligibility string `yaml:"eligibility"`
	Capacity    int    `yaml:"capacity"`
}

func ParseTimetable(r io.Reader) (*Timetable, error) {
	var tt Timetable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tt); err != nil {
		return nil, fmt.Errorf("failed to parse timetable: %w", err)
	}
	return &tt, nil
}

func (c Class) request() (schedule.CreateTemplateRequest, error) {
	day, err := schedule.ParseWeekday(c.Day)
	if err != nil {
		return schedule.CreateTemplateRequest{}, err
	}

	req := schedule.CreateTemplateRequest{
		Title:           c.Title,
		DayOfWeek:       &day,
		StartTime:       c.Start,
		DurationMinutes: c.Duration,
		Eligibility:     schedule.Eligibility(strings.ToLower(c.Eligibility)),
		Capacity:        c.Capacity,
	}
	if c.Instructor != "" {
		req.Instructor = &c.Instructor
	}
	return req, nil
}

func slotKey(title string, day schedule.Weekday, start schedule.ClockTime) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + day.String() + "|" + string(start)
}

// Apply creates every class that is not already on the schedule, matching on
// title, day and start time. It returns how many templates it created.
func Apply(ctx context.Context, svc schedule.Service, tt *Timetable) (int, error) {
	existing, err := svc.ListTemplates(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[slotKey(t.Title, t.DayOfWeek, t.StartTime)] = true
	}

	created := 0
	for i, c := range tt.Classes {
		req, err := c.request()
		if err != nil {
			return created, fmt.Errorf("class %d (%s): %w", i+1, c.Title, err)
		}
		start, err := schedule.ParseClockTime(req.StartTime)
		if err != nil {
			return created, fmt.Errorf("class %d (%s): %w", i+1, c.Title, err)
		}

		key := slotKey(req.Title, *req.DayOfWeek, start)
		if seen[key] {
			continue
		}
		if _, err := svc.CreateTemplate(ctx, req); err != nil {
			return created, fmt.Errorf("class %d (%s): %w", i+1, c.Title, err)
		}
		seen[key] = true
		created++
	}
	return created, nil
}
