package schedule

import (
	"cmp"
	"iter"
	"slices"
)

// NextOccurrenceDate returns the first date on or after today that falls on the
// template's weekday. A template whose day is today resolves to today.
func NextOccurrenceDate(t Template, today Date) Date {
	delta := (int(t.DayOfWeek) - int(today.Weekday()) + 7) % 7
	return today.AddDays(delta)
}

// IsOccurrenceDate reports whether date is a valid occurrence date of t.
func IsOccurrenceDate(t Template, date Date) bool {
	return date.Weekday() == t.DayOfWeek
}

// OccurrencesInWindow yields every occurrence of templates within windowDays days
// starting at today (inclusive), ordered by date and then by start time. The
// sequence is computed lazily and can be ranged over any number of times.
func OccurrencesInWindow(templates []Template, today Date, windowDays int) iter.Seq[Occurrence] {
	ordered := slices.Clone(templates)
	slices.SortStableFunc(ordered, func(a, b Template) int {
		return cmp.Or(
			cmp.Compare(a.StartTime, b.StartTime),
			cmp.Compare(a.Title, b.Title),
		)
	})

	return func(yield func(Occurrence) bool) {
		for i := 0; i < windowDays; i++ {
			date := today.AddDays(i)
			day := date.Weekday()
			for _, t := range ordered {
				if t.DayOfWeek != day {
					continue
				}
				if !yield(Occurrence{Template: t, Date: date}) {
					return
				}
			}
		}
	}
}

// SortTemplates orders templates Monday first, then by start time.
func SortTemplates(templates []Template) {
	slices.SortStableFunc(templates, func(a, b Template) int {
		return cmp.Or(
			cmp.Compare(a.DayOfWeek.MondayFirst(), b.DayOfWeek.MondayFirst()),
			cmp.Compare(a.StartTime, b.StartTime),
			cmp.Compare(a.Title, b.Title),
		)
	})
}
