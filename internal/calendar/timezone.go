package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// timezoneYears is how far ahead of today explicit transitions are listed.
// Later dates follow the last listed observance.
const timezoneYears = 2

// Timezone describes loc as a VTIMEZONE: the observance in effect at the start
// of year, followed by every offset change up to timezoneYears after it.
func Timezone(loc *time.Location, year int) *ical.VTimezone {
	tz := ical.NewTimezone(loc.String())

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	until := from.AddDate(timezoneYears+1, 0, 0)

	start, _ := from.ZoneBounds()
	if start.IsZero() {
		// The zone has never changed offset.
		addObservance(tz, time.Date(1970, time.January, 1, 0, 0, 0, 0, loc))
		return tz
	}

	for t := start; !t.IsZero() && t.Before(until); {
		addObservance(tz, t)
		_, t = t.ZoneBounds()
	}
	return tz
}

// addObservance records the offset that takes effect at onset. DTSTART is the
// onset in the wall-clock time that was in effect just before it.
func addObservance(tz *ical.VTimezone, onset time.Time) {
	name, to := onset.Zone()
	_, prev := onset.Add(-time.Second).Zone()

	var obs *ical.ComponentBase
	if onset.IsDST() {
		d := &ical.Daylight{}
		tz.Components = append(tz.Components, d)
		obs = &d.ComponentBase
	} else {
		obs = &tz.AddStandard().ComponentBase
	}

	obs.SetProperty(ical.ComponentPropertyDtStart, onset.In(time.FixedZone("", prev)).Format(localLayout))
	obs.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetfrom), formatOffset(prev))
	obs.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetto), formatOffset(to))
	obs.SetProperty(ical.ComponentProperty(ical.PropertyTzname), name)
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign, seconds = '-', -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, seconds%3600/60)
}
