package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Eligibility is the admission rule of a template.
type Eligibility string

const (
	EligibilityMale   Eligibility = "male"
	EligibilityFemale Eligibility = "female"
	EligibilityMixed  Eligibility = "mixed"
)

func (e Eligibility) Valid() bool {
	switch e {
	case EligibilityMale, EligibilityFemale, EligibilityMixed:
		return true
	}
	return false
}

func (e Eligibility) Admits(g Gender) bool {
	return e == EligibilityMixed || string(e) == string(g)
}

// ClockTime is a 24h wall-clock time formatted HH:MM. The zero padding makes
// lexical order equal chronological order.
type ClockTime string

const clockLayout = "15:04"

var ErrInvalidClockTime = errors.New("invalid start time, expected HH:MM")

func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidClockTime
	}
	return ClockTime(t.Format(clockLayout)), nil
}

func (c ClockTime) HourMinute() (int, int) {
	t, err := time.Parse(clockLayout, string(c))
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

// Date is a civil calendar date without time of day. The zero value is not a valid date.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the calendar date of now at the facility.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool             { return d.t.IsZero() }
func (d Date) Weekday() Weekday         { return WeekdayOf(d.t) }
func (d Date) AddDays(n int) Date       { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(other Date) bool   { return d.t.Before(other.t) }
func (d Date) After(other Date) bool    { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool    { return d.t.Equal(other.t) }
func (d Date) Compare(other Date) int   { return d.t.Compare(other.t) }
func (d Date) String() string           { return d.t.Format(dateLayout) }
func (d Date) Time() time.Time          { return d.t }
func (d Date) DaysUntil(other Date) int { return int(other.t.Sub(d.t).Hours() / 24) }

// At returns the instant the clock time falls on this date in loc.
func (d Date) At(c ClockTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	h, m := c.HourMinute()
	y, mo, day := d.t.Date()
	return time.Date(y, mo, day, h, m, 0, 0, loc)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		parsed, err := ParseDate(firstN(v, len(dateLayout)))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case nil:
		return errors.New("cannot scan NULL into Date")
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// OccurrenceKey identifies one dated occurrence of a template.
type OccurrenceKey struct {
	TemplateID uuid.UUID
	Date       Date
}

func (k OccurrenceKey) String() string {
	return k.TemplateID.String() + "@" + k.Date.String()
}
