package schedule

import (
	"time"

	"github.com/google/uuid"
)

const DefaultDurationMinutes = 60

type Template struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	Title           string      `db:"title" json:"title"`
	Instructor      *string     `db:"instructor" json:"instructor,omitempty"`
	DayOfWeek       Weekday     `db:"day_of_week" json:"day_of_week" swaggertype:"string" example:"Monday"`
	StartTime       ClockTime   `db:"start_time" json:"start_time" swaggertype:"string" example:"18:00"`
	DurationMinutes int         `db:"duration_minutes" json:"duration_minutes" example:"60"`
	Eligibility     Eligibility `db:"eligibility" json:"eligibility" swaggertype:"string" example:"mixed"`
	Capacity        int         `db:"capacity" json:"capacity" example:"10"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

type CreateTemplateRequest struct {
	Title           string      `json:"title" binding:"required,max=120"`
	Instructor      *string     `json:"instructor,omitempty" binding:"omitempty,max=120"`
	DayOfWeek       *Weekday    `json:"day_of_week" binding:"required" swaggertype:"string" example:"Monday"`
	StartTime       string      `json:"start_time" binding:"required,datetime=15:04" example:"18:00"`
	DurationMinutes int         `json:"duration_minutes,omitempty" binding:"omitempty,min=1,max=1440" example:"60"`
	Eligibility     Eligibility `json:"eligibility" binding:"required,oneof=male female mixed" swaggertype:"string" example:"mixed"`
	Capacity        int         `json:"capacity" binding:"required,min=1" example:"10"`
}

// Occurrence is one dated instance of a template. It is derived, never stored.
type Occurrence struct {
	Template Template `json:"template"`
	Date     Date     `json:"date" swaggertype:"string" example:"2024-06-03"`
}

func (o Occurrence) Key() OccurrenceKey {
	return OccurrenceKey{TemplateID: o.Template.ID, Date: o.Date}
}

func (o Occurrence) StartsAt(loc *time.Location) time.Time {
	return o.Date.At(o.Template.StartTime, loc)
}

func (o Occurrence) EndsAt(loc *time.Location) time.Time {
	return o.StartsAt(loc).Add(time.Duration(o.Template.DurationMinutes) * time.Minute)
}
