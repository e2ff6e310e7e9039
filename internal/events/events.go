package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	Exchange = "classbook.events"

	ReservationCreated   = "reservation.created"
	ReservationCancelled = "reservation.cancelled"
	TemplateRetired      = "template.retired"
	OccurrenceUpcoming   = "occurrence.upcoming"
)

type Reservation struct {
	ReservationID  uuid.UUID `json:"reservation_id"`
	UserID         int       `json:"user_id"`
	TemplateID     uuid.UUID `json:"template_id"`
	Title          string    `json:"title"`
	OccurrenceDate string    `json:"occurrence_date"`
	StartsAt       time.Time `json:"starts_at"`
	At             time.Time `json:"at"`
}

type Retired struct {
	TemplateID uuid.UUID     `json:"template_id"`
	Title      string        `json:"title"`
	Cancelled  []Reservation `json:"cancelled"`
	At         time.Time     `json:"at"`
}

type Attendee struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	UserID        int       `json:"user_id"`
}

type Upcoming struct {
	TemplateID     uuid.UUID  `json:"template_id"`
	Title          string     `json:"title"`
	OccurrenceDate string     `json:"occurrence_date"`
	StartsAt       time.Time  `json:"starts_at"`
	Capacity       int        `json:"capacity"`
	Attendees      []Attendee `json:"attendees"`
}
