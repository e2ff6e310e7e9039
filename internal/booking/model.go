package booking

import (
	"time"

	"classbook/internal/schedule"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCancelled
}

type Reservation struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         int             `db:"user_id" json:"user_id"`
	UserGender     schedule.Gender `db:"user_gender" json:"user_gender" swaggertype:"string" example:"female"`
	UserEmail      string          `db:"user_email" json:"-"`
	TemplateID     uuid.UUID       `db:"template_id" json:"template_id"`
	OccurrenceDate schedule.Date   `db:"occurrence_date" json:"occurrence_date" swaggertype:"string" example:"2024-06-03"`
	Status         Status          `db:"status" json:"status" swaggertype:"string" example:"active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	CancelledAt    *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

func (r Reservation) Key() schedule.OccurrenceKey {
	return schedule.OccurrenceKey{TemplateID: r.TemplateID, Date: r.OccurrenceDate}
}

// ReservationWithTemplate is a reservation joined with the class it books.
// Retired templates are still joined so history stays readable.
type ReservationWithTemplate struct {
	Reservation
	Title           string             `db:"title" json:"title"`
	Instructor      *string            `db:"instructor" json:"instructor,omitempty"`
	DayOfWeek       schedule.Weekday   `db:"day_of_week" json:"day_of_week" swaggertype:"string" example:"Monday"`
	StartTime       schedule.ClockTime `db:"start_time" json:"start_time" swaggertype:"string" example:"18:00"`
	DurationMinutes int                `db:"duration_minutes" json:"duration_minutes"`
}

// Member is the authenticated caller, as asserted by the identity token.
type Member struct {
	UserID int
	Gender schedule.Gender
	Email  string
}

// BookParams carries one validated booking request into the store.
type BookParams struct {
	ID         uuid.UUID
	UserID     int
	UserGender schedule.Gender
	UserEmail  string
	TemplateID uuid.UUID
	Date       schedule.Date
	CreatedAt  time.Time
}

type RosterEntry struct {
	ReservationID uuid.UUID       `db:"reservation_id" json:"reservation_id"`
	UserID        int             `db:"user_id" json:"user_id"`
	Gender        schedule.Gender `db:"user_gender" json:"gender" swaggertype:"string" example:"male"`
	Email         string          `db:"user_email" json:"email,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

type Occupancy struct {
	TemplateID uuid.UUID     `json:"template_id"`
	Date       schedule.Date `json:"date" swaggertype:"string" example:"2024-06-03"`
	Booked     int           `json:"booked" example:"8"`
	Capacity   int           `json:"capacity" example:"10"`
	Available  int           `json:"available" example:"2"`
	IsFull     bool          `json:"is_full"`
}

func newOccupancy(t schedule.Template, date schedule.Date, booked int) Occupancy {
	available := max(t.Capacity-booked, 0)
	return Occupancy{
		TemplateID: t.ID,
		Date:       date,
		Booked:     booked,
		Capacity:   t.Capacity,
		Available:  available,
		IsFull:     available == 0,
	}
}

type CalendarEntry struct {
	Template  schedule.Template `json:"template"`
	Date      schedule.Date     `json:"date" swaggertype:"string" example:"2024-06-03"`
	Booked    int               `json:"booked"`
	Available int               `json:"available"`
	IsFull    bool              `json:"is_full"`
}

type BookRequest struct {
	TemplateID string `json:"template_id" binding:"required,uuid" example:"5b1d8a3e-8f43-4c3b-9d55-3c9a4f1f2b6e"`
	Date       string `json:"date" binding:"required,datetime=2006-01-02" example:"2024-06-03"`
}

type RetireResponse struct {
	TemplateID uuid.UUID     `json:"template_id"`
	Cancelled  []Reservation `json:"cancelled"`
}
