package booking

import (
	"context"
	"time"

	"classbook/internal/schedule"

	"github.com/google/uuid"
)

// Store persists reservations and the per-occurrence seat ledger.
//
// Book must evaluate the duplicate check, the capacity check and the insert as
// one atomic unit against committed state. It returns schedule.ErrTemplateNotFound
// when the template is missing or retired, ErrAlreadyBooked or ErrCapacityExceeded.
type Store interface {
	Book(ctx context.Context, p BookParams) (*Reservation, error)
	// Cancel tombstones an active reservation owned by userID and releases its seat.
	Cancel(ctx context.Context, reservationID uuid.UUID, userID int, at time.Time) (*Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*Reservation, error)
	CurrentCount(ctx context.Context, templateID uuid.UUID, date schedule.Date) (int, error)
	// CountsInRange returns active counts for occurrences dated from..to inclusive.
	CountsInRange(ctx context.Context, from, to schedule.Date) (map[schedule.OccurrenceKey]int, error)
	ListRoster(ctx context.Context, templateID uuid.UUID, date schedule.Date) ([]RosterEntry, error)
	// ListByUser filters on status unless it is empty.
	ListByUser(ctx context.Context, userID int, status Status) ([]ReservationWithTemplate, error)
	// RetireTemplate soft-deletes the template and cancels its active reservations dated on or after from.
	RetireTemplate(ctx context.Context, templateID uuid.UUID, from schedule.Date, at time.Time) ([]Reservation, error)
}
