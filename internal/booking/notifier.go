package booking

import (
	"context"

	"classbook/internal/schedule"
)

// Notifier is told about committed changes. Its errors never undo a change.
type Notifier interface {
	ReservationCreated(ctx context.Context, m Member, occ schedule.Occurrence, r Reservation) error
	// ReservationCancelled receives a nil template when the class has since been retired.
	ReservationCancelled(ctx context.Context, m Member, tpl *schedule.Template, r Reservation) error
	TemplateRetired(ctx context.Context, tpl schedule.Template, cancelled []Reservation) error
}

type noopNotifier struct{}

func (noopNotifier) ReservationCreated(context.Context, Member, schedule.Occurrence, Reservation) error {
	return nil
}

func (noopNotifier) ReservationCancelled(context.Context, Member, *schedule.Template, Reservation) error {
	return nil
}

func (noopNotifier) TemplateRetired(context.Context, schedule.Template, []Reservation) error {
	return nil
}
