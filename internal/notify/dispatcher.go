// Package notify fans committed booking changes out to member email and the event bus.
package notify

import (
	"context"
	"errors"
	"time"

	"classbook/internal/booking"
	"classbook/internal/events"
	"classbook/internal/schedule"
)

type Mailer interface {
	SendBookingConfirmation(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error
	SendCancellation(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error
	SendClassRetired(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error
}

type Dispatcher struct {
	mailer    Mailer
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
}

var _ booking.Notifier = (*Dispatcher)(nil)

// New returns a dispatcher. A nil mailer disables email.
func New(mailer Mailer, publisher events.Publisher, loc *time.Location) *Dispatcher {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{mailer: mailer, publisher: publisher, loc: loc, now: time.Now}
}

func (d *Dispatcher) reservationEvent(tpl *schedule.Template, r booking.Reservation) events.Reservation {
	ev := events.Reservation{
		ReservationID:  r.ID,
		UserID:         r.UserID,
		TemplateID:     r.TemplateID,
		OccurrenceDate: r.OccurrenceDate.String(),
		At:             d.now().UTC(),
	}
	if tpl != nil {
		ev.Title = tpl.Title
		ev.StartsAt = r.OccurrenceDate.At(tpl.StartTime, d.loc)
	}
	return ev
}

func (d *Dispatcher) ReservationCreated(ctx context.Context, m booking.Member, occ schedule.Occurrence, r booking.Reservation) error {
	var errs []error
	if d.mailer != nil && m.Email != "" {
		errs = append(errs, d.mailer.SendBookingConfirmation(ctx, m.Email, occ, d.loc))
	}
	errs = append(errs, d.publisher.Publish(ctx, events.ReservationCreated, d.reservationEvent(&occ.Template, r)))
	return errors.Join(errs...)
}

func (d *Dispatcher) ReservationCancelled(ctx context.Context, m booking.Member, tpl *schedule.Template, r booking.Reservation) error {
	var errs []error
	if d.mailer != nil && m.Email != "" && tpl != nil {
		occ := schedule.Occurrence{Template: *tpl, Date: r.OccurrenceDate}
		errs = append(errs, d.mailer.SendCancellation(ctx, m.Email, occ, d.loc))
	}
	errs = append(errs, d.publisher.Publish(ctx, events.ReservationCancelled, d.reservationEvent(tpl, r)))
	return errors.Join(errs...)
}

// TemplateRetired emails every member whose seat was cancelled and publishes
// one event listing them.
func (d *Dispatcher) TemplateRetired(ctx context.Context, tpl schedule.Template, cancelled []booking.Reservation) error {
	var errs []error

	ev := events.Retired{
		TemplateID: tpl.ID,
		Title:      tpl.Title,
		Cancelled:  make([]events.Reservation, 0, len(cancelled)),
		At:         d.now().UTC(),
	}
	for _, r := range cancelled {
		ev.Cancelled = append(ev.Cancelled, d.reservationEvent(&tpl, r))

		if d.mailer != nil && r.UserEmail != "" {
			occ := schedule.Occurrence{Template: tpl, Date: r.OccurrenceDate}
			errs = append(errs, d.mailer.SendClassRetired(ctx, r.UserEmail, occ, d.loc))
		}
	}

	errs = append(errs, d.publisher.Publish(ctx, events.TemplateRetired, ev))
	return errors.Join(errs...)
}
