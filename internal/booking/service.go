package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"classbook/internal/db"
	"classbook/internal/logger"
	"classbook/internal/metrics"
	"classbook/internal/schedule"

	"github.com/google/uuid"
)

const (
	DefaultCalendarDays  = 7
	MaxCalendarDays      = 28
	DefaultNotifyTimeout = 10 * time.Second
)

type Service interface {
	Book(ctx context.Context, m Member, templateID uuid.UUID, date schedule.Date) (*Reservation, error)
	Cancel(ctx context.Context, m Member, reservationID uuid.UUID) error
	GetOccupancy(ctx context.Context, templateID uuid.UUID, date schedule.Date) (*Occupancy, error)
	ListMyReservations(ctx context.Context, userID int, status Status) ([]ReservationWithTemplate, error)
	ListRoster(ctx context.Context, templateID uuid.UUID, date schedule.Date) ([]RosterEntry, error)
	Calendar(ctx context.Context, days int) ([]CalendarEntry, error)
	DeleteTemplate(ctx context.Context, templateID uuid.UUID) ([]Reservation, error)
}

type Options struct {
	// Location is the facility time zone that decides what "today" is.
	Location     *time.Location
	CalendarDays int
	Now          func() time.Time
	// NotifyTimeout bounds each background notification.
	NotifyTimeout time.Duration
}

type service struct {
	templates    schedule.Repository
	store        Store
	notifier     Notifier
	loc          *time.Location
	calendarDays int
	now          func() time.Time

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

func NewService(templates schedule.Repository, store Store, notifier Notifier, opts Options) Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CalendarDays <= 0 {
		opts.CalendarDays = DefaultCalendarDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}

	return &service{
		templates:    templates,
		store:        store,
		notifier:     notifier,
		loc:          opts.Location,
		calendarDays: opts.CalendarDays,
		now:          opts.Now,

		notifyTimeout: opts.NotifyTimeout,
	}
}

// notify runs fn off the request path. The change it reports is already
// committed, so it outlives the request context but not notifyTimeout.
func (s *service) notify(ctx context.Context, what string, fn func(ctx context.Context) error, args ...any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.WithError(err).Warn(what+" notification failed", args...)
		}
	}()
}

func (s *service) today() schedule.Date {
	return schedule.Today(s.now(), s.loc)
}

func (s *service) Book(ctx context.Context, m Member, templateID uuid.UUID, date schedule.Date) (*Reservation, error) {
	res, occ, err := s.book(ctx, m, templateID, date)
	metrics.RecordBooking(bookingOutcome(err))
	if err != nil {
		return nil, err
	}

	logger.Info("reservation created",
		"reservation_id", res.ID,
		"user_id", m.UserID,
		"template_id", templateID,
		"date", date.String(),
	)

	created := *res
	s.notify(ctx, "reservation", func(ctx context.Context) error {
		return s.notifier.ReservationCreated(ctx, m, occ, created)
	}, "reservation_id", res.ID)
	return res, nil
}

func (s *service) book(ctx context.Context, m Member, templateID uuid.UUID, date schedule.Date) (*Reservation, schedule.Occurrence, error) {
	if !m.Gender.Valid() {
		return nil, schedule.Occurrence{}, ErrInvalidMember
	}

	tpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, schedule.Occurrence{}, err
	}

	if date.IsZero() || !schedule.IsOccurrenceDate(*tpl, date) {
		return nil, schedule.Occurrence{}, fmt.Errorf("%w: %s is a %s, class runs on %s",
			ErrInvalidOccurrence, date, date.Weekday(), tpl.DayOfWeek)
	}
	if date.Before(s.today()) {
		return nil, schedule.Occurrence{}, fmt.Errorf("%w: %s is in the past", ErrInvalidOccurrence, date)
	}

	if !tpl.Eligibility.Admits(m.Gender) {
		return nil, schedule.Occurrence{}, ErrEligibilityMismatch
	}

	res, err := s.store.Book(ctx, BookParams{
		ID:         uuid.New(),
		UserID:     m.UserID,
		UserGender: m.Gender,
		UserEmail:  m.Email,
		TemplateID: tpl.ID,
		Date:       date,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, schedule.Occurrence{}, transient(err)
	}

	return res, schedule.Occurrence{Template: *tpl, Date: date}, nil
}

func (s *service) Cancel(ctx context.Context, m Member, reservationID uuid.UUID) error {
	res, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.UserID != m.UserID {
		return ErrForbidden
	}
	if res.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}

	cancelled, err := s.store.Cancel(ctx, reservationID, m.UserID, s.now().UTC())
	if err != nil {
		return transient(err)
	}
	metrics.RecordBookingCancellation()

	logger.Info("reservation cancelled",
		"reservation_id", reservationID,
		"user_id", m.UserID,
		"template_id", cancelled.TemplateID,
		"date", cancelled.OccurrenceDate.String(),
	)

	tpl, err := s.templates.GetTemplate(ctx, cancelled.TemplateID)
	if err != nil {
		tpl = nil
	}
	s.notify(ctx, "cancellation", func(ctx context.Context) error {
		return s.notifier.ReservationCancelled(ctx, m, tpl, *cancelled)
	}, "reservation_id", reservationID)
	return nil
}

func (s *service) GetOccupancy(ctx context.Context, templateID uuid.UUID, date schedule.Date) (*Occupancy, error) {
	tpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	booked, err := s.store.CurrentCount(ctx, templateID, date)
	if err != nil {
		return nil, err
	}

	occ := newOccupancy(*tpl, date, booked)
	return &occ, nil
}

func (s *service) ListMyReservations(ctx context.Context, userID int, status Status) ([]ReservationWithTemplate, error) {
	return s.store.ListByUser(ctx, userID, status)
}

func (s *service) ListRoster(ctx context.Context, templateID uuid.UUID, date schedule.Date) ([]RosterEntry, error) {
	if _, err := s.templates.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}
	return s.store.ListRoster(ctx, templateID, date)
}

// Calendar lists every occurrence from today for the given number of days with
// its current occupancy.
func (s *service) Calendar(ctx context.Context, days int) ([]CalendarEntry, error) {
	if days <= 0 {
		days = s.calendarDays
	}
	days = min(days, MaxCalendarDays)

	templates, err := s.templates.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	counts, err := s.store.CountsInRange(ctx, today, today.AddDays(days-1))
	if err != nil {
		return nil, err
	}

	entries := []CalendarEntry{}
	for occ := range schedule.OccurrencesInWindow(templates, today, days) {
		o := newOccupancy(occ.Template, occ.Date, counts[occ.Key()])
		entries = append(entries, CalendarEntry{
			Template:  occ.Template,
			Date:      occ.Date,
			Booked:    o.Booked,
			Available: o.Available,
			IsFull:    o.IsFull,
		})
	}
	return entries, nil
}

// DeleteTemplate retires the template and cancels every active reservation
// from today on. Past reservations keep pointing at the retired row.
func (s *service) DeleteTemplate(ctx context.Context, templateID uuid.UUID) ([]Reservation, error) {
	tpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.store.RetireTemplate(ctx, templateID, s.today(), s.now().UTC())
	if err != nil {
		return nil, transient(err)
	}
	metrics.RecordTemplateRetired(len(cancelled))

	logger.Info("template retired", "template_id", templateID, "cancelled_reservations", len(cancelled))

	retired := *tpl
	s.notify(ctx, "retire", func(ctx context.Context) error {
		return s.notifier.TemplateRetired(ctx, retired, cancelled)
	}, "template_id", templateID)
	return cancelled, nil
}

func transient(err error) error {
	if errors.Is(err, db.ErrTxContention) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrAlreadyBooked):
		return "already_booked"
	case errors.Is(err, ErrEligibilityMismatch):
		return "ineligible"
	case errors.Is(err, ErrInvalidOccurrence):
		return "invalid_occurrence"
	case errors.Is(err, schedule.ErrTemplateNotFound):
		return "template_not_found"
	case errors.Is(err, ErrInvalidMember):
		return "invalid_member"
	case errors.Is(err, ErrTransient):
		return "contention"
	default:
		return "error"
	}
}
