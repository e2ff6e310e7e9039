package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"classbook/internal/booking"
	"classbook/internal/schedule"

	"github.com/google/uuid"
)

// occurrence is the seat ledger of one dated class. Its mutex serialises
// bookings of that occurrence only.
type occurrence struct {
	mu     sync.Mutex
	active map[int]uuid.UUID // user id -> reservation id
	order  []uuid.UUID       // every reservation ever made, in booking order
}

func (s *Store) occurrence(key schedule.OccurrenceKey) *occurrence {
	s.occMu.Lock()
	defer s.occMu.Unlock()

	o, ok := s.occurrences[key]
	if !ok {
		o = &occurrence{active: make(map[int]uuid.UUID)}
		s.occurrences[key] = o
	}
	return o
}

func (s *Store) lookupOccurrence(key schedule.OccurrenceKey) (*occurrence, bool) {
	s.occMu.Lock()
	defer s.occMu.Unlock()
	o, ok := s.occurrences[key]
	return o, ok
}

func (s *Store) Book(_ context.Context, p booking.BookParams) (*booking.Reservation, error) {
	e, ok := s.entry(p.TemplateID)
	if !ok {
		return nil, schedule.ErrTemplateNotFound
	}

	e.lock.RLock()
	defer e.lock.RUnlock()
	if e.deleted {
		return nil, schedule.ErrTemplateNotFound
	}

	occ := s.occurrence(schedule.OccurrenceKey{TemplateID: p.TemplateID, Date: p.Date})
	occ.mu.Lock()
	defer occ.mu.Unlock()

	if _, dup := occ.active[p.UserID]; dup {
		return nil, booking.ErrAlreadyBooked
	}
	if len(occ.active) >= e.tpl.Capacity {
		return nil, booking.ErrCapacityExceeded
	}

	res := booking.Reservation{
		ID:             p.ID,
		UserID:         p.UserID,
		UserGender:     p.UserGender,
		UserEmail:      p.UserEmail,
		TemplateID:     p.TemplateID,
		OccurrenceDate: p.Date,
		Status:         booking.StatusActive,
		CreatedAt:      p.CreatedAt,
	}
	occ.active[p.UserID] = res.ID
	occ.order = append(occ.order, res.ID)
	s.putReservation(res)

	return &res, nil
}

func (s *Store) Cancel(_ context.Context, reservationID uuid.UUID, userID int, at time.Time) (*booking.Reservation, error) {
	res, ok := s.getReservation(reservationID)
	if !ok {
		return nil, booking.ErrReservationNotFound
	}

	occ := s.occurrence(res.Key())
	occ.mu.Lock()
	defer occ.mu.Unlock()

	// Re-read under the occurrence lock; status only changes while it is held.
	res, _ = s.getReservation(reservationID)
	if res.UserID != userID {
		return nil, booking.ErrForbidden
	}
	if res.Status != booking.StatusActive {
		return nil, booking.ErrAlreadyCancelled
	}

	cancelOne(occ, &res, at)
	s.putReservation(res)
	return &res, nil
}

// cancelOne releases the seat of res. The caller holds occ.mu.
func cancelOne(occ *occurrence, res *booking.Reservation, at time.Time) {
	cancelledAt := at
	res.Status = booking.StatusCancelled
	res.CancelledAt = &cancelledAt
	delete(occ.active, res.UserID)
}

func (s *Store) GetReservation(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	res, ok := s.getReservation(id)
	if !ok {
		return nil, booking.ErrReservationNotFound
	}
	return &res, nil
}

func (s *Store) CurrentCount(_ context.Context, templateID uuid.UUID, date schedule.Date) (int, error) {
	occ, ok := s.lookupOccurrence(schedule.OccurrenceKey{TemplateID: templateID, Date: date})
	if !ok {
		return 0, nil
	}
	occ.mu.Lock()
	defer occ.mu.Unlock()
	return len(occ.active), nil
}

func (s *Store) CountsInRange(_ context.Context, from, to schedule.Date) (map[schedule.OccurrenceKey]int, error) {
	s.occMu.Lock()
	matched := make(map[schedule.OccurrenceKey]*occurrence)
	for key, occ := range s.occurrences {
		if !key.Date.Before(from) && !key.Date.After(to) {
			matched[key] = occ
		}
	}
	s.occMu.Unlock()

	counts := make(map[schedule.OccurrenceKey]int, len(matched))
	for key, occ := range matched {
		occ.mu.Lock()
		if n := len(occ.active); n > 0 {
			counts[key] = n
		}
		occ.mu.Unlock()
	}
	return counts, nil
}

func (s *Store) ListRoster(_ context.Context, templateID uuid.UUID, date schedule.Date) ([]booking.RosterEntry, error) {
	roster := []booking.RosterEntry{}

	occ, ok := s.lookupOccurrence(schedule.OccurrenceKey{TemplateID: templateID, Date: date})
	if !ok {
		return roster, nil
	}

	occ.mu.Lock()
	defer occ.mu.Unlock()

	for _, id := range occ.order {
		res, ok := s.getReservation(id)
		if !ok || res.Status != booking.StatusActive {
			continue
		}
		roster = append(roster, booking.RosterEntry{
			ReservationID: res.ID,
			UserID:        res.UserID,
			Gender:        res.UserGender,
			Email:         res.UserEmail,
			CreatedAt:     res.CreatedAt,
		})
	}

	slices.SortStableFunc(roster, func(a, b booking.RosterEntry) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return roster, nil
}

func (s *Store) ListByUser(_ context.Context, userID int, status booking.Status) ([]booking.ReservationWithTemplate, error) {
	s.resMu.RLock()
	var mine []booking.Reservation
	for _, res := range s.reservations {
		if res.UserID == userID && (status == "" || res.Status == status) {
			mine = append(mine, res)
		}
	}
	s.resMu.RUnlock()

	out := make([]booking.ReservationWithTemplate, 0, len(mine))
	for _, res := range mine {
		tpl, _ := s.templateAny(res.TemplateID)
		out = append(out, booking.ReservationWithTemplate{
			Reservation:     res,
			Title:           tpl.Title,
			Instructor:      tpl.Instructor,
			DayOfWeek:       tpl.DayOfWeek,
			StartTime:       tpl.StartTime,
			DurationMinutes: tpl.DurationMinutes,
		})
	}

	slices.SortFunc(out, func(a, b booking.ReservationWithTemplate) int {
		return cmp.Or(
			a.OccurrenceDate.Compare(b.OccurrenceDate),
			b.CreatedAt.Compare(a.CreatedAt),
		)
	})
	return out, nil
}

func (s *Store) RetireTemplate(_ context.Context, templateID uuid.UUID, from schedule.Date, at time.Time) ([]booking.Reservation, error) {
	e, ok := s.entry(templateID)
	if !ok {
		return nil, schedule.ErrTemplateNotFound
	}

	// Waits for in-flight bookings of this template; later ones see deleted.
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.deleted {
		return nil, schedule.ErrTemplateNotFound
	}
	e.deleted = true

	s.occMu.Lock()
	var keys []schedule.OccurrenceKey
	for key := range s.occurrences {
		if key.TemplateID == templateID && !key.Date.Before(from) {
			keys = append(keys, key)
		}
	}
	s.occMu.Unlock()

	cancelled := []booking.Reservation{}
	for _, key := range keys {
		occ, _ := s.lookupOccurrence(key)
		occ.mu.Lock()
		for _, id := range occ.active {
			res, ok := s.getReservation(id)
			if !ok {
				continue
			}
			cancelOne(occ, &res, at)
			s.putReservation(res)
			cancelled = append(cancelled, res)
		}
		occ.mu.Unlock()
	}

	slices.SortFunc(cancelled, func(a, b booking.Reservation) int {
		return cmp.Or(a.OccurrenceDate.Compare(b.OccurrenceDate), a.CreatedAt.Compare(b.CreatedAt))
	})
	return cancelled, nil
}

func (s *Store) getReservation(id uuid.UUID) (booking.Reservation, bool) {
	s.resMu.RLock()
	defer s.resMu.RUnlock()
	res, ok := s.reservations[id]
	return res, ok
}

func (s *Store) putReservation(res booking.Reservation) {
	s.resMu.Lock()
	s.reservations[res.ID] = res
	s.resMu.Unlock()
}
