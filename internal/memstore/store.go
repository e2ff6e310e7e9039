// Package memstore keeps templates and reservations in process memory. It backs
// STORE_DRIVER=memory and the concurrency tests of the booking engine.
package memstore

import (
	"context"
	"sync"
	"time"

	"classbook/internal/booking"
	"classbook/internal/schedule"

	"github.com/google/uuid"
)

type templateEntry struct {
	// lock is held shared by bookings and exclusively by retire.
	lock    sync.RWMutex
	tpl     schedule.Template
	deleted bool
}

type Store struct {
	now func() time.Time

	tplMu     sync.RWMutex
	templates map[uuid.UUID]*templateEntry

	occMu       sync.Mutex
	occurrences map[schedule.OccurrenceKey]*occurrence

	resMu        sync.RWMutex
	reservations map[uuid.UUID]booking.Reservation
}

var (
	_ schedule.Repository = (*Store)(nil)
	_ booking.Store       = (*Store)(nil)
)

func New() *Store {
	return &Store{
		now:          time.Now,
		templates:    make(map[uuid.UUID]*templateEntry),
		occurrences:  make(map[schedule.OccurrenceKey]*occurrence),
		reservations: make(map[uuid.UUID]booking.Reservation),
	}
}

func (s *Store) CreateTemplate(_ context.Context, t schedule.Template) (*schedule.Template, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	s.tplMu.Lock()
	s.templates[t.ID] = &templateEntry{tpl: t}
	s.tplMu.Unlock()

	return &t, nil
}

func (s *Store) ListTemplates(_ context.Context) ([]schedule.Template, error) {
	s.tplMu.RLock()
	entries := make([]*templateEntry, 0, len(s.templates))
	for _, e := range s.templates {
		entries = append(entries, e)
	}
	s.tplMu.RUnlock()

	templates := []schedule.Template{}
	for _, e := range entries {
		e.lock.RLock()
		if !e.deleted {
			templates = append(templates, e.tpl)
		}
		e.lock.RUnlock()
	}

	schedule.SortTemplates(templates)
	return templates, nil
}

func (s *Store) GetTemplate(_ context.Context, id uuid.UUID) (*schedule.Template, error) {
	e, ok := s.entry(id)
	if !ok {
		return nil, schedule.ErrTemplateNotFound
	}

	e.lock.RLock()
	defer e.lock.RUnlock()
	if e.deleted {
		return nil, schedule.ErrTemplateNotFound
	}
	t := e.tpl
	return &t, nil
}

func (s *Store) entry(id uuid.UUID) (*templateEntry, bool) {
	s.tplMu.RLock()
	defer s.tplMu.RUnlock()
	e, ok := s.templates[id]
	return e, ok
}

// templateAny returns the template even when retired.
func (s *Store) templateAny(id uuid.UUID) (schedule.Template, bool) {
	e, ok := s.entry(id)
	if !ok {
		return schedule.Template{}, false
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.tpl, true
}
