// Package reminder announces tomorrow's classes to their attendees on a cron schedule.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classbook/internal/booking"
	"classbook/internal/events"
	"classbook/internal/logger"
	"classbook/internal/metrics"
	"classbook/internal/schedule"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type TemplateLister interface {
	ListTemplates(ctx context.Context) ([]schedule.Template, error)
}

type RosterLister interface {
	ListRoster(ctx context.Context, templateID uuid.UUID, date schedule.Date) ([]booking.RosterEntry, error)
}

type Mailer interface {
	SendReminder(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error
}

type Job struct {
	templates TemplateLister
	rosters   RosterLister
	mailer    Mailer
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
}

// NewJob returns a reminder job. A nil mailer sends events only.
func NewJob(templates TemplateLister, rosters RosterLister, mailer Mailer, publisher events.Publisher, loc *time.Location) *Job {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Job{
		templates: templates,
		rosters:   rosters,
		mailer:    mailer,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

// Run handles every occurrence dated tomorrow and returns how many attendees were reminded.
// Occurrences without attendees are skipped. A failure for one occurrence does not stop the rest.
func (j *Job) Run(ctx context.Context) (int, error) {
	templates, err := j.templates.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}

	tomorrow := schedule.Today(j.now(), j.loc).AddDays(1)

	var (
		reminded int
		errs     []error
	)
	for occ := range schedule.OccurrencesInWindow(templates, tomorrow, 1) {
		roster, err := j.rosters.ListRoster(ctx, occ.Template.ID, occ.Date)
		if err != nil {
			errs = append(errs, fmt.Errorf("roster %s: %w", occ.Key(), err))
			continue
		}
		if len(roster) == 0 {
			continue
		}

		ev := events.Upcoming{
			TemplateID:     occ.Template.ID,
			Title:          occ.Template.Title,
			OccurrenceDate: occ.Date.String(),
			StartsAt:       occ.StartsAt(j.loc),
			Capacity:       occ.Template.Capacity,
			Attendees:      make([]events.Attendee, 0, len(roster)),
		}
		for _, entry := range roster {
			ev.Attendees = append(ev.Attendees, events.Attendee{ReservationID: entry.ReservationID, UserID: entry.UserID})

			if j.mailer != nil && entry.Email != "" {
				if err := j.mailer.SendReminder(ctx, entry.Email, occ, j.loc); err != nil {
					errs = append(errs, err)
				}
			}
		}
		if err := j.publisher.Publish(ctx, events.OccurrenceUpcoming, ev); err != nil {
			errs = append(errs, err)
		}

		reminded += len(roster)
	}

	metrics.RecordReminders(reminded)
	return reminded, errors.Join(errs...)
}

type Scheduler struct {
	cron *cron.Cron
}

// Schedule registers job under the cron expression, evaluated in the facility time zone.
func Schedule(job *Job, expr string) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(job.loc))

	_, err := c.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		n, err := job.Run(ctx)
		if err != nil {
			logger.WithError(err).Warn("reminder run finished with errors", "reminded", n)
			return
		}
		logger.Info("reminders sent", "reminded", n)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", expr, err)
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
