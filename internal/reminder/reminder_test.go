package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"classbook/internal/booking"
	"classbook/internal/events"
	"classbook/internal/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTemplates struct {
	mock.Mock
}

func (m *MockTemplates) ListTemplates(ctx context.Context) ([]schedule.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schedule.Template), args.Error(1)
}

type MockRosters struct {
	mock.Mock
}

func (m *MockRosters) ListRoster(ctx context.Context, templateID uuid.UUID, date schedule.Date) ([]booking.RosterEntry, error) {
	args := m.Called(ctx, templateID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.RosterEntry), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReminder(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	return m.Called(ctx, to, occ, loc).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

func (m *MockPublisher) Close() error { return nil }

func class(title string, day schedule.Weekday, start string) schedule.Template {
	return schedule.Template{
		ID:              uuid.New(),
		Title:           title,
		DayOfWeek:       day,
		StartTime:       schedule.ClockTime(start),
		DurationMinutes: 60,
		Eligibility:     schedule.EligibilityMixed,
		Capacity:        8,
	}
}

// Wednesday evening; tomorrow is Thursday 2024-06-06.
var wednesdayEvening = time.Date(2024, time.June, 5, 18, 0, 0, 0, time.UTC)

func newTestJob(templates *MockTemplates, rosters *MockRosters, mailer *MockMailer, pub *MockPublisher) *Job {
	j := NewJob(templates, rosters, mailer, pub, time.UTC)
	j.now = func() time.Time { return wednesdayEvening }
	return j
}

func TestRun(t *testing.T) {
	templates, rosters, mailer, pub := new(MockTemplates), new(MockRosters), new(MockMailer), new(MockPublisher)
	job := newTestJob(templates, rosters, mailer, pub)

	thursdayYoga := class("Yoga", schedule.Thursday, "07:00")
	thursdaySpin := class("Spin", schedule.Thursday, "19:00")
	fridayBox := class("Box", schedule.Friday, "07:00")
	thursday := schedule.MustParseDate("2024-06-06")

	templates.On("ListTemplates", mock.Anything).Return([]schedule.Template{thursdaySpin, fridayBox, thursdayYoga}, nil)
	rosters.On("ListRoster", mock.Anything, thursdayYoga.ID, thursday).Return([]booking.RosterEntry{
		{ReservationID: uuid.New(), UserID: 1, Email: "one@example.com"},
		{ReservationID: uuid.New(), UserID: 2},
	}, nil)
	rosters.On("ListRoster", mock.Anything, thursdaySpin.ID, thursday).Return([]booking.RosterEntry{}, nil)

	mailer.On("SendReminder", mock.Anything, "one@example.com",
		schedule.Occurrence{Template: thursdayYoga, Date: thursday}, time.UTC).Return(nil).Once()
	pub.On("Publish", mock.Anything, events.OccurrenceUpcoming, mock.MatchedBy(func(ev events.Upcoming) bool {
		return ev.TemplateID == thursdayYoga.ID &&
			ev.OccurrenceDate == "2024-06-06" &&
			ev.StartsAt.Equal(time.Date(2024, 6, 6, 7, 0, 0, 0, time.UTC)) &&
			len(ev.Attendees) == 2
	})).Return(nil).Once()

	n, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rosters.AssertNotCalled(t, "ListRoster", mock.Anything, fridayBox.ID, mock.Anything)
	mailer.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	templates, rosters, mailer, pub := new(MockTemplates), new(MockRosters), new(MockMailer), new(MockPublisher)
	job := newTestJob(templates, rosters, mailer, pub)

	broken := class("Broken", schedule.Thursday, "06:00")
	fine := class("Fine", schedule.Thursday, "08:00")

	templates.On("ListTemplates", mock.Anything).Return([]schedule.Template{broken, fine}, nil)
	rosters.On("ListRoster", mock.Anything, broken.ID, mock.Anything).Return(nil, errors.New("db down"))
	rosters.On("ListRoster", mock.Anything, fine.ID, mock.Anything).
		Return([]booking.RosterEntry{{ReservationID: uuid.New(), UserID: 3}}, nil)
	pub.On("Publish", mock.Anything, events.OccurrenceUpcoming, mock.Anything).Return(nil)

	n, err := job.Run(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 1, n)
}

func TestRun_TemplateError(t *testing.T) {
	templates := new(MockTemplates)
	job := newTestJob(templates, new(MockRosters), new(MockMailer), new(MockPublisher))

	templates.On("ListTemplates", mock.Anything).Return(nil, errors.New("db down"))

	_, err := job.Run(context.Background())
	assert.Error(t, err)
}

func TestSchedule(t *testing.T) {
	job := NewJob(new(MockTemplates), new(MockRosters), nil, nil, nil)

	s, err := Schedule(job, "0 18 * * *")
	require.NoError(t, err)
	require.Len(t, s.cron.Entries(), 1)

	next := s.cron.Entries()[0].Schedule.Next(wednesdayEvening)
	assert.Equal(t, time.Date(2024, 6, 6, 18, 0, 0, 0, time.UTC), next)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	_, err = Schedule(job, "every tuesday")
	assert.Error(t, err)
}
