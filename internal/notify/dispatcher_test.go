package notify

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

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendBookingConfirmation(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	return m.Called(ctx, to, occ, loc).Error(0)
}

func (m *MockMailer) SendCancellation(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	return m.Called(ctx, to, occ, loc).Error(0)
}

func (m *MockMailer) SendClassRetired(ctx context.Context, to string, occ schedule.Occurrence, loc *time.Location) error {
	return m.Called(ctx, to, occ, loc).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

var testNow = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

func newTestDispatcher(mailer Mailer, pub events.Publisher) *Dispatcher {
	d := New(mailer, pub, time.UTC)
	d.now = func() time.Time { return testNow }
	return d
}

func spinClass() schedule.Template {
	return schedule.Template{
		ID:              uuid.New(),
		Title:           "Spin",
		DayOfWeek:       schedule.Monday,
		StartTime:       "18:00",
		DurationMinutes: 45,
		Eligibility:     schedule.EligibilityMixed,
		Capacity:        2,
	}
}

func reservationFor(tpl schedule.Template, userID int, email string) booking.Reservation {
	return booking.Reservation{
		ID:             uuid.New(),
		UserID:         userID,
		UserEmail:      email,
		TemplateID:     tpl.ID,
		OccurrenceDate: schedule.MustParseDate("2024-06-03"),
		Status:         booking.StatusActive,
	}
}

func TestReservationCreated(t *testing.T) {
	mailer := new(MockMailer)
	pub := new(MockPublisher)
	d := newTestDispatcher(mailer, pub)

	tpl := spinClass()
	res := reservationFor(tpl, 5, "")
	occ := schedule.Occurrence{Template: tpl, Date: res.OccurrenceDate}

	mailer.On("SendBookingConfirmation", mock.Anything, "five@example.com", occ, time.UTC).Return(nil)
	pub.On("Publish", mock.Anything, events.ReservationCreated, mock.MatchedBy(func(ev events.Reservation) bool {
		return ev.ReservationID == res.ID &&
			ev.Title == "Spin" &&
			ev.OccurrenceDate == "2024-06-03" &&
			ev.StartsAt.Equal(time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC))
	})).Return(nil)

	err := d.ReservationCreated(context.Background(), booking.Member{UserID: 5, Email: "five@example.com"}, occ, res)
	require.NoError(t, err)
	mailer.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestReservationCreated_CollectsErrors(t *testing.T) {
	mailer := new(MockMailer)
	pub := new(MockPublisher)
	d := newTestDispatcher(mailer, pub)

	tpl := spinClass()
	res := reservationFor(tpl, 5, "")
	occ := schedule.Occurrence{Template: tpl, Date: res.OccurrenceDate}

	mailErr := errors.New("redis down")
	busErr := errors.New("broker down")
	mailer.On("SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(mailErr)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(busErr)

	err := d.ReservationCreated(context.Background(), booking.Member{UserID: 5, Email: "five@example.com"}, occ, res)
	assert.ErrorIs(t, err, mailErr)
	assert.ErrorIs(t, err, busErr)
}

func TestReservationCancelled_RetiredTemplate(t *testing.T) {
	mailer := new(MockMailer)
	pub := new(MockPublisher)
	d := newTestDispatcher(mailer, pub)

	res := reservationFor(spinClass(), 5, "")
	pub.On("Publish", mock.Anything, events.ReservationCancelled, mock.MatchedBy(func(ev events.Reservation) bool {
		return ev.Title == "" && ev.StartsAt.IsZero()
	})).Return(nil)

	err := d.ReservationCancelled(context.Background(), booking.Member{UserID: 5, Email: "five@example.com"}, nil, res)
	require.NoError(t, err)
	mailer.AssertNotCalled(t, "SendCancellation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	pub.AssertExpectations(t)
}

func TestReservationCancelled(t *testing.T) {
	mailer := new(MockMailer)
	pub := new(MockPublisher)
	d := newTestDispatcher(mailer, pub)

	tpl := spinClass()
	res := reservationFor(tpl, 5, "")
	mailer.On("SendCancellation", mock.Anything, "five@example.com",
		schedule.Occurrence{Template: tpl, Date: res.OccurrenceDate}, time.UTC).Return(nil)
	pub.On("Publish", mock.Anything, events.ReservationCancelled, mock.Anything).Return(nil)

	require.NoError(t, d.ReservationCancelled(context.Background(), booking.Member{UserID: 5, Email: "five@example.com"}, &tpl, res))
	mailer.AssertExpectations(t)
}

func TestTemplateRetired(t *testing.T) {
	mailer := new(MockMailer)
	pub := new(MockPublisher)
	d := newTestDispatcher(mailer, pub)

	tpl := spinClass()
	withEmail := reservationFor(tpl, 1, "one@example.com")
	withoutEmail := reservationFor(tpl, 2, "")

	mailer.On("SendClassRetired", mock.Anything, "one@example.com", mock.Anything, time.UTC).Return(nil).Once()
	pub.On("Publish", mock.Anything, events.TemplateRetired, mock.MatchedBy(func(ev events.Retired) bool {
		return ev.TemplateID == tpl.ID && len(ev.Cancelled) == 2 && ev.At.Equal(testNow)
	})).Return(nil)

	require.NoError(t, d.TemplateRetired(context.Background(), tpl, []booking.Reservation{withEmail, withoutEmail}))
	mailer.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestNew_Defaults(t *testing.T) {
	d := New(nil, nil, nil)

	tpl := spinClass()
	res := reservationFor(tpl, 1, "one@example.com")
	occ := schedule.Occurrence{Template: tpl, Date: res.OccurrenceDate}

	assert.NoError(t, d.ReservationCreated(context.Background(), booking.Member{UserID: 1, Email: "one@example.com"}, occ, res))
	assert.NoError(t, d.TemplateRetired(context.Background(), tpl, []booking.Reservation{res}))
}
