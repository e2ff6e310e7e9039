package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/templates", "200", 0.5)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/templates", "200"))
	assert.Equal(t, float64(1), count)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/reservations", "201", 0.1)
	RecordHTTPRequest("POST", "/reservations", "201", 0.2)
	RecordHTTPRequest("POST", "/reservations", "409", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/reservations", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/reservations", "409")))
}

func TestRecordBooking(t *testing.T) {
	BookingsTotal.Reset()

	RecordBooking("booked")
	RecordBooking("booked")
	RecordBooking("capacity_exceeded")

	assert.Equal(t, float64(2), testutil.ToFloat64(BookingsTotal.WithLabelValues("booked")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BookingsTotal.WithLabelValues("capacity_exceeded")))
}

func TestRecordBookingCancellation(t *testing.T) {
	before := testutil.ToFloat64(BookingCancellationsTotal)

	RecordBookingCancellation()

	assert.Equal(t, before+1, testutil.ToFloat64(BookingCancellationsTotal))
}

func TestRecordTemplateRetired(t *testing.T) {
	retired := testutil.ToFloat64(TemplatesRetiredTotal)
	cascaded := testutil.ToFloat64(CascadeCancellationsTotal)

	RecordTemplateRetired(3)

	assert.Equal(t, retired+1, testutil.ToFloat64(TemplatesRetiredTotal))
	assert.Equal(t, cascaded+3, testutil.ToFloat64(CascadeCancellationsTotal))
}

func TestRecordEmailAndEvents(t *testing.T) {
	EmailsSentTotal.Reset()
	EventsPublishedTotal.Reset()

	RecordEmail("booking_confirmation", "queued")
	RecordEvent("reservation.created", "ok")

	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("booking_confirmation", "queued")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EventsPublishedTotal.WithLabelValues("reservation.created", "ok")))
}

func TestRecordReminders(t *testing.T) {
	before := testutil.ToFloat64(RemindersTotal)

	RecordReminders(4)

	assert.Equal(t, before+4, testutil.ToFloat64(RemindersTotal))
}
