package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classbook_booking_cancellations_total",
			Help: "Total number of reservations cancelled by members",
		},
	)

	TemplatesRetiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classbook_templates_retired_total",
			Help: "Total number of session templates deleted",
		},
	)

	CascadeCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classbook_cascade_cancellations_total",
			Help: "Reservations cancelled because their template was deleted",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classbook_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classbook_events_published_total",
			Help: "Domain events published to the broker",
		},
		[]string{"routing_key", "status"},
	)

	RemindersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classbook_reminder_occurrences_total",
			Help: "Occurrences announced by the reminder job",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(outcome string) {
	BookingsTotal.WithLabelValues(outcome).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordTemplateRetired(cascaded int) {
	TemplatesRetiredTotal.Inc()
	CascadeCancellationsTotal.Add(float64(cascaded))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordEvent(routingKey, status string) {
	EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}

func RecordReminders(n int) {
	RemindersTotal.Add(float64(n))
}
