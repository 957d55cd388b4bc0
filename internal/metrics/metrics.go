package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus instruments for the booking flow and the
// background notification path.
type Metrics struct {
	registry *prometheus.Registry

	BookingsCreated      prometheus.Counter
	BookingConflicts     prometheus.Counter
	CalendarSyncFailures prometheus.Counter
	EmailsSent           *prometheus.CounterVec
	EmailFailures        *prometheus.CounterVec
	RemindersScheduled   prometheus.Counter
	RemindersSent        prometheus.Counter
	NotifyDropped        prometheus.Counter
	HTTPRequestDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rezerwacja_bookings_created_total",
			Help: "Total number of bookings committed",
		}),

		BookingConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "rezerwacja_booking_conflicts_total",
			Help: "Total number of booking attempts rejected as slot conflicts",
		}),

		CalendarSyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "rezerwacja_calendar_sync_failures_total",
			Help: "Total number of failed calendar event creations",
		}),

		EmailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rezerwacja_emails_sent_total",
			Help: "Total number of emails sent by kind",
		}, []string{"kind"}),

		EmailFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rezerwacja_email_failures_total",
			Help: "Total number of failed email sends by kind",
		}, []string{"kind"}),

		RemindersScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "rezerwacja_reminders_scheduled_total",
			Help: "Total number of reminder jobs registered",
		}),

		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "rezerwacja_reminders_sent_total",
			Help: "Total number of reminder emails delivered",
		}),

		NotifyDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "rezerwacja_notify_dropped_total",
			Help: "Total number of notification jobs dropped due to a full queue",
		}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rezerwacja_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Handler serves the exposition endpoint for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
