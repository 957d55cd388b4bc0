package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/mail"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/metrics"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store"
)

// jobTimeout bounds a single fan-out run; the calendar API and SMTP both sit
// behind it.
const jobTimeout = time.Minute

type CalendarClient interface {
	CreateBookingEvent(ctx context.Context, b domain.Booking) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Workers      int
	QueueSize    int
	TrainerEmail string
}

// Dispatcher runs the per-booking notification fan-out on a bounded worker
// pool: calendar event creation, confirmation and trainer emails, and
// reminder scheduling. Every step is best-effort; failures are logged and
// counted, never propagated back to the booking flow.
type Dispatcher struct {
	repo         store.BookingRepository
	calendar     CalendarClient // nil when calendar sync is disabled
	mailer       Mailer
	reminders    *ReminderScheduler
	metrics      *metrics.Metrics
	log          *slog.Logger
	trainerEmail string

	workers int
	jobs    chan int64
	wg      sync.WaitGroup
}

func NewDispatcher(
	cfg Config,
	repo store.BookingRepository,
	calendar CalendarClient,
	mailer Mailer,
	reminders *ReminderScheduler,
	m *metrics.Metrics,
	log *slog.Logger,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}

	return &Dispatcher{
		repo:         repo,
		calendar:     calendar,
		mailer:       mailer,
		reminders:    reminders,
		metrics:      m,
		log:          log.With(slog.String("component", "notify.dispatcher")),
		trainerEmail: cfg.TrainerEmail,
		workers:      workers,
		jobs:         make(chan int64, queueSize),
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for id := range d.jobs {
				d.process(id)
			}
		}()
	}
}

// Stop drains the queue and waits for in-flight jobs. Dispatch must not be
// called after Stop.
func (d *Dispatcher) Stop() {
	close(d.jobs)
	d.wg.Wait()
}

// Dispatch enqueues the booking for fan-out without blocking. A full queue
// drops the job; the booking itself is already committed.
func (d *Dispatcher) Dispatch(bookingID int64) {
	select {
	case d.jobs <- bookingID:
	default:
		d.log.Warn("notification queue full, dropping job", slog.Int64("booking_id", bookingID))
		d.metrics.NotifyDropped.Inc()
	}
}

func (d *Dispatcher) process(bookingID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log := d.log.With(slog.Int64("booking_id", bookingID))

	b, err := d.repo.GetByID(ctx, bookingID)
	if err != nil {
		log.Error("booking load failed", slog.Any("err", err))
		return
	}

	d.syncCalendar(ctx, log, &b)
	d.sendEmails(ctx, log, b)
	d.scheduleReminder(log, b)
}

func (d *Dispatcher) syncCalendar(ctx context.Context, log *slog.Logger, b *domain.Booking) {
	if d.calendar == nil {
		return
	}

	eventID, err := d.calendar.CreateBookingEvent(ctx, *b)
	if err != nil {
		log.Error("calendar event creation failed", slog.Any("err", err))
		d.metrics.CalendarSyncFailures.Inc()
		return
	}

	b.CalendarEventID = eventID
	if err := d.repo.SetCalendarEventID(ctx, b.ID, eventID); err != nil {
		log.Error("saving calendar event id failed", slog.Any("err", err), slog.String("event_id", eventID))
		return
	}
	log.Info("calendar event created", slog.String("event_id", eventID))
}

func (d *Dispatcher) sendEmails(ctx context.Context, log *slog.Logger, b domain.Booking) {
	subject, body := mail.ClientConfirmation(b)
	d.send(ctx, log, "confirmation", b.ClientEmail, subject, body)

	if d.trainerEmail != "" {
		subject, body = mail.TrainerNotification(b)
		d.send(ctx, log, "trainer_notification", d.trainerEmail, subject, body)
	}
}

func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, kind, to, subject, body string) {
	if err := d.mailer.Send(ctx, to, subject, body); err != nil {
		log.Error("email send failed", slog.Any("err", err), slog.String("kind", kind))
		d.metrics.EmailFailures.WithLabelValues(kind).Inc()
		return
	}
	d.metrics.EmailsSent.WithLabelValues(kind).Inc()
}

func (d *Dispatcher) scheduleReminder(log *slog.Logger, b domain.Booking) {
	if d.reminders == nil {
		return
	}
	if err := d.reminders.Schedule(b); err != nil {
		log.Error("reminder scheduling failed", slog.Any("err", err))
	}
}
