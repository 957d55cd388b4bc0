package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/mail"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/metrics"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store"
)

// ReminderScheduler registers one-shot jobs that email clients the day
// before their appointment. Jobs live in process memory; RecoverPending
// rebuilds them from booking rows after a restart.
type ReminderScheduler struct {
	scheduler gocron.Scheduler
	repo      store.BookingRepository
	mailer    Mailer
	loc       *time.Location
	sendAt    domain.TimeOfDay
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

func NewReminderScheduler(
	repo store.BookingRepository,
	mailer Mailer,
	loc *time.Location,
	sendAt domain.TimeOfDay,
	m *metrics.Metrics,
	log *slog.Logger,
) (*ReminderScheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}

	return &ReminderScheduler{
		scheduler: scheduler,
		repo:      repo,
		mailer:    mailer,
		loc:       loc,
		sendAt:    sendAt,
		metrics:   m,
		log:       log.With(slog.String("component", "notify.reminders")),
		now:       time.Now,
	}, nil
}

func (r *ReminderScheduler) Start() {
	r.scheduler.Start()
}

func (r *ReminderScheduler) Shutdown() error {
	return r.scheduler.Shutdown()
}

// ReminderTime is the instant the reminder for b should go out: the day
// before the appointment, at the configured local time.
func (r *ReminderScheduler) ReminderTime(b domain.Booking) time.Time {
	return b.TrainingDate.AddDays(-1).At(r.sendAt, r.loc)
}

// Schedule registers a one-shot reminder job for the booking. Instants
// already in the past are skipped: the appointment is too close for a
// day-ahead reminder.
func (r *ReminderScheduler) Schedule(b domain.Booking) error {
	if b.ReminderSent {
		return nil
	}
	at := r.ReminderTime(b)
	if !at.After(r.now()) {
		return nil
	}

	_, err := r.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(r.send, b.ID),
	)
	if err != nil {
		return err
	}

	r.metrics.RemindersScheduled.Inc()
	r.log.Info("reminder scheduled", slog.Int64("booking_id", b.ID), slog.Time("send_at", at))
	return nil
}

// RecoverPending re-registers reminder jobs for persisted bookings that have
// not been reminded yet. Run once at startup, after Start.
func (r *ReminderScheduler) RecoverPending(ctx context.Context) error {
	from := domain.DateOf(r.now().In(r.loc))
	pending, err := r.repo.ListPendingReminders(ctx, from)
	if err != nil {
		return err
	}

	recovered := 0
	for _, b := range pending {
		if err := r.Schedule(b); err != nil {
			r.log.Warn("reminder recovery failed", slog.Int64("booking_id", b.ID), slog.Any("err", err))
			continue
		}
		recovered++
	}
	if recovered > 0 {
		r.log.Info("pending reminders recovered", slog.Int("count", recovered))
	}
	return nil
}

func (r *ReminderScheduler) send(bookingID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log := r.log.With(slog.Int64("booking_id", bookingID))

	b, err := r.repo.GetByID(ctx, bookingID)
	if err != nil {
		log.Error("booking load failed", slog.Any("err", err))
		return
	}
	if b.ReminderSent {
		return
	}

	subject, body := mail.ClientReminder(b)
	if err := r.mailer.Send(ctx, b.ClientEmail, subject, body); err != nil {
		log.Error("reminder email failed", slog.Any("err", err))
		r.metrics.EmailFailures.WithLabelValues("reminder").Inc()
		return
	}
	r.metrics.RemindersSent.Inc()

	if err := r.repo.MarkReminderSent(ctx, b.ID); err != nil {
		log.Error("marking reminder sent failed", slog.Any("err", err))
		return
	}
	log.Info("reminder sent")
}
