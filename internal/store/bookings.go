package store

import (
	"context"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b domain.Booking) (domain.Booking, error)
	GetByID(ctx context.Context, id int64) (domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListBookedTimes(ctx context.Context, date domain.Date) ([]domain.TimeOfDay, error)
	SetCalendarEventID(ctx context.Context, id int64, eventID string) error
	MarkReminderSent(ctx context.Context, id int64) error

	// ListPendingReminders returns bookings on or after from whose reminder
	// has not been sent yet.
	ListPendingReminders(ctx context.Context, from domain.Date) ([]domain.Booking, error)
}
