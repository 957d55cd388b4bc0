package bookings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ErrPastDate is returned when the requested training date precedes the
// current business-local date.
var ErrPastDate = errors.New("training date is in the past")

// Dispatcher hands a committed booking off to the notification fan-out. It
// must not block the caller.
type Dispatcher interface {
	Dispatch(bookingID int64)
}

type Service struct {
	repo       store.BookingRepository
	sched      domain.Schedule
	dispatcher Dispatcher
	now        func() time.Time
}

// NewService builds the booking service. dispatcher may be nil, in which
// case no background work is triggered after a successful create.
func NewService(repo store.BookingRepository, sched domain.Schedule, dispatcher Dispatcher) *Service {
	return &Service{
		repo:       repo,
		sched:      sched,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// AvailableSlots returns the open "HH:MM" times for the given "YYYY-MM-DD"
// date, in configured slot order.
func (s *Service) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	if strings.TrimSpace(date) == "" {
		return nil, validationError("date is required")
	}
	parsed, err := domain.ParseDate(date)
	if err != nil {
		return nil, validationError("invalid date format, expected YYYY-MM-DD")
	}

	booked, err := s.repo.ListBookedTimes(ctx, parsed)
	if err != nil {
		return nil, err
	}

	open := s.sched.OpenSlots(parsed, booked, s.now())
	out := make([]string, 0, len(open))
	for _, slot := range open {
		out = append(out, slot.String())
	}
	return out, nil
}

type CreateInput struct {
	ClientName   string
	ClientEmail  string
	TrainingDate string
	TrainingTime string
	Phone        string
	Message      string
}

// Create validates the request, persists the booking and hands it to the
// notification dispatcher. The returned booking carries the assigned id.
// Validation order: malformed fields, past date, then the slot-conflict
// check enforced by the store's unique constraint.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Booking, error) {
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return domain.Booking{}, validationError("client_name is required")
	}
	email := strings.TrimSpace(in.ClientEmail)
	if email == "" {
		return domain.Booking{}, validationError("client_email is required")
	}
	if !strings.Contains(email, "@") {
		return domain.Booking{}, validationError("client_email is invalid")
	}

	date, err := domain.ParseDate(in.TrainingDate)
	if err != nil {
		return domain.Booking{}, validationError("invalid training_date, expected YYYY-MM-DD")
	}
	slot, err := domain.ParseTimeOfDay(in.TrainingTime)
	if err != nil {
		return domain.Booking{}, validationError("invalid training_time, expected HH:MM")
	}

	if date.Before(s.sched.Today(s.now())) {
		return domain.Booking{}, ErrPastDate
	}

	created, err := s.repo.Create(ctx, domain.Booking{
		ClientName:   name,
		ClientEmail:  email,
		Phone:        strings.TrimSpace(in.Phone),
		TrainingDate: date,
		TrainingTime: slot,
		Message:      strings.TrimSpace(in.Message),
	})
	if err != nil {
		return domain.Booking{}, err
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(created.ID)
	}
	return created, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Booking, error) {
	return s.repo.List(ctx)
}
