package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store"
)

type fakeRepo struct {
	createFn          func(ctx context.Context, b domain.Booking) (domain.Booking, error)
	listFn            func(ctx context.Context) ([]domain.Booking, error)
	listBookedTimesFn func(ctx context.Context, date domain.Date) ([]domain.TimeOfDay, error)
}

func (f *fakeRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, b)
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (domain.Booking, error) {
	panic("not used")
}

func (f *fakeRepo) List(ctx context.Context) ([]domain.Booking, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx)
}

func (f *fakeRepo) ListBookedTimes(ctx context.Context, date domain.Date) ([]domain.TimeOfDay, error) {
	if f.listBookedTimesFn == nil {
		panic("ListBookedTimes not configured")
	}
	return f.listBookedTimesFn(ctx, date)
}

func (f *fakeRepo) SetCalendarEventID(ctx context.Context, id int64, eventID string) error {
	panic("not used")
}

func (f *fakeRepo) MarkReminderSent(ctx context.Context, id int64) error {
	panic("not used")
}

func (f *fakeRepo) ListPendingReminders(ctx context.Context, from domain.Date) ([]domain.Booking, error) {
	panic("not used")
}

type fakeDispatcher struct {
	ids []int64
}

func (f *fakeDispatcher) Dispatch(bookingID int64) {
	f.ids = append(f.ids, bookingID)
}

func testSchedule(t *testing.T) domain.Schedule {
	t.Helper()
	sched, err := domain.NewSchedule(
		[]string{"16:15", "18:30"},
		[]string{"Mon", "Wed", "Fri"},
		"2025-08-22",
		"Europe/Warsaw",
	)
	if err != nil {
		t.Fatalf("NewSchedule error: %v", err)
	}
	return sched
}

// Saturday 2025-08-23, 09:00 in Warsaw.
func fixedNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	return time.Date(2025, 8, 23, 9, 0, 0, 0, loc)
}

func newTestService(t *testing.T, repo *fakeRepo, dispatcher Dispatcher) *Service {
	t.Helper()
	svc := NewService(repo, testSchedule(t), dispatcher)
	svc.now = func() time.Time { return fixedNow(t) }
	return svc
}

func TestAvailableSlots_RequiresDate(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil)

	for _, bad := range []string{"", "  ", "not-a-date", "27-08-2025"} {
		_, err := svc.AvailableSlots(context.Background(), bad)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("AvailableSlots(%q) error = %v, want *ValidationError", bad, err)
		}
	}
}

func TestAvailableSlots_SubtractsBookedTimes(t *testing.T) {
	repo := &fakeRepo{
		listBookedTimesFn: func(ctx context.Context, date domain.Date) ([]domain.TimeOfDay, error) {
			return []domain.TimeOfDay{{Hour: 16, Minute: 15}}, nil
		},
	}
	svc := newTestService(t, repo, nil)

	got, err := svc.AvailableSlots(context.Background(), "2025-08-27")
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}
	if len(got) != 1 || got[0] != "18:30" {
		t.Fatalf("slots = %v, want [18:30]", got)
	}
}

func TestAvailableSlots_ClosedDayHasEmptyNonNilResult(t *testing.T) {
	repo := &fakeRepo{
		listBookedTimesFn: func(ctx context.Context, date domain.Date) ([]domain.TimeOfDay, error) {
			return nil, nil
		},
	}
	svc := newTestService(t, repo, nil)

	// A Wednesday before the business start date.
	got, err := svc.AvailableSlots(context.Background(), "2025-08-20")
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("slots = %#v, want empty non-nil slice", got)
	}
}

func TestCreate_ValidationOrder(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil)

	cases := []struct {
		name string
		in   CreateInput
		want string
	}{
		{
			"missing name",
			CreateInput{ClientEmail: "a@b.pl", TrainingDate: "2025-08-27", TrainingTime: "16:15"},
			"client_name is required",
		},
		{
			"missing email",
			CreateInput{ClientName: "Jan", TrainingDate: "2025-08-27", TrainingTime: "16:15"},
			"client_email is required",
		},
		{
			"bad email",
			CreateInput{ClientName: "Jan", ClientEmail: "nope", TrainingDate: "2025-08-27", TrainingTime: "16:15"},
			"client_email is invalid",
		},
		{
			"bad date",
			CreateInput{ClientName: "Jan", ClientEmail: "a@b.pl", TrainingDate: "27.08.2025", TrainingTime: "16:15"},
			"invalid training_date, expected YYYY-MM-DD",
		},
		{
			"bad time",
			CreateInput{ClientName: "Jan", ClientEmail: "a@b.pl", TrainingDate: "2025-08-27", TrainingTime: "quarter past four"},
			"invalid training_time, expected HH:MM",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if vErr.Error() != tc.want {
				t.Fatalf("error = %q, want %q", vErr.Error(), tc.want)
			}
		})
	}
}

func TestCreate_RejectsPastDate(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientName:   "Jan",
		ClientEmail:  "jan@example.pl",
		TrainingDate: "2025-08-22",
		TrainingTime: "16:15",
	})
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("error = %v, want ErrPastDate", err)
	}
}

func TestCreate_TodayIsNotPast(t *testing.T) {
	var got domain.Booking
	repo := &fakeRepo{
		createFn: func(ctx context.Context, b domain.Booking) (domain.Booking, error) {
			got = b
			b.ID = 7
			return b, nil
		},
	}
	svc := newTestService(t, repo, nil)

	created, err := svc.Create(context.Background(), CreateInput{
		ClientName:   "Jan",
		ClientEmail:  "jan@example.pl",
		TrainingDate: "2025-08-23",
		TrainingTime: "16:15",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID != 7 {
		t.Fatalf("id = %d, want 7", created.ID)
	}
	if got.TrainingDate.String() != "2025-08-23" || got.TrainingTime.String() != "16:15" {
		t.Fatalf("persisted slot = %s %s", got.TrainingDate, got.TrainingTime)
	}
}

func TestCreate_TrimsFields(t *testing.T) {
	var got domain.Booking
	repo := &fakeRepo{
		createFn: func(ctx context.Context, b domain.Booking) (domain.Booking, error) {
			got = b
			return b, nil
		},
	}
	svc := newTestService(t, repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientName:   "  Jan Kowalski  ",
		ClientEmail:  " jan@example.pl ",
		TrainingDate: "2025-08-27",
		TrainingTime: "16:15",
		Phone:        " 600700800 ",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ClientName != "Jan Kowalski" {
		t.Fatalf("name = %q", got.ClientName)
	}
	if got.ClientEmail != "jan@example.pl" {
		t.Fatalf("email = %q", got.ClientEmail)
	}
	if got.Phone != "600700800" {
		t.Fatalf("phone = %q", got.Phone)
	}
}

func TestCreate_ConflictPassesThrough(t *testing.T) {
	repo := &fakeRepo{
		createFn: func(ctx context.Context, b domain.Booking) (domain.Booking, error) {
			return domain.Booking{}, store.ErrConflict
		},
	}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, repo, dispatcher)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientName:   "Jan",
		ClientEmail:  "jan@example.pl",
		TrainingDate: "2025-08-27",
		TrainingTime: "16:15",
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("error = %v, want store.ErrConflict", err)
	}
	if len(dispatcher.ids) != 0 {
		t.Fatalf("dispatched %v, want none on failure", dispatcher.ids)
	}
}

func TestCreate_DispatchesAfterCommit(t *testing.T) {
	repo := &fakeRepo{
		createFn: func(ctx context.Context, b domain.Booking) (domain.Booking, error) {
			b.ID = 42
			return b, nil
		},
	}
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, repo, dispatcher)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientName:   "Jan",
		ClientEmail:  "jan@example.pl",
		TrainingDate: "2025-08-27",
		TrainingTime: "16:15",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(dispatcher.ids) != 1 || dispatcher.ids[0] != 42 {
		t.Fatalf("dispatched = %v, want [42]", dispatcher.ids)
	}
}
