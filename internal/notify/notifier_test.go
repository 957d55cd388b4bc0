package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/metrics"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store"
)

type fakeRepo struct {
	mu sync.Mutex

	bookings        map[int64]domain.Booking
	calendarEventID map[int64]string
	reminderSent    map[int64]bool
	pending         []domain.Booking

	getErr error
}

func newFakeRepo(bookings ...domain.Booking) *fakeRepo {
	f := &fakeRepo{
		bookings:        make(map[int64]domain.Booking),
		calendarEventID: make(map[int64]string),
		reminderSent:    make(map[int64]bool),
	}
	for _, b := range bookings {
		f.bookings[b.ID] = b
	}
	return f
}

func (f *fakeRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	panic("not used")
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.Booking{}, f.getErr
	}
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]domain.Booking, error) {
	panic("not used")
}

func (f *fakeRepo) ListBookedTimes(ctx context.Context, date domain.Date) ([]domain.TimeOfDay, error) {
	panic("not used")
}

func (f *fakeRepo) SetCalendarEventID(ctx context.Context, id int64, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calendarEventID[id] = eventID
	return nil
}

func (f *fakeRepo) MarkReminderSent(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminderSent[id] = true
	return nil
}

func (f *fakeRepo) ListPendingReminders(ctx context.Context, from domain.Date) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

type fakeCalendar struct {
	mu      sync.Mutex
	eventID string
	err     error
	calls   int
}

func (f *fakeCalendar) CreateBookingEvent(ctx context.Context, b domain.Booking) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.eventID, nil
}

type sentMail struct {
	to      string
	subject string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failTo[to]; ok {
		return err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject})
	return nil
}

func (f *fakeMailer) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.to)
	}
	return out
}

func testBooking(id int64) domain.Booking {
	return domain.Booking{
		ID:           id,
		ClientName:   "Jan Kowalski",
		ClientEmail:  "jan@example.pl",
		TrainingDate: domain.Date{Year: 2025, Month: time.August, Day: 27},
		TrainingTime: domain.TimeOfDay{Hour: 16, Minute: 15},
	}
}

func runDispatcher(d *Dispatcher, ids ...int64) {
	d.Start()
	for _, id := range ids {
		d.Dispatch(id)
	}
	d.Stop()
}

func TestDispatcher_FullFanOut(t *testing.T) {
	repo := newFakeRepo(testBooking(1))
	cal := &fakeCalendar{eventID: "evt-123"}
	mailer := &fakeMailer{}

	d := NewDispatcher(Config{Workers: 1, QueueSize: 4, TrainerEmail: "trener@example.pl"},
		repo, cal, mailer, nil, metrics.New(), nil)
	runDispatcher(d, 1)

	if repo.calendarEventID[1] != "evt-123" {
		t.Fatalf("calendar event id = %q, want %q", repo.calendarEventID[1], "evt-123")
	}
	got := mailer.recipients()
	if len(got) != 2 || got[0] != "jan@example.pl" || got[1] != "trener@example.pl" {
		t.Fatalf("recipients = %v, want [jan@example.pl trener@example.pl]", got)
	}
}

func TestDispatcher_CalendarFailureDoesNotBlockEmails(t *testing.T) {
	repo := newFakeRepo(testBooking(1))
	cal := &fakeCalendar{err: errors.New("google is down")}
	mailer := &fakeMailer{}

	d := NewDispatcher(Config{Workers: 1, TrainerEmail: "trener@example.pl"},
		repo, cal, mailer, nil, metrics.New(), nil)
	runDispatcher(d, 1)

	if _, ok := repo.calendarEventID[1]; ok {
		t.Fatalf("event id stored despite calendar failure")
	}
	if got := mailer.recipients(); len(got) != 2 {
		t.Fatalf("recipients = %v, want both emails sent", got)
	}
}

func TestDispatcher_EmailFailuresAreIndependent(t *testing.T) {
	repo := newFakeRepo(testBooking(1))
	mailer := &fakeMailer{failTo: map[string]error{"jan@example.pl": errors.New("mailbox full")}}

	d := NewDispatcher(Config{Workers: 1, TrainerEmail: "trener@example.pl"},
		repo, nil, mailer, nil, metrics.New(), nil)
	runDispatcher(d, 1)

	got := mailer.recipients()
	if len(got) != 1 || got[0] != "trener@example.pl" {
		t.Fatalf("recipients = %v, want trainer email despite client failure", got)
	}
}

func TestDispatcher_NilCalendarSkipsSync(t *testing.T) {
	repo := newFakeRepo(testBooking(1))
	mailer := &fakeMailer{}

	d := NewDispatcher(Config{Workers: 1, TrainerEmail: "trener@example.pl"},
		repo, nil, mailer, nil, metrics.New(), nil)
	runDispatcher(d, 1)

	if len(repo.calendarEventID) != 0 {
		t.Fatalf("unexpected calendar write")
	}
	if got := mailer.recipients(); len(got) != 2 {
		t.Fatalf("recipients = %v, want both emails sent", got)
	}
}

func TestDispatcher_UnknownBookingIsLoggedAndSkipped(t *testing.T) {
	repo := newFakeRepo()
	cal := &fakeCalendar{eventID: "evt-123"}
	mailer := &fakeMailer{}

	d := NewDispatcher(Config{Workers: 1}, repo, cal, mailer, nil, metrics.New(), nil)
	runDispatcher(d, 99)

	if cal.calls != 0 {
		t.Fatalf("calendar called for missing booking")
	}
	if len(mailer.recipients()) != 0 {
		t.Fatalf("emails sent for missing booking")
	}
}

func TestDispatcher_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	repo := newFakeRepo(testBooking(1))
	mailer := &fakeMailer{}

	// Workers never started, so the queue can only absorb its capacity.
	d := NewDispatcher(Config{Workers: 1, QueueSize: 1}, repo, nil, mailer, nil, metrics.New(), nil)

	done := make(chan struct{})
	go func() {
		d.Dispatch(1)
		d.Dispatch(2)
		d.Dispatch(3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Dispatch blocked on a full queue")
	}
}
