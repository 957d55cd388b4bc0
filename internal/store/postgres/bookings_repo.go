package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
	"github.com/Yolouth/rezerwacja-konsultacji/internal/store"
)

const pgUniqueViolation = "23505"

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := b
	_, err := r.db.NewInsert().
		Model(&m).
		Returning("id").
		Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "bookings_slot_key" {
			return domain.Booking{}, store.ErrConflict
		}
		return domain.Booking{}, err
	}
	return m, nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id int64) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepo) List(ctx context.Context) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("training_date ASC, training_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) ListBookedTimes(ctx context.Context, date domain.Date) ([]domain.TimeOfDay, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Column("training_time").
		Where("training_date = ?", date).
		OrderExpr("training_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	times := make([]domain.TimeOfDay, 0, len(rows))
	for _, b := range rows {
		times = append(times, b.TrainingTime)
	}
	return times, nil
}

func (r *BookingRepo) SetCalendarEventID(ctx context.Context, id int64, eventID string) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("calendar_event_id = ?", eventID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *BookingRepo) MarkReminderSent(ctx context.Context, id int64) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("reminder_sent = TRUE").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *BookingRepo) ListPendingReminders(ctx context.Context, from domain.Date) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("reminder_sent = FALSE").
		Where("training_date >= ?", from).
		OrderExpr("training_date ASC, training_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
