package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func Open(databaseURL string, pool PoolConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db := bun.NewDB(sqlDB, pgdialect.New())
	return db, nil
}

// CreateSchema bootstraps the bookings table if it does not exist yet. The
// composite unique constraint on (training_date, training_time) is what makes
// double-booking impossible under concurrent inserts.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*domain.Booking)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	// Named explicitly so a violation can be recognized as a slot conflict.
	_, err := db.NewRaw(
		"CREATE UNIQUE INDEX IF NOT EXISTS bookings_slot_key ON bookings (training_date, training_time)",
	).Exec(ctx)
	return err
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
