package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID              int64     `bun:"id,pk,autoincrement"`
	ClientName      string    `bun:"client_name,notnull"`
	ClientEmail     string    `bun:"client_email,notnull"`
	Phone           string    `bun:"phone"`
	TrainingDate    Date      `bun:"training_date,notnull,type:date"`
	TrainingTime    TimeOfDay `bun:"training_time,notnull,type:time"`
	Message         string    `bun:"message"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	CalendarEventID string    `bun:"calendar_event_id"`
	ReminderSent    bool      `bun:"reminder_sent,notnull,default:false"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// StartTime is the appointment start as an instant in loc.
func (b *Booking) StartTime(loc *time.Location) time.Time {
	return b.TrainingDate.At(b.TrainingTime, loc)
}
