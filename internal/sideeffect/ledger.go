package sideeffect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/advisordesk/advisor-booking-agent/internal/booking"
)

// DB is the subset of pgx used by the ledger. Satisfied by *pgxpool.Pool
// and by pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgLedger keeps an append-style audit trail of bookings in Postgres.
// One row per booking code, updated in place as the booking evolves.
type PgLedger struct {
	db DB
}

func NewPgLedger(db DB) *PgLedger {
	if db == nil {
		panic("sideeffect: PgLedger requires a database")
	}
	return &PgLedger{db: db}
}

// EnsureSchema creates the ledger table if it does not exist yet.
func (l *PgLedger) EnsureSchema(ctx context.Context) error {
	_, err := l.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS booking_ledger (
			id UUID PRIMARY KEY,
			booking_code TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			slot_date TEXT NOT NULL,
			slot_time TEXT NOT NULL,
			previous_slot TEXT,
			status TEXT NOT NULL,
			event_ref TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			cancelled_at TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("sideeffect: ensure ledger schema: %w", err)
	}
	return nil
}

func (l *PgLedger) AppendEntry(ctx context.Context, b booking.Booking) error {
	_, err := l.db.Exec(ctx, `
		INSERT INTO booking_ledger
			(id, booking_code, topic, slot_date, slot_time, status, event_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (booking_code) DO NOTHING`,
		uuid.New(), b.Code, b.Topic, b.Slot.Date, string(b.Slot.Time),
		string(b.Status), b.EventRef, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sideeffect: append ledger entry: %w", err)
	}
	return nil
}

func (l *PgLedger) UpdateEntry(ctx context.Context, b booking.Booking) error {
	var previous *string
	if b.PreviousSlot != nil {
		key := b.PreviousSlot.Key()
		previous = &key
	}
	tag, err := l.db.Exec(ctx, `
		UPDATE booking_ledger
		SET topic = $2, slot_date = $3, slot_time = $4, previous_slot = $5,
			status = $6, event_ref = $7, updated_at = $8
		WHERE booking_code = $1`,
		b.Code, b.Topic, b.Slot.Date, string(b.Slot.Time), previous,
		string(b.Status), b.EventRef, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sideeffect: update ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("sideeffect: ledger entry not found")
	}
	return nil
}

func (l *PgLedger) MarkCancelled(ctx context.Context, code string, at time.Time) error {
	tag, err := l.db.Exec(ctx, `
		UPDATE booking_ledger
		SET status = $2, cancelled_at = $3, updated_at = $3
		WHERE booking_code = $1`,
		code, string(booking.StatusCancelled), at)
	if err != nil {
		return fmt.Errorf("sideeffect: mark ledger entry cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("sideeffect: ledger entry not found")
	}
	return nil
}
