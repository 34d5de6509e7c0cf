package sideeffect

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
	"github.com/advisordesk/advisor-booking-agent/internal/booking"
)

func newLedgerMock(t *testing.T) (*PgLedger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPgLedger(mock), mock
}

func ledgerBooking() booking.Booking {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	return booking.Booking{
		Code:      "AD-7KQX",
		Topic:     "loans",
		Slot:      booking.Slot{Date: "2026-09-02", Time: availability.TimeAfternoon},
		Status:    booking.StatusConfirmed,
		EventRef:  "evt-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestLedgerEnsureSchema(t *testing.T) {
	ledger, mock := newLedgerMock(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS booking_ledger").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, ledger.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerAppendEntry(t *testing.T) {
	ledger, mock := newLedgerMock(t)
	b := ledgerBooking()

	mock.ExpectExec("INSERT INTO booking_ledger").
		WithArgs(pgxmock.AnyArg(), b.Code, b.Topic, b.Slot.Date, "14:00",
			"confirmed", b.EventRef, b.CreatedAt, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, ledger.AppendEntry(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerUpdateEntry(t *testing.T) {
	ledger, mock := newLedgerMock(t)
	b := ledgerBooking()
	previous := booking.Slot{Date: "2026-09-03", Time: availability.TimeMorning}
	b.PreviousSlot = &previous

	mock.ExpectExec("UPDATE booking_ledger").
		WithArgs(b.Code, b.Topic, b.Slot.Date, "14:00", pgxmock.AnyArg(),
			"confirmed", b.EventRef, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, ledger.UpdateEntry(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerUpdateEntryMissingRow(t *testing.T) {
	ledger, mock := newLedgerMock(t)
	b := ledgerBooking()

	mock.ExpectExec("UPDATE booking_ledger").
		WithArgs(b.Code, b.Topic, b.Slot.Date, "14:00", pgxmock.AnyArg(),
			"confirmed", b.EventRef, b.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := ledger.UpdateEntry(context.Background(), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLedgerMarkCancelled(t *testing.T) {
	ledger, mock := newLedgerMock(t)
	at := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE booking_ledger").
		WithArgs("AD-7KQX", "cancelled", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, ledger.MarkCancelled(context.Background(), "AD-7KQX", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
