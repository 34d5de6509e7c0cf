// Package sideeffect dispatches post-commit integrations: calendar events,
// the audit ledger and advisor notifications. Side effects never roll back
// a registry commit; failures surface only as status annotations.
package sideeffect

import (
	"context"
	"time"

	"github.com/advisordesk/advisor-booking-agent/internal/booking"
)

// Channel names a side-effect destination.
const (
	ChannelCalendar     = "calendar"
	ChannelLedger       = "ledger"
	ChannelNotification = "notification"
)

// Status is the per-call result surfaced back to the conversation.
type Status struct {
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Event identifies a created calendar event.
type Event struct {
	Ref  string
	Link string
}

// Calendar mirrors bookings into an external calendar.
type Calendar interface {
	CreateEvent(ctx context.Context, b booking.Booking) (Event, error)
	UpdateEvent(ctx context.Context, ref string, b booking.Booking) error
	DeleteEvent(ctx context.Context, ref string) error
}

// Ledger appends an audit trail of booking mutations.
type Ledger interface {
	AppendEntry(ctx context.Context, b booking.Booking) error
	UpdateEntry(ctx context.Context, b booking.Booking) error
	MarkCancelled(ctx context.Context, code string, at time.Time) error
}

// Notifier drafts human-facing notices about booking mutations.
type Notifier interface {
	BookingNotice(ctx context.Context, b booking.Booking, eventLink string) error
	RescheduleNotice(ctx context.Context, b booking.Booking) error
	CancellationNotice(ctx context.Context, b booking.Booking) error
}
