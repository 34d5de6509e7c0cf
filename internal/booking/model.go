// Package booking is the system of record for confirmed and cancelled
// appointments and the single place conflict checks are decided.
package booking

import (
	"time"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
)

// Status is the lifecycle state of a booking. Bookings are never deleted.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Slot is the committed (date, time) pair of a booking.
type Slot struct {
	Date string                 `json:"date"`
	Time availability.TimeOfDay `json:"time"`
}

// Valid reports whether the slot carries a parseable date and a fixed time.
func (s Slot) Valid() bool {
	return len(s.Date) == 10 && s.Time.Valid()
}

// Key returns the (date, time) index key shared with the availability engine.
func (s Slot) Key() string {
	return availability.Key(s.Date, s.Time)
}

// Booking is the committed record of an appointment.
type Booking struct {
	Code         string     `json:"code"`
	Topic        string     `json:"topic"`
	Slot         Slot       `json:"slot"`
	PreviousSlot *Slot      `json:"previousSlot,omitempty"`
	Status       Status     `json:"status"`
	EventRef     string     `json:"eventRef,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
}

func (b *Booking) clone() *Booking {
	out := *b
	if b.PreviousSlot != nil {
		prev := *b.PreviousSlot
		out.PreviousSlot = &prev
	}
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		out.CancelledAt = &at
	}
	return &out
}
