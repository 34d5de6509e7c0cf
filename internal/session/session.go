// Package session holds per-conversation mutable state.
package session

import (
	"time"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
)

// State is a dialog state. Transitions are owned by the dialog package.
type State string

const (
	StateGreeting          State = "GREETING"
	StateDisclaimer        State = "DISCLAIMER"
	StateTopicSelection    State = "TOPIC_SELECTION"
	StateTimePreference    State = "TIME_PREFERENCE"
	StateSlotOffer         State = "SLOT_OFFER"
	StateConfirmation      State = "CONFIRMATION"
	StateBookingComplete   State = "BOOKING_COMPLETE"
	StateCompleted         State = "COMPLETED"
	StateReschedule        State = "RESCHEDULE"
	StateCancellation      State = "CANCELLATION"
	StateAvailabilityCheck State = "AVAILABILITY_CHECK"
)

// Intent is the resolved top-level request of a conversation.
type Intent string

const (
	IntentBook         Intent = "book"
	IntentReschedule   Intent = "reschedule"
	IntentCancel       Intent = "cancel"
	IntentAvailability Intent = "availability"
	IntentGeneral      Intent = "general"
)

// Session is one conversation's state. Handlers receive it through the
// engine and the store owns persistence; nothing outside mutates a stored
// copy directly.
type Session struct {
	ID                      string                   `json:"id"`
	State                   State                    `json:"state"`
	Intent                  Intent                   `json:"intent,omitempty"`
	Topic                   string                   `json:"topic,omitempty"`
	Preferences             availability.Preferences `json:"preferences"`
	OfferedSlots            []availability.Slot      `json:"offeredSlots,omitempty"`
	SelectedSlot            *availability.Slot       `json:"selectedSlot,omitempty"`
	BookingCode             string                   `json:"bookingCode,omitempty"`
	BookingCodeToReschedule string                   `json:"bookingCodeToReschedule,omitempty"`
	BookingCodeToCancel     string                   `json:"bookingCodeToCancel,omitempty"`
	CancellationPending     bool                     `json:"cancellationPending,omitempty"`
	ReschedulePending       bool                     `json:"reschedulePending,omitempty"`
	CreatedAt               time.Time                `json:"createdAt"`
	UpdatedAt               time.Time                `json:"updatedAt"`
}

// New creates a fresh session in the greeting state.
func New(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ResetFlow clears all flow-scoped fields for an explicit restart. The
// committed booking history lives in the registry, not here.
func (s *Session) ResetFlow() {
	s.State = StateGreeting
	s.Intent = ""
	s.Topic = ""
	s.Preferences = availability.Preferences{}
	s.OfferedSlots = nil
	s.SelectedSlot = nil
	s.BookingCode = ""
	s.BookingCodeToReschedule = ""
	s.BookingCodeToCancel = ""
	s.CancellationPending = false
	s.ReschedulePending = false
}

// Clone returns a deep copy safe to hand outside the store.
func (s *Session) Clone() *Session {
	out := *s
	if s.OfferedSlots != nil {
		out.OfferedSlots = append([]availability.Slot(nil), s.OfferedSlots...)
	}
	if s.SelectedSlot != nil {
		sel := *s.SelectedSlot
		out.SelectedSlot = &sel
	}
	return &out
}
