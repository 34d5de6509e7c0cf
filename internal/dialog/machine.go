// Package dialog drives the conversation: a finite state machine over
// session states, deterministic fallbacks around the LLM classifiers, and
// the turn engine that ties sessions, availability and bookings together.
package dialog

import "github.com/advisordesk/advisor-booking-agent/internal/session"

// Outcome tags what a flow handler accomplished this turn. The machine
// maps (state, outcome) to the next state; an outcome missing from the
// table leaves the state unchanged, which re-prompts the same question.
type Outcome string

const (
	OutcomeNone                   Outcome = ""
	OutcomeIntentDetected         Outcome = "intent_detected"
	OutcomeDisclaimerAcknowledged Outcome = "disclaimer_acknowledged"
	OutcomeTopicSelected          Outcome = "topic_selected"
	OutcomePreferencesCollected   Outcome = "preferences_collected"
	OutcomeNoSlotsAvailable       Outcome = "no_slots_available"
	OutcomeSlotSelected           Outcome = "slot_selected"
	OutcomeSelectionRejected      Outcome = "selection_rejected"
	OutcomeSlotConflict           Outcome = "slot_conflict"
	OutcomeConfirmed              Outcome = "confirmed"
	OutcomeRescheduleStarted      Outcome = "reschedule_started"
	OutcomeRescheduleComplete     Outcome = "reschedule_complete"
	OutcomeCancellationStarted    Outcome = "cancellation_started"
	OutcomeCancellationComplete   Outcome = "cancellation_complete"
	OutcomeAvailabilityStarted    Outcome = "availability_started"
	OutcomeAvailabilityReported   Outcome = "availability_reported"
)

// branchStarts are valid from any entry state: a user can open with a
// reschedule, cancellation or availability request before any booking flow.
var branchStarts = map[Outcome]session.State{
	OutcomeRescheduleStarted:    session.StateReschedule,
	OutcomeCancellationStarted:  session.StateCancellation,
	OutcomeAvailabilityStarted:  session.StateAvailabilityCheck,
	OutcomeAvailabilityReported: session.StateCompleted,
}

var transitions = map[session.State]map[Outcome]session.State{
	session.StateGreeting: {
		OutcomeIntentDetected: session.StateDisclaimer,
	},
	session.StateDisclaimer: {
		OutcomeDisclaimerAcknowledged: session.StateTopicSelection,
	},
	session.StateTopicSelection: {
		OutcomeTopicSelected: session.StateTimePreference,
	},
	session.StateTimePreference: {
		OutcomePreferencesCollected: session.StateSlotOffer,
	},
	session.StateSlotOffer: {
		OutcomeSlotSelected:     session.StateConfirmation,
		OutcomeNoSlotsAvailable: session.StateTimePreference,
	},
	session.StateConfirmation: {
		OutcomeConfirmed:         session.StateBookingComplete,
		OutcomeSelectionRejected: session.StateSlotOffer,
		OutcomeSlotConflict:      session.StateSlotOffer,
		OutcomeNoSlotsAvailable:  session.StateTimePreference,
	},
	session.StateReschedule: {
		OutcomeRescheduleComplete: session.StateCompleted,
	},
	session.StateCancellation: {
		OutcomeCancellationComplete: session.StateCompleted,
	},
	session.StateAvailabilityCheck: {
		OutcomeAvailabilityReported: session.StateCompleted,
	},
}

// entryStates may branch straight into a reschedule, cancellation or
// availability flow.
var entryStates = map[session.State]bool{
	session.StateGreeting:   true,
	session.StateDisclaimer: true,
}

// Next resolves the state a handler outcome leads to. Unknown pairs are
// a deliberate no-op so the handler's re-prompt plays out in place.
func Next(current session.State, outcome Outcome) session.State {
	if entryStates[current] {
		if next, ok := branchStarts[outcome]; ok {
			return next
		}
	}
	if next, ok := transitions[current][outcome]; ok {
		return next
	}
	return current
}
