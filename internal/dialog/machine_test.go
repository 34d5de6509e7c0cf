package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/advisordesk/advisor-booking-agent/internal/session"
)

func TestNextHappyPath(t *testing.T) {
	steps := []struct {
		from    session.State
		outcome Outcome
		want    session.State
	}{
		{session.StateGreeting, OutcomeIntentDetected, session.StateDisclaimer},
		{session.StateDisclaimer, OutcomeDisclaimerAcknowledged, session.StateTopicSelection},
		{session.StateTopicSelection, OutcomeTopicSelected, session.StateTimePreference},
		{session.StateTimePreference, OutcomePreferencesCollected, session.StateSlotOffer},
		{session.StateSlotOffer, OutcomeSlotSelected, session.StateConfirmation},
		{session.StateConfirmation, OutcomeConfirmed, session.StateBookingComplete},
	}
	for _, step := range steps {
		assert.Equal(t, step.want, Next(step.from, step.outcome), "%s + %s", step.from, step.outcome)
	}
}

func TestNextConflictAndRejectionLoops(t *testing.T) {
	assert.Equal(t, session.StateSlotOffer, Next(session.StateConfirmation, OutcomeSelectionRejected))
	assert.Equal(t, session.StateSlotOffer, Next(session.StateConfirmation, OutcomeSlotConflict))
	assert.Equal(t, session.StateTimePreference, Next(session.StateConfirmation, OutcomeNoSlotsAvailable))
	assert.Equal(t, session.StateTimePreference, Next(session.StateSlotOffer, OutcomeNoSlotsAvailable))
}

func TestNextBranchStartsFromEntryStates(t *testing.T) {
	assert.Equal(t, session.StateReschedule, Next(session.StateGreeting, OutcomeRescheduleStarted))
	assert.Equal(t, session.StateCancellation, Next(session.StateGreeting, OutcomeCancellationStarted))
	assert.Equal(t, session.StateAvailabilityCheck, Next(session.StateGreeting, OutcomeAvailabilityStarted))
	assert.Equal(t, session.StateCompleted, Next(session.StateGreeting, OutcomeAvailabilityReported))

	assert.Equal(t, session.StateReschedule, Next(session.StateDisclaimer, OutcomeRescheduleStarted))
	assert.Equal(t, session.StateCancellation, Next(session.StateDisclaimer, OutcomeCancellationStarted))
}

func TestNextBranchStartsIgnoredMidFlow(t *testing.T) {
	assert.Equal(t, session.StateSlotOffer, Next(session.StateSlotOffer, OutcomeRescheduleStarted))
	assert.Equal(t, session.StateConfirmation, Next(session.StateConfirmation, OutcomeCancellationStarted))
}

func TestNextUnknownOutcomeIsNoOp(t *testing.T) {
	for _, state := range []session.State{
		session.StateGreeting,
		session.StateTopicSelection,
		session.StateSlotOffer,
		session.StateConfirmation,
		session.StateReschedule,
		session.StateCancellation,
	} {
		assert.Equal(t, state, Next(state, OutcomeNone), string(state))
		assert.Equal(t, state, Next(state, Outcome("made_up")), string(state))
	}
}

func TestNextBranchCompletions(t *testing.T) {
	assert.Equal(t, session.StateCompleted, Next(session.StateReschedule, OutcomeRescheduleComplete))
	assert.Equal(t, session.StateCompleted, Next(session.StateCancellation, OutcomeCancellationComplete))
	assert.Equal(t, session.StateCompleted, Next(session.StateAvailabilityCheck, OutcomeAvailabilityReported))
}
