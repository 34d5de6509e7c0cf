package dialog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
	"github.com/advisordesk/advisor-booking-agent/internal/booking"
	"github.com/advisordesk/advisor-booking-agent/internal/clock"
	"github.com/advisordesk/advisor-booking-agent/internal/guardrail"
	"github.com/advisordesk/advisor-booking-agent/internal/llm"
	"github.com/advisordesk/advisor-booking-agent/internal/observability/metrics"
	"github.com/advisordesk/advisor-booking-agent/internal/session"
	"github.com/advisordesk/advisor-booking-agent/internal/sideeffect"
	"github.com/advisordesk/advisor-booking-agent/pkg/logging"
)

// TurnResult is everything one handled message produced.
type TurnResult struct {
	Reply       string              `json:"reply"`
	Session     *session.Session    `json:"session"`
	SideEffects []sideeffect.Status `json:"sideEffects,omitempty"`
}

// turnOutput is what a flow handler hands back to HandleTurn.
type turnOutput struct {
	outcome  Outcome
	reply    string
	statuses []sideeffect.Status
}

// Engine processes conversation turns. The classifier and dispatcher are
// optional; without them the deterministic fallbacks and the bare registry
// still carry the full flow.
type Engine struct {
	store      session.Store
	registry   *booking.Registry
	avail      *availability.Engine
	clk        clock.Clock
	classifier *llm.Classifier
	dispatcher *sideeffect.Dispatcher
	logger     *logging.Logger
	metrics    *metrics.AgentMetrics
	tracer     trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine wires the turn engine. Store, registry, availability engine
// and clock are required.
func NewEngine(store session.Store, registry *booking.Registry, avail *availability.Engine, clk clock.Clock, classifier *llm.Classifier, dispatcher *sideeffect.Dispatcher, logger *logging.Logger, m *metrics.AgentMetrics) *Engine {
	if store == nil || registry == nil || avail == nil || clk == nil {
		panic("dialog: store, registry, availability engine and clock are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		store:      store,
		registry:   registry,
		avail:      avail,
		clk:        clk,
		classifier: classifier,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("advisor.internal.dialog"),
		locks:      map[string]*sync.Mutex{},
	}
}

// sessionLock serializes turns per session so two concurrent messages on
// one conversation cannot interleave state writes.
func (e *Engine) sessionLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	e.locks[id] = l
	return l
}

// HandleTurn processes one user message and returns the assistant reply
// plus the updated session.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	started := time.Now()
	defer func() {
		e.metrics.ObserveTurnLatency(time.Since(started).Seconds())
	}()

	ctx, span := e.tracer.Start(ctx, "dialog.handle_turn",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		sess = session.New(sessionID, e.clk.Now())
	} else if err != nil {
		return nil, fmt.Errorf("dialog: load session: %w", err)
	}

	if result := guardrail.Check(message); result.Blocked {
		e.metrics.ObserveGuardrailBlock(result.Reason)
		e.metrics.ObserveTurn(string(sess.Intent), "guardrail_blocked")
		e.logger.Info("message blocked by guardrail", "session_id", sessionID, "reason", result.Reason)
		sess.UpdatedAt = e.clk.Now()
		if err := e.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("dialog: save session: %w", err)
		}
		return &TurnResult{Reply: result.Reply, Session: sess}, nil
	}

	// A finished conversation restarts when the user opens a new request.
	if sess.State == session.StateBookingComplete || sess.State == session.StateCompleted {
		if HasTopLevelKeyword(message) {
			sess.ResetFlow()
		}
	}

	out, err := e.route(ctx, sess, message)
	if err != nil {
		return nil, err
	}

	prev := sess.State
	sess.State = Next(sess.State, out.outcome)
	sess.UpdatedAt = e.clk.Now()
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("dialog: save session: %w", err)
	}

	e.metrics.ObserveTurn(string(sess.Intent), string(out.outcome))
	e.logger.Info("turn handled",
		"session_id", sessionID,
		"from_state", string(prev),
		"to_state", string(sess.State),
		"outcome", string(out.outcome))

	return &TurnResult{Reply: out.reply, Session: sess, SideEffects: out.statuses}, nil
}

func (e *Engine) route(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	switch sess.State {
	case session.StateGreeting:
		return e.handleGreeting(ctx, sess, message)
	case session.StateDisclaimer:
		return e.handleDisclaimer(ctx, sess, message)
	case session.StateTopicSelection:
		return e.handleTopicSelection(sess, message)
	case session.StateTimePreference:
		return e.handleTimePreference(ctx, sess, message)
	case session.StateSlotOffer:
		return e.handleSlotOffer(ctx, sess, message)
	case session.StateConfirmation:
		return e.handleConfirmation(ctx, sess, message)
	case session.StateReschedule:
		return e.handleReschedule(ctx, sess, message)
	case session.StateCancellation:
		return e.handleCancellation(ctx, sess, message)
	case session.StateAvailabilityCheck:
		return e.handleAvailabilityCheck(ctx, sess, message)
	case session.StateBookingComplete, session.StateCompleted:
		return turnOutput{reply: "Is there anything else I can help you with? You can book, reschedule or cancel a consultation, or check availability."}, nil
	}
	return turnOutput{}, fmt.Errorf("dialog: unknown state %q", sess.State)
}

// resolveIntent prefers the LLM classifier and falls back to keywords on
// any classifier failure.
func (e *Engine) resolveIntent(ctx context.Context, sess *session.Session, message string) session.Intent {
	if e.classifier != nil {
		result, err := e.classifier.Classify(ctx, message, string(sess.State))
		if err == nil {
			return session.Intent(result.Intent)
		}
		e.logger.Warn("intent classifier unavailable, using keyword fallback", "error", err)
	}
	return FallbackIntent(message)
}

// resolveSelection prefers the LLM classifier and falls back to the
// deterministic parser.
func (e *Engine) resolveSelection(ctx context.Context, message string, offered int) llm.SelectionResult {
	if e.classifier != nil {
		result, err := e.classifier.ClassifySlotSelection(ctx, message, offered)
		if err == nil {
			return result
		}
		e.logger.Warn("selection classifier unavailable, using deterministic fallback", "error", err)
	}
	return FallbackSelection(message, offered)
}

func (e *Engine) handleGreeting(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	intent := e.resolveIntent(ctx, sess, message)
	sess.Intent = intent

	switch intent {
	case session.IntentBook:
		return turnOutput{
			outcome: OutcomeIntentDetected,
			reply:   disclaimerText + "\nShall we continue?",
		}, nil
	case session.IntentReschedule:
		return e.startReschedule(sess, message), nil
	case session.IntentCancel:
		return e.startCancellation(sess, message), nil
	case session.IntentAvailability:
		return e.startAvailability(ctx, sess, message), nil
	}
	return turnOutput{reply: composeGeneralNudge()}, nil
}

func (e *Engine) handleDisclaimer(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	if isNegative(message) {
		return turnOutput{reply: "No problem. If you change your mind, just say \"book\" and we'll pick it up from here."}, nil
	}
	// The user may pivot to another flow instead of acknowledging.
	switch e.resolveIntent(ctx, sess, message) {
	case session.IntentReschedule:
		sess.Intent = session.IntentReschedule
		return e.startReschedule(sess, message), nil
	case session.IntentCancel:
		sess.Intent = session.IntentCancel
		return e.startCancellation(sess, message), nil
	case session.IntentAvailability:
		sess.Intent = session.IntentAvailability
		return e.startAvailability(ctx, sess, message), nil
	}
	return turnOutput{outcome: OutcomeDisclaimerAcknowledged, reply: topicMenu()}, nil
}

func (e *Engine) handleTopicSelection(sess *session.Session, message string) (turnOutput, error) {
	topic, ok := ParseTopic(message)
	if !ok {
		return turnOutput{reply: "I didn't catch the topic.\n" + topicMenu()}, nil
	}
	sess.Topic = topic.ID
	return turnOutput{outcome: OutcomeTopicSelected, reply: timePreferencePrompt(topic)}, nil
}

func (e *Engine) handleTimePreference(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	extracted := availability.ExtractPreferences(message)
	if extracted.Empty() && !wantsAnyTime(message) {
		return turnOutput{reply: "Any day and time in mind? For example \"tomorrow afternoon\" or \"Friday at 4pm\". If you're flexible, just say \"anytime\"."}, nil
	}
	sess.Preferences = sess.Preferences.Merge(extracted)

	result := e.offer(ctx, sess.Preferences, "", nil)
	if len(result.Slots) == 0 {
		sess.Preferences = availability.Preferences{}
		return turnOutput{reply: composeNoSlots()}, nil
	}
	sess.OfferedSlots = result.Slots
	return turnOutput{outcome: OutcomePreferencesCollected, reply: composeOffer(result)}, nil
}

func (e *Engine) handleSlotOffer(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	if len(sess.OfferedSlots) == 0 {
		// Offer state without offers means the session data was trimmed;
		// rebuild from the stored preferences.
		result := e.offer(ctx, sess.Preferences, "", nil)
		if len(result.Slots) == 0 {
			return turnOutput{outcome: OutcomeNoSlotsAvailable, reply: composeNoSlots()}, nil
		}
		sess.OfferedSlots = result.Slots
		return turnOutput{reply: composeOffer(result)}, nil
	}

	selection := e.resolveSelection(ctx, message, len(sess.OfferedSlots))
	switch selection.Action {
	case llm.ActionSelect:
		slot := sess.OfferedSlots[selection.SelectedIndex-1]
		if e.registry.IsSlotTaken(slot.Date, slot.Time, "") {
			e.metrics.ObserveSlotConflict()
			return e.reofferAfterConflict(ctx, sess, ""), nil
		}
		sess.SelectedSlot = &slot
		topic := e.sessionTopic(sess)
		return turnOutput{outcome: OutcomeSlotSelected, reply: composeConfirmation(topic, slot)}, nil
	case llm.ActionDifferent:
		return e.offerDifferent(ctx, sess), nil
	}
	return turnOutput{reply: composeOffer(currentOffer(sess))}, nil
}

func (e *Engine) handleConfirmation(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	if sess.SelectedSlot == nil || !(booking.Slot{Date: sess.SelectedSlot.Date, Time: sess.SelectedSlot.Time}).Valid() {
		e.logger.Error("confirmation state without a valid selected slot", "session_id", sess.ID)
		sess.SelectedSlot = nil
		result := e.offer(ctx, sess.Preferences, "", nil)
		if len(result.Slots) == 0 {
			return turnOutput{outcome: OutcomeNoSlotsAvailable, reply: composeNoSlots()}, nil
		}
		sess.OfferedSlots = result.Slots
		return turnOutput{outcome: OutcomeSelectionRejected, reply: "Let's pick the slot again.\n" + composeOffer(result)}, nil
	}

	switch {
	case isNegative(message):
		sess.SelectedSlot = nil
		return turnOutput{outcome: OutcomeSelectionRejected, reply: composeOffer(currentOffer(sess))}, nil
	case isAffirmative(message):
		return e.commitBooking(ctx, sess)
	}
	if e.resolveSelection(ctx, message, len(sess.OfferedSlots)).Action == llm.ActionDifferent {
		sess.SelectedSlot = nil
		out := e.offerDifferent(ctx, sess)
		if out.outcome == OutcomeNone {
			out.outcome = OutcomeSelectionRejected
		}
		return out, nil
	}
	topic := e.sessionTopic(sess)
	return turnOutput{reply: composeConfirmation(topic, *sess.SelectedSlot)}, nil
}

// commitBooking is the third conflict checkpoint: the registry decides
// under its own lock whether the slot is still free.
func (e *Engine) commitBooking(ctx context.Context, sess *session.Session) (turnOutput, error) {
	slot := booking.Slot{Date: sess.SelectedSlot.Date, Time: sess.SelectedSlot.Time}
	b, err := e.registry.Commit(ctx, sess.Topic, slot)
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		e.metrics.ObserveSlotConflict()
		out := e.reofferAfterConflict(ctx, sess, "")
		if out.outcome == OutcomeNone {
			out.outcome = OutcomeSlotConflict
		}
		return out, nil
	case errors.Is(err, booking.ErrInvalidSlot):
		e.logger.Error("selected slot failed registry validation", "session_id", sess.ID)
		sess.SelectedSlot = nil
		result := e.offer(ctx, sess.Preferences, "", nil)
		if len(result.Slots) == 0 {
			return turnOutput{outcome: OutcomeNoSlotsAvailable, reply: composeNoSlots()}, nil
		}
		sess.OfferedSlots = result.Slots
		return turnOutput{outcome: OutcomeSelectionRejected, reply: "Let's pick the slot again.\n" + composeOffer(result)}, nil
	case errors.Is(err, booking.ErrCodeExhausted):
		e.logger.Error("booking code space exhausted for attempt", "session_id", sess.ID)
		return turnOutput{reply: "Something went wrong on my side while confirming. Could you say \"yes\" once more?"}, nil
	case err != nil:
		return turnOutput{}, fmt.Errorf("dialog: commit booking: %w", err)
	}

	e.metrics.ObserveBooking(string(b.Status))
	formatted := sess.SelectedSlot.Formatted
	sess.BookingCode = b.Code
	sess.SelectedSlot = nil
	sess.OfferedSlots = nil

	var statuses []sideeffect.Status
	eventLink := ""
	if e.dispatcher != nil {
		statuses, eventLink = e.dispatcher.BookingCommitted(ctx, *b)
	}
	return turnOutput{
		outcome:  OutcomeConfirmed,
		reply:    composeBooked(b, formatted, eventLink),
		statuses: statuses,
	}, nil
}

// startReschedule enters the reschedule branch, picking up a booking code
// when the opening message already carries one.
func (e *Engine) startReschedule(sess *session.Session, message string) turnOutput {
	out := turnOutput{outcome: OutcomeRescheduleStarted}
	if b, fragment := e.lookupCode(message); b != nil {
		sess.BookingCodeToReschedule = b.Code
		out.reply = fmt.Sprintf("Found your booking %s on %s. When would you like to move it to?", b.Code, formatBookingSlot(b.Slot))
	} else if fragment != "" {
		out.reply = codeNotFound(fragment)
	} else {
		out.reply = askBookingCode("reschedule")
	}
	return out
}

func (e *Engine) handleReschedule(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	// Stage 1: identify the booking.
	if sess.BookingCodeToReschedule == "" {
		b, fragment := e.lookupCode(message)
		if b == nil {
			if fragment != "" {
				return turnOutput{reply: codeNotFound(fragment)}, nil
			}
			return turnOutput{reply: askBookingCode("reschedule")}, nil
		}
		sess.BookingCodeToReschedule = b.Code
		return turnOutput{reply: fmt.Sprintf("Found your booking %s on %s. When would you like to move it to?", b.Code, formatBookingSlot(b.Slot))}, nil
	}

	code := sess.BookingCodeToReschedule

	// Stage 4: confirm and move.
	if sess.ReschedulePending && sess.SelectedSlot != nil {
		switch {
		case isNegative(message):
			sess.ReschedulePending = false
			sess.SelectedSlot = nil
			return turnOutput{reply: composeOffer(currentOffer(sess))}, nil
		case isAffirmative(message):
			return e.commitReschedule(ctx, sess, code)
		}
		return turnOutput{reply: fmt.Sprintf("Move booking %s to %s? Please reply yes or no.", code, sess.SelectedSlot.Formatted)}, nil
	}

	// Stage 3: pick from the offered replacements.
	if len(sess.OfferedSlots) > 0 {
		selection := e.resolveSelection(ctx, message, len(sess.OfferedSlots))
		switch selection.Action {
		case llm.ActionSelect:
			slot := sess.OfferedSlots[selection.SelectedIndex-1]
			if e.registry.IsSlotTaken(slot.Date, slot.Time, code) {
				e.metrics.ObserveSlotConflict()
				return e.reofferAfterConflict(ctx, sess, code), nil
			}
			sess.SelectedSlot = &slot
			sess.ReschedulePending = true
			return turnOutput{reply: fmt.Sprintf("Move booking %s to %s? Please reply yes or no.", code, slot.Formatted)}, nil
		case llm.ActionDifferent:
			return e.offerDifferentExcluding(ctx, sess, code), nil
		}
		return turnOutput{reply: composeOffer(currentOffer(sess))}, nil
	}

	// Stage 2: collect the new time preference.
	extracted := availability.ExtractPreferences(message)
	if extracted.Empty() && !wantsAnyTime(message) {
		return turnOutput{reply: "When would you like the new slot? A day and rough time works, or say \"anytime\"."}, nil
	}
	sess.Preferences = sess.Preferences.Merge(extracted)
	result := e.offer(ctx, sess.Preferences, code, nil)
	if len(result.Slots) == 0 {
		sess.Preferences = availability.Preferences{}
		return turnOutput{reply: composeNoSlots()}, nil
	}
	sess.OfferedSlots = result.Slots
	return turnOutput{reply: composeOffer(result)}, nil
}

func (e *Engine) commitReschedule(ctx context.Context, sess *session.Session, code string) (turnOutput, error) {
	slot := booking.Slot{Date: sess.SelectedSlot.Date, Time: sess.SelectedSlot.Time}
	b, err := e.registry.Reschedule(ctx, code, slot)
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		e.metrics.ObserveSlotConflict()
		sess.ReschedulePending = false
		return e.reofferAfterConflict(ctx, sess, code), nil
	case errors.Is(err, booking.ErrInvalidSlot):
		e.logger.Error("reschedule slot failed registry validation", "session_id", sess.ID)
		sess.ReschedulePending = false
		sess.SelectedSlot = nil
		result := e.offer(ctx, sess.Preferences, code, nil)
		if len(result.Slots) == 0 {
			return turnOutput{reply: composeNoSlots()}, nil
		}
		sess.OfferedSlots = result.Slots
		return turnOutput{reply: "Let's pick the slot again.\n" + composeOffer(result)}, nil
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrNotConfirmed):
		sess.BookingCodeToReschedule = ""
		sess.ReschedulePending = false
		sess.SelectedSlot = nil
		sess.OfferedSlots = nil
		return turnOutput{reply: codeNotFound(code)}, nil
	case err != nil:
		return turnOutput{}, fmt.Errorf("dialog: reschedule booking: %w", err)
	}

	e.metrics.ObserveBooking("rescheduled")
	formatted := sess.SelectedSlot.Formatted
	sess.BookingCode = b.Code
	sess.BookingCodeToReschedule = ""
	sess.ReschedulePending = false
	sess.SelectedSlot = nil
	sess.OfferedSlots = nil
	sess.Preferences = availability.Preferences{}

	var statuses []sideeffect.Status
	if e.dispatcher != nil {
		statuses = e.dispatcher.Rescheduled(ctx, *b)
	}
	return turnOutput{
		outcome:  OutcomeRescheduleComplete,
		reply:    composeRescheduled(b, formatted),
		statuses: statuses,
	}, nil
}

// startCancellation enters the cancellation branch.
func (e *Engine) startCancellation(sess *session.Session, message string) turnOutput {
	out := turnOutput{outcome: OutcomeCancellationStarted}
	if b, fragment := e.lookupCode(message); b != nil {
		sess.BookingCodeToCancel = b.Code
		sess.CancellationPending = true
		out.reply = confirmCancellation(b, formatBookingSlot(b.Slot))
	} else if fragment != "" {
		out.reply = codeNotFound(fragment)
	} else {
		out.reply = askBookingCode("cancel")
	}
	return out
}

func (e *Engine) handleCancellation(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	if sess.BookingCodeToCancel == "" {
		b, fragment := e.lookupCode(message)
		if b == nil {
			if fragment != "" {
				return turnOutput{reply: codeNotFound(fragment)}, nil
			}
			return turnOutput{reply: askBookingCode("cancel")}, nil
		}
		sess.BookingCodeToCancel = b.Code
		sess.CancellationPending = true
		return turnOutput{reply: confirmCancellation(b, formatBookingSlot(b.Slot))}, nil
	}

	switch {
	case isNegative(message):
		code := sess.BookingCodeToCancel
		sess.BookingCodeToCancel = ""
		sess.CancellationPending = false
		return turnOutput{
			outcome: OutcomeCancellationComplete,
			reply:   fmt.Sprintf("No problem, booking %s stays as it is.", code),
		}, nil
	case isAffirmative(message):
		return e.commitCancellation(ctx, sess)
	}
	b, err := e.registry.Get(sess.BookingCodeToCancel)
	if err != nil {
		sess.BookingCodeToCancel = ""
		sess.CancellationPending = false
		return turnOutput{reply: askBookingCode("cancel")}, nil
	}
	return turnOutput{reply: confirmCancellation(b, formatBookingSlot(b.Slot))}, nil
}

func (e *Engine) commitCancellation(ctx context.Context, sess *session.Session) (turnOutput, error) {
	code := sess.BookingCodeToCancel
	b, err := e.registry.Cancel(ctx, code)
	switch {
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrNotConfirmed):
		sess.BookingCodeToCancel = ""
		sess.CancellationPending = false
		return turnOutput{reply: codeNotFound(code)}, nil
	case err != nil:
		return turnOutput{}, fmt.Errorf("dialog: cancel booking: %w", err)
	}

	e.metrics.ObserveBooking(string(b.Status))
	sess.BookingCodeToCancel = ""
	sess.CancellationPending = false

	var statuses []sideeffect.Status
	if e.dispatcher != nil {
		statuses = e.dispatcher.Cancelled(ctx, *b)
	}
	return turnOutput{
		outcome:  OutcomeCancellationComplete,
		reply:    composeCancelled(b),
		statuses: statuses,
	}, nil
}

// startAvailability reports right away when the opening message already
// names a day or time; otherwise it asks first.
func (e *Engine) startAvailability(ctx context.Context, sess *session.Session, message string) turnOutput {
	prefs := availability.ExtractPreferences(message)
	if prefs.Empty() && !wantsAnyTime(message) {
		return turnOutput{
			outcome: OutcomeAvailabilityStarted,
			reply:   "Sure. Any particular day or time you'd like me to check? Or say \"anytime\" for the next openings.",
		}
	}
	sess.Preferences = prefs
	result := e.offer(ctx, prefs, "", nil)
	return turnOutput{outcome: OutcomeAvailabilityReported, reply: composeAvailabilityReport(result)}
}

func (e *Engine) handleAvailabilityCheck(ctx context.Context, sess *session.Session, message string) (turnOutput, error) {
	prefs := sess.Preferences.Merge(availability.ExtractPreferences(message))
	sess.Preferences = prefs
	result := e.offer(ctx, prefs, "", nil)
	return turnOutput{outcome: OutcomeAvailabilityReported, reply: composeAvailabilityReport(result)}, nil
}

// offer queries the availability engine against the registry's confirmed
// slots, optionally excluding one booking's own slot and extra keys.
func (e *Engine) offer(ctx context.Context, prefs availability.Preferences, excludeCode string, extraTaken []string) availability.OfferResult {
	taken := e.registry.ConfirmedSet(excludeCode)
	for _, key := range extraTaken {
		taken[key] = true
	}
	return e.avail.Offer(ctx, prefs, taken)
}

// offerDifferent re-offers while hiding the currently shown slots.
func (e *Engine) offerDifferent(ctx context.Context, sess *session.Session) turnOutput {
	return e.offerDifferentExcluding(ctx, sess, "")
}

func (e *Engine) offerDifferentExcluding(ctx context.Context, sess *session.Session, excludeCode string) turnOutput {
	hidden := make([]string, 0, len(sess.OfferedSlots))
	for _, s := range sess.OfferedSlots {
		hidden = append(hidden, s.Key())
	}
	result := e.offer(ctx, sess.Preferences, excludeCode, hidden)
	if len(result.Slots) == 0 {
		sess.OfferedSlots = nil
		sess.Preferences = availability.Preferences{}
		return turnOutput{outcome: OutcomeNoSlotsAvailable, reply: composeNoSlots()}
	}
	sess.OfferedSlots = result.Slots
	return turnOutput{reply: composeOffer(result)}
}

// reofferAfterConflict rebuilds the offer after a lost slot race.
func (e *Engine) reofferAfterConflict(ctx context.Context, sess *session.Session, excludeCode string) turnOutput {
	sess.SelectedSlot = nil
	result := e.offer(ctx, sess.Preferences, excludeCode, nil)
	if len(result.Slots) == 0 {
		sess.OfferedSlots = nil
		sess.Preferences = availability.Preferences{}
		return turnOutput{outcome: OutcomeNoSlotsAvailable, reply: composeSlotConflict() + "\n" + composeNoSlots()}
	}
	sess.OfferedSlots = result.Slots
	return turnOutput{reply: composeSlotConflict() + "\n" + composeOffer(result)}
}

func (e *Engine) sessionTopic(sess *session.Session) Topic {
	if topic, ok := TopicByID(sess.Topic); ok {
		return topic
	}
	return Topic{ID: sess.Topic, Label: "your topic"}
}

// currentOffer wraps the session's stored slots for re-display.
func currentOffer(sess *session.Session) availability.OfferResult {
	return availability.OfferResult{Slots: sess.OfferedSlots, Reason: availability.ReasonExact}
}

var fullCodeRE = regexp.MustCompile(`(?i)\bAD[- ]?([A-Z0-9]{4})\b`)

var fragmentRE = regexp.MustCompile(`(?i)\b[A-Z0-9]*\d[A-Z0-9]*\b`)

// lookupCode resolves a booking reference mentioned in the message. A full
// AD-XXXX code that resolves nothing is reported back as the fragment so
// the user gets a targeted correction; loose digit tokens that match no
// booking are ignored.
func (e *Engine) lookupCode(message string) (*booking.Booking, string) {
	if m := fullCodeRE.FindStringSubmatch(message); m != nil {
		code := "AD-" + strings.ToUpper(m[1])
		if b, err := e.registry.FindByPartialCode(code); err == nil {
			return b, code
		}
		return nil, code
	}
	for _, token := range fragmentRE.FindAllString(message, -1) {
		if len(token) < 3 || len(token) > 6 {
			continue
		}
		if b, err := e.registry.FindByPartialCode(strings.ToUpper(token)); err == nil {
			return b, token
		}
	}
	return nil, ""
}

func wantsAnyTime(message string) bool {
	lower := strings.ToLower(message)
	return containsAny("anytime", "any time", "whenever", "earliest", "soonest", "any day", "flexible", "you pick", "first available")(lower)
}
