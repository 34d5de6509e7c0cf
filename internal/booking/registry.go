package booking

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
	"github.com/advisordesk/advisor-booking-agent/internal/clock"
	"github.com/advisordesk/advisor-booking-agent/pkg/logging"
)

var (
	// ErrSlotTaken is returned when the (date, time) pair is already held
	// by another confirmed booking.
	ErrSlotTaken = errors.New("booking: slot already taken")
	// ErrNotFound is returned when no booking matches the given code.
	ErrNotFound = errors.New("booking: code not found")
	// ErrInvalidSlot is returned when a commit is attempted with a slot
	// missing its date or time.
	ErrInvalidSlot = errors.New("booking: invalid slot")
	// ErrNotConfirmed is returned when mutating a booking that is no
	// longer confirmed.
	ErrNotConfirmed = errors.New("booking: not confirmed")
)

// Snapshotter persists the registry state around mutations.
type Snapshotter interface {
	Load() (map[string]*Booking, error)
	Save(bookings map[string]*Booking) error
}

// Registry owns all bookings. Every mutation and its immediately
// preceding conflict check run under one mutex, which is what keeps two
// concurrent sessions from committing the same (date, time) pair.
type Registry struct {
	mu       sync.Mutex
	bookings map[string]*Booking
	bySlot   map[string]string // (date, time) key -> confirmed booking code
	snap     Snapshotter
	clk      clock.Clock
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewRegistry constructs a registry, loading prior state from the
// snapshotter when one is provided.
func NewRegistry(snap Snapshotter, clk clock.Clock, logger *logging.Logger) (*Registry, error) {
	if clk == nil {
		panic("booking: clock required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Registry{
		bookings: make(map[string]*Booking),
		bySlot:   make(map[string]string),
		snap:     snap,
		clk:      clk,
		logger:   logger,
		tracer:   otel.Tracer("advisor.internal.booking"),
	}
	if snap != nil {
		loaded, err := snap.Load()
		if err != nil {
			return nil, err
		}
		for code, b := range loaded {
			r.bookings[code] = b.clone()
			if b.Status == StatusConfirmed {
				r.bySlot[b.Slot.Key()] = code
			}
		}
	}
	return r, nil
}

// Commit generates a code and creates a confirmed booking. It is the only
// creating mutation and performs the final conflict check under the lock.
func (r *Registry) Commit(ctx context.Context, topic string, slot Slot) (*Booking, error) {
	_, span := r.tracer.Start(ctx, "booking.commit")
	defer span.End()

	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.bySlot[slot.Key()]; taken {
		span.SetAttributes(attribute.Bool("advisor.slot_conflict", true))
		return nil, ErrSlotTaken
	}

	code := ""
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		if _, held := r.bookings[candidate]; !held {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, ErrCodeExhausted
	}

	now := r.clk.Now()
	b := &Booking{
		Code:      code,
		Topic:     topic,
		Slot:      slot,
		Status:    StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.bookings[code] = b
	r.bySlot[slot.Key()] = code
	r.persistLocked()

	span.SetAttributes(attribute.String("advisor.booking_code", code))
	r.logger.Info("booking committed", "code", code, "topic", topic, "date", slot.Date, "time", slot.Time)
	return b.clone(), nil
}

// Reschedule moves a confirmed booking to a new slot, retaining the
// previous slot in an audit field.
func (r *Registry) Reschedule(ctx context.Context, code string, slot Slot) (*Booking, error) {
	_, span := r.tracer.Start(ctx, "booking.reschedule")
	defer span.End()

	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[code]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != StatusConfirmed {
		return nil, ErrNotConfirmed
	}
	if holder, taken := r.bySlot[slot.Key()]; taken && holder != code {
		span.SetAttributes(attribute.Bool("advisor.slot_conflict", true))
		return nil, ErrSlotTaken
	}

	delete(r.bySlot, b.Slot.Key())
	prev := b.Slot
	b.PreviousSlot = &prev
	b.Slot = slot
	b.UpdatedAt = r.clk.Now()
	r.bySlot[slot.Key()] = code
	r.persistLocked()

	r.logger.Info("booking rescheduled", "code", code, "date", slot.Date, "time", slot.Time)
	return b.clone(), nil
}

// Cancel flips a confirmed booking to cancelled, freeing its slot. The
// record itself is never deleted.
func (r *Registry) Cancel(ctx context.Context, code string) (*Booking, error) {
	_, span := r.tracer.Start(ctx, "booking.cancel")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[code]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != StatusConfirmed {
		return nil, ErrNotConfirmed
	}

	now := r.clk.Now()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	delete(r.bySlot, b.Slot.Key())
	r.persistLocked()

	r.logger.Info("booking cancelled", "code", code)
	return b.clone(), nil
}

// SetEventRef records the external calendar reference after the side
// effect completes.
func (r *Registry) SetEventRef(ctx context.Context, code, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[code]
	if !ok {
		return ErrNotFound
	}
	b.EventRef = ref
	b.UpdatedAt = r.clk.Now()
	r.persistLocked()
	return nil
}

// Get returns the booking for an exact code.
func (r *Registry) Get(code string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[normalizeCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return b.clone(), nil
}

// FindByPartialCode resolves a spoken or partially remembered code. Exact
// matches win; otherwise a fragment must identify exactly one confirmed
// booking.
func (r *Registry) FindByPartialCode(fragment string) (*Booking, error) {
	fragment = normalizeCode(fragment)
	if fragment == "" {
		return nil, ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bookings[fragment]; ok {
		return b.clone(), nil
	}

	var match *Booking
	for code, b := range r.bookings {
		if b.Status != StatusConfirmed {
			continue
		}
		if strings.Contains(strings.ReplaceAll(code, "-", ""), strings.ReplaceAll(fragment, "-", "")) {
			if match != nil {
				// Ambiguous fragment: make the caller ask for the full code.
				return nil, ErrNotFound
			}
			match = b
		}
	}
	if match == nil {
		return nil, ErrNotFound
	}
	return match.clone(), nil
}

// IsSlotTaken reports whether a confirmed booking other than excludeCode
// holds the slot.
func (r *Registry) IsSlotTaken(date string, t availability.TimeOfDay, excludeCode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	holder, taken := r.bySlot[availability.Key(date, t)]
	return taken && holder != excludeCode
}

// IsDayFull reports whether every fixed time on the date is taken by a
// confirmed booking other than excludeCode.
func (r *Registry) IsDayFull(date string, excludeCode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range availability.FixedTimes {
		holder, taken := r.bySlot[availability.Key(date, t)]
		if !taken || holder == excludeCode {
			return false
		}
	}
	return true
}

// ConfirmedSet snapshots the occupied (date, time) keys for the
// availability engine, optionally ignoring one booking's own slot.
func (r *Registry) ConfirmedSet(excludeCode string) map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.bySlot))
	for key, code := range r.bySlot {
		if code == excludeCode {
			continue
		}
		out[key] = true
	}
	return out
}

// persistLocked saves a snapshot; the registry write stands even when the
// snapshot fails, mirroring how side effects never roll back a commit.
func (r *Registry) persistLocked() {
	if r.snap == nil {
		return
	}
	if err := r.snap.Save(r.bookings); err != nil {
		r.logger.Error("booking snapshot save failed", "error", err)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
