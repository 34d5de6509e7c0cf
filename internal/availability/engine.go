package availability

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/advisordesk/advisor-booking-agent/internal/clock"
)

// WindowDays is the rolling window of civil days the engine enumerates.
const WindowDays = 8

// maxOffered is how many slots a single offer presents.
const maxOffered = 2

// Reason distinguishes why an offer fell back from the requested target.
type Reason string

const (
	// ReasonExact means the offered slots satisfy the stated preferences
	// (or no preferences were stated).
	ReasonExact Reason = "exact"
	// ReasonDayFull means the target date exists but all its times are taken.
	ReasonDayFull Reason = "day_full"
	// ReasonNoMatchingDay means no candidate matched the target date/time.
	ReasonNoMatchingDay Reason = "no_matching_day"
	// ReasonNoSlots means the whole window is exhausted.
	ReasonNoSlots Reason = "no_slots"
)

// OfferResult is the outcome of a preference-filtered availability query.
type OfferResult struct {
	Slots      []Slot
	Redirected bool
	TargetDate string
	Reason     Reason
}

// Engine produces deterministic, ordered candidate slots.
type Engine struct {
	clk    clock.Clock
	tracer trace.Tracer
}

// NewEngine constructs a slot availability engine.
func NewEngine(clk clock.Clock) *Engine {
	if clk == nil {
		panic("availability: clock required")
	}
	return &Engine{
		clk:    clk,
		tracer: otel.Tracer("advisor.internal.availability"),
	}
}

// Generate enumerates the full candidate set: WindowDays consecutive civil
// days from today, skipping the rest day, three fixed times per day,
// strictly-future instants only, minus slots present in taken. Order is
// (date, time-of-day index). taken keys use Key(date, time).
func (e *Engine) Generate(ctx context.Context, taken map[string]bool) []Slot {
	_, span := e.tracer.Start(ctx, "availability.generate")
	defer span.End()

	now := e.clk.Now()
	today := clock.Today(e.clk)

	var out []Slot
	for i := 0; i < WindowDays; i++ {
		date := today.AddDate(0, 0, i)
		if clock.DayOfWeek(date) == clock.RestDay {
			continue
		}
		dateStr := clock.FormatDate(date)
		for _, t := range FixedTimes {
			instant := clock.Combine(date, t.Hour(), 0)
			if !instant.After(now) {
				continue
			}
			if taken[Key(dateStr, t)] {
				continue
			}
			out = append(out, Slot{
				Date:      dateStr,
				Time:      t,
				Instant:   instant,
				Formatted: clock.FormatSlot(instant),
			})
		}
	}
	span.SetAttributes(attribute.Int("advisor.candidates", len(out)))
	return out
}

// ResolveTargetDate converts a day preference into a concrete civil date.
// redirected is set when the stated day was (or fell on) the rest day and
// the engine substituted the next available day. ok is false when the day
// preference is absent or unrecognized.
func ResolveTargetDate(prefs Preferences, today time.Time) (date time.Time, redirected, ok bool) {
	switch prefs.Day {
	case "":
		return time.Time{}, false, false
	case "today":
		date = today
	case "tomorrow":
		date = today.AddDate(0, 0, 1)
	case "sunday":
		// The rest day itself: aim at its next occurrence, then redirect past it.
		date = nextWeekday(today, clock.RestDay)
		redirected = true
	default:
		n, known := weekdayNumbers[prefs.Day]
		if !known {
			return time.Time{}, false, false
		}
		date = nextWeekday(today, n)
	}

	for clock.DayOfWeek(date) == clock.RestDay {
		date = date.AddDate(0, 0, 1)
		redirected = true
	}
	return date, redirected, true
}

// nextWeekday returns the next future occurrence of a weekday, today excluded.
func nextWeekday(today time.Time, weekday int) time.Time {
	delta := (weekday - clock.DayOfWeek(today) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, delta)
}

// resolveTargetTime maps the time preference to a fixed time of day.
// A specific hour wins over coarse terms and maps to the numerically
// closest fixed time, ties broken toward the earlier value.
func resolveTargetTime(prefs Preferences) (TimeOfDay, bool) {
	if prefs.SpecificHour > 0 {
		return closestFixedTime(prefs.SpecificHour), true
	}
	switch prefs.Time {
	case "morning":
		return TimeMorning, true
	case "afternoon":
		return TimeAfternoon, true
	case "evening":
		return TimeEvening, true
	}
	return "", false
}

func closestFixedTime(hour int) TimeOfDay {
	best := FixedTimes[0]
	bestDist := distance(hour, best.Hour())
	for _, t := range FixedTimes[1:] {
		if d := distance(hour, t.Hour()); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Offer filters the full candidate set by the stated preferences and
// composes up to two options. When the target day was redirected off the
// rest day, the result is anchored to the redirect date whenever that date
// has any candidates; this precedence overrides the generic fallback.
func (e *Engine) Offer(ctx context.Context, prefs Preferences, taken map[string]bool) OfferResult {
	ctx, span := e.tracer.Start(ctx, "availability.offer")
	defer span.End()

	full := e.Generate(ctx, taken)
	if len(full) == 0 {
		return OfferResult{Reason: ReasonNoSlots}
	}

	targetDate, redirected, hasDay := ResolveTargetDate(prefs, clock.Today(e.clk))
	targetTime, hasTime := resolveTargetTime(prefs)

	if !hasDay && !hasTime {
		return OfferResult{Slots: take(full, maxOffered), Reason: ReasonExact}
	}

	dateStr := ""
	if hasDay {
		dateStr = clock.FormatDate(targetDate)
	}

	matches := filterSlots(full, dateStr, targetTime, hasTime)
	res := OfferResult{Redirected: redirected, TargetDate: dateStr, Reason: ReasonExact}

	switch {
	case len(matches) >= maxOffered:
		if prefs.SpecificHour > 0 {
			sort.SliceStable(matches, func(i, j int) bool {
				return distance(matches[i].Time.Hour(), prefs.SpecificHour) <
					distance(matches[j].Time.Hour(), prefs.SpecificHour)
			})
		}
		res.Slots = take(matches, maxOffered)
		return res

	case len(matches) == 1:
		res.Slots = matches
		for _, s := range full {
			if s.Key() != matches[0].Key() {
				res.Slots = append(res.Slots, s)
				break
			}
		}
		return res
	}

	// Zero matches. Stay on the requested (or redirect-substituted) day as
	// long as it still has free times, relaxing the time filter. Only a day
	// with nothing left falls back to other days.
	if dateStr != "" {
		if onDay := filterSlots(full, dateStr, "", false); len(onDay) > 0 {
			res.Slots = take(onDay, maxOffered)
			return res
		}
	}

	if hasDay {
		if dayFullyTaken(dateStr, taken) {
			res.Reason = ReasonDayFull
		} else {
			res.Reason = ReasonNoMatchingDay
		}
	} else {
		res.Reason = ReasonNoMatchingDay
	}

	var others []Slot
	for _, s := range full {
		if s.Date != dateStr {
			others = append(others, s)
		}
		if len(others) == maxOffered {
			break
		}
	}
	res.Slots = others
	if len(res.Slots) == 0 {
		res.Reason = ReasonNoSlots
	}
	return res
}

func filterSlots(full []Slot, dateStr string, t TimeOfDay, byTime bool) []Slot {
	var out []Slot
	for _, s := range full {
		if dateStr != "" && s.Date != dateStr {
			continue
		}
		if byTime && s.Time != t {
			continue
		}
		out = append(out, s)
	}
	return out
}

func dayFullyTaken(dateStr string, taken map[string]bool) bool {
	for _, t := range FixedTimes {
		if !taken[Key(dateStr, t)] {
			return false
		}
	}
	return true
}

func take(slots []Slot, n int) []Slot {
	if len(slots) > n {
		return slots[:n]
	}
	return slots
}
