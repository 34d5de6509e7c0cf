// Package availability generates and filters offerable appointment slots.
package availability

import (
	"time"
)

// TimeOfDay is one of the three fixed daily appointment times.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "10:00"
	TimeAfternoon TimeOfDay = "14:00"
	TimeEvening   TimeOfDay = "16:00"
)

// FixedTimes lists the offerable times of day in display order.
var FixedTimes = []TimeOfDay{TimeMorning, TimeAfternoon, TimeEvening}

// Hour returns the 24-hour clock hour for the time of day.
func (t TimeOfDay) Hour() int {
	switch t {
	case TimeMorning:
		return 10
	case TimeAfternoon:
		return 14
	case TimeEvening:
		return 16
	}
	return -1
}

// Valid reports whether t is one of the fixed times.
func (t TimeOfDay) Valid() bool {
	return t.Hour() >= 0
}

// Key builds the canonical (date, time) index key shared with the
// booking registry.
func Key(date string, t TimeOfDay) string {
	return date + " " + string(t)
}

// Slot is an offerable appointment opportunity.
type Slot struct {
	Date      string    `json:"date"`
	Time      TimeOfDay `json:"time"`
	Instant   time.Time `json:"instant"`
	Formatted string    `json:"formatted"`
}

// Key returns the slot's (date, time) index key.
func (s Slot) Key() string {
	return Key(s.Date, s.Time)
}
