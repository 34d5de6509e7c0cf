// Package clock anchors all calendar arithmetic to a single civil timezone
// so the rest of the booking core stays timezone-naive.
package clock

import "time"

// TimezoneName is the fixed civil timezone for all slot arithmetic.
const TimezoneName = "Asia/Kolkata"

// RestDay is the weekday on which no slots are ever generated (Sunday).
const RestDay = 0

// Location is the resolved fixed timezone. Falls back to a static
// UTC+5:30 zone when the tzdata database is unavailable.
var Location *time.Location

func init() {
	loc, err := time.LoadLocation(TimezoneName)
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	Location = loc
}

// Clock produces the current instant. Injected so slot generation and
// conflict checks are testable against a frozen time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the fixed timezone.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().In(Location)
}

// Fixed returns a Clock frozen at the given instant. Test helper.
func Fixed(t time.Time) Clock {
	return fixedClock{t.In(Location)}
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// Today returns the current civil date at midnight in the fixed timezone.
func Today(clk Clock) time.Time {
	now := clk.Now().In(Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
}

// DayOfWeek returns the weekday of a civil date, 0=Sunday .. 6=Saturday.
func DayOfWeek(date time.Time) int {
	return int(date.In(Location).Weekday())
}

// Combine resolves a civil date plus a time of day to an absolute instant.
func Combine(date time.Time, hour, minute int) time.Time {
	d := date.In(Location)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, Location)
}

// FormatDate renders a civil date in the canonical YYYY-MM-DD form.
func FormatDate(date time.Time) string {
	return date.In(Location).Format("2006-01-02")
}

// ParseDate parses a canonical YYYY-MM-DD civil date in the fixed timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, Location)
}

// FormatSlot renders an instant for display and speech,
// e.g. "Tuesday, 02 Sep at 10:00 AM".
func FormatSlot(t time.Time) string {
	return t.In(Location).Format("Monday, 02 Jan at 03:04 PM")
}
