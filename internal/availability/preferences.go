package availability

import (
	"regexp"
	"strconv"
	"strings"
)

// Preferences holds a session's collected scheduling preferences.
// SpecificHour is a 24-hour clock hour; zero means unset.
type Preferences struct {
	Day          string `json:"day,omitempty"`
	Time         string `json:"time,omitempty"`
	SpecificHour int    `json:"specificHour,omitempty"`
}

// Empty reports whether no preference has been collected yet.
func (p Preferences) Empty() bool {
	return p.Day == "" && p.Time == "" && p.SpecificHour == 0
}

// Merge overlays newly extracted preferences onto existing ones,
// keeping prior values where the update is silent.
func (p Preferences) Merge(update Preferences) Preferences {
	out := p
	if update.Day != "" {
		out.Day = update.Day
	}
	if update.Time != "" {
		out.Time = update.Time
	}
	if update.SpecificHour != 0 {
		out.SpecificHour = update.SpecificHour
	}
	return out
}

var weekdayNames = map[string]string{
	"sunday":    "sunday",
	"sun":       "sunday",
	"monday":    "monday",
	"mon":       "monday",
	"tuesday":   "tuesday",
	"tues":      "tuesday",
	"tue":       "tuesday",
	"wednesday": "wednesday",
	"wed":       "wednesday",
	"thursday":  "thursday",
	"thurs":     "thursday",
	"thu":       "thursday",
	"friday":    "friday",
	"fri":       "friday",
	"saturday":  "saturday",
	"sat":       "saturday",
}

// weekdayNumbers maps canonical weekday names to time.Weekday values.
var weekdayNumbers = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

var hourRE = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
var atHourRE = regexp.MustCompile(`\b(?:at|around|by)\s+(\d{1,2})(?::(\d{2}))?\b`)

// ExtractPreferences parses day/time scheduling preferences from free text.
// Longer day names are matched before abbreviations so "tuesday" does not
// resolve via "tue" alone.
func ExtractPreferences(text string) Preferences {
	text = strings.ToLower(text)
	var prefs Preferences

	switch {
	case strings.Contains(text, "day after tomorrow"):
		// Unsupported relative form; leave day unset so the caller re-prompts.
	case strings.Contains(text, "tomorrow"):
		prefs.Day = "tomorrow"
	case strings.Contains(text, "today"), strings.Contains(text, "tonight"):
		prefs.Day = "today"
	default:
		bestLen := 0
		for name, canonical := range weekdayNames {
			if len(name) > bestLen && containsWord(text, name) {
				prefs.Day = canonical
				bestLen = len(name)
			}
		}
	}

	switch {
	case strings.Contains(text, "morning"):
		prefs.Time = "morning"
	case strings.Contains(text, "afternoon"):
		prefs.Time = "afternoon"
	case strings.Contains(text, "evening"), strings.Contains(text, "late"):
		prefs.Time = "evening"
	}

	if m := hourRE.FindStringSubmatch(text); m != nil {
		prefs.SpecificHour = to24Hour(m[1], m[3])
	} else if m := atHourRE.FindStringSubmatch(text); m != nil {
		prefs.SpecificHour = to24Hour(m[1], "")
	} else if containsWord(text, "noon") {
		prefs.SpecificHour = 12
	}

	return prefs
}

// containsWord matches name as a whole word to keep "sunny" from reading
// as "sun".
func containsWord(text, name string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], name)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(name)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// to24Hour converts an hour mention to the 24-hour clock. Bare hours 1-7
// are read as afternoon/evening, matching how callers speak appointment
// times.
func to24Hour(hourStr, meridiem string) int {
	h, err := strconv.Atoi(hourStr)
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	switch meridiem {
	case "pm":
		if h != 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	default:
		if h >= 1 && h <= 7 {
			h += 12
		}
	}
	if h > 23 {
		return 0
	}
	return h
}
