package dialog

import (
	"strconv"
	"strings"

	"github.com/advisordesk/advisor-booking-agent/internal/llm"
	"github.com/advisordesk/advisor-booking-agent/internal/session"
)

// intentRule pairs a keyword predicate with the intent it implies. Rules
// are checked in order; the first hit wins, so the more specific flows
// (reschedule, cancel) outrank the generic booking keywords.
type intentRule struct {
	match  func(string) bool
	intent session.Intent
}

var intentRules = []intentRule{
	{containsAny("reschedul", "move my", "change my appointment", "change my booking", "different time", "shift my"), session.IntentReschedule},
	{containsAny("cancel", "call off", "drop my appointment"), session.IntentCancel},
	{containsAny("availab", "free slot", "open slot", "any slots", "what slots", "when can", "timings"), session.IntentAvailability},
	{containsAny("book", "appointment", "schedule", "meet", "consult", "advisor", "talk to someone", "speak to"), session.IntentBook},
}

// FallbackIntent classifies a message by keywords alone. It backs the LLM
// classifier so a model outage never strands the conversation.
func FallbackIntent(message string) session.Intent {
	lower := strings.ToLower(message)
	for _, rule := range intentRules {
		if rule.match(lower) {
			return rule.intent
		}
	}
	return session.IntentGeneral
}

// HasTopLevelKeyword reports whether the message reads as a fresh
// top-level request rather than an answer to the current prompt. Used to
// restart finished conversations.
func HasTopLevelKeyword(message string) bool {
	return FallbackIntent(message) != session.IntentGeneral
}

func containsAny(substrings ...string) func(string) bool {
	return func(lower string) bool {
		for _, s := range substrings {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

var ordinals = map[string]int{
	"first": 1, "1st": 1, "one": 1,
	"second": 2, "2nd": 2, "two": 2,
	"third": 3, "3rd": 3, "three": 3,
}

// FallbackSelection parses a slot-selection reply without the LLM: bare
// digits, "option N", ordinals, first/last, and requests for different
// times. Anything else is treated as a question so the options get
// repeated.
func FallbackSelection(message string, offered int) llm.SelectionResult {
	lower := strings.ToLower(strings.TrimSpace(message))
	if offered > 0 {
		if n, err := strconv.Atoi(lower); err == nil && n >= 1 && n <= offered {
			return llm.SelectionResult{Action: llm.ActionSelect, SelectedIndex: n}
		}
		for _, field := range strings.Fields(strings.Map(stripPunct, lower)) {
			if strings.HasPrefix(field, "option") {
				continue
			}
			if n, err := strconv.Atoi(field); err == nil && n >= 1 && n <= offered {
				return llm.SelectionResult{Action: llm.ActionSelect, SelectedIndex: n}
			}
			if n, ok := ordinals[field]; ok && n <= offered {
				return llm.SelectionResult{Action: llm.ActionSelect, SelectedIndex: n}
			}
			if field == "last" {
				return llm.SelectionResult{Action: llm.ActionSelect, SelectedIndex: offered}
			}
		}
	}
	if containsAny("different", "other time", "something else", "neither", "none of", "another")(lower) {
		return llm.SelectionResult{Action: llm.ActionDifferent}
	}
	// A lone offer is phrased as a yes/no question, so a plain yes picks it.
	if offered == 1 && isAffirmative(lower) {
		return llm.SelectionResult{Action: llm.ActionSelect, SelectedIndex: 1}
	}
	return llm.SelectionResult{Action: llm.ActionQuestion}
}

func stripPunct(r rune) rune {
	switch r {
	case '.', ',', '!', '?', ';', ':':
		return ' '
	}
	return r
}

var affirmatives = []string{"yes", "yep", "yeah", "sure", "confirm", "ok", "okay", "sounds good", "go ahead", "please do", "correct", "right", "done", "fine"}

var negatives = []string{"no", "nope", "nah", "don't", "dont", "not ", "wrong", "wait", "hold on", "stop"}

func isAffirmative(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, n := range negatives {
		if lower == strings.TrimSpace(n) || strings.HasPrefix(lower, n+" ") || strings.Contains(lower, " "+n) {
			return false
		}
	}
	for _, a := range affirmatives {
		if lower == a || strings.HasPrefix(lower, a+" ") || strings.HasPrefix(lower, a+",") || strings.HasPrefix(lower, a+".") || strings.HasPrefix(lower, a+"!") {
			return true
		}
	}
	return false
}

func isNegative(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, n := range negatives {
		trimmed := strings.TrimSpace(n)
		if lower == trimmed || strings.HasPrefix(lower, trimmed+" ") || strings.HasPrefix(lower, trimmed+",") || strings.HasPrefix(lower, trimmed+".") {
			return true
		}
	}
	return false
}
