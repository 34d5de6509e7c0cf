// Package guardrail runs stateless pre-checks on every inbound message
// before any routing happens.
package guardrail

import (
	"regexp"
	"strings"
)

// Result describes whether a message was deflected and why.
type Result struct {
	Blocked bool
	Reason  string
	Reply   string
}

const (
	ReasonPIIPhone         = "pii_phone"
	ReasonPIIEmail         = "pii_email"
	ReasonPIICard          = "pii_card"
	ReasonProhibitedAdvice = "prohibited_advice"
)

const piiReply = "For your security, please don't share personal details like phone numbers, email addresses or card numbers in this chat. I only need a topic and a preferred time to book your consultation."

const adviceReply = "I can't provide investment recommendations here. An advisor can discuss this with you in a consultation — would you like me to book one?"

var emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// digitRunRE finds digit sequences allowing common separators, so
// "98765 43210" and "4111-1111-1111-1111" both read as one run.
var digitRunRE = regexp.MustCompile(`\d(?:[\d\s\-().]*\d)?`)

// adviceKeywords solicit investment recommendations. Matched as
// substrings of the lowercased message, in no particular order.
var adviceKeywords = []string{
	"which stock",
	"what stock",
	"which share",
	"best stock",
	"best mutual fund",
	"best fund",
	"which fund",
	"should i invest",
	"where should i invest",
	"where to invest",
	"stock tip",
	"investment tip",
	"investment advice",
	"recommend a stock",
	"recommend any stock",
	"recommend stocks",
	"guaranteed return",
	"hot stock",
	"portfolio advice",
	"double my money",
}

// Check runs the PII and prohibited-advice checks. A blocked turn gets a
// fixed advisory reply and must not advance the conversation.
func Check(message string) Result {
	if reason, ok := detectPII(message); ok {
		return Result{Blocked: true, Reason: reason, Reply: piiReply}
	}

	lower := strings.ToLower(message)
	for _, kw := range adviceKeywords {
		if strings.Contains(lower, kw) {
			return Result{Blocked: true, Reason: ReasonProhibitedAdvice, Reply: adviceReply}
		}
	}
	return Result{}
}

func detectPII(message string) (string, bool) {
	if emailRE.MatchString(message) {
		return ReasonPIIEmail, true
	}
	for _, run := range digitRunRE.FindAllString(message, -1) {
		digits := 0
		for _, c := range run {
			if c >= '0' && c <= '9' {
				digits++
			}
		}
		switch {
		case digits >= 13 && digits <= 16:
			return ReasonPIICard, true
		case digits >= 10:
			return ReasonPIIPhone, true
		}
	}
	return "", false
}
