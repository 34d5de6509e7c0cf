package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckBlocksPII(t *testing.T) {
	tests := []struct {
		name    string
		message string
		reason  string
	}{
		{"plain phone", "call me on 9876543210", ReasonPIIPhone},
		{"spaced phone", "my number is 98765 43210", ReasonPIIPhone},
		{"formatted phone", "it's (987) 654-3210", ReasonPIIPhone},
		{"email", "reach me at ravi.k@example.com", ReasonPIIEmail},
		{"card", "pay with 4111 1111 1111 1111", ReasonPIICard},
		{"dashed card", "4111-1111-1111-1111 is my card", ReasonPIICard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Check(tt.message)
			assert.True(t, res.Blocked)
			assert.Equal(t, tt.reason, res.Reason)
			assert.NotEmpty(t, res.Reply)
		})
	}
}

func TestCheckBlocksProhibitedAdvice(t *testing.T) {
	tests := []string{
		"which stock should I buy?",
		"tell me the best mutual fund",
		"should i invest in gold right now",
		"any stock tip for tomorrow?",
		"I want guaranteed returns",
	}
	for _, msg := range tests {
		res := Check(msg)
		assert.True(t, res.Blocked, "expected block for %q", msg)
		assert.Equal(t, ReasonProhibitedAdvice, res.Reason)
	}
}

func TestCheckAllowsNormalMessages(t *testing.T) {
	tests := []string{
		"I'd like to book an appointment",
		"tomorrow afternoon works",
		"option 2 please",
		"my booking code is AD-7KQX",
		"can we do 4pm on friday?",
		"I want to discuss investments with an advisor",
	}
	for _, msg := range tests {
		res := Check(msg)
		assert.False(t, res.Blocked, "unexpected block for %q (%s)", msg, res.Reason)
	}
}
