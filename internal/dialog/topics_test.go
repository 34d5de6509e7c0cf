package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		message string
		want    string
		ok      bool
	}{
		{"1", "kyc", true},
		{"3", "loans", true},
		{"option 5 please", "investments", true},
		{"kyc", "kyc", true},
		{"I need help with my home loan", "loans", true},
		{"want to open a savings account", "account_opening", true},
		{"insurance premium question", "insurance", true},
		{"submit my documents", "kyc", true},
		{"mutual fund SIP", "investments", true},
		{"aadhaar verification", "kyc", true},
		{"the weather", "", false},
	}
	for _, tt := range tests {
		topic, ok := ParseTopic(tt.message)
		assert.Equal(t, tt.ok, ok, tt.message)
		if tt.ok {
			assert.Equal(t, tt.want, topic.ID, tt.message)
		}
	}
}

func TestTopicByID(t *testing.T) {
	topic, ok := TopicByID("loans")
	require.True(t, ok)
	assert.Equal(t, "Loans", topic.Label)

	_, ok = TopicByID("astrology")
	assert.False(t, ok)
}
