package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnclassified is returned when the model answered but the verdict
// could not be parsed; callers fall back to keyword rules.
var ErrUnclassified = errors.New("llm: response not classifiable")

const intentPrompt = `Classify this message to an appointment-booking assistant into ONE intent. Respond with JSON only.

Intents:
- book: wants to schedule a new advisor consultation
- reschedule: wants to move an existing appointment to another time
- cancel: wants to call off an existing appointment
- availability: asks which days/times are open, without committing
- general: greetings, questions, anything else

Conversation state: %s

Message: %s

Respond with: {"intent": "<intent>", "confidence": <0.0-1.0>}`

const selectionPrompt = `The assistant offered numbered appointment options. Classify the user's reply. Respond with JSON only.

Actions:
- select: the user picks one offered option (set selectedIndex to its 1-based number)
- different: the user wants other days or times instead
- question: anything else, including questions about the options

Options offered: %d

Reply: %s

Respond with: {"action": "<action>", "selectedIndex": <number or 0>}`

// Classifier answers intent and slot-selection questions with the model.
type Classifier struct {
	client Client
}

// NewClassifier builds a classifier over a completion client.
func NewClassifier(client Client) *Classifier {
	if client == nil {
		panic("llm: client required")
	}
	return &Classifier{client: client}
}

// Classify resolves the top-level intent of a message.
func (c *Classifier) Classify(ctx context.Context, message, sessionState string) (IntentResult, error) {
	if strings.TrimSpace(message) == "" {
		return IntentResult{}, ErrUnclassified
	}

	resp, err := c.client.Complete(ctx, Request{
		Prompt:    fmt.Sprintf(intentPrompt, sessionState, message),
		MaxTokens: 60,
	})
	if err != nil {
		return IntentResult{}, err
	}

	var result IntentResult
	if err := decodeJSON(resp, &result); err != nil {
		return IntentResult{}, ErrUnclassified
	}
	switch result.Intent {
	case "book", "reschedule", "cancel", "availability", "general":
		return result, nil
	}
	return IntentResult{}, ErrUnclassified
}

// ClassifySlotSelection resolves how the user responded to offered slots.
func (c *Classifier) ClassifySlotSelection(ctx context.Context, message string, offered int) (SelectionResult, error) {
	resp, err := c.client.Complete(ctx, Request{
		Prompt:    fmt.Sprintf(selectionPrompt, offered, message),
		MaxTokens: 60,
	})
	if err != nil {
		return SelectionResult{}, err
	}

	var result SelectionResult
	if err := decodeJSON(resp, &result); err != nil {
		return SelectionResult{}, ErrUnclassified
	}
	switch result.Action {
	case ActionSelect:
		if result.SelectedIndex < 1 || result.SelectedIndex > offered {
			return SelectionResult{}, ErrUnclassified
		}
		return result, nil
	case ActionDifferent, ActionQuestion:
		return result, nil
	}
	return SelectionResult{}, ErrUnclassified
}

// decodeJSON extracts the first JSON object from a model response; models
// routinely wrap the JSON in prose or code fences.
func decodeJSON(content string, v any) error {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ErrUnclassified
	}
	return json.Unmarshal([]byte(content[start:end+1]), v)
}
