// Package llm holds the language-model collaborators: a completion client
// and the structured classifiers built on top of it. Every classifier
// fails gracefully; callers always keep a deterministic fallback.
package llm

import "context"

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// Client sends completion requests to a language model.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// IntentResult is the classifier's verdict on a message's top-level intent.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// SelectionAction tags how the user responded to offered slots.
type SelectionAction string

const (
	ActionSelect    SelectionAction = "select"
	ActionDifferent SelectionAction = "different"
	ActionQuestion  SelectionAction = "question"
)

// SelectionResult is the classifier's verdict on a slot-selection message.
type SelectionResult struct {
	Action        SelectionAction `json:"action"`
	SelectedIndex int             `json:"selectedIndex,omitempty"`
}
