package extraction

import (
	"context"
)

// CompletionResult carries the raw model output for one request
type CompletionResult struct {
	Content      string
	FinishReason string
}

// CompletionClient issues one schema-constrained completion request.
// Implementations must fail on malformed or empty provider responses.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*CompletionResult, error)
}

// topicEntry matches one element of the model's JSON response
type topicEntry struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Keywords string `json:"keywords"`
}

// topicResponse is the wrapper structure the model is asked to produce
type topicResponse struct {
	Topics []topicEntry `json:"topics"`
}
