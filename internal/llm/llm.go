package llm

import (
	"context"
	"errors"
)

// Role names for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of the conversation passed to the responder, oldest first.
type Turn struct {
	Role    string
	Content string
}

// Client abstracts LLM providers for document summaries and chat replies.
type Client interface {
	// Summarize produces a one-shot summary of the document text.
	Summarize(ctx context.Context, text string) (string, error)
	// Respond produces the next assistant turn given the document text and the
	// full prior conversation ending with the latest user turn.
	Respond(ctx context.Context, documentText string, turns []Turn) (string, error)
}

// ErrGeneration wraps any provider transport or API failure.
var ErrGeneration = errors.New("generation failed")

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Summarize returns ErrNotImplemented.
func (PlaceholderClient) Summarize(ctx context.Context, text string) (string, error) {
	_ = ctx
	_ = text
	return "", ErrNotImplemented
}

// Respond returns ErrNotImplemented.
func (PlaceholderClient) Respond(ctx context.Context, documentText string, turns []Turn) (string, error) {
	_ = ctx
	_ = documentText
	_ = turns
	return "", ErrNotImplemented
}
