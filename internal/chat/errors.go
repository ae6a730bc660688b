package chat

import "errors"

var (
	// ErrGenerationInFlight indicates another generation is running for the
	// same document.
	ErrGenerationInFlight = errors.New("generation in flight")
	// ErrEmptyMessage indicates a blank chat message.
	ErrEmptyMessage = errors.New("message content is required")
)
