package transcripts

import (
	"context"
	"errors"
)

// ErrInvalidRole indicates a role outside user/assistant.
var ErrInvalidRole = errors.New("invalid transcript role")

// Repo defines persistence for the append-only transcript. Entries are never
// updated or deleted.
type Repo interface {
	Append(ctx context.Context, entry Entry) error
	// ListByDocument returns the full transcript oldest-first.
	ListByDocument(ctx context.Context, documentID string) ([]Entry, error)
}

// ValidRole reports whether role is one of the two transcript roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
