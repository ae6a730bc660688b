package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	// GetByID fetches a document scoped to its owner; other users see ErrNotFound.
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	// ListByUser lists documents newest-first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// SetSummaryIfAbsent stores the summary only when none exists yet. Returns
	// ErrSummaryExists when a concurrent writer won the race.
	SetSummaryIfAbsent(ctx context.Context, documentID, summary string) error
}
