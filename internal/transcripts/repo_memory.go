package transcripts

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Entry // documentId -> entries, append order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Entry)}
}

// Append appends a transcript entry.
func (r *MemoryRepo) Append(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidRole(entry.Role) {
		return ErrInvalidRole
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[entry.DocumentID] = append(r.data[entry.DocumentID], entry)
	return nil
}

// ListByDocument returns the transcript in append order.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.data[documentID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
