package chat

import "sync"

// inflight tracks documents with a provider call in progress so a document
// never has two generations running at once in this process.
type inflight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{busy: make(map[string]struct{})}
}

func (g *inflight) tryAcquire(documentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[documentID]; ok {
		return false
	}
	g.busy[documentID] = struct{}{}
	return true
}

func (g *inflight) release(documentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, documentID)
}
