package engagement

import "sync"

// VoteTally holds the local vote counts shown to users.
type VoteTally struct {
	mu     sync.RWMutex
	counts map[string]int
}

// NewVoteTally creates an empty tally.
func NewVoteTally() *VoteTally {
	return &VoteTally{counts: make(map[string]int)}
}

// Get returns the count for an entity; unknown entities have zero votes.
func (t *VoteTally) Get(entityID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[entityID]
}

// Set overwrites the count for an entity.
func (t *VoteTally) Set(entityID string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[entityID] = n
}
