// Package optimistic implements apply-then-confirm mutations with exact
// rollback on failure.
package optimistic

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Run when a newer mutation for the same key
// started before this one completed. The local state then belongs to the
// newer mutation and is left untouched.
var ErrSuperseded = errors.New("optimistic: superseded by a newer request")

// Sequencer hands out increasing per-key generation tokens. A completion is
// applied only when its token is still the latest for the key. It also tracks
// the mutations of each key that are still in flight, so that a failure can
// be undone without discarding the changes of the others.
type Sequencer struct {
	mu      sync.Mutex
	gens    map[string]uint64
	flights map[string]*flight
}

// flight is the bookkeeping for one key while mutations are outstanding. base
// is the value before the first of them was applied, or the newest confirmed
// value since. Local state is always base with every pending change newer
// than settled applied on top, in token order.
type flight struct {
	base    any
	settled uint64
	pending []pendingChange
}

type pendingChange struct {
	token uint64
	apply func(any) any
}

func (f *flight) value() any {
	v := f.base
	for _, c := range f.pending {
		if c.token > f.settled {
			v = c.apply(v)
		}
	}
	return v
}

func (f *flight) remove(token uint64) {
	for i, c := range f.pending {
		if c.token == token {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return
		}
	}
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{gens: make(map[string]uint64), flights: make(map[string]*flight)}
}

// Next starts a new generation for key and returns its token.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key]++
	return s.gens[key]
}

// begin issues a token for a mutation of key and applies it locally. The
// first mutation of a flight records the untouched value as its base.
func begin[T any](s *Sequencer, m Mutation[T]) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[m.Key]++
	token := s.gens[m.Key]

	snapshot := m.Read()
	f, ok := s.flights[m.Key]
	if !ok {
		f = &flight{base: snapshot}
		s.flights[m.Key] = f
	}
	f.pending = append(f.pending, pendingChange{
		token: token,
		apply: func(v any) any { return m.Apply(v.(T)) },
	})
	m.Write(m.Apply(snapshot))
	return token
}

// finish retires the mutation with token and rewrites the local value from
// the flight. A successful commit becomes the new base unless a newer one
// already settled. It reports whether token was still the latest for key.
func finish[T any](s *Sequencer, m Mutation[T], token uint64, confirmed T, ok bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.gens[m.Key] == token

	f := s.flights[m.Key]
	f.remove(token)
	if ok && token > f.settled {
		f.base, f.settled = confirmed, token
	}
	m.Write(f.value().(T))
	if len(f.pending) == 0 {
		delete(s.flights, m.Key)
	}
	return latest
}

// IsLatest reports whether token is the newest generation issued for key.
func (s *Sequencer) IsLatest(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key] == token
}

// IfLatest runs fn while holding the sequencer lock, but only when token is
// still the newest generation for key. It reports whether fn ran.
func (s *Sequencer) IfLatest(key string, token uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != token {
		return false
	}
	fn()
	return true
}

// Mutation describes one optimistic change of a value of type T.
type Mutation[T any] struct {
	// Key scopes sequencing, e.g. "like:<product id>".
	Key string
	// Read captures the current local value. Read and Write run under the
	// sequencer lock and must not block.
	Read func() T
	// Write stores a value locally.
	Write func(T)
	// Apply derives the optimistic value from the snapshot.
	Apply func(T) T
	// Commit performs the remote mutation and returns the authoritative value.
	Commit func(ctx context.Context) (T, error)
}

// Run applies m locally, commits it remotely and then either reconciles the
// local value with the authoritative one or undoes its own change exactly.
// Changes of other mutations of the same key that are still in flight stay
// applied, and a confirmation never overrides a newer confirmed value.
// ErrSuperseded is returned for a successful commit when a newer mutation for
// the same key started before it completed.
func Run[T any](ctx context.Context, seq *Sequencer, m Mutation[T]) (T, error) {
	token := begin(seq, m)

	confirmed, err := m.Commit(ctx)
	if err != nil {
		var zero T
		finish(seq, m, token, zero, false)
		return zero, err
	}

	if !finish(seq, m, token, confirmed, true) {
		return confirmed, ErrSuperseded
	}
	return confirmed, nil
}
