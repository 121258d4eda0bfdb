package engagement

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrSimulatedFailure is returned by MemorySubmitter when it rolls a failure.
var ErrSimulatedFailure = errors.New("engagement: simulated submission failure")

// MemorySubmitter keeps authoritative counters in process. It can add latency
// and fail a fraction of submissions to exercise rollback paths.
type MemorySubmitter struct {
	mu          sync.Mutex
	counts      map[string]int
	latency     time.Duration
	failureRate float64
}

// NewMemorySubmitter creates a submitter with the given latency and failure
// rate in [0, 1].
func NewMemorySubmitter(latency time.Duration, failureRate float64) *MemorySubmitter {
	return &MemorySubmitter{
		counts:      make(map[string]int),
		latency:     latency,
		failureRate: min(max(failureRate, 0), 1),
	}
}

// Submit increments the counter. A counter seen for the first time starts
// from the caller's current value.
func (m *MemorySubmitter) Submit(ctx context.Context, s Submission) (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	if m.failureRate > 0 && rand.Float64() < m.failureRate {
		return 0, ErrSimulatedFailure
	}

	key := string(s.Kind) + ":" + s.EntityID
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[key]
	if !ok {
		n = s.Current
	}
	n++
	m.counts[key] = n
	return n, nil
}
