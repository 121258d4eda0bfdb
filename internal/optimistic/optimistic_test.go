package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter is a guarded local value standing in for a like or vote tally.
type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) get() int  { c.mu.Lock(); defer c.mu.Unlock(); return c.n }
func (c *counter) set(n int) { c.mu.Lock(); defer c.mu.Unlock(); c.n = n }

func increment(c *counter, commit func(ctx context.Context) (int, error)) Mutation[int] {
	return Mutation[int]{
		Key:    "vote:entity-1",
		Read:   c.get,
		Write:  c.set,
		Apply:  func(n int) int { return n + 1 },
		Commit: commit,
	}
}

func TestRun_SuccessReconcilesWithServer(t *testing.T) {
	c := &counter{n: 4}
	var seenDuringCommit int

	got, err := Run(context.Background(), NewSequencer(), increment(c, func(context.Context) (int, error) {
		seenDuringCommit = c.get()
		return 9, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, 5, seenDuringCommit, "local change must be visible before the commit completes")
	assert.Equal(t, 9, got)
	assert.Equal(t, 9, c.get())
}

func TestRun_FailureRestoresSnapshotExactly(t *testing.T) {
	for _, start := range []int{0, 1, 41} {
		c := &counter{n: start}
		boom := errors.New("engagement endpoint down")

		_, err := Run(context.Background(), NewSequencer(), increment(c, func(context.Context) (int, error) {
			return 0, boom
		}))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, start, c.get())
	}
}

func TestRun_SupersededSuccessDoesNotClobber(t *testing.T) {
	c := &counter{n: 0}
	seq := NewSequencer()

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		}))
		done <- err
	}()
	<-started

	got, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
		return 2, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, 2, c.get())
}

func TestRun_SupersededFailureLeavesNewerState(t *testing.T) {
	c := &counter{n: 10}
	seq := NewSequencer()

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
			close(started)
			<-release
			return 0, errors.New("timeout")
		}))
		done <- err
	}()
	<-started

	_, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
		return 12, nil
	}))
	require.NoError(t, err)

	close(release)
	assert.Error(t, <-done)
	assert.Equal(t, 12, c.get())
}

func TestRun_OverlappingFailuresRestoreOriginal(t *testing.T) {
	c := &counter{n: 7}
	seq := NewSequencer()

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
			close(started)
			<-release
			return 0, errors.New("timeout")
		}))
		done <- err
	}()
	<-started
	assert.Equal(t, 8, c.get())

	_, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
		assert.Equal(t, 9, c.get())
		return 0, errors.New("engagement endpoint down")
	}))
	require.Error(t, err)
	assert.Equal(t, 8, c.get(), "the older change is still in flight")

	close(release)
	require.Error(t, <-done)
	assert.Equal(t, 7, c.get())
}

func TestRun_OlderConfirmationKeepsNewerPendingChange(t *testing.T) {
	c := &counter{n: 3}
	seq := NewSequencer()

	releaseOld := make(chan struct{})
	startedOld := make(chan struct{})
	oldDone := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
			close(startedOld)
			<-releaseOld
			return 10, nil
		}))
		oldDone <- err
	}()
	<-startedOld

	releaseNew := make(chan struct{})
	startedNew := make(chan struct{})
	newDone := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), seq, increment(c, func(context.Context) (int, error) {
			close(startedNew)
			<-releaseNew
			return 0, errors.New("timeout")
		}))
		newDone <- err
	}()
	<-startedNew
	assert.Equal(t, 5, c.get())

	close(releaseOld)
	assert.ErrorIs(t, <-oldDone, ErrSuperseded)
	assert.Equal(t, 11, c.get(), "server value plus the pending newer change")

	close(releaseNew)
	require.Error(t, <-newDone)
	assert.Equal(t, 10, c.get())
}

func TestSequencer(t *testing.T) {
	seq := NewSequencer()
	a1 := seq.Next("a")
	b1 := seq.Next("b")
	a2 := seq.Next("a")

	assert.False(t, seq.IsLatest("a", a1))
	assert.True(t, seq.IsLatest("a", a2))
	assert.True(t, seq.IsLatest("b", b1))

	ran := seq.IfLatest("a", a1, func() { t.Fatal("stale token must not run") })
	assert.False(t, ran)
}
