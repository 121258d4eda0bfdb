// Package engagement submits likes and votes to the authority that owns
// their counters.
package engagement

import (
	"context"
	"fmt"
)

// Kind identifies an engagement counter.
type Kind string

const (
	KindLike Kind = "like"
	KindVote Kind = "vote"
)

// Submission is one increment of a counter. Current is the value the caller
// saw before its optimistic change.
type Submission struct {
	Kind     Kind
	EntityID string
	Current  int
}

// Submitter commits a submission and returns the authoritative count.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (int, error)
}

func (s Submission) validate() error {
	switch s.Kind {
	case KindLike, KindVote:
	default:
		return fmt.Errorf("unknown engagement kind %q", s.Kind)
	}
	if s.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	return nil
}
