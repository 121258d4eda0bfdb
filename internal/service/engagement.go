package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/PaintCatalog/internal/catalog"
	"github.com/utafrali/PaintCatalog/internal/engagement"
	"github.com/utafrali/PaintCatalog/internal/optimistic"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
)

// EngagementPublisher announces confirmed engagement changes.
type EngagementPublisher interface {
	PublishEngagement(ctx context.Context, kind engagement.Kind, entityID, userID string, count int) error
}

// EngagementResult is the confirmed counter after a like or vote.
type EngagementResult struct {
	EntityID string `json:"entity_id"`
	Count    int    `json:"count"`
}

// EngagementService applies likes and votes optimistically: the local
// counter changes at once and is reconciled or restored when the submitter
// answers.
type EngagementService struct {
	catalog   *catalog.Catalog
	tally     *engagement.VoteTally
	submitter engagement.Submitter
	publisher EngagementPublisher
	seq       *optimistic.Sequencer
	logger    *slog.Logger
}

// NewEngagementService creates an engagement service. publisher may be nil.
func NewEngagementService(
	cat *catalog.Catalog,
	tally *engagement.VoteTally,
	submitter engagement.Submitter,
	publisher EngagementPublisher,
	seq *optimistic.Sequencer,
	logger *slog.Logger,
) *EngagementService {
	return &EngagementService{
		catalog:   cat,
		tally:     tally,
		submitter: submitter,
		publisher: publisher,
		seq:       seq,
		logger:    logger,
	}
}

// LikeProduct adds a like to a product.
func (s *EngagementService) LikeProduct(ctx context.Context, productID, userID string) (*EngagementResult, error) {
	if _, ok := s.catalog.Likes(productID); !ok {
		return nil, apperrors.NotFound("product", productID)
	}

	var snapshot int
	m := optimistic.Mutation[int]{
		Key: "like:" + productID,
		Read: func() int {
			snapshot, _ = s.catalog.Likes(productID)
			return snapshot
		},
		Write: func(n int) { s.catalog.SetLikes(productID, n) },
		Apply: func(n int) int { return n + 1 },
		Commit: func(ctx context.Context) (int, error) {
			return s.submitter.Submit(ctx, engagement.Submission{Kind: engagement.KindLike, EntityID: productID, Current: snapshot})
		},
	}
	return s.run(ctx, engagement.KindLike, productID, userID, m)
}

// Vote adds a vote to an entity. Votes are not tied to catalog products.
func (s *EngagementService) Vote(ctx context.Context, entityID, userID string) (*EngagementResult, error) {
	if entityID == "" {
		return nil, apperrors.InvalidParameter("entity_id", "is required")
	}

	var snapshot int
	m := optimistic.Mutation[int]{
		Key: "vote:" + entityID,
		Read: func() int {
			snapshot = s.tally.Get(entityID)
			return snapshot
		},
		Write: func(n int) { s.tally.Set(entityID, n) },
		Apply: func(n int) int { return n + 1 },
		Commit: func(ctx context.Context) (int, error) {
			return s.submitter.Submit(ctx, engagement.Submission{Kind: engagement.KindVote, EntityID: entityID, Current: snapshot})
		},
	}
	return s.run(ctx, engagement.KindVote, entityID, userID, m)
}

// Votes returns the local vote count of an entity.
func (s *EngagementService) Votes(entityID string) int {
	return s.tally.Get(entityID)
}

func (s *EngagementService) run(ctx context.Context, kind engagement.Kind, entityID, userID string, m optimistic.Mutation[int]) (*EngagementResult, error) {
	count, err := optimistic.Run(ctx, s.seq, m)
	switch {
	case errors.Is(err, optimistic.ErrSuperseded):
		// A newer submission for the same entity owns the local counter.
		engagementSubmissions.WithLabelValues(string(kind), "superseded").Inc()
		s.logger.DebugContext(ctx, "engagement confirmation superseded",
			slog.String("kind", string(kind)),
			slog.String("entity_id", entityID),
		)
	case err != nil:
		engagementSubmissions.WithLabelValues(string(kind), "failed").Inc()
		s.logger.WarnContext(ctx, "engagement submission failed, local change restored",
			slog.String("kind", string(kind)),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()),
		)
		if apperrors.HTTPStatus(err) < 500 {
			return nil, fmt.Errorf("%s %s: %w", kind, entityID, err)
		}
		return nil, apperrors.ServiceUnavailable(fmt.Sprintf("%s submission failed", kind), err)
	default:
		engagementSubmissions.WithLabelValues(string(kind), "confirmed").Inc()
	}

	if s.publisher != nil {
		if perr := s.publisher.PublishEngagement(ctx, kind, entityID, userID, count); perr != nil {
			s.logger.ErrorContext(ctx, "failed to publish engagement event",
				slog.String("kind", string(kind)),
				slog.String("entity_id", entityID),
				slog.String("error", perr.Error()),
			)
		}
	}
	return &EngagementResult{EntityID: entityID, Count: count}, nil
}
