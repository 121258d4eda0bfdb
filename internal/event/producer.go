package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/PaintCatalog/internal/engagement"
	pkgkafka "github.com/utafrali/PaintCatalog/pkg/kafka"
	"github.com/utafrali/PaintCatalog/pkg/logger"
)

// Kafka topics for engagement events.
var (
	TopicEngagementLiked = pkgkafka.Topic("engagement", "liked")
	TopicEngagementVoted = pkgkafka.Topic("engagement", "voted")
)

// Source identifier for events originating from this service.
const SourceCatalogService = "paint-catalog"

// EngagementData is the payload of engagement.liked and engagement.voted.
type EngagementData struct {
	EntityID string `json:"entity_id"`
	UserID   string `json:"user_id,omitempty"`
	Count    int    `json:"count"`
}

// Publisher is the subset of *pkgkafka.Producer the event producer uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes engagement events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new engagement event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishEngagement publishes a confirmed like or vote.
func (p *Producer) PublishEngagement(ctx context.Context, kind engagement.Kind, entityID, userID string, count int) error {
	var topic, aggregateType string
	switch kind {
	case engagement.KindLike:
		topic, aggregateType = TopicEngagementLiked, "product"
	case engagement.KindVote:
		topic, aggregateType = TopicEngagementVoted, "vote"
	default:
		return fmt.Errorf("publish engagement: unknown kind %q", kind)
	}

	evt, err := pkgkafka.NewEvent(topic, entityID, aggregateType, SourceCatalogService, EngagementData{
		EntityID: entityID,
		UserID:   userID,
		Count:    count,
	})
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.InfoContext(ctx, "published engagement event",
		slog.String("event_id", evt.EventID),
		slog.String("topic", topic),
		slog.String("entity_id", entityID),
		slog.Int("count", count),
	)
	return nil
}
