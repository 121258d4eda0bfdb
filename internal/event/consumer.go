// Package event connects the catalog to Kafka: product change events in,
// engagement events out.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/PaintCatalog/internal/domain"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
	pkgkafka "github.com/utafrali/PaintCatalog/pkg/kafka"
)

// Kafka topics for product change events consumed by the catalog.
var (
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// ProductTopics lists every topic the consumer subscribes to.
func ProductTopics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// CatalogWriter applies product changes.
type CatalogWriter interface {
	Upsert(ctx context.Context, p domain.Product) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Consumer handles Kafka events related to product changes.
type Consumer struct {
	catalog CatalogWriter
	logger  *slog.Logger
}

// NewConsumer creates a new product event consumer.
func NewConsumer(catalog CatalogWriter, logger *slog.Logger) *Consumer {
	return &Consumer{catalog: catalog, logger: logger}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		return c.handleProductChanged(ctx, event)
	case TopicProductDeleted:
		return c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleProductChanged upserts the product carried by a created or updated
// event. Invalid products are logged and dropped; retrying cannot fix them.
func (c *Consumer) handleProductChanged(ctx context.Context, event *pkgkafka.Event) error {
	var p domain.Product
	if err := event.UnmarshalData(&p); err != nil {
		return err
	}

	created, err := c.catalog.Upsert(ctx, p)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			c.logger.WarnContext(ctx, "dropping invalid product from event",
				slog.String("event_id", event.EventID),
				slog.String("product_id", p.ID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("upsert product from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "applied product event",
		slog.String("event_type", event.EventType),
		slog.String("product_id", p.ID),
		slog.Bool("created", created),
	)
	return nil
}

// handleProductDeleted removes a product. Deleting an unknown product is a
// no-op so redelivered events succeed.
func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}

	if err := c.catalog.Delete(ctx, data.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.logger.DebugContext(ctx, "product already absent", slog.String("product_id", data.ID))
			return nil
		}
		return fmt.Errorf("delete product from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "removed product from deleted event", slog.String("product_id", data.ID))
	return nil
}
