package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Mehidi-hridoy/dokan/internal/search"
	pkgkafka "github.com/Mehidi-hridoy/dokan/pkg/kafka"
)

// Consumer applies catalog events to the search index. Every replica keeps
// its own index current by consuming the catalog topics, so an in-memory
// engine stays in sync without a shared backend. Catalog events carry the
// full product snapshot, so no catalog read-back is needed.
type Consumer struct {
	engine search.Engine
	logger *slog.Logger
}

// NewConsumer creates a consumer that maintains the search index from
// catalog events.
func NewConsumer(engine search.Engine, logger *slog.Logger) *Consumer {
	return &Consumer{
		engine: engine,
		logger: logger,
	}
}

// Topics returns the catalog topics the consumer subscribes to.
func (c *Consumer) Topics() []string {
	return []string{TopicCatalogUpdated, TopicCatalogDeleted}
}

// Handle processes one catalog event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicCatalogUpdated:
		return c.handleCatalogUpdated(ctx, event)
	case TopicCatalogDeleted:
		return c.handleCatalogDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleCatalogUpdated indexes the product snapshot carried by the event.
// Indexing is an upsert, so replaying or self-consuming an event is harmless.
func (c *Consumer) handleCatalogUpdated(ctx context.Context, event *pkgkafka.Event) error {
	var data CatalogUpdatedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal catalog.updated data: %w", err)
	}

	doc := search.Document{
		ID:          data.ProductID,
		Code:        data.Code,
		Name:        data.Name,
		Slug:        data.Slug,
		Description: data.Description,
		Price:       data.Price,
		Image:       data.Image,
		Status:      data.Status,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}

	if err := c.engine.Index(ctx, &doc); err != nil {
		return fmt.Errorf("index product from catalog.updated event: %w", err)
	}

	c.logger.InfoContext(ctx, "indexed product from catalog.updated event",
		slog.String("product_id", data.ProductID),
	)

	return nil
}

// handleCatalogDeleted drops the product from the index.
func (c *Consumer) handleCatalogDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data CatalogDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal catalog.deleted data: %w", err)
	}

	if err := c.engine.Delete(ctx, data.ProductID); err != nil {
		return fmt.Errorf("delete product from catalog.deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "removed product from index from catalog.deleted event",
		slog.String("product_id", data.ProductID),
	)

	return nil
}
