package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	pkgkafka "github.com/Mehidi-hridoy/dokan/pkg/kafka"
)

// Kafka topic constants for store domain events.
const (
	TopicCartUpdated          = "dokan.cart.updated"
	TopicCartCleared          = "dokan.cart.cleared"
	TopicWishlistUpdated      = "dokan.wishlist.updated"
	TopicCatalogUpdated       = "dokan.catalog.updated"
	TopicCatalogDeleted       = "dokan.catalog.deleted"
	TopicNewsletterSubscribed = "dokan.newsletter.subscribed"
)

// Aggregate type constants.
const (
	AggregateTypeCart       = "cart"
	AggregateTypeWishlist   = "wishlist"
	AggregateTypeProduct    = "product"
	AggregateTypeSubscriber = "subscriber"
)

// Source identifier for events originating from the store.
const SourceStore = "dokan-store"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string          `json:"session_id"`
	Items     []CartItemData  `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	SessionID  string   `json:"session_id"`
	ProductIDs []string `json:"product_ids"`
	ItemCount  int      `json:"item_count"`
}

// CatalogUpdatedData is the payload for a catalog.updated event. It carries
// the full product snapshot so consumers can rebuild their view (for example
// a search document) without reading the catalog back.
type CatalogUpdatedData struct {
	ProductID   string          `json:"product_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Featured    bool            `json:"featured"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CatalogDeletedData is the payload for a catalog.deleted event.
type CatalogDeletedData struct {
	ProductID string `json:"product_id"`
}

// NewsletterSubscribedData is the payload for a newsletter.subscribed event.
type NewsletterSubscribedData struct {
	SubscriberID string `json:"subscriber_id"`
	Email        string `json:"email"`
}

// Producer publishes store domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the store.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		SessionID: cart.SessionID,
		Items:     items,
		ItemCount: cart.TotalItemCount(),
		Subtotal:  cart.Subtotal(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.SessionID, AggregateTypeCart, SourceStore, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", cart.SessionID),
		slog.Int("item_count", cart.TotalItemCount()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	data := CartClearedData{SessionID: sessionID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, sessionID, AggregateTypeCart, SourceStore, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_id", sessionID),
	)

	return nil
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, wishlist *domain.Wishlist) error {
	productIDs := make([]string, len(wishlist.Items))
	for i, item := range wishlist.Items {
		productIDs[i] = item.ProductID
	}

	data := WishlistUpdatedData{
		SessionID:  wishlist.SessionID,
		ProductIDs: productIDs,
		ItemCount:  wishlist.TotalItemCount(),
	}

	event, err := pkgkafka.NewEvent(TopicWishlistUpdated, wishlist.SessionID, AggregateTypeWishlist, SourceStore, data)
	if err != nil {
		return fmt.Errorf("create wishlist.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicWishlistUpdated, event); err != nil {
		return fmt.Errorf("publish wishlist.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.updated event",
		slog.String("session_id", wishlist.SessionID),
		slog.Int("item_count", wishlist.TotalItemCount()),
	)

	return nil
}

// PublishCatalogUpdated publishes a catalog.updated event for a created or
// modified product.
func (p *Producer) PublishCatalogUpdated(ctx context.Context, product *domain.Product) error {
	data := CatalogUpdatedData{
		ProductID:   product.ID,
		Code:        product.Code,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Price:       product.Price,
		Image:       product.Image,
		Featured:    product.Featured,
		Status:      product.Status,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}

	event, err := pkgkafka.NewEvent(TopicCatalogUpdated, product.ID, AggregateTypeProduct, SourceStore, data)
	if err != nil {
		return fmt.Errorf("create catalog.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCatalogUpdated, event); err != nil {
		return fmt.Errorf("publish catalog.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published catalog.updated event",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return nil
}

// PublishCatalogDeleted publishes a catalog.deleted event.
func (p *Producer) PublishCatalogDeleted(ctx context.Context, productID string) error {
	data := CatalogDeletedData{ProductID: productID}

	event, err := pkgkafka.NewEvent(TopicCatalogDeleted, productID, AggregateTypeProduct, SourceStore, data)
	if err != nil {
		return fmt.Errorf("create catalog.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCatalogDeleted, event); err != nil {
		return fmt.Errorf("publish catalog.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published catalog.deleted event",
		slog.String("product_id", productID),
	)

	return nil
}

// PublishNewsletterSubscribed publishes a newsletter.subscribed event.
func (p *Producer) PublishNewsletterSubscribed(ctx context.Context, subscriber *domain.Subscriber) error {
	data := NewsletterSubscribedData{
		SubscriberID: subscriber.ID,
		Email:        subscriber.Email,
	}

	event, err := pkgkafka.NewEvent(TopicNewsletterSubscribed, subscriber.ID, AggregateTypeSubscriber, SourceStore, data)
	if err != nil {
		return fmt.Errorf("create newsletter.subscribed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicNewsletterSubscribed, event); err != nil {
		return fmt.Errorf("publish newsletter.subscribed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published newsletter.subscribed event",
		slog.String("subscriber_id", subscriber.ID),
	)

	return nil
}
