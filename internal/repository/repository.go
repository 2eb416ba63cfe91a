// Package repository defines the persistence interfaces for the dokan
// storefront. Carts, wishlists and notices live in Redis keyed by session;
// the product catalog and newsletter subscribers live in Postgres.
package repository

import (
	"context"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/pkg/pagination"
)

// CartRepository persists session carts.
type CartRepository interface {
	// Get returns the cart for the session. Returns apperrors.NotFound if
	// no cart has been saved yet.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save stores the cart, replacing any previous state.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the cart entirely.
	Delete(ctx context.Context, sessionID string) error
}

// WishlistRepository persists session wishlists.
type WishlistRepository interface {
	Get(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	Save(ctx context.Context, list *domain.Wishlist) error
	Delete(ctx context.Context, sessionID string) error
}

// NoticeRepository stores short-lived storefront notices. Implementations
// are responsible for dropping notices past their expiry.
type NoticeRepository interface {
	Create(ctx context.Context, notice *domain.Notice) error

	// ListActive returns the unexpired notices for a session, oldest first.
	ListActive(ctx context.Context, sessionID string) ([]domain.Notice, error)

	// Dismiss removes a single notice before its expiry.
	Dismiss(ctx context.Context, sessionID, noticeID string) error
}

// ProductFilter narrows List results.
type ProductFilter struct {
	// Status restricts results to products with the given status. Empty
	// means all statuses.
	Status string

	// Featured restricts results to featured (or non-featured) products.
	// Nil means both.
	Featured *bool
}

// ProductRepository persists the catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, p pagination.Params) ([]domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error

	// NextCodeSeq returns the next value of the product code sequence.
	NextCodeSeq(ctx context.Context) (int64, error)
}

// SubscriberRepository persists newsletter signups.
type SubscriberRepository interface {
	// Create stores a new subscriber. Returns apperrors.AlreadyExists if
	// the email is already subscribed.
	Create(ctx context.Context, sub *domain.Subscriber) error

	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	List(ctx context.Context, p pagination.Params) ([]domain.Subscriber, int, error)
}
