// Package redis implements the session-keyed repositories on Redis. The
// stored payload for carts and wishlists is the plain JSON item array, the
// same shape the storefront keeps under its dokan_cart and dokan_wishlist
// keys, so existing payloads load without migration.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
)

const cartKeyPrefix = "dokan_cart:"

// CartRepository stores carts as JSON item arrays with a sliding TTL.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a cart repository. A zero ttl means carts never
// expire.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{client: client, ttl: ttl}
}

func (r *CartRepository) key(sessionID string) string {
	return cartKeyPrefix + sessionID
}

// Get loads the cart for a session. Returns apperrors.NotFound if the
// session has never saved a cart.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("getting cart from redis: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling cart items: %w", err)
	}

	return &domain.Cart{SessionID: sessionID, Items: items}, nil
}

// Save stores the cart's item array, resetting the TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling cart items: %w", err)
	}

	if err := r.client.Set(ctx, r.key(cart.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving cart to redis: %w", err)
	}
	return nil
}

// Delete removes the cart key entirely.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting cart from redis: %w", err)
	}
	return nil
}
