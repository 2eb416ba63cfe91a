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

const wishlistKeyPrefix = "dokan_wishlist:"

// WishlistRepository stores wishlists as JSON item arrays with a sliding
// TTL.
type WishlistRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWishlistRepository creates a wishlist repository. A zero ttl means
// wishlists never expire.
func NewWishlistRepository(client *redis.Client, ttl time.Duration) *WishlistRepository {
	return &WishlistRepository{client: client, ttl: ttl}
}

func (r *WishlistRepository) key(sessionID string) string {
	return wishlistKeyPrefix + sessionID
}

// Get loads the wishlist for a session. Returns apperrors.NotFound if the
// session has never saved one.
func (r *WishlistRepository) Get(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("wishlist", sessionID)
		}
		return nil, fmt.Errorf("getting wishlist from redis: %w", err)
	}

	var items []domain.WishItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling wishlist items: %w", err)
	}

	return &domain.Wishlist{SessionID: sessionID, Items: items}, nil
}

// Save stores the wishlist's item array, resetting the TTL.
func (r *WishlistRepository) Save(ctx context.Context, list *domain.Wishlist) error {
	items := list.Items
	if items == nil {
		items = []domain.WishItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling wishlist items: %w", err)
	}

	if err := r.client.Set(ctx, r.key(list.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving wishlist to redis: %w", err)
	}
	return nil
}

// Delete removes the wishlist key entirely.
func (r *WishlistRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting wishlist from redis: %w", err)
	}
	return nil
}
