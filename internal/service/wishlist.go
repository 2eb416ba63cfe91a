package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/event"
	"github.com/Mehidi-hridoy/dokan/internal/repository"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
)

// MaxItemsPerWishlist is the maximum number of entries allowed per wishlist.
const MaxItemsPerWishlist = 100

// AddWishInput holds the parameters for adding a product to the wishlist.
type AddWishInput struct {
	ProductID   string          `json:"product_id" validate:"required"`
	ProductName string          `json:"product_name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

// WishlistService implements the business logic for wishlist operations.
type WishlistService struct {
	repo     repository.WishlistRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(repo repository.WishlistRepository, producer *event.Producer, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// GetWishlist retrieves the wishlist for a session. If none exists, returns
// an empty wishlist.
func (s *WishlistService) GetWishlist(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	list, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyWishlist(sessionID), nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	return list, nil
}

// AddItem adds a product to the session's wishlist. The second return value
// reports whether the product was actually added; it is false when the
// product was already on the list, in which case the list is unchanged.
func (s *WishlistService) AddItem(ctx context.Context, sessionID string, input AddWishInput) (*domain.Wishlist, bool, error) {
	if sessionID == "" {
		return nil, false, apperrors.InvalidInput("session id is required")
	}
	if input.ProductID == "" {
		return nil, false, apperrors.InvalidInput("product id is required")
	}
	if input.ProductName == "" {
		return nil, false, apperrors.InvalidInput("product name is required")
	}
	if input.Price.IsNegative() {
		return nil, false, apperrors.InvalidInput("price must not be negative")
	}

	list, err := s.getOrCreateWishlist(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	if !list.Contains(input.ProductID) && list.TotalItemCount() >= MaxItemsPerWishlist {
		return nil, false, apperrors.InvalidInput(fmt.Sprintf("wishlist must not contain more than %d items", MaxItemsPerWishlist))
	}

	now := time.Now().UTC()
	added := list.Add(domain.WishItem{
		ProductID:   input.ProductID,
		ProductName: input.ProductName,
		Price:       input.Price,
		Image:       input.Image,
		AddedAt:     now,
	})
	if !added {
		return list, false, nil
	}
	list.UpdatedAt = now

	if err := s.repo.Save(ctx, list); err != nil {
		return nil, false, fmt.Errorf("save wishlist: %w", err)
	}

	if err := s.producer.PublishWishlistUpdated(ctx, list); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item added to wishlist",
		slog.String("session_id", sessionID),
		slog.String("product_id", input.ProductID),
	)

	return list, true, nil
}

// RemoveItem removes a product from the wishlist.
func (s *WishlistService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Wishlist, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	list, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist for remove: %w", err)
	}

	if !list.Remove(productID) {
		return nil, apperrors.NotFound("wishlist item", productID)
	}

	list.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, list); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}

	if err := s.producer.PublishWishlistUpdated(ctx, list); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item removed from wishlist",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
	)

	return list, nil
}

// Contains reports whether the session's wishlist holds the given product.
func (s *WishlistService) Contains(ctx context.Context, sessionID, productID string) (bool, error) {
	if sessionID == "" {
		return false, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return false, apperrors.InvalidInput("product id is required")
	}

	list, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get wishlist: %w", err)
	}

	return list.Contains(productID), nil
}

// ClearWishlist removes all entries from the session's wishlist.
func (s *WishlistService) ClearWishlist(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete wishlist: %w", err)
	}

	if err := s.producer.PublishWishlistUpdated(ctx, s.newEmptyWishlist(sessionID)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "wishlist cleared",
		slog.String("session_id", sessionID),
	)

	return nil
}

// getOrCreateWishlist retrieves the wishlist for a session, creating an empty
// one if it does not exist.
func (s *WishlistService) getOrCreateWishlist(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	list, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyWishlist(sessionID), nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return list, nil
}

// newEmptyWishlist creates a new empty wishlist for the given session.
func (s *WishlistService) newEmptyWishlist(sessionID string) *domain.Wishlist {
	return &domain.Wishlist{
		SessionID: sessionID,
		Items:     []domain.WishItem{},
		UpdatedAt: time.Now().UTC(),
	}
}
