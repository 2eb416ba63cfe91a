package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishItem is a saved-for-later product reference. Unlike cart line items
// wish items carry no quantity; a product is either on the list or not.
type WishItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	AddedAt     time.Time       `json:"addedAt"`
}

// Wishlist is the session-scoped wishlist, persisted under the
// dokan_wishlist key.
type Wishlist struct {
	SessionID string     `json:"sessionId"`
	Items     []WishItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Add appends the item unless a wish item with the same product ID already
// exists. Returns false on a duplicate, leaving the list unchanged.
func (w *Wishlist) Add(item WishItem) bool {
	if w.Contains(item.ProductID) {
		return false
	}
	w.Items = append(w.Items, item)
	return true
}

// Remove deletes the item with the given product ID. Returns false if the
// item was not present.
func (w *Wishlist) Remove(productID string) bool {
	for i := range w.Items {
		if w.Items[i].ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether a wish item with the given product ID exists.
func (w *Wishlist) Contains(productID string) bool {
	for i := range w.Items {
		if w.Items[i].ProductID == productID {
			return true
		}
	}
	return false
}

// TotalItemCount returns the number of wish items. Each product counts once
// regardless of how often it was added.
func (w *Wishlist) TotalItemCount() int {
	return len(w.Items)
}
