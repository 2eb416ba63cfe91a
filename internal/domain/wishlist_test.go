package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wishItem(productID, name, price string) WishItem {
	return WishItem{
		ProductID:   productID,
		ProductName: name,
		Price:       decimal.RequireFromString(price),
		AddedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

// ============================================================
// Add
// ============================================================

func TestWishlist_Add(t *testing.T) {
	list := &Wishlist{SessionID: "sess-1"}

	added := list.Add(wishItem("p1", "Walnut Chair", "149.50"))

	assert.True(t, added)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "p1", list.Items[0].ProductID)
}

func TestWishlist_Add_DuplicateReturnsFalse(t *testing.T) {
	list := &Wishlist{SessionID: "sess-1"}

	require.True(t, list.Add(wishItem("p1", "Walnut Chair", "149.50")))
	added := list.Add(wishItem("p1", "Walnut Chair", "149.50"))

	assert.False(t, added)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.TotalItemCount())
}

// ============================================================
// Remove / Contains
// ============================================================

func TestWishlist_Remove(t *testing.T) {
	list := &Wishlist{SessionID: "sess-1"}
	list.Add(wishItem("p1", "Chair", "149.50"))
	list.Add(wishItem("p2", "Lamp", "39.00"))

	assert.True(t, list.Remove("p1"))
	assert.False(t, list.Remove("p1"))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "p2", list.Items[0].ProductID)
}

func TestWishlist_Contains(t *testing.T) {
	list := &Wishlist{SessionID: "sess-1"}
	list.Add(wishItem("p1", "Chair", "149.50"))

	assert.True(t, list.Contains("p1"))
	assert.False(t, list.Contains("p2"))
}

// ============================================================
// TotalItemCount
// ============================================================

func TestWishlist_TotalItemCount(t *testing.T) {
	list := &Wishlist{SessionID: "sess-1"}
	assert.Equal(t, 0, list.TotalItemCount())

	list.Add(wishItem("p1", "Chair", "149.50"))
	list.Add(wishItem("p2", "Lamp", "39.00"))
	list.Add(wishItem("p1", "Chair", "149.50"))

	assert.Equal(t, 2, list.TotalItemCount())
}
