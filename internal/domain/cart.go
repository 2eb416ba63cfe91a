package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem represents a single product entry in a cart. JSON field names
// match the storefront payload format persisted under the dokan_cart key.
type LineItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image,omitempty"`
	AddedAt     time.Time       `json:"addedAt"`
}

// Cart is the session-scoped shopping cart. Items are keyed by product ID;
// adding an existing product merges quantities instead of duplicating rows.
type Cart struct {
	SessionID string     `json:"sessionId"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Add merges the given item into the cart. If an item with the same product
// ID already exists its quantity is increased and the original AddedAt is
// preserved; otherwise the item is appended.
func (c *Cart) Add(item LineItem) {
	if i := c.FindItemIndex(item.ProductID); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		// Refresh display fields in case the catalog changed.
		c.Items[i].ProductName = item.ProductName
		c.Items[i].Price = item.Price
		c.Items[i].Image = item.Image
		return
	}
	c.Items = append(c.Items, item)
}

// SetQuantity sets the quantity of the item with the given product ID.
// A quantity of zero or less removes the item. Returns false if no item
// with that product ID exists.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	i := c.FindItemIndex(productID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// Remove deletes the item with the given product ID. Returns false if the
// item was not present.
func (c *Cart) Remove(productID string) bool {
	i := c.FindItemIndex(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Clear removes all items from the cart.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// TotalItemCount returns the sum of quantities across all line items.
func (c *Cart) TotalItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the exact sum of price times quantity across all line
// items.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// FindItemIndex returns the index of the line item matching the given product
// ID, or -1 if not found.
func (c *Cart) FindItemIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
