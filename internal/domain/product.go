package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product statuses. Only published products are visible on the storefront.
const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Product is a catalog entry. Code is the human-facing product code printed
// on labels and order sheets; ID is the stable identifier used by carts and
// wishlists.
type Product struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	BrandName    string          `json:"brand_name,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	Featured     bool            `json:"featured"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsPublished reports whether the product is visible on the storefront.
func (p *Product) IsPublished() bool {
	return p.Status == ProductStatusPublished
}

// ValidProductStatus reports whether s is a recognized product status.
func ValidProductStatus(s string) bool {
	switch s {
	case ProductStatusDraft, ProductStatusPublished, ProductStatusArchived:
		return true
	}
	return false
}

// ProductStatuses returns the recognized statuses, for error messages.
func ProductStatuses() []string {
	return []string{ProductStatusDraft, ProductStatusPublished, ProductStatusArchived}
}
