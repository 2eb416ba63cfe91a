// Package search defines the product search engine used by the storefront
// search box. Implementations may use Elasticsearch or in-memory storage.
package search

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
)

// Document represents a product document in the search index.
type Document struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DocumentFromProduct builds the search document for a catalog product.
func DocumentFromProduct(p *domain.Product) Document {
	return Document{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	switch sort {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest:
		return true
	}
	return false
}

// Query holds all parameters for a search request.
type Query struct {
	Query    string           `json:"query"`
	Status   string           `json:"status,omitempty"`
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty"`
	SortBy   string           `json:"sort_by"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
}

// Result holds the paginated search response.
type Result struct {
	Products []Document `json:"products"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PerPage  int        `json:"per_page"`
	TookMs   int64      `json:"took_ms"`
}

// Engine indexes and searches product documents.
type Engine interface {
	// Index adds or updates a single product in the search index.
	Index(ctx context.Context, doc *Document) error

	// Delete removes a product from the search index by its ID.
	Delete(ctx context.Context, id string) error

	// Search executes a search query and returns matching products.
	Search(ctx context.Context, query *Query) (*Result, error)

	// BulkIndex adds or updates multiple products in the search index.
	BulkIndex(ctx context.Context, docs []Document) error
}
