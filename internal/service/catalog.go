package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/event"
	"github.com/Mehidi-hridoy/dokan/internal/repository"
	"github.com/Mehidi-hridoy/dokan/internal/search"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
	"github.com/Mehidi-hridoy/dokan/pkg/pagination"
	"github.com/Mehidi-hridoy/dokan/pkg/slug"
)

// productCodePrefix is the prefix for generated product codes, carried over
// from the legacy storefront's numbering scheme.
const productCodePrefix = "DK07"

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description"`
	BrandName    string          `json:"brand_name"`
	CategoryName string          `json:"category_name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Featured     bool            `json:"featured"`
	Status       string          `json:"status"`
}

// UpdateProductInput holds the parameters for updating a product. Nil fields
// are left unchanged.
type UpdateProductInput struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	BrandName    *string          `json:"brand_name"`
	CategoryName *string          `json:"category_name"`
	Price        *decimal.Decimal `json:"price"`
	Image        *string          `json:"image"`
	Featured     *bool            `json:"featured"`
	Status       *string          `json:"status"`
}

// CatalogService implements the business logic for catalog operations.
// Mutations keep the search engine in sync and publish catalog events.
type CatalogService struct {
	repo     repository.ProductRepository
	engine   search.Engine
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, engine search.Engine, producer *event.Producer, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		engine:   engine,
		producer: producer,
		logger:   logger,
	}
}

// CreateProduct creates a new product with a generated slug and product code.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	status := input.Status
	if status == "" {
		status = domain.ProductStatusDraft
	}
	if !domain.ValidProductStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", status, strings.Join(domain.ProductStatuses(), ", ")))
	}

	seq, err := s.repo.NextCodeSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("next product code: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:           uuid.New().String(),
		Code:         generateProductCode(seq),
		Name:         input.Name,
		Slug:         slug.Generate(input.Name),
		Description:  input.Description,
		BrandName:    input.BrandName,
		CategoryName: input.CategoryName,
		Price:        input.Price,
		Image:        input.Image,
		Featured:     input.Featured,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.indexProduct(ctx, product)

	if err := s.producer.PublishCatalogUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish catalog.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("code", product.Code),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductBySlug retrieves a product by its slug.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated product list, newest first.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter, params pagination.Params) ([]domain.Product, int, error) {
	params = normalizeParams(params)

	products, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// ListFeatured returns up to limit featured published products, newest first.
func (s *CatalogService) ListFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	featured := true
	filter := repository.ProductFilter{
		Status:   domain.ProductStatusPublished,
		Featured: &featured,
	}

	products, _, err := s.repo.List(ctx, filter, limitParams(limit))
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}

	return products, nil
}

// ListNewest returns up to limit of the most recently added published
// products.
func (s *CatalogService) ListNewest(ctx context.Context, limit int) ([]domain.Product, error) {
	filter := repository.ProductFilter{Status: domain.ProductStatusPublished}

	products, _, err := s.repo.List(ctx, filter, limitParams(limit))
	if err != nil {
		return nil, fmt.Errorf("list newest products: %w", err)
	}

	return products, nil
}

// Search runs the given query against the search engine.
func (s *CatalogService) Search(ctx context.Context, query *search.Query) (*search.Result, error) {
	result, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return result, nil
}

// UpdateProduct applies partial updates to an existing product. A name change
// regenerates the slug; the product code never changes.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = *input.Name
		product.Slug = slug.Generate(*input.Name)
	}

	if input.Description != nil {
		product.Description = *input.Description
	}

	if input.BrandName != nil {
		product.BrandName = *input.BrandName
	}

	if input.CategoryName != nil {
		product.CategoryName = *input.CategoryName
	}

	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}

	if input.Image != nil {
		product.Image = *input.Image
	}

	if input.Featured != nil {
		product.Featured = *input.Featured
	}

	if input.Status != nil {
		if !domain.ValidProductStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", *input.Status, strings.Join(domain.ProductStatuses(), ", ")))
		}
		product.Status = *input.Status
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.indexProduct(ctx, product)

	if err := s.producer.PublishCatalogUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish catalog.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// DeleteProduct removes a product and its search document.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	// Verify the product exists before deleting.
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := s.engine.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete search document",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishCatalogDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish catalog.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}

// ReindexAll rebuilds the search index from every published product in the
// catalog. Called at startup so the engine reflects the database.
func (s *CatalogService) ReindexAll(ctx context.Context) (int, error) {
	filter := repository.ProductFilter{Status: domain.ProductStatusPublished}
	params := pagination.Params{Page: 1, PerPage: 100}

	var indexed int
	for {
		params.Offset = (params.Page - 1) * params.PerPage
		products, total, err := s.repo.List(ctx, filter, params)
		if err != nil {
			return indexed, fmt.Errorf("list products for reindex: %w", err)
		}
		if len(products) == 0 {
			break
		}

		docs := make([]search.Document, len(products))
		for i := range products {
			docs[i] = search.DocumentFromProduct(&products[i])
		}
		if err := s.engine.BulkIndex(ctx, docs); err != nil {
			return indexed, fmt.Errorf("bulk index products: %w", err)
		}
		indexed += len(docs)

		if indexed >= total {
			break
		}
		params.Page++
	}

	s.logger.InfoContext(ctx, "search index rebuilt",
		slog.Int("indexed", indexed),
	)

	return indexed, nil
}

// indexProduct upserts the product's search document. Indexing failures are
// logged, never returned; the catalog write already succeeded.
func (s *CatalogService) indexProduct(ctx context.Context, product *domain.Product) {
	doc := search.DocumentFromProduct(product)
	if err := s.engine.Index(ctx, &doc); err != nil {
		s.logger.ErrorContext(ctx, "failed to index product",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}
}

// generateProductCode derives a product code from the catalog sequence,
// DK07 followed by the zero-padded sequence and a random 4-character suffix.
func generateProductCode(seq int64) string {
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("%s%05d-%s", productCodePrefix, seq, suffix)
}

// normalizeParams clamps pagination parameters to sane bounds.
func normalizeParams(p pagination.Params) pagination.Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = 20
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// limitParams returns first-page pagination covering limit rows.
func limitParams(limit int) pagination.Params {
	if limit <= 0 {
		limit = 8
	}
	return pagination.Params{Page: 1, PerPage: limit, Offset: 0}
}
