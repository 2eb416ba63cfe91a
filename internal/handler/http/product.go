package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/repository"
	"github.com/Mehidi-hridoy/dokan/internal/search"
	"github.com/Mehidi-hridoy/dokan/internal/service"
	"github.com/Mehidi-hridoy/dokan/pkg/httputil"
	"github.com/Mehidi-hridoy/dokan/pkg/pagination"
	"github.com/Mehidi-hridoy/dokan/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new catalog HTTP handler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,min=1,max=500"`
	Description  string          `json:"description"`
	BrandName    string          `json:"brand_name" validate:"max=255"`
	CategoryName string          `json:"category_name" validate:"max=255"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Featured     bool            `json:"featured"`
	Status       string          `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// UpdateProductRequest is the JSON request body for updating a product. All
// fields are optional; absent fields are left unchanged.
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=500"`
	Description  *string          `json:"description"`
	BrandName    *string          `json:"brand_name" validate:"omitempty,max=255"`
	CategoryName *string          `json:"category_name" validate:"omitempty,max=255"`
	Price        *decimal.Decimal `json:"price"`
	Image        *string          `json:"image"`
	Featured     *bool            `json:"featured"`
	Status       *string          `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products
// The storefront lists published products; an explicit status filter is
// honored for admin tooling.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{Status: domain.ProductStatusPublished}

	if v := r.URL.Query().Get("status"); v != "" {
		if !domain.ValidProductStatus(v) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "status must be one of: draft, published, archived"},
			})
			return
		}
		filter.Status = v
	}
	if v := r.URL.Query().Get("featured"); v != "" {
		switch v {
		case "true":
			featured := true
			filter.Featured = &featured
		case "false":
			featured := false
			filter.Featured = &featured
		default:
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "featured must be true or false"},
			})
			return
		}
	}

	params := pagination.FromRequest(r)

	products, total, err := h.service.ListProducts(r.Context(), filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(products, total, params.Page, params.PerPage))
}

// GetProduct handles GET /api/v1/products/{idOrSlug}
// It accepts both a UUID (product ID) and a slug for lookup.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id or slug is required"},
		})
		return
	}

	var (
		product *domain.Product
		err     error
	)

	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = h.service.GetProduct(r.Context(), idOrSlug)
	} else {
		product, err = h.service.GetProductBySlug(r.Context(), idOrSlug)
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// Search handles GET /api/v1/search
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := &search.Query{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Status: domain.ProductStatusPublished,
	}

	sortBy := r.URL.Query().Get("sort")
	switch sortBy {
	case "", search.SortRelevance, search.SortPriceAsc, search.SortPriceDesc, search.SortNewest:
		query.SortBy = sortBy
	default:
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "sort must be one of: relevance, price_asc, price_desc, newest",
			},
		})
		return
	}

	if v := r.URL.Query().Get("min_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil || price.IsNegative() {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a non-negative number"},
			})
			return
		}
		query.MinPrice = &price
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil || price.IsNegative() {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a non-negative number"},
			})
			return
		}
		query.MaxPrice = &price
	}
	if query.MinPrice != nil && query.MaxPrice != nil && query.MinPrice.GreaterThan(*query.MaxPrice) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must not exceed max_price"},
		})
		return
	}

	params := pagination.FromRequest(r)
	query.Page = params.Page
	query.PerPage = params.PerPage

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.CreateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		BrandName:    req.BrandName,
		CategoryName: req.CategoryName,
		Price:        req.Price,
		Image:        req.Image,
		Featured:     req.Featured,
		Status:       req.Status,
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := service.UpdateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		BrandName:    req.BrandName,
		CategoryName: req.CategoryName,
		Price:        req.Price,
		Image:        req.Image,
		Featured:     req.Featured,
		Status:       req.Status,
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "deleted"}})
}
