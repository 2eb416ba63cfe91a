package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/event"
	"github.com/Mehidi-hridoy/dokan/internal/service"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
	"github.com/Mehidi-hridoy/dokan/pkg/httputil"
	pkgkafka "github.com/Mehidi-hridoy/dokan/pkg/kafka"
)

// --- Mock CartRepository ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// --- Shared helpers ---

const testSession = "sess-9f2d6c"

const testProductID = "550e8400-e29b-41d4-a716-446655440001"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}), logger)
	return event.NewProducer(kafkaProducer, logger)
}

// decodeResponse reads the response body into the standard envelope.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func cartTestHandler(repo *mockCartRepository) *CartHandler {
	svc := service.NewCartService(repo, newTestProducer(), newTestLogger())
	return NewCartHandler(svc, newTestLogger())
}

// cartRouter mirrors the production route layout for the cart endpoints,
// including the ContentTypeJSON and RequireSession middleware so session
// behavior is tested end-to-end.
func cartRouter(handler *CartHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(RequireSession)

		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)

		r.Post("/items", handler.AddItem)
		r.Put("/items/{productID}", handler.UpdateItemQuantity)
		r.Delete("/items/{productID}", handler.RemoveItem)
	})
	return r
}

// sampleCart returns a cart with one item, two units of the test product.
func sampleCart() *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		SessionID: testSession,
		Items: []domain.LineItem{
			{
				ProductID:   testProductID,
				ProductName: "Walnut Chair",
				Price:       decimal.RequireFromString("149.50"),
				Quantity:    2,
				Image:       "/media/walnut-chair.jpg",
				AddedAt:     now,
			},
		},
		UpdatedAt: now,
	}
}

func validAddItemJSON() []byte {
	body := AddItemRequest{
		ProductID:   testProductID,
		ProductName: "Walnut Chair",
		Price:       decimal.RequireFromString("149.50"),
		Quantity:    2,
		Image:       "/media/walnut-chair.jpg",
	}
	b, _ := json.Marshal(body)
	return b
}

// --- GET /api/v1/cart ---

func TestGetCart_Success(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	repo.On("Get", mock.Anything, testSession).Return(sampleCart(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestGetCart_NewSession_ReturnsEmptyCart(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	// No cart stored yet; the service serves an empty one instead of 404.
	repo.On("Get", mock.Anything, testSession).Return(nil, apperrors.NotFound("cart", testSession))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestGetCart_MissingSession_Returns400(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	// No X-Session-ID header.
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "X-Session-ID")
	repo.AssertNotCalled(t, "Get")
}

func TestGetCart_ServiceError(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	repo.On("Get", mock.Anything, testSession).Return(nil, fmt.Errorf("redis connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	repo.AssertExpectations(t)
}

// --- POST /api/v1/cart/items ---

func TestAddItem_Success(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	repo.On("Get", mock.Anything, testSession).Return(nil, apperrors.NotFound("cart", testSession))
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(validAddItemJSON()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestAddItem_MissingSession_Returns400(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(validAddItemJSON()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestAddItem_InvalidJSON(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte(`{invalid json`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid request body")
}

func TestAddItem_ValidationError_MissingFields(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	body := map[string]any{
		"product_id":   "", // required
		"product_name": "", // required
		"quantity":     0,  // required gte=1
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	repo.AssertNotCalled(t, "Save")
}

func TestAddItem_WrongContentType_Returns415(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(validAddItemJSON()))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", resp.Error.Code)
	repo.AssertNotCalled(t, "Get")
}

// --- PUT /api/v1/cart/items/{productID} ---

func TestUpdateItemQuantity_Success(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	var saved *domain.Cart
	repo.On("Get", mock.Anything, testSession).Return(sampleCart(), nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Cart) }).
		Return(nil)

	body := []byte(`{"quantity": 5}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+testProductID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, saved)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, 5, saved.Items[0].Quantity)
	repo.AssertExpectations(t)
}

func TestUpdateItemQuantity_ZeroRemovesItem(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	var saved *domain.Cart
	repo.On("Get", mock.Anything, testSession).Return(sampleCart(), nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Cart) }).
		Return(nil)

	body := []byte(`{"quantity": 0}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+testProductID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, saved)
	assert.Empty(t, saved.Items)
	repo.AssertExpectations(t)
}

func TestUpdateItemQuantity_UnknownItem_Returns404(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	repo.On("Get", mock.Anything, testSession).Return(sampleCart(), nil)

	body := []byte(`{"quantity": 5}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/no-such-product", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	repo.AssertNotCalled(t, "Save")
}

func TestUpdateItemQuantity_NegativeQuantity_Returns400(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	body := []byte(`{"quantity": -1}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+testProductID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	repo.AssertNotCalled(t, "Get")
}

// --- DELETE /api/v1/cart/items/{productID} ---

func TestRemoveItem_Success(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	var saved *domain.Cart
	repo.On("Get", mock.Anything, testSession).Return(sampleCart(), nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Cart")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Cart) }).
		Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+testProductID, nil)
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, saved)
	assert.Empty(t, saved.Items)
	repo.AssertExpectations(t)
}

func TestRemoveItem_UnknownItem_Returns404(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	repo.On("Get", mock.Anything, testSession).Return(sampleCart(), nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/no-such-product", nil)
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertNotCalled(t, "Save")
}

// --- DELETE /api/v1/cart ---

func TestClearCart_Success(t *testing.T) {
	repo := new(mockCartRepository)
	router := cartRouter(cartTestHandler(repo))

	repo.On("Delete", mock.Anything, testSession).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cleared", data["status"])
	repo.AssertExpectations(t)
}
