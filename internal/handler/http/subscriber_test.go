package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mehidi-hridoy/dokan/internal/auth"
	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/newsletter"
	"github.com/Mehidi-hridoy/dokan/internal/service"
	"github.com/Mehidi-hridoy/dokan/internal/task"
	"github.com/Mehidi-hridoy/dokan/pkg/middleware"
	"github.com/Mehidi-hridoy/dokan/pkg/pagination"
)

// --- Mock SubscriberRepository ---

type mockSubscriberRepository struct {
	mock.Mock
}

func (m *mockSubscriberRepository) Create(ctx context.Context, sub *domain.Subscriber) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockSubscriberRepository) GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscriber), args.Error(1)
}

func (m *mockSubscriberRepository) List(ctx context.Context, p pagination.Params) ([]domain.Subscriber, int, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Subscriber), args.Int(1), args.Error(2)
}

// --- Helpers ---

// subscriberRouter mounts the subscriber export behind the admin auth
// middleware, matching production.
func subscriberRouter(t *testing.T, repo *mockSubscriberRepository, adminService *auth.AdminService) *chi.Mux {
	t.Helper()

	logger := newTestLogger()
	runner := task.NewRunner(logger, time.Minute)
	t.Cleanup(func() { _ = runner.Shutdown(context.Background()) })

	provider := newsletter.NewSimulatedProvider(logger, time.Millisecond)
	svc := service.NewNewsletterService(repo, provider, runner, newTestProducer(), logger)
	handler := NewSubscriberHandler(svc, logger)

	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := adminService.Validate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{Username: claims.Username, Role: claims.Role}, nil
	}

	r := chi.NewRouter()
	r.Route("/api/v1/subscribers", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(auth.RoleAdmin))

		r.Get("/", handler.List)
	})
	return r
}

func TestListSubscribers_Success(t *testing.T) {
	repo := new(mockSubscriberRepository)
	router := subscriberRouter(t, repo, testAdminService())

	now := time.Now().UTC()
	repo.On("List", mock.Anything, mock.Anything).Return([]domain.Subscriber{
		{ID: "sub-1", Email: "shopper@example.com", CreatedAt: now},
	}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscribers", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, auth.RoleAdmin))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.Subscriber `json:"data"`
		TotalCount int                 `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "shopper@example.com", resp.Data[0].Email)
	assert.Equal(t, 1, resp.TotalCount)
	repo.AssertExpectations(t)
}

func TestListSubscribers_MissingToken_Returns401(t *testing.T) {
	repo := new(mockSubscriberRepository)
	router := subscriberRouter(t, repo, testAdminService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscribers", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "List")
}
