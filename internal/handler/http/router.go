package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mehidi-hridoy/dokan/internal/auth"
	"github.com/Mehidi-hridoy/dokan/internal/service"
	"github.com/Mehidi-hridoy/dokan/internal/store"
	"github.com/Mehidi-hridoy/dokan/pkg/health"
	"github.com/Mehidi-hridoy/dokan/pkg/middleware"
)

// RouterConfig carries the router's tunables.
type RouterConfig struct {
	ServiceName    string
	CORS           middleware.CORSConfig
	RateLimitRPS   int
	RateLimitBurst int
	// PprofAllowedCIDRs guards the pprof endpoints; empty disables them.
	PprofAllowedCIDRs []string
	// CacheMaxAge is the Cache-Control max-age in seconds for public catalog
	// reads. Zero disables caching headers.
	CacheMaxAge int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cfg RouterConfig,
	controller *store.Controller,
	cartService *service.CartService,
	wishlistService *service.WishlistService,
	catalogService *service.CatalogService,
	newsletterService *service.NewsletterService,
	adminService *auth.AdminService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. RequestLogger must come after RequestLogging
	// (correlation id) and Tracing (span context) so the request-scoped
	// logger picks both up.
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health and metrics endpoints.
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	// Token validator bridging the admin JWT manager into the auth middleware.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := adminService.Validate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			Username: claims.Username,
			Role:     claims.Role,
		}, nil
	}

	// Admin login (public).
	authHandler := NewAuthHandler(adminService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/login", authHandler.Login)
	})

	// Cart endpoints (session-scoped).
	cartHandler := NewCartHandler(cartService, logger)
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(RequireSession)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{productID}", cartHandler.UpdateItemQuantity)
		r.Delete("/items/{productID}", cartHandler.RemoveItem)
	})

	// Wishlist endpoints (session-scoped).
	wishlistHandler := NewWishlistHandler(wishlistService, logger)
	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(RequireSession)

		r.Get("/", wishlistHandler.List)
		r.Delete("/", wishlistHandler.Clear)
		r.Post("/items", wishlistHandler.AddItem)
		r.Get("/items/{productID}", wishlistHandler.Contains)
		r.Delete("/items/{productID}", wishlistHandler.RemoveItem)
	})

	// Storefront controller endpoints (session-scoped). Triggers are what
	// the page fires, so they carry the per-client rate limit.
	storeHandler := NewStoreHandler(controller, logger)
	r.Route("/api/v1/store", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(RequireSession)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

			r.Post("/triggers/{name}", storeHandler.FireTrigger)
		})

		r.Get("/triggers", storeHandler.ListTriggers)
		r.Get("/badges", storeHandler.GetBadges)
		r.Get("/notices", storeHandler.ListNotices)
		r.Delete("/notices/{noticeID}", storeHandler.DismissNotice)
		r.Post("/bootstrap", storeHandler.Bootstrap)
		r.Post("/scroll", storeHandler.Scroll)
		r.Get("/tasks/{taskID}", storeHandler.GetTask)
	})

	// Public catalog reads.
	productHandler := NewProductHandler(catalogService, logger)
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			if cfg.CacheMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CacheMaxAge))
			}

			r.Get("/", productHandler.ListProducts)
			r.Get("/{idOrSlug}", productHandler.GetProduct)
		})

		// Catalog management (admin JWT).
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequireRole(auth.RoleAdmin))

			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})
	})

	r.Route("/api/v1/search", func(r chi.Router) {
		if cfg.CacheMaxAge > 0 {
			r.Use(middleware.CacheControl(cfg.CacheMaxAge))
		}

		r.Get("/", productHandler.Search)
	})

	// Newsletter signup list (admin JWT).
	subscriberHandler := NewSubscriberHandler(newsletterService, logger)
	r.Route("/api/v1/subscribers", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(auth.RoleAdmin))

		r.Get("/", subscriberHandler.List)
	})

	return r
}
