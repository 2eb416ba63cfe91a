// Package store implements the storefront page controller. It owns the
// trigger registry the page fires UI actions through, refreshes the header
// badge counts after every mutation, posts transient notices, and assembles
// the page-ready bootstrap payload. One controller instance is constructed by
// the application wiring and shared by all sessions.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mehidi-hridoy/dokan/internal/dispatch"
	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/repository"
	"github.com/Mehidi-hridoy/dokan/internal/reveal"
	"github.com/Mehidi-hridoy/dokan/internal/search"
	"github.com/Mehidi-hridoy/dokan/internal/service"
	"github.com/Mehidi-hridoy/dokan/internal/task"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
)

// Registered trigger names. These are the storefront's UI actions; the page
// fires them by name with the attributes the markup carries.
const (
	TriggerAddToCart     = "add-to-cart"
	TriggerSearch        = "search"
	TriggerNewsletter    = "newsletter"
	TriggerAddToWishlist = "add-to-wishlist"
	TriggerQuickView     = "quick-view"
)

// Trigger attribute names, matching the data attributes on the triggering
// elements.
const (
	AttrProductID   = "product_id"
	AttrProductName = "product_name"
	AttrPrice       = "price"
	AttrQuantity    = "quantity"
	AttrImage       = "image"
	AttrQuery       = "query"
	AttrEmail       = "email"
)

// taskTriggerReset names the task that flips a fired trigger from its
// loading state back to idle.
const taskTriggerReset = "trigger-reset"

// searchGuardMessage is shown when the search box is submitted empty.
const searchGuardMessage = "Please enter a search term"

// Home page shelf size for featured and newest products.
const homeShelfSize = 8

// Reveal trackers for idle sessions are dropped after trackerTTL; the sweep
// runs at most once per trackerSweepEvery.
const (
	trackerTTL        = 24 * time.Hour
	trackerSweepEvery = time.Hour
)

// Config holds the controller's timing and geometry knobs.
type Config struct {
	// TriggerResetDelay is how long a fired trigger stays in its loading
	// state before the reset task completes.
	TriggerResetDelay time.Duration

	// NoticeTTL is how long a posted notice stays visible.
	NoticeTTL time.Duration

	// RevealThreshold is the scroll reveal threshold in pixels.
	RevealThreshold float64
}

// Tooltip is a hint for one of the header controls. The page initializes a
// tooltip widget for every element carrying the matching target class.
type Tooltip struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

// defaultTooltips are the header controls the page wires tooltips for.
var defaultTooltips = []Tooltip{
	{Target: "cart-badge", Text: "View your cart"},
	{Target: "wishlist-badge", Text: "Your wishlist"},
	{Target: "search-box", Text: "Search the catalog"},
	{Target: "newsletter-signup", Text: "Get our weekly deals"},
}

// AddToCartData is the add-to-cart trigger payload: the refreshed totals the
// storefront shows next to the confirmation.
type AddToCartData struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	CartCount   int             `json:"cart_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// WishlistData is the add-to-wishlist trigger payload.
type WishlistData struct {
	ProductID     string `json:"product_id"`
	Added         bool   `json:"added"`
	WishlistCount int    `json:"wishlist_count"`
}

// NewsletterData is the newsletter trigger payload.
type NewsletterData struct {
	Email             string `json:"email"`
	AlreadySubscribed bool   `json:"already_subscribed"`
}

// Geometry is the scroll position and element layout a reveal check runs
// against.
type Geometry struct {
	Elements       []reveal.Element `json:"elements"`
	ScrollTop      float64          `json:"scroll_top"`
	ViewportHeight float64          `json:"viewport_height"`
}

// ScrollResult reports the outcome of one reveal check.
type ScrollResult struct {
	NewlyRevealed []string `json:"newly_revealed"`
	Revealed      []string `json:"revealed"`
}

// BootstrapState is everything the page needs at ready-time in one payload.
type BootstrapState struct {
	Badges   *dispatch.Badges `json:"badges"`
	Notices  []domain.Notice  `json:"notices"`
	Tooltips []Tooltip        `json:"tooltips"`
	Triggers []string         `json:"triggers"`
	Featured []domain.Product `json:"featured"`
	Newest   []domain.Product `json:"newest"`
	Revealed []string         `json:"revealed"`
}

// sessionTracker pairs a reveal tracker with its last use, so idle sessions
// can be swept.
type sessionTracker struct {
	tracker  *reveal.Tracker
	lastSeen time.Time
}

// Controller orchestrates the storefront: it owns the trigger registry,
// delegates mutations to the cart, wishlist, catalog and newsletter services,
// and keeps the cosmetic per-session reveal state.
type Controller struct {
	cfg        Config
	carts      *service.CartService
	wishlists  *service.WishlistService
	catalog    *service.CatalogService
	newsletter *service.NewsletterService
	notices    repository.NoticeRepository
	registry   *dispatch.Registry
	runner     *task.Runner
	logger     *slog.Logger

	mu        sync.Mutex
	trackers  map[string]*sessionTracker
	lastSweep time.Time
}

// NewController creates the controller and binds every trigger into the
// registry.
func NewController(
	cfg Config,
	carts *service.CartService,
	wishlists *service.WishlistService,
	catalog *service.CatalogService,
	newsletter *service.NewsletterService,
	notices repository.NoticeRepository,
	runner *task.Runner,
	logger *slog.Logger,
) (*Controller, error) {
	if cfg.TriggerResetDelay <= 0 {
		cfg.TriggerResetDelay = time.Second
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = 3 * time.Second
	}

	c := &Controller{
		cfg:        cfg,
		carts:      carts,
		wishlists:  wishlists,
		catalog:    catalog,
		newsletter: newsletter,
		notices:    notices,
		registry:   dispatch.NewRegistry(),
		runner:     runner,
		logger:     logger,
		trackers:   make(map[string]*sessionTracker),
		lastSweep:  time.Now(),
	}

	bindings := map[string]dispatch.Handler{
		TriggerAddToCart:     c.handleAddToCart,
		TriggerSearch:        c.handleSearch,
		TriggerNewsletter:    c.handleNewsletter,
		TriggerAddToWishlist: c.handleAddToWishlist,
		TriggerQuickView:     c.handleQuickView,
	}
	for name, h := range bindings {
		if err := c.registry.Register(name, h); err != nil {
			return nil, fmt.Errorf("register trigger %s: %w", name, err)
		}
	}

	return c, nil
}

// Fire dispatches a named trigger for a session.
func (c *Controller) Fire(ctx context.Context, sessionID, name string, attrs map[string]string) (*dispatch.Result, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	result, err := c.registry.Dispatch(ctx, dispatch.Trigger{
		Name:      name,
		SessionID: sessionID,
		Attrs:     attrs,
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "trigger fired",
		slog.String("trigger", name),
		slog.String("session_id", sessionID),
	)

	return result, nil
}

// Triggers returns the registered trigger names, sorted.
func (c *Controller) Triggers() []string {
	return c.registry.Names()
}

// Task returns the task with the given ID if it is still queryable.
func (c *Controller) Task(id string) (*task.Task, bool) {
	return c.runner.Get(id)
}

// Badges returns the current header badge counts for a session.
func (c *Controller) Badges(ctx context.Context, sessionID string) (*dispatch.Badges, error) {
	cart, err := c.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.badgesWithCartCount(ctx, sessionID, cart.TotalItemCount())
}

// badgesWithCartCount builds the badge pair when the cart count is already
// known, saving the extra cart read after a cart mutation.
func (c *Controller) badgesWithCartCount(ctx context.Context, sessionID string, cartCount int) (*dispatch.Badges, error) {
	list, err := c.wishlists.GetWishlist(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dispatch.Badges{CartCount: cartCount, WishlistCount: list.TotalItemCount()}, nil
}

// badgesWithWishlistCount mirrors badgesWithCartCount for wishlist mutations.
func (c *Controller) badgesWithWishlistCount(ctx context.Context, sessionID string, wishlistCount int) (*dispatch.Badges, error) {
	cart, err := c.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dispatch.Badges{CartCount: cart.TotalItemCount(), WishlistCount: wishlistCount}, nil
}

// Notify posts a transient notice for a session. The notice auto-expires
// after the configured TTL.
func (c *Controller) Notify(ctx context.Context, sessionID, message, severity string) (*domain.Notice, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if message == "" {
		return nil, apperrors.InvalidInput("message is required")
	}
	if !domain.ValidSeverity(severity) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid severity %q", severity))
	}

	now := time.Now().UTC()
	notice := &domain.Notice{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(c.cfg.NoticeTTL),
	}

	if err := c.notices.Create(ctx, notice); err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}

	return notice, nil
}

// Notices returns the session's live notices, oldest first.
func (c *Controller) Notices(ctx context.Context, sessionID string) ([]domain.Notice, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return c.notices.ListActive(ctx, sessionID)
}

// DismissNotice removes a notice before its expiry.
func (c *Controller) DismissNotice(ctx context.Context, sessionID, noticeID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}
	if noticeID == "" {
		return apperrors.InvalidInput("notice id is required")
	}
	return c.notices.Dismiss(ctx, sessionID, noticeID)
}

// Bootstrap assembles the page-ready state: badges, live notices, tooltip
// hints, registered triggers, the home shelves, and an immediate reveal check
// over the supplied geometry.
func (c *Controller) Bootstrap(ctx context.Context, sessionID string, geo Geometry) (*BootstrapState, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	badges, err := c.Badges(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	notices, err := c.notices.ListActive(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}

	featured, err := c.catalog.ListFeatured(ctx, homeShelfSize)
	if err != nil {
		return nil, err
	}

	newest, err := c.catalog.ListNewest(ctx, homeShelfSize)
	if err != nil {
		return nil, err
	}

	tracker := c.tracker(sessionID)
	tracker.Observe(geo.Elements, geo.ScrollTop, geo.ViewportHeight)

	c.logger.InfoContext(ctx, "page bootstrapped",
		slog.String("session_id", sessionID),
		slog.Int("cart_count", badges.CartCount),
		slog.Int("wishlist_count", badges.WishlistCount),
	)

	return &BootstrapState{
		Badges:   badges,
		Notices:  notices,
		Tooltips: defaultTooltips,
		Triggers: c.registry.Names(),
		Featured: featured,
		Newest:   newest,
		Revealed: tracker.Revealed(),
	}, nil
}

// Scroll runs a reveal check for one scroll event. Reveals are monotonic:
// elements already revealed stay revealed.
func (c *Controller) Scroll(ctx context.Context, sessionID string, geo Geometry) (*ScrollResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	tracker := c.tracker(sessionID)
	newly := tracker.Observe(geo.Elements, geo.ScrollTop, geo.ViewportHeight)

	if len(newly) > 0 {
		c.logger.DebugContext(ctx, "elements revealed",
			slog.String("session_id", sessionID),
			slog.Int("count", len(newly)),
		)
	}

	return &ScrollResult{
		NewlyRevealed: newly,
		Revealed:      tracker.Revealed(),
	}, nil
}

// --- Trigger handlers ---

// handleAddToCart parses the product attributes off the trigger, merges the
// item into the session's cart, and schedules the loading-state reset task.
func (c *Controller) handleAddToCart(ctx context.Context, trig dispatch.Trigger) (*dispatch.Result, error) {
	productID := strings.TrimSpace(trig.Attr(AttrProductID))
	if productID == "" {
		return nil, apperrors.InvalidInput("product_id attribute is required")
	}

	productName := strings.TrimSpace(trig.Attr(AttrProductName))
	if productName == "" {
		return nil, apperrors.InvalidInput("product_name attribute is required")
	}

	rawPrice := strings.TrimSpace(trig.Attr(AttrPrice))
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("price %q is not a valid amount", rawPrice))
	}

	quantity := 1
	if raw := strings.TrimSpace(trig.Attr(AttrQuantity)); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity %q is not a valid integer", raw))
		}
	}

	cart, err := c.carts.AddItem(ctx, trig.SessionID, service.AddItemInput{
		ProductID:   productID,
		ProductName: productName,
		Price:       price,
		Quantity:    quantity,
		Image:       strings.TrimSpace(trig.Attr(AttrImage)),
	})
	if err != nil {
		return nil, err
	}

	badges, err := c.badgesWithCartCount(ctx, trig.SessionID, cart.TotalItemCount())
	if err != nil {
		return nil, err
	}

	resetTask := c.runner.Schedule(taskTriggerReset, c.cfg.TriggerResetDelay, func(taskCtx context.Context) error {
		c.logger.DebugContext(taskCtx, "trigger reset to idle",
			slog.String("trigger", TriggerAddToCart),
			slog.String("session_id", trig.SessionID),
			slog.String("product_id", productID),
		)
		return nil
	})

	notice := c.postNotice(ctx, trig.SessionID, fmt.Sprintf("%s added to cart!", productName), domain.SeveritySuccess)

	return &dispatch.Result{
		Notice: notice,
		Badges: badges,
		Data: AddToCartData{
			ProductID:   productID,
			ProductName: productName,
			Quantity:    quantity,
			CartCount:   cart.TotalItemCount(),
			Subtotal:    cart.Subtotal(),
		},
		Task: resetTask,
	}, nil
}

// handleSearch guards the search box: a blank query is blocked with a
// warning notice and the engine is never consulted.
func (c *Controller) handleSearch(ctx context.Context, trig dispatch.Trigger) (*dispatch.Result, error) {
	query := strings.TrimSpace(trig.Attr(AttrQuery))
	if query == "" {
		c.postNotice(ctx, trig.SessionID, searchGuardMessage, domain.SeverityWarning)
		return nil, apperrors.InvalidInput(searchGuardMessage)
	}

	result, err := c.catalog.Search(ctx, &search.Query{
		Query:  query,
		Status: domain.ProductStatusPublished,
		SortBy: search.SortRelevance,
	})
	if err != nil {
		return nil, err
	}

	return &dispatch.Result{Data: result}, nil
}

// handleNewsletter validates the email and records the signup. The provider
// acknowledgement runs as a task the client can await instead of a timer.
func (c *Controller) handleNewsletter(ctx context.Context, trig dispatch.Trigger) (*dispatch.Result, error) {
	email := strings.TrimSpace(trig.Attr(AttrEmail))

	ackTask, already, err := c.newsletter.Subscribe(ctx, trig.SessionID, email)
	if err != nil {
		return nil, err
	}

	if already {
		notice := c.postNotice(ctx, trig.SessionID, "You are already subscribed", domain.SeverityInfo)
		return &dispatch.Result{
			Notice: notice,
			Data:   NewsletterData{Email: email, AlreadySubscribed: true},
		}, nil
	}

	notice := c.postNotice(ctx, trig.SessionID, "Thank you for subscribing!", domain.SeveritySuccess)
	return &dispatch.Result{
		Notice: notice,
		Data:   NewsletterData{Email: email},
		Task:   ackTask,
	}, nil
}

// handleAddToWishlist takes only a product_id; the markup entry point never
// carries name or price. The catalog supplies the missing snapshot so the
// wishlist never stores an incomplete entry.
func (c *Controller) handleAddToWishlist(ctx context.Context, trig dispatch.Trigger) (*dispatch.Result, error) {
	productID := strings.TrimSpace(trig.Attr(AttrProductID))
	if productID == "" {
		return nil, apperrors.InvalidInput("product_id attribute is required")
	}

	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		c.postNotice(ctx, trig.SessionID, "Product not found", domain.SeverityWarning)
		return nil, err
	}

	list, added, err := c.wishlists.AddItem(ctx, trig.SessionID, service.AddWishInput{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Image:       product.Image,
	})
	if err != nil {
		return nil, err
	}

	badges, err := c.badgesWithWishlistCount(ctx, trig.SessionID, list.TotalItemCount())
	if err != nil {
		return nil, err
	}

	var notice *domain.Notice
	if added {
		notice = c.postNotice(ctx, trig.SessionID, fmt.Sprintf("%s added to wishlist!", product.Name), domain.SeveritySuccess)
	} else {
		notice = c.postNotice(ctx, trig.SessionID, "Already in wishlist", domain.SeverityInfo)
	}

	return &dispatch.Result{
		Notice: notice,
		Badges: badges,
		Data: WishlistData{
			ProductID:     product.ID,
			Added:         added,
			WishlistCount: list.TotalItemCount(),
		},
	}, nil
}

// handleQuickView resolves the product and returns its summary. The overlay
// itself is not built yet.
func (c *Controller) handleQuickView(ctx context.Context, trig dispatch.Trigger) (*dispatch.Result, error) {
	productID := strings.TrimSpace(trig.Attr(AttrProductID))
	if productID == "" {
		return nil, apperrors.InvalidInput("product_id attribute is required")
	}

	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	notice := c.postNotice(ctx, trig.SessionID, "Quick view coming soon", domain.SeverityInfo)

	return &dispatch.Result{
		Notice: notice,
		Data:   product,
	}, nil
}

// postNotice stores a notice for a trigger result. Storage failures are
// logged and the notice is still returned inline; the trigger's mutation has
// already succeeded by the time the notice is posted.
func (c *Controller) postNotice(ctx context.Context, sessionID, message, severity string) *domain.Notice {
	now := time.Now().UTC()
	notice := &domain.Notice{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(c.cfg.NoticeTTL),
	}

	if err := c.notices.Create(ctx, notice); err != nil {
		c.logger.ErrorContext(ctx, "failed to store notice",
			slog.String("session_id", sessionID),
			slog.String("severity", severity),
			slog.String("error", err.Error()),
		)
	}

	return notice
}

// tracker returns the session's reveal tracker, creating it on first use and
// sweeping idle sessions at most once per trackerSweepEvery.
func (c *Controller) tracker(sessionID string) *reveal.Tracker {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastSweep) > trackerSweepEvery {
		for id, st := range c.trackers {
			if now.Sub(st.lastSeen) > trackerTTL {
				delete(c.trackers, id)
			}
		}
		c.lastSweep = now
	}

	st, ok := c.trackers[sessionID]
	if !ok {
		st = &sessionTracker{tracker: reveal.NewTracker(c.cfg.RevealThreshold)}
		c.trackers[sessionID] = st
	}
	st.lastSeen = now
	return st.tracker
}
