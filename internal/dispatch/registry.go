// Package dispatch routes named storefront triggers to their handlers. It
// replaces implicit DOM event delegation with an explicit, testable
// registry: each UI action (add-to-cart, search, newsletter signup) is a
// named trigger carrying the attributes the markup used to hold.
package dispatch

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/task"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
)

// Trigger is a fired UI action: its registered name, the session that fired
// it, and the data attributes read off the triggering element.
type Trigger struct {
	Name      string
	SessionID string
	Attrs     map[string]string
}

// Attr returns the named attribute, or "" if absent.
func (t Trigger) Attr(name string) string {
	return t.Attrs[name]
}

// Badges are the storefront header counters refreshed after mutations.
type Badges struct {
	CartCount     int `json:"cart_count"`
	WishlistCount int `json:"wishlist_count"`
}

// Result is what a trigger handler produces: an optional shopper notice,
// refreshed badge counts, a trigger-specific payload, and an async task
// handle when the trigger scheduled follow-up work.
type Result struct {
	Notice *domain.Notice
	Badges *Badges
	Data   any
	Task   *task.Task
}

// Handler processes one fired trigger.
type Handler func(ctx context.Context, trig Trigger) (*Result, error)

// Registry maps trigger names to handlers. Names are matched
// case-insensitively with surrounding whitespace ignored. Thread-safe.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty trigger registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// normalize produces the canonical form of a trigger name.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register binds a handler to a trigger name. Blank names, nil handlers and
// duplicate registrations are rejected.
func (r *Registry) Register(name string, h Handler) error {
	key := normalize(name)
	if key == "" {
		return apperrors.InvalidInput("trigger name must not be blank")
	}
	if h == nil {
		return apperrors.InvalidInput("trigger handler must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[key]; exists {
		return apperrors.AlreadyExists("trigger", "name", key)
	}
	r.handlers[key] = h
	return nil
}

// Dispatch fires the named trigger. An unregistered name is a not-found
// error.
func (r *Registry) Dispatch(ctx context.Context, trig Trigger) (*Result, error) {
	key := normalize(trig.Name)

	r.mu.RLock()
	h, ok := r.handlers[key]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.NotFound("trigger", trig.Name)
	}

	trig.Name = key
	return h(ctx, trig)
}

// Names returns the registered trigger names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
