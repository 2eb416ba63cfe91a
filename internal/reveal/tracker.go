// Package reveal tracks which page elements have scrolled into view for a
// session. Reveals are cosmetic and monotonic: once an element has been
// revealed it stays revealed no matter where the page scrolls afterwards.
package reveal

import (
	"sort"
	"sync"
)

// DefaultThreshold is how many pixels an element's top edge must rise above
// the viewport bottom before it counts as revealed.
const DefaultThreshold = 100

// Element is the geometry of one observable page element.
type Element struct {
	ID  string  `json:"id"`
	Top float64 `json:"top"`
}

// Tracker is the per-session set of revealed element IDs. Thread-safe.
type Tracker struct {
	threshold float64

	mu       sync.Mutex
	revealed map[string]struct{}
}

// NewTracker creates a tracker. A non-positive threshold falls back to
// DefaultThreshold.
func NewTracker(threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{
		threshold: threshold,
		revealed:  make(map[string]struct{}),
	}
}

// Observe checks every element against the current scroll position and
// marks those whose top edge has entered the viewport past the threshold.
// It returns the IDs newly revealed by this observation, in input order.
func (t *Tracker) Observe(elements []Element, scrollTop, viewportHeight float64) []string {
	limit := scrollTop + viewportHeight - t.threshold

	t.mu.Lock()
	defer t.mu.Unlock()

	newly := []string{}
	for _, el := range elements {
		if el.ID == "" {
			continue
		}
		if _, seen := t.revealed[el.ID]; seen {
			continue
		}
		if el.Top < limit {
			t.revealed[el.ID] = struct{}{}
			newly = append(newly, el.ID)
		}
	}
	return newly
}

// IsRevealed reports whether the element has been revealed.
func (t *Tracker) IsRevealed(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.revealed[id]
	return ok
}

// Revealed returns all revealed element IDs, sorted.
func (t *Tracker) Revealed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.revealed))
	for id := range t.revealed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
