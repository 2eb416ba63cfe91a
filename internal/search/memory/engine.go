// Package memory provides an in-memory search engine for development and
// tests. It does simple substring matching on name and description.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Mehidi-hridoy/dokan/internal/search"
)

// Engine is an in-memory implementation of search.Engine. Thread-safe via
// sync.RWMutex.
type Engine struct {
	mu   sync.RWMutex
	docs map[string]search.Document
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		docs: make(map[string]search.Document),
	}
}

// Index adds or updates a single product in the in-memory index.
func (e *Engine) Index(_ context.Context, doc *search.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.docs[doc.ID] = *doc
	return nil
}

// Delete removes a product from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.docs, id)
	return nil
}

// Search executes a search query against the in-memory index.
func (e *Engine) Search(_ context.Context, query *search.Query) (*search.Result, error) {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	matched := make([]search.Document, 0)
	queryLower := strings.ToLower(query.Query)

	for _, doc := range e.docs {
		if !matches(doc, query, queryLower) {
			continue
		}
		matched = append(matched, doc)
	}

	sortDocuments(matched, query.SortBy)

	total := len(matched)

	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	offset := (page - 1) * perPage
	if offset > total {
		offset = total
	}
	end := offset + perPage
	if end > total {
		end = total
	}

	return &search.Result{
		Products: matched[offset:end],
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		TookMs:   time.Since(start).Milliseconds(),
	}, nil
}

// BulkIndex adds or updates multiple products in the in-memory index.
func (e *Engine) BulkIndex(_ context.Context, docs []search.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range docs {
		e.docs[docs[i].ID] = docs[i]
	}
	return nil
}

// matches checks whether a document matches the query text and filters.
func matches(doc search.Document, query *search.Query, queryLower string) bool {
	if queryLower != "" {
		nameLower := strings.ToLower(doc.Name)
		descLower := strings.ToLower(doc.Description)
		if !strings.Contains(nameLower, queryLower) && !strings.Contains(descLower, queryLower) {
			return false
		}
	}

	if query.Status != "" && doc.Status != query.Status {
		return false
	}

	if query.MinPrice != nil && doc.Price.LessThan(*query.MinPrice) {
		return false
	}
	if query.MaxPrice != nil && doc.Price.GreaterThan(*query.MaxPrice) {
		return false
	}

	return true
}

// sortDocuments sorts matched documents based on the sort option. Relevance
// keeps map iteration order stabilized by name so results are deterministic.
func sortDocuments(docs []search.Document, sortBy string) {
	switch sortBy {
	case search.SortPriceAsc:
		sort.Slice(docs, func(i, j int) bool {
			return docs[i].Price.LessThan(docs[j].Price)
		})
	case search.SortPriceDesc:
		sort.Slice(docs, func(i, j int) bool {
			return docs[j].Price.LessThan(docs[i].Price)
		})
	case search.SortNewest:
		sort.Slice(docs, func(i, j int) bool {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		})
	default:
		sort.Slice(docs, func(i, j int) bool {
			return docs[i].Name < docs[j].Name
		})
	}
}
