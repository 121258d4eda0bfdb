package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/PaintCatalog/internal/catalog"
	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/engine"
	"github.com/utafrali/PaintCatalog/internal/query"
)

// Engine is an in-memory SearchEngine that runs the query pipeline over its
// own catalog copy. The facet index is memoized per catalog generation.
type Engine struct {
	catalog *catalog.Catalog

	facetMu  sync.Mutex
	facetGen uint64
	facets   *domain.FacetIndex
}

var (
	_ engine.SearchEngine     = (*Engine)(nil)
	_ engine.FacetProvider    = (*Engine)(nil)
	_ engine.ProductSuggester = (*Engine)(nil)
)

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{catalog: catalog.New()}
}

// Index adds or updates a single product.
func (e *Engine) Index(_ context.Context, product *domain.Product) error {
	e.catalog.Upsert(*product)
	return nil
}

// Delete removes a product by id.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.catalog.Delete(id)
	return nil
}

// BulkIndex adds or updates many products.
func (e *Engine) BulkIndex(_ context.Context, products []domain.Product) error {
	e.catalog.Upsert(products...)
	return nil
}

// Reset replaces all indexed products.
func (e *Engine) Reset(_ context.Context, products []domain.Product) error {
	e.catalog.Replace(products)
	return nil
}

// Search runs the query pipeline over a snapshot of the index.
func (e *Engine) Search(_ context.Context, q *domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()
	products, _ := e.catalog.Snapshot()

	result := query.Run(products, *q)
	result.TookMs = time.Since(start).Milliseconds()
	return &result, nil
}

// Facets returns the facet index of the full index, recomputing it only when
// the index changed since the last call.
func (e *Engine) Facets(_ context.Context) (domain.FacetIndex, error) {
	e.facetMu.Lock()
	defer e.facetMu.Unlock()

	if e.facets != nil && e.facetGen == e.catalog.Generation() {
		return *e.facets, nil
	}
	products, gen := e.catalog.Snapshot()
	idx := query.BuildFacets(products)
	e.facets, e.facetGen = &idx, gen
	return idx, nil
}

// SuggestProducts returns up to limit products whose name or description
// contains partial, in catalog order.
func (e *Engine) SuggestProducts(_ context.Context, partial string, limit int) ([]domain.Product, error) {
	q := query.NormalizeQuery(partial)
	out := make([]domain.Product, 0, limit)
	if q == "" {
		return out, nil
	}

	products, _ := e.catalog.Snapshot()
	for i := range products {
		if len(out) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(products[i].Name), q) ||
			strings.Contains(strings.ToLower(products[i].Description), q) {
			out = append(out, products[i])
		}
	}
	return out, nil
}

// Ping always succeeds.
func (e *Engine) Ping(context.Context) error { return nil }

// Len returns the number of indexed products.
func (e *Engine) Len() int { return e.catalog.Len() }
