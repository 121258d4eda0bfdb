package engine

import (
	"context"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// SearchEngine indexes products and answers catalog queries.
// Implementations may use Elasticsearch, in-memory storage, or other backends.
type SearchEngine interface {
	// Index adds or replaces a single product.
	Index(ctx context.Context, product *domain.Product) error

	// Delete removes a product by id. Deleting a missing product is not an error.
	Delete(ctx context.Context, id string) error

	// BulkIndex adds or replaces many products, keeping their relative order.
	BulkIndex(ctx context.Context, products []domain.Product) error

	// Reset replaces the whole index with products.
	Reset(ctx context.Context, products []domain.Product) error

	// Search returns one page of results for query.
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// FacetProvider is implemented by engines that can derive the facet index
// themselves.
type FacetProvider interface {
	Facets(ctx context.Context) (domain.FacetIndex, error)
}

// ProductSuggester is implemented by engines that can look up products whose
// name or description contains a partial query.
type ProductSuggester interface {
	SuggestProducts(ctx context.Context, partial string, limit int) ([]domain.Product, error)
}
