// Package source loads the product catalog from where it is kept.
package source

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// Loader fetches the full product list.
type Loader interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// Writer is implemented by sources that also persist catalog changes made
// through the service.
type Writer interface {
	Save(ctx context.Context, products ...domain.Product) error
	Delete(ctx context.Context, id string) error
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func(ctx context.Context) ([]domain.Product, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) ([]domain.Product, error) { return f(ctx) }

// Sanitize normalizes products and drops the ones that fail validation or
// repeat an earlier id. Dropped products are logged.
func Sanitize(ctx context.Context, products []domain.Product, logger *slog.Logger) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		p.Normalize()
		if err := p.Validate(); err != nil {
			logger.WarnContext(ctx, "skipping invalid product", slog.String("error", err.Error()))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			logger.WarnContext(ctx, "skipping duplicate product", slog.String("product_id", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// IsUnavailable reports whether err means the catalog could not be fetched.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrCatalogUnavailable)
}
