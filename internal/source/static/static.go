// Package static serves the catalog from an embedded seed file.
package static

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

//go:embed seed.json
var seed []byte

// Loader returns the embedded seed catalog after an optional delay that
// stands in for a network fetch.
type Loader struct {
	latency time.Duration
}

// New creates a static loader.
func New(latency time.Duration) *Loader {
	return &Loader{latency: latency}
}

// Load decodes a fresh copy of the seed catalog.
func (l *Loader) Load(ctx context.Context) ([]domain.Product, error) {
	if l.latency > 0 {
		timer := time.NewTimer(l.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("load static catalog: %w: %w", domain.ErrCatalogUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
	return Seed()
}

// Seed decodes the embedded seed catalog.
func Seed() ([]domain.Product, error) {
	var products []domain.Product
	if err := json.Unmarshal(seed, &products); err != nil {
		return nil, fmt.Errorf("decode seed catalog: %w", err)
	}
	return products, nil
}
