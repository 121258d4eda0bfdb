package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

func newTestProduct(name string, price int64, colors ...string) domain.Product {
	p := domain.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Brand:     "Everlast",
		Category:  "Interior",
		BasePrice: decimal.NewFromInt(price),
		InStock:   true,
		Rating:    4,
		Finishes:  []domain.Finish{{ID: "f1", Name: "Eggshell"}},
	}
	for i, c := range colors {
		p.Colors = append(p.Colors, domain.Color{ID: fmt.Sprintf("c%d", i), Name: c})
	}
	return p
}

func TestEngine_SearchByColorName(t *testing.T) {
	ctx := context.Background()
	eng := New()

	sage := newTestProduct("Alpine Flat", 40, "Sage Whisper")
	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{
		newTestProduct("Harbor Satin", 55, "Harbor Blue"),
		sage,
	}))

	result, err := eng.Search(ctx, &domain.SearchQuery{Query: "sage", Page: 1})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalResults)
	assert.Equal(t, sage.ID, result.Products[0].ID)
	assert.Equal(t, domain.PageSize, result.PageSize)
}

func TestEngine_FilterAndSort(t *testing.T) {
	ctx := context.Background()
	eng := New()

	cheap := newTestProduct("Budget White", 50, "Bright White")
	mid := newTestProduct("Classic Cream", 90, "Warm Cream")
	premium := newTestProduct("Designer Gray", 150, "Charcoal")
	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{mid, premium, cheap}))

	result, err := eng.Search(ctx, &domain.SearchQuery{
		Filters: domain.SearchFilters{PriceRange: &domain.PriceRange{Min: decimal.NewFromInt(60), Max: decimal.NewFromInt(120)}},
		Page:    1,
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, mid.ID, result.Products[0].ID)

	result, err = eng.Search(ctx, &domain.SearchQuery{SortBy: domain.SortPriceHigh, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{premium.ID, mid.ID, cheap.ID},
		[]string{result.Products[0].ID, result.Products[1].ID, result.Products[2].ID})
}

func TestEngine_IndexDeleteReset(t *testing.T) {
	ctx := context.Background()
	eng := New()

	p := newTestProduct("Porch Enamel", 60, "Navy")
	require.NoError(t, eng.Index(ctx, &p))
	assert.Equal(t, 1, eng.Len())

	require.NoError(t, eng.Delete(ctx, p.ID))
	require.NoError(t, eng.Delete(ctx, "missing"))
	assert.Equal(t, 0, eng.Len())

	require.NoError(t, eng.Reset(ctx, []domain.Product{p, newTestProduct("Deck Stain", 30, "Cedar")}))
	assert.Equal(t, 2, eng.Len())
	assert.NoError(t, eng.Ping(ctx))
}

func TestEngine_PageBeyondEnd(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{newTestProduct("Only", 10, "White")}))

	result, err := eng.Search(ctx, &domain.SearchQuery{Page: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalResults)
	assert.Equal(t, 1, result.TotalPages)
	assert.Empty(t, result.Products)
}

func TestEngine_FacetsMemoizedPerGeneration(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{newTestProduct("A", 10, "Sage")}))

	first, err := eng.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalProducts)
	cachedGen := eng.facetGen

	again, err := eng.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, cachedGen, eng.facetGen)

	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{newTestProduct("B", 99, "Fern Green")}))
	updated, err := eng.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalProducts)
	assert.Greater(t, eng.facetGen, cachedGen)
	assert.Equal(t, []domain.FacetValue{{Value: "green", Count: 2}}, updated.ColorFamilies)
}

func TestEngine_SuggestProducts(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.BulkIndex(ctx, []domain.Product{
		newTestProduct("Trim Gloss", 10, "White"),
		newTestProduct("Trim Satin", 10, "White"),
		newTestProduct("Ceiling Flat", 10, "White"),
	}))

	got, err := eng.SuggestProducts(ctx, "TRIM", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Trim Gloss", got[0].Name)

	got, err = eng.SuggestProducts(ctx, " ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
