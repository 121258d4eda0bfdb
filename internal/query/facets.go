package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// FacetFamilies is the ordered list of color families offered as facets.
var FacetFamilies = []string{
	"green", "blue", "gray", "neutral", "red", "yellow", "orange", "purple", "pink", "brown", "black",
}

// counter accumulates per-value product counts, case-insensitively, keeping
// the first spelling seen for display.
type counter struct {
	display map[string]string
	counts  map[string]int
}

func newCounter() *counter {
	return &counter{display: map[string]string{}, counts: map[string]int{}}
}

// add counts each distinct value once per product.
func (c *counter) add(values ...string) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := c.display[key]; !ok {
			c.display[key] = v
		}
		c.counts[key]++
	}
}

func (c *counter) sorted() []domain.FacetValue {
	out := make([]domain.FacetValue, 0, len(c.counts))
	for key, n := range c.counts {
		out = append(out, domain.FacetValue{Value: c.display[key], Count: n})
	}
	slices.SortFunc(out, func(a, b domain.FacetValue) int {
		return cmp.Compare(strings.ToLower(a.Value), strings.ToLower(b.Value))
	})
	return out
}

// BuildFacets derives the facet index from the full catalog. Counts are
// product counts. An empty catalog yields [0, 0] price bounds.
func BuildFacets(products []domain.Product) domain.FacetIndex {
	brands, categories, finishes, features := newCounter(), newCounter(), newCounter(), newCounter()
	families := make(map[string]int, len(FacetFamilies))

	idx := domain.FacetIndex{
		Price:         domain.PriceBounds{Min: decimal.Zero, Max: decimal.Zero},
		TotalProducts: len(products),
	}

	for i := range products {
		p := &products[i]
		brands.add(p.Brand)
		categories.add(p.Category)
		for _, f := range p.Finishes {
			finishes.add(f.Name)
		}
		features.add(p.Features...)
		for _, fam := range FacetFamilies {
			if InFamily(p, fam) {
				families[fam]++
			}
		}

		if i == 0 || p.BasePrice.LessThan(idx.Price.Min) {
			idx.Price.Min = p.BasePrice
		}
		if i == 0 || p.BasePrice.GreaterThan(idx.Price.Max) {
			idx.Price.Max = p.BasePrice
		}
	}

	idx.Brands = brands.sorted()
	idx.Categories = categories.sorted()
	idx.Finishes = finishes.sorted()
	idx.Features = features.sorted()
	idx.ColorFamilies = make([]domain.FacetValue, 0, len(families))
	for _, fam := range FacetFamilies {
		if n := families[fam]; n > 0 {
			idx.ColorFamilies = append(idx.ColorFamilies, domain.FacetValue{Value: fam, Count: n})
		}
	}
	return idx
}
