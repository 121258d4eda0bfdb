package query

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// Sort orders products in place by key. All orderings are stable, so equal
// keys keep their catalog order. q is only consulted by relevance.
func Sort(products []domain.Product, key domain.SortKey, q string) {
	switch key {
	case domain.SortPriceLow:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return a.BasePrice.Cmp(b.BasePrice)
		})
	case domain.SortPriceHigh:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return b.BasePrice.Cmp(a.BasePrice)
		})
	case domain.SortRating:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case domain.SortPopular:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return cmp.Compare(b.ReviewCount, a.ReviewCount)
		})
	case domain.SortNewest:
		slices.SortStableFunc(products, compareNewest)
	case domain.SortName:
		// Collators keep internal buffers and are not safe for concurrent use.
		coll := collate.New(language.English, collate.Loose)
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return coll.CompareString(a.Name, b.Name)
		})
	default:
		sortRelevance(products, NormalizeQuery(q))
	}
}

// compareNewest orders by CreatedAt descending with unset times last.
func compareNewest(a, b domain.Product) int {
	switch az, bz := a.CreatedAt.IsZero(), b.CreatedAt.IsZero(); {
	case az && bz:
		return 0
	case az:
		return 1
	case bz:
		return -1
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

func sortRelevance(products []domain.Product, q string) {
	slices.SortStableFunc(products, func(a, b domain.Product) int {
		if q != "" {
			an := strings.Contains(strings.ToLower(a.Name), q)
			bn := strings.Contains(strings.ToLower(b.Name), q)
			if an != bn {
				if an {
					return -1
				}
				return 1
			}
		}
		return cmp.Compare(b.Rating, a.Rating)
	})
}
