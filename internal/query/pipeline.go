package query

import (
	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/pkg/pagination"
)

// Run derives one result page: text match, filter, sort, then paginate at
// domain.PageSize. The catalog slice is not modified.
func Run(catalog []domain.Product, q domain.SearchQuery) domain.SearchResult {
	matched := Filter(MatchText(catalog, q.Query), q.Filters)
	Sort(matched, q.SortBy, q.Query)

	page := pagination.Paginate(matched, pagination.NewParams(q.Page, domain.PageSize))
	return domain.SearchResult{
		Products:     page.Data,
		TotalResults: page.TotalCount,
		CurrentPage:  page.Page,
		TotalPages:   page.TotalPages,
		PageSize:     page.PerPage,
	}
}

// Count returns the number of products q matches across all pages.
func Count(catalog []domain.Product, q domain.SearchQuery) int {
	qn := NormalizeQuery(q.Query)
	preds := q.Filters.Predicates()
	n := 0
	for i := range catalog {
		if MatchesText(&catalog[i], qn) && MatchesAll(&catalog[i], preds) {
			n++
		}
	}
	return n
}
