package elasticsearch

import (
	"fmt"
	"strings"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/query"
)

type m = map[string]any

// maxResultWindow is Elasticsearch's default index.max_result_window. Pages
// starting at or past it are answered with a count-only query.
const maxResultWindow = 10000

// resultWindow returns the from and size for a page, keeping from+size within
// maxResultWindow. A page wholly past the window gets size 0.
func resultWindow(page, perPage int) (from, size int) {
	offset := (max(page, 1) - 1) * perPage
	if offset < 0 || offset >= maxResultWindow {
		return 0, 0
	}
	return offset, min(perPage, maxResultWindow-offset)
}

// wildcardEscaper escapes the wildcard query metacharacters.
var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func containsPattern(s string) string {
	return "*" + wildcardEscaper.Replace(s) + "*"
}

func wildcard(field, needle string) m {
	return m{"wildcard": m{field: m{"value": containsPattern(needle)}}}
}

// buildSearchQuery translates a catalog query into the search DSL. Text
// matching is a substring match on search_text; relevance is a constant
// boost for name matches followed by rating.
func buildSearchQuery(q *domain.SearchQuery, page, perPage int) m {
	text := query.NormalizeQuery(q.Query)

	boolQuery := m{}
	filters := buildFilters(q.Filters)
	if text != "" {
		filters = append(filters, wildcard("search_text", text))
		boolQuery["should"] = []any{
			m{"constant_score": m{"filter": wildcard("name_lower", text), "boost": 1}},
		}
	} else {
		boolQuery["must"] = []any{m{"match_all": m{}}}
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	from, size := resultWindow(page, perPage)
	return m{
		"query":            m{"bool": boolQuery},
		"from":             from,
		"size":             size,
		"track_total_hits": true,
		"sort":             buildSort(q.SortBy),
	}
}

// buildFilters maps each populated predicate to a filter clause.
func buildFilters(f domain.SearchFilters) []any {
	var filters []any
	for _, pred := range f.Predicates() {
		switch pr := pred.(type) {
		case domain.SetPredicate:
			filters = append(filters, setFilter(pr))
		case domain.RangePredicate:
			filters = append(filters, m{"range": m{"base_price": m{
				"gte": pr.Range.Min.InexactFloat64(),
				"lte": pr.Range.Max.InexactFloat64(),
			}}})
		case domain.ThresholdPredicate:
			filters = append(filters, m{"range": m{"rating": m{"gte": pr.Min}}})
		case domain.FlagPredicate:
			filters = append(filters, m{"term": m{"in_stock": true}})
		default:
			panic(fmt.Sprintf("elasticsearch: unhandled predicate %T", pred))
		}
	}
	return filters
}

func setFilter(pr domain.SetPredicate) m {
	values := []string(pr.Values)
	switch pr.Dim {
	case domain.DimCategories, domain.DimRoomTypes:
		return m{"terms": m{"category_key": values}}
	case domain.DimBrands:
		return m{"terms": m{"brand_key": values}}
	case domain.DimFinishTypes:
		return m{"terms": m{"finish_keys": values}}
	case domain.DimColorFamilies:
		var should []any
		for _, family := range values {
			for _, tok := range query.FamilyTokens(family) {
				should = append(should, wildcard("color_names_lower", tok))
			}
		}
		return m{"bool": m{"should": should, "minimum_should_match": 1}}
	case domain.DimFeatures:
		should := make([]any, 0, len(values))
		for _, v := range values {
			should = append(should, wildcard("feature_keys", query.NormalizeFeature(v)))
		}
		return m{"bool": m{"should": should, "minimum_should_match": 1}}
	default:
		panic(fmt.Sprintf("elasticsearch: unhandled set dimension %q", pr.Dim))
	}
}

// buildSort returns the sort clause. Every ordering ends on position so equal
// keys keep catalog order.
func buildSort(key domain.SortKey) []any {
	position := m{"position": "asc"}
	switch key {
	case domain.SortPriceLow:
		return []any{m{"base_price": "asc"}, position}
	case domain.SortPriceHigh:
		return []any{m{"base_price": "desc"}, position}
	case domain.SortRating:
		return []any{m{"rating": "desc"}, position}
	case domain.SortPopular:
		return []any{m{"review_count": "desc"}, position}
	case domain.SortNewest:
		return []any{m{"created_at": m{"order": "desc", "missing": "_last"}}, position}
	case domain.SortName:
		return []any{m{"name.keyword": "asc"}, position}
	default:
		return []any{m{"_score": "desc"}, m{"rating": "desc"}, position}
	}
}
