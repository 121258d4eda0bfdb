package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PageSize is the fixed number of products per result page.
const PageSize = 12

// SortKey selects a result ordering.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
	SortPopular   SortKey = "popular"
	SortName      SortKey = "name"
)

// ValidSortKeys returns the accepted sort keys in display order.
func ValidSortKeys() []SortKey {
	return []SortKey{SortRelevance, SortPriceLow, SortPriceHigh, SortRating, SortNewest, SortPopular, SortName}
}

// ParseSortKey maps a raw key to a SortKey. The empty string means relevance.
func ParseSortKey(raw string) (SortKey, bool) {
	if raw == "" {
		return SortRelevance, true
	}
	k := SortKey(raw)
	return k, slices.Contains(ValidSortKeys(), k)
}

// SearchQuery is one fully specified catalog query.
type SearchQuery struct {
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
	SortBy  SortKey       `json:"sort_by"`
	Page    int           `json:"page"`
}

// SearchResult is one page of an ordered result set.
type SearchResult struct {
	Products     []Product `json:"products"`
	TotalResults int       `json:"total_results"`
	CurrentPage  int       `json:"current_page"`
	TotalPages   int       `json:"total_pages"`
	PageSize     int       `json:"page_size"`
	TookMs       int64     `json:"took_ms"`
}

// FacetValue is one distinct filter value with the number of products
// carrying it.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PriceBounds is the observed [Min, Max] base price. Both are zero for an
// empty catalog.
type PriceBounds struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// FacetIndex lists the values available to each filter control.
type FacetIndex struct {
	Brands        []FacetValue `json:"brands"`
	Categories    []FacetValue `json:"categories"`
	Finishes      []FacetValue `json:"finishes"`
	ColorFamilies []FacetValue `json:"color_families"`
	Features      []FacetValue `json:"features"`
	Price         PriceBounds  `json:"price"`
	TotalProducts int          `json:"total_products"`
}

// SuggestionType tags where a suggestion came from.
type SuggestionType string

const (
	SuggestionRecent   SuggestionType = "recent"
	SuggestionProduct  SuggestionType = "product"
	SuggestionColor    SuggestionType = "color"
	SuggestionBrand    SuggestionType = "brand"
	SuggestionCategory SuggestionType = "category"
)

// Suggestion is a typed completion for a partial query.
type Suggestion struct {
	ID    string         `json:"id"`
	Text  string         `json:"text"`
	Type  SuggestionType `json:"type"`
	Count *int           `json:"count,omitempty"`
	Image string         `json:"image,omitempty"`
}

// SavedSearch is a named, persisted query. ResultCount is the count at save
// time and is never refreshed.
type SavedSearch struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Query       string        `json:"query"`
	Filters     SearchFilters `json:"filters"`
	CreatedAt   time.Time     `json:"created_at"`
	LastUsed    *time.Time    `json:"last_used,omitempty"`
	ResultCount int           `json:"result_count"`
}

// Capacity limits for persisted per-owner collections.
const (
	MaxHistory       = 10
	MaxSavedSearches = 20
)
