package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// StringSet is a set of lower-cased, trimmed tokens kept in sorted order.
// Construct it with NewStringSet; the zero value is the empty set.
type StringSet []string

// NewStringSet normalizes and de-duplicates values. Blank tokens are dropped.
func NewStringSet(values ...string) StringSet {
	out := make(StringSet, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// UnmarshalJSON decodes a JSON array of strings through NewStringSet.
func (s *StringSet) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NewStringSet(raw...)
	return nil
}

// Contains reports whether v (already lower-cased) is a member.
func (s StringSet) Contains(v string) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

// PriceRange is an inclusive [Min, Max] bound on the base price.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Contains reports whether price lies within the range, bounds included.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// SearchFilters is the structured part of a query. Empty sets, a nil
// PriceRange, a zero MinRating and a false InStockOnly impose no constraint.
type SearchFilters struct {
	Categories    StringSet   `json:"categories"`
	ColorFamilies StringSet   `json:"color_families"`
	RoomTypes     StringSet   `json:"room_types"`
	FinishTypes   StringSet   `json:"finish_types"`
	Brands        StringSet   `json:"brands"`
	Features      StringSet   `json:"features"`
	PriceRange    *PriceRange `json:"price_range,omitempty"`
	MinRating     float64     `json:"min_rating"`
	InStockOnly   bool        `json:"in_stock_only"`
}

// Normalize re-applies set construction, which matters for filters decoded
// from JSON or from persisted saved searches.
func (f *SearchFilters) Normalize() {
	f.Categories = NewStringSet(f.Categories...)
	f.ColorFamilies = NewStringSet(f.ColorFamilies...)
	f.RoomTypes = NewStringSet(f.RoomTypes...)
	f.FinishTypes = NewStringSet(f.FinishTypes...)
	f.Brands = NewStringSet(f.Brands...)
	f.Features = NewStringSet(f.Features...)
}

// Validate rejects out-of-range numeric bounds.
func (f SearchFilters) Validate() error {
	if f.PriceRange != nil {
		if f.PriceRange.Min.IsNegative() {
			return fmt.Errorf("price range: min must not be negative")
		}
		if f.PriceRange.Min.GreaterThan(f.PriceRange.Max) {
			return fmt.Errorf("price range: min %s exceeds max %s", f.PriceRange.Min, f.PriceRange.Max)
		}
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return fmt.Errorf("min rating must be within 0-5")
	}
	return nil
}

// IsEmpty reports whether no dimension is populated.
func (f SearchFilters) IsEmpty() bool {
	return len(f.Predicates()) == 0
}

// Equal reports whether two normalized filter values are the same query.
func (f SearchFilters) Equal(o SearchFilters) bool {
	if (f.PriceRange == nil) != (o.PriceRange == nil) {
		return false
	}
	if f.PriceRange != nil && (!f.PriceRange.Min.Equal(o.PriceRange.Min) || !f.PriceRange.Max.Equal(o.PriceRange.Max)) {
		return false
	}
	return slices.Equal(f.Categories, o.Categories) &&
		slices.Equal(f.ColorFamilies, o.ColorFamilies) &&
		slices.Equal(f.RoomTypes, o.RoomTypes) &&
		slices.Equal(f.FinishTypes, o.FinishTypes) &&
		slices.Equal(f.Brands, o.Brands) &&
		slices.Equal(f.Features, o.Features) &&
		f.MinRating == o.MinRating &&
		f.InStockOnly == o.InStockOnly
}

// Dimension names a filter dimension.
type Dimension string

const (
	DimCategories    Dimension = "categories"
	DimColorFamilies Dimension = "color_families"
	DimRoomTypes     Dimension = "room_types"
	DimFinishTypes   Dimension = "finish_types"
	DimBrands        Dimension = "brands"
	DimFeatures      Dimension = "features"
	DimPrice         Dimension = "price"
	DimRating        Dimension = "rating"
	DimInStock       Dimension = "in_stock"
)

// Predicate is one populated filter dimension. The concrete types are
// SetPredicate, RangePredicate, ThresholdPredicate and FlagPredicate.
type Predicate interface {
	Dimension() Dimension
	isPredicate()
}

// SetPredicate matches when the product satisfies any one of Values.
type SetPredicate struct {
	Dim    Dimension
	Values StringSet
}

// RangePredicate bounds the base price.
type RangePredicate struct {
	Range PriceRange
}

// ThresholdPredicate requires the rating to be at least Min.
type ThresholdPredicate struct {
	Min float64
}

// FlagPredicate requires the product to be in stock.
type FlagPredicate struct {
	Dim Dimension
}

func (p SetPredicate) Dimension() Dimension       { return p.Dim }
func (p RangePredicate) Dimension() Dimension     { return DimPrice }
func (p ThresholdPredicate) Dimension() Dimension { return DimRating }
func (p FlagPredicate) Dimension() Dimension      { return p.Dim }

func (SetPredicate) isPredicate()       {}
func (RangePredicate) isPredicate()     {}
func (ThresholdPredicate) isPredicate() {}
func (FlagPredicate) isPredicate()      {}

// Predicates returns the populated dimensions only. Length-zero sets are
// skipped, so an all-empty filter yields no predicates.
func (f SearchFilters) Predicates() []Predicate {
	var preds []Predicate
	sets := []SetPredicate{
		{DimCategories, f.Categories},
		{DimColorFamilies, f.ColorFamilies},
		{DimRoomTypes, f.RoomTypes},
		{DimFinishTypes, f.FinishTypes},
		{DimBrands, f.Brands},
		{DimFeatures, f.Features},
	}
	for _, s := range sets {
		if len(s.Values) > 0 {
			preds = append(preds, s)
		}
	}
	if f.PriceRange != nil {
		preds = append(preds, RangePredicate{Range: *f.PriceRange})
	}
	if f.MinRating > 0 {
		preds = append(preds, ThresholdPredicate{Min: f.MinRating})
	}
	if f.InStockOnly {
		preds = append(preds, FlagPredicate{Dim: DimInStock})
	}
	return preds
}
