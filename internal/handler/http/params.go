package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/PaintCatalog/internal/domain"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
	"github.com/utafrali/PaintCatalog/pkg/httputil"
	"github.com/utafrali/PaintCatalog/pkg/pagination"
	"github.com/utafrali/PaintCatalog/pkg/validator"
)

// maxOpenPrice stands in for a missing max_price bound.
var maxOpenPrice = decimal.NewFromInt(math.MaxInt64)

// parseSearchQuery builds a stateless catalog query from URL parameters.
// Set-valued filters are comma separated lists. A malformed page falls back
// to the first page.
func parseSearchQuery(r *http.Request) (domain.SearchQuery, error) {
	v := r.URL.Query()
	q := domain.SearchQuery{
		Query:  v.Get("q"),
		SortBy: domain.SortKey(v.Get("sort")),
		Page:   pagination.FromRequest(r).Page,
		Filters: domain.SearchFilters{
			Categories:    commaSet(v.Get("categories")),
			ColorFamilies: commaSet(v.Get("color_families")),
			RoomTypes:     commaSet(v.Get("room_types")),
			FinishTypes:   commaSet(v.Get("finish_types")),
			Brands:        commaSet(v.Get("brands")),
			Features:      commaSet(v.Get("features")),
		},
	}

	minRaw, maxRaw := v.Get("min_price"), v.Get("max_price")
	if minRaw != "" || maxRaw != "" {
		r := domain.PriceRange{Max: maxOpenPrice}
		if minRaw != "" {
			d, err := decimal.NewFromString(minRaw)
			if err != nil {
				return q, apperrors.InvalidParameter("min_price", "must be a valid number")
			}
			r.Min = d
		}
		if maxRaw != "" {
			d, err := decimal.NewFromString(maxRaw)
			if err != nil {
				return q, apperrors.InvalidParameter("max_price", "must be a valid number")
			}
			r.Max = d
		}
		q.Filters.PriceRange = &r
	}

	if raw := v.Get("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, apperrors.InvalidParameter("min_rating", "must be a number")
		}
		q.Filters.MinRating = rating
	}

	if raw := v.Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return q, apperrors.InvalidParameter("in_stock", "must be true or false")
		}
		q.Filters.InStockOnly = inStock
	}

	return q, nil
}

func commaSet(raw string) domain.StringSet {
	if raw == "" {
		return nil
	}
	return domain.NewStringSet(strings.Split(raw, ",")...)
}

// decodeBody decodes and validates a JSON body, writing the error response
// itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}
