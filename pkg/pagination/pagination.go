package pagination

import (
	"math"
	"net/http"
	"strconv"
)

// DefaultPageSize is the number of products shown per result page.
const DefaultPageSize = 12

// MaxPageSize bounds the per_page query parameter.
const MaxPageSize = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page at the default page size.
func DefaultParams() Params {
	return NewParams(1, DefaultPageSize)
}

// NewParams builds Params, clamping page below 1 to 1 and falling back to the
// default page size when perPage is out of range. Pages so large that their
// offset would overflow are clamped to the last representable page, which is
// always past the end of any real result set.
func NewParams(page, perPage int) Params {
	if perPage < 1 || perPage > MaxPageSize {
		perPage = DefaultPageSize
	}
	page = min(max(page, 1), math.MaxInt/perPage)
	return Params{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
func FromRequest(r *http.Request) Params {
	page, perPage := 1, DefaultPageSize

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		perPage = v
	}

	return NewParams(page, perPage)
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// TotalPages returns ceil(total/perPage).
func TotalPages(total, perPage int) int {
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	pages := total / perPage
	if total%perPage > 0 {
		pages++
	}
	return pages
}

// NewResult creates a paginated result for a page that was already sliced
// by the data source.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := TotalPages(totalCount, params.PerPage)

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// Paginate slices items to the requested page. Pages past the end yield an
// empty, non-nil slice.
func Paginate[T any](items []T, params Params) Result[T] {
	params = NewParams(params.Page, params.PerPage)

	start := min(params.Offset, len(items))
	end := min(start+params.PerPage, len(items))

	page := make([]T, end-start)
	copy(page, items[start:end])
	return NewResult(page, len(items), params)
}
