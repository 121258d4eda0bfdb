package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/engagement"
	"github.com/utafrali/PaintCatalog/internal/engine/memory"
	"github.com/utafrali/PaintCatalog/internal/optimistic"
	"github.com/utafrali/PaintCatalog/internal/service"
	"github.com/utafrali/PaintCatalog/internal/session"
	"github.com/utafrali/PaintCatalog/internal/source/static"
	"github.com/utafrali/PaintCatalog/pkg/health"
	"github.com/utafrali/PaintCatalog/pkg/httputil"
)

type response struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWith(t, RouterConfig{ServiceName: "paint-catalog-test", FacetsMaxAge: 60})
}

func newTestRouterWith(t *testing.T, cfg RouterConfig) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seq := optimistic.NewSequencer()

	catalogSvc := service.NewCatalogService(memory.New(), static.New(0), seq, logger)
	n, err := catalogSvc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 16, n)

	svcs := Services{
		Catalog:  catalogSvc,
		Sessions: service.NewSessionService(catalogSvc, session.NewMemoryStore(), 0, logger),
		Engagement: service.NewEngagementService(catalogSvc.Catalog(), engagement.NewVoteTally(),
			engagement.NewMemorySubmitter(0, 0), nil, seq, logger),
	}
	return NewRouter(cfg, svcs, health.NewHandler(), logger)
}

func do(t *testing.T, h http.Handler, method, path, body, user string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

// --- Catalog ---

func TestSearch_Filters(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantFirst string
	}{
		{name: "no filters", query: "", wantTotal: 16},
		{name: "brand list", query: "brands=Behr", wantTotal: 3},
		{name: "brand list with in stock", query: "brands=behr,valspar&in_stock=true", wantTotal: 4},
		{name: "max price sorted", query: "max_price=40&sort=price-low", wantTotal: 5, wantFirst: "rustoleum-chalked"},
		{name: "price window", query: "min_price=80&max_price=90", wantTotal: 3},
		{name: "min rating", query: "min_rating=4.8", wantTotal: 3},
		{name: "category", query: "categories=exterior", wantTotal: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, router, http.MethodGet, "/api/v1/catalog/products?"+tt.query, "", "shopper-1")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			result := decodeData[domain.SearchResult](t, resp)
			assert.Equal(t, tt.wantTotal, result.TotalResults)
			if tt.wantFirst != "" {
				require.NotEmpty(t, result.Products)
				assert.Equal(t, tt.wantFirst, result.Products[0].ID)
			}
		})
	}
}

func TestSearch_PaginatesByTwelve(t *testing.T) {
	router := newTestRouter(t)

	_, resp := do(t, router, http.MethodGet, "/api/v1/catalog/products", "", "shopper-1")
	first := decodeData[domain.SearchResult](t, resp)
	assert.Len(t, first.Products, 12)
	assert.Equal(t, 2, first.TotalPages)

	_, resp = do(t, router, http.MethodGet, "/api/v1/catalog/products?page=2", "", "shopper-1")
	second := decodeData[domain.SearchResult](t, resp)
	assert.Len(t, second.Products, 4)

	_, resp = do(t, router, http.MethodGet, "/api/v1/catalog/products?page=two", "", "shopper-1")
	assert.Equal(t, 1, decodeData[domain.SearchResult](t, resp).CurrentPage)

	w, resp := do(t, router, http.MethodGet, "/api/v1/catalog/products?page=9", "", "shopper-1")
	assert.Equal(t, http.StatusOK, w.Code)
	beyond := decodeData[domain.SearchResult](t, resp)
	assert.Empty(t, beyond.Products)
	assert.Equal(t, 16, beyond.TotalResults)

	w, resp = do(t, router, http.MethodGet, "/api/v1/catalog/products?page=4611686018427387904", "", "shopper-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	huge := decodeData[domain.SearchResult](t, resp)
	assert.Empty(t, huge.Products)
	assert.Equal(t, 16, huge.TotalResults)
}

func TestSearch_BadParameters(t *testing.T) {
	router := newTestRouter(t)

	for _, query := range []string{
		"sort=cheapest",
		"min_price=abc",
		"max_price=1e",
		"min_rating=high",
		"in_stock=maybe",
		"min_price=50&max_price=10",
	} {
		t.Run(query, func(t *testing.T) {
			w, resp := do(t, router, http.MethodGet, "/api/v1/catalog/products?"+query, "", "shopper-1")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
		})
	}
}

func TestGetProduct(t *testing.T) {
	router := newTestRouter(t)

	w, resp := do(t, router, http.MethodGet, "/api/v1/catalog/products/sw-emerald", "", "shopper-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sherwin-Williams", decodeData[domain.Product](t, resp).Brand)

	w, resp = do(t, router, http.MethodGet, "/api/v1/catalog/products/nope", "", "shopper-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestFacets_Cacheable(t *testing.T) {
	router := newTestRouter(t)

	w, resp := do(t, router, http.MethodGet, "/api/v1/catalog/facets", "", "shopper-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	idx := decodeData[domain.FacetIndex](t, resp)
	assert.Equal(t, 16, idx.TotalProducts)
	assert.NotEmpty(t, idx.Brands)
}

func TestSuggest(t *testing.T) {
	router := newTestRouter(t)

	_, resp := do(t, router, http.MethodGet, "/api/v1/catalog/suggest?q=behr", "", "shopper-1")
	body := decodeData[map[string][]domain.Suggestion](t, resp)

	var brands []string
	for _, s := range body["suggestions"] {
		if s.Type == domain.SuggestionBrand {
			brands = append(brands, s.Text)
		}
	}
	assert.Equal(t, []string{"Behr"}, brands)

	_, resp = do(t, router, http.MethodGet, "/api/v1/catalog/suggest?q=%20", "", "shopper-1")
	assert.Empty(t, decodeData[map[string][]domain.Suggestion](t, resp)["suggestions"])
}

const newProductBody = `{
	"id": "bm-advance-trim",
	"name": "Advance Trim Enamel",
	"brand": "Benjamin Moore",
	"category": "Trim",
	"base_price": "72.99",
	"in_stock": true,
	"rating": 4.7,
	"colors": [{"id": "chantilly-lace", "name": "Chantilly Lace", "hex": "#F5F1E6", "in_stock": true}],
	"finishes": [{"id": "satin", "name": "Satin", "price": "0"}]
}`

func TestUpsertProduct(t *testing.T) {
	router := newTestRouter(t)

	w, _ := do(t, router, http.MethodPost, "/api/v1/catalog/products", newProductBody, "admin")
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = do(t, router, http.MethodPost, "/api/v1/catalog/products", newProductBody, "admin")
	assert.Equal(t, http.StatusOK, w.Code)

	_, resp := do(t, router, http.MethodGet, "/api/v1/catalog/products?categories=trim", "", "shopper-1")
	assert.Equal(t, 2, decodeData[domain.SearchResult](t, resp).TotalResults)
}

func TestUpsertProduct_Validation(t *testing.T) {
	router := newTestRouter(t)

	w, resp := do(t, router, http.MethodPost, "/api/v1/catalog/products", `{"id":"x","name":"No Colors"}`, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "brand")

	w, resp = do(t, router, http.MethodPost, "/api/v1/catalog/products", `{not json`, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestBulkUpsert_ReportsRejected(t *testing.T) {
	router := newTestRouter(t)

	body := `{"products": [` + newProductBody + `, {"id": "broken", "name": "Broken"}]}`
	w, resp := do(t, router, http.MethodPost, "/api/v1/catalog/products/bulk", body, "admin")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeData[BulkUpsertResponse](t, resp)
	assert.Equal(t, 1, result.Indexed)
	assert.Contains(t, result.Rejected, "broken")

	w, _ = do(t, router, http.MethodPost, "/api/v1/catalog/products/bulk", `{"products": []}`, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteProduct(t *testing.T) {
	router := newTestRouter(t)

	w, _ := do(t, router, http.MethodDelete, "/api/v1/catalog/products/kilz-basement-masonry", "", "admin")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodDelete, "/api/v1/catalog/products/kilz-basement-masonry", "", "admin")
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, resp := do(t, router, http.MethodGet, "/api/v1/catalog/products", "", "shopper-1")
	assert.Equal(t, 15, decodeData[domain.SearchResult](t, resp).TotalResults)
}

func TestRefresh(t *testing.T) {
	router := newTestRouter(t)

	w, resp := do(t, router, http.MethodPost, "/api/v1/catalog/refresh", "", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"products": 16}, decodeData[map[string]int](t, resp))
}

// --- Sessions ---

func createSession(t *testing.T, router http.Handler, user string) string {
	t.Helper()
	w, resp := do(t, router, http.MethodPost, "/api/v1/sessions", "", user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeData[map[string]string](t, resp)["session_id"]
	require.NotEmpty(t, id)
	return id
}

func TestSessions_RequireIdentity(t *testing.T) {
	router := newTestRouter(t)

	w, resp := do(t, router, http.MethodPost, "/api/v1/sessions", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestSessions_QueryFlow(t *testing.T) {
	router := newTestRouter(t)
	sid := createSession(t, router, "shopper-1")
	base := "/api/v1/sessions/" + sid

	w, resp := do(t, router, http.MethodGet, base, "", "shopper-1")
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeData[service.SessionView](t, resp)
	assert.Equal(t, 16, view.TotalResults)
	assert.Equal(t, domain.SortRelevance, view.SortBy)

	_, resp = do(t, router, http.MethodPut, base+"/filters", `{"brands": ["Behr"]}`, "shopper-1")
	view = decodeData[service.SessionView](t, resp)
	assert.Equal(t, 3, view.TotalResults)
	assert.Equal(t, domain.StringSet{"behr"}, view.Filters.Brands)

	_, resp = do(t, router, http.MethodPut, base+"/page", `{"page": 3}`, "shopper-1")
	view = decodeData[service.SessionView](t, resp)
	assert.Equal(t, 3, view.CurrentPage)
	assert.Empty(t, view.Results)

	w, resp = do(t, router, http.MethodPut, base+"/page", `{"page": 4611686018427387904}`, "shopper-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decodeData[service.SessionView](t, resp).Results)
	w, _ = do(t, router, http.MethodGet, base, "", "shopper-1")
	assert.Equal(t, http.StatusOK, w.Code)

	_, resp = do(t, router, http.MethodPut, base+"/sort", `{"sort": "price-low"}`, "shopper-1")
	view = decodeData[service.SessionView](t, resp)
	assert.Equal(t, 1, view.CurrentPage)
	require.Len(t, view.Results, 3)
	assert.Equal(t, "behr-premium-plus-office", view.Results[0].ID)

	w, _ = do(t, router, http.MethodPut, base+"/sort", `{"sort": "cheapest"}`, "shopper-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, resp = do(t, router, http.MethodDelete, base+"/filters", "", "shopper-1")
	assert.Equal(t, 16, decodeData[service.SessionView](t, resp).TotalResults)
}

func TestSessions_HistoryAndSuggestions(t *testing.T) {
	router := newTestRouter(t)
	sid := createSession(t, router, "shopper-1")
	base := "/api/v1/sessions/" + sid

	do(t, router, http.MethodPut, base+"/query", `{"query": "emerald"}`, "shopper-1")
	do(t, router, http.MethodPut, base+"/query", `{"query": "regal"}`, "shopper-1")

	_, resp := do(t, router, http.MethodGet, base+"/history", "", "shopper-1")
	assert.Equal(t, []string{"regal", "emerald"}, decodeData[map[string][]string](t, resp)["history"])

	_, resp = do(t, router, http.MethodGet, base+"/suggestions?q=emer", "", "shopper-1")
	suggestions := decodeData[map[string][]domain.Suggestion](t, resp)["suggestions"]
	require.NotEmpty(t, suggestions)
	assert.Equal(t, domain.SuggestionRecent, suggestions[0].Type)
	assert.Equal(t, "emerald", suggestions[0].Text)

	w, _ := do(t, router, http.MethodDelete, base+"/history", "", "shopper-1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, resp = do(t, router, http.MethodGet, base+"/history", "", "shopper-1")
	assert.Empty(t, decodeData[map[string][]string](t, resp)["history"])
}

func TestSessions_SavedSearches(t *testing.T) {
	router := newTestRouter(t)
	sid := createSession(t, router, "shopper-1")
	base := "/api/v1/sessions/" + sid

	do(t, router, http.MethodPut, base+"/filters", `{"brands": ["Behr"]}`, "shopper-1")

	w, resp := do(t, router, http.MethodPost, base+"/saved", `{"name": "Behr paints"}`, "shopper-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decodeData[domain.SavedSearch](t, resp)
	assert.Equal(t, 3, saved.ResultCount)

	w, _ = do(t, router, http.MethodPost, base+"/saved", `{"name": ""}`, "shopper-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	do(t, router, http.MethodDelete, base+"/filters", "", "shopper-1")

	w, resp = do(t, router, http.MethodPost, base+"/saved/"+saved.ID+"/load", "", "shopper-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decodeData[service.SessionView](t, resp).TotalResults)

	_, resp = do(t, router, http.MethodGet, base+"/saved", "", "shopper-1")
	list := decodeData[map[string][]domain.SavedSearch](t, resp)["saved_searches"]
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].LastUsed)

	w, _ = do(t, router, http.MethodDelete, base+"/saved/"+saved.ID, "", "shopper-1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = do(t, router, http.MethodDelete, base+"/saved/"+saved.ID, "", "shopper-1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, router, http.MethodPost, base+"/saved/not-a-uuid/load", "", "shopper-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessions_Ownership(t *testing.T) {
	router := newTestRouter(t)
	sid := createSession(t, router, "shopper-1")

	w, _ := do(t, router, http.MethodGet, "/api/v1/sessions/"+sid, "", "shopper-2")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, router, http.MethodDelete, "/api/v1/sessions/"+sid, "", "shopper-1")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, router, http.MethodGet, "/api/v1/sessions/"+sid, "", "shopper-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Engagement ---

func TestLikeProduct(t *testing.T) {
	router := newTestRouter(t)

	w, resp := do(t, router, http.MethodPost, "/api/v1/engagement/products/bm-regal-select/like", "", "shopper-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 119, decodeData[service.EngagementResult](t, resp).Count)

	_, resp = do(t, router, http.MethodGet, "/api/v1/catalog/products/bm-regal-select", "", "shopper-1")
	assert.Equal(t, 119, decodeData[domain.Product](t, resp).Likes)

	w, _ = do(t, router, http.MethodPost, "/api/v1/engagement/products/nope/like", "", "shopper-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVotes(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/api/v1/engagement/votes/colour-of-the-year", "", "shopper-1")
	_, resp := do(t, router, http.MethodPost, "/api/v1/engagement/votes/colour-of-the-year", "", "shopper-2")
	assert.Equal(t, 2, decodeData[service.EngagementResult](t, resp).Count)

	_, resp = do(t, router, http.MethodGet, "/api/v1/engagement/votes/colour-of-the-year", "", "shopper-3")
	assert.Equal(t, 2, decodeData[service.EngagementResult](t, resp).Count)
}

func TestEngagement_RateLimited(t *testing.T) {
	router := newTestRouterWith(t, RouterConfig{ServiceName: "paint-catalog-test", EngagementRPS: 1, EngagementBurst: 2})

	for range 2 {
		w, _ := do(t, router, http.MethodPost, "/api/v1/engagement/votes/colour-of-the-year", "", "shopper-1")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, resp := do(t, router, http.MethodPost, "/api/v1/engagement/votes/colour-of-the-year", "", "shopper-1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)

	w, _ = do(t, router, http.MethodPost, "/api/v1/engagement/votes/colour-of-the-year", "", "shopper-2")
	assert.Equal(t, http.StatusOK, w.Code)

	// Catalog reads are not limited.
	w, _ = do(t, router, http.MethodGet, "/api/v1/catalog/products", "", "shopper-1")
	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Operational ---

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
