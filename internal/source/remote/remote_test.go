package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/pkg/httpclient"
)

const productJSON = `{
	"id": "sw-emerald",
	"name": "Emerald Interior",
	"brand": "Sherwin-Williams",
	"category": "Living Room",
	"base_price": "89.99",
	"rating": 4.7,
	"colors": [{"id": "sea-salt", "name": "Sea Salt", "hex": "#CDD2C9"}],
	"finishes": [{"id": "satin", "name": "Satin", "price": "3.00"}]
}`

func newTestClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = time.Second
	return httpclient.New(cfg)
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoad_BareArray(t *testing.T) {
	srv := serve(t, http.StatusOK, "["+productJSON+"]")

	products, err := New(newTestClient(), srv.URL).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "sw-emerald", products[0].ID)
	assert.Equal(t, "89.99", products[0].BasePrice.StringFixed(2))
	assert.Equal(t, "3", products[0].Finishes[0].Price.String())
}

func TestLoad_Envelope(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"data": [`+productJSON+`]}`)

	products, err := New(newTestClient(), srv.URL).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Sherwin-Williams", products[0].Brand)
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusServiceUnavailable, `{}`},
		{"not found", http.StatusNotFound, `{}`},
		{"malformed", http.StatusOK, `{"data": "nope"}`},
		{"envelope without data", http.StatusOK, `{"error": {"code": "X"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			_, err := New(newTestClient(), srv.URL).Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
		})
	}
}

func TestLoad_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := New(newTestClient(), srv.URL).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestLoadWithBreaker_ServesLastGoodCatalogWhileOpen(t *testing.T) {
	var failing atomic.Bool
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte("[" + productJSON + "]"))
	}))
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultCircuitBreakerConfig("catalog-source-fallback-test")
	cfg.MinRequests = 2
	cfg.Timeout = time.Minute
	cb := httpclient.NewCircuitBreakerClient(newTestClient(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	loader := NewWithBreaker(cb, srv.URL)
	ctx := context.Background()

	products, err := loader.Load(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	failing.Store(true)
	_, err = loader.Load(ctx)
	require.Error(t, err, "a failure that trips the breaker is still reported")
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	hitsBefore := hits.Load()
	products, err = loader.Load(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "sw-emerald", products[0].ID)
	assert.Equal(t, hitsBefore, hits.Load(), "an open breaker must not reach the source")
}

func TestLoadWithBreaker_OpenWithoutCatalogFails(t *testing.T) {
	srv := serve(t, http.StatusInternalServerError, `{}`)

	cfg := httpclient.DefaultCircuitBreakerConfig("catalog-source-cold-test")
	cfg.MinRequests = 1
	cfg.Timeout = time.Minute
	cb := httpclient.NewCircuitBreakerClient(newTestClient(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	loader := NewWithBreaker(cb, srv.URL)

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	_, err = loader.Load(context.Background())
	assert.ErrorIs(t, err, httpclient.ErrCircuitOpen)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}
