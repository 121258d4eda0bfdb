// Package remote loads the catalog from an HTTP endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/pkg/httpclient"
)

const serviceName = "catalog-source"

// Loader GETs the product list from url. The response is either a bare JSON
// array or an envelope of the form {"data": [...]}.
type Loader struct {
	client httpclient.Doer
	url    string

	mu       sync.RWMutex
	lastGood []byte
}

// New creates a remote loader. client is normally a circuit-breaker client.
func New(client httpclient.Doer, url string) *Loader {
	return &Loader{client: client, url: url}
}

// NewWithBreaker creates a remote loader behind cb. While the breaker is open
// the last catalog that decoded successfully is served instead of an error.
func NewWithBreaker(cb *httpclient.CircuitBreakerClient, url string) *Loader {
	l := &Loader{url: url}
	l.client = cb.WithFallback(l.serveLastGood)
	return l
}

func (l *Loader) serveLastGood(_ context.Context, err error) (*http.Response, error) {
	l.mu.RLock()
	body := l.lastGood
	l.mu.RUnlock()
	if body == nil {
		return nil, err
	}
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, nil
}

// Load fetches and decodes the catalog. Any failure is reported as
// domain.ErrCatalogUnavailable.
func (l *Loader) Load(ctx context.Context) ([]domain.Product, error) {
	var raw json.RawMessage
	if err := httpclient.GetJSON(ctx, l.client, l.url, serviceName, &raw); err != nil {
		return nil, fmt.Errorf("load remote catalog: %w: %w", domain.ErrCatalogUnavailable, err)
	}

	products, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("load remote catalog: %w: %w", domain.ErrCatalogUnavailable, err)
	}

	l.mu.Lock()
	l.lastGood = raw
	l.mu.Unlock()
	return products, nil
}

func decode(raw json.RawMessage) ([]domain.Product, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []domain.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, fmt.Errorf("decode product list: %w", err)
		}
		return products, nil
	}

	var envelope struct {
		Data *[]domain.Product `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode product envelope: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("decode product envelope: missing data")
	}
	return *envelope.Data, nil
}
