package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/query"
)

// SuggestProducts returns up to limit products whose name or description
// contains partial, in catalog order.
func (e *Engine) SuggestProducts(ctx context.Context, partial string, limit int) ([]domain.Product, error) {
	q := query.NormalizeQuery(partial)
	if q == "" {
		return []domain.Product{}, nil
	}
	if limit <= 0 {
		limit = query.MaxProductSuggestions
	}

	body := m{
		"query": m{"bool": m{
			"should": []any{
				wildcard("name_lower", q),
				wildcard("description_lower", q),
			},
			"minimum_should_match": 1,
		}},
		"size": limit,
		"sort": []any{m{"position": "asc"}},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseError("suggest", res)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: decode response: %w", err)
	}
	return productsFrom(esResp.Hits.Hits), nil
}
