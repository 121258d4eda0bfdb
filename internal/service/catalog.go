package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/PaintCatalog/internal/catalog"
	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/engine"
	"github.com/utafrali/PaintCatalog/internal/optimistic"
	"github.com/utafrali/PaintCatalog/internal/query"
	"github.com/utafrali/PaintCatalog/internal/source"
	apperrors "github.com/utafrali/PaintCatalog/pkg/errors"
	"github.com/utafrali/PaintCatalog/pkg/tracing"
)

const refreshKey = "catalog:refresh"

// CatalogService owns the authoritative product catalog and answers queries
// through the configured search engine.
type CatalogService struct {
	catalog *catalog.Catalog
	engine  engine.SearchEngine
	loader  source.Loader
	writer  source.Writer
	seq     *optimistic.Sequencer
	logger  *slog.Logger

	refreshMu sync.Mutex

	stateMu    sync.RWMutex
	loaded     bool
	refreshErr error

	facetMu  sync.Mutex
	facetGen uint64
	facets   *domain.FacetIndex
}

// NewCatalogService creates a catalog service. When loader also implements
// source.Writer, catalog changes made through the service are persisted.
func NewCatalogService(eng engine.SearchEngine, loader source.Loader, seq *optimistic.Sequencer, logger *slog.Logger) *CatalogService {
	s := &CatalogService{
		catalog: catalog.New(),
		engine:  eng,
		loader:  loader,
		seq:     seq,
		logger:  logger,
	}
	if w, ok := loader.(source.Writer); ok {
		s.writer = w
	}
	return s
}

// Catalog exposes the authoritative catalog to collaborating services.
func (s *CatalogService) Catalog() *catalog.Catalog { return s.catalog }

// Refresh reloads the catalog from its source and re-indexes the engine. A
// refresh whose load completes after a newer one started is discarded. Like
// counters of products that survive the reload never go down.
func (s *CatalogService) Refresh(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "service", "CatalogService.Refresh")
	defer span.End()

	token := s.seq.Next(refreshKey)
	start := time.Now()

	products, err := s.loader.Load(ctx)
	if err != nil {
		s.seq.IfLatest(refreshKey, token, func() { s.setRefreshResult(err) })
		s.logger.ErrorContext(ctx, "catalog refresh failed", slog.String("error", err.Error()))
		return 0, tracing.RecordError(span, apperrors.ServiceUnavailable("catalog source unavailable", ensureUnavailable(err)))
	}
	products = source.Sanitize(ctx, products, s.logger)

	// Reset runs under refreshMu, never under the sequencer lock that
	// engagement shares.
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if !s.seq.IsLatest(refreshKey, token) {
		s.logger.InfoContext(ctx, "discarding superseded catalog refresh", slog.Int("products", len(products)))
		return 0, optimistic.ErrSuperseded
	}

	s.carryLikes(products)
	if err := s.engine.Reset(ctx, products); err != nil {
		s.setRefreshResult(err)
		return 0, tracing.RecordError(span, apperrors.Internal(fmt.Errorf("refresh catalog: reset engine: %w", err)))
	}
	s.catalog.Reload(products)
	s.setRefreshResult(nil)

	catalogProducts.Set(float64(len(products)))
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	s.logger.InfoContext(ctx, "catalog refreshed",
		slog.Int("products", len(products)),
		slog.Duration("took", time.Since(start)),
	)
	return len(products), nil
}

// carryLikes keeps confirmed like counters of products that survive a reload,
// since the source may lag behind them.
func (s *CatalogService) carryLikes(products []domain.Product) {
	for i := range products {
		if n, ok := s.catalog.Likes(products[i].ID); ok {
			products[i].Likes = max(products[i].Likes, n)
		}
	}
}

func ensureUnavailable(err error) error {
	if source.IsUnavailable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
}

func (s *CatalogService) setRefreshResult(err error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.refreshErr = err
	if err == nil {
		s.loaded = true
	}
}

// Ready reports whether a catalog has been loaded, the latest refresh
// succeeded and the engine is reachable.
func (s *CatalogService) Ready(ctx context.Context) error {
	s.stateMu.RLock()
	loaded, refreshErr := s.loaded, s.refreshErr
	s.stateMu.RUnlock()

	if refreshErr != nil {
		return fmt.Errorf("%w: last refresh failed: %w", domain.ErrCatalogUnavailable, refreshErr)
	}
	if !loaded {
		return fmt.Errorf("%w: not loaded yet", domain.ErrCatalogUnavailable)
	}
	return s.engine.Ping(ctx)
}

// NormalizeQuery validates q and fills defaults: relevance sort and page 1.
func NormalizeQuery(q *domain.SearchQuery) error {
	key, ok := domain.ParseSortKey(string(q.SortBy))
	if !ok {
		return apperrors.InvalidParameter("sort", "must be one of: relevance, price-low, price-high, rating, newest, popular, name")
	}
	q.SortBy = key
	q.Page = max(q.Page, 1)
	q.Filters.Normalize()
	if err := q.Filters.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

// Search evaluates one catalog query and returns the requested page.
func (s *CatalogService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	if err := NormalizeQuery(&q); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "service", "CatalogService.Search",
		attribute.String("query.text", q.Query),
		attribute.String("query.sort", string(q.SortBy)),
		attribute.Int("query.page", q.Page),
	)
	defer span.End()

	start := time.Now()
	result, err := s.engine.Search(ctx, &q)
	elapsed := time.Since(start)
	if err != nil {
		queryDuration.WithLabelValues(string(q.SortBy), "error").Observe(elapsed.Seconds())
		return nil, tracing.RecordError(span, fmt.Errorf("search: %w", err))
	}
	queryDuration.WithLabelValues(string(q.SortBy), "ok").Observe(elapsed.Seconds())
	queryResults.Observe(float64(result.TotalResults))

	s.hydrateLikes(result.Products)
	span.SetAttributes(attribute.Int("query.total_results", result.TotalResults))

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", q.Query),
		slog.String("sort", string(q.SortBy)),
		slog.Int("page", q.Page),
		slog.Int("total", result.TotalResults),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// hydrateLikes overlays the authoritative like counters, since engines keep
// their own product copies.
func (s *CatalogService) hydrateLikes(products []domain.Product) {
	for i := range products {
		if n, ok := s.catalog.Likes(products[i].ID); ok {
			products[i].Likes = n
		}
	}
}

// Get returns a single product.
func (s *CatalogService) Get(_ context.Context, id string) (domain.Product, error) {
	p, ok := s.catalog.Get(id)
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return p, nil
}

// Facets returns the facet index of the full catalog. Engines that derive
// facets themselves are asked directly; otherwise the index is built from the
// catalog and memoized until the catalog changes.
func (s *CatalogService) Facets(ctx context.Context) (domain.FacetIndex, error) {
	if fp, ok := s.engine.(engine.FacetProvider); ok {
		idx, err := fp.Facets(ctx)
		if err != nil {
			return domain.FacetIndex{}, fmt.Errorf("facets: %w", err)
		}
		return idx, nil
	}

	s.facetMu.Lock()
	defer s.facetMu.Unlock()
	if s.facets != nil && s.facetGen == s.catalog.Generation() {
		return *s.facets, nil
	}
	products, gen := s.catalog.Snapshot()
	idx := query.BuildFacets(products)
	s.facets, s.facetGen = &idx, gen
	return idx, nil
}

// Suggest returns typed suggestions for a partial query, reading recent
// searches from history.
func (s *CatalogService) Suggest(ctx context.Context, partial string, history []string) []domain.Suggestion {
	products, _ := s.catalog.Snapshot()
	in := query.SuggestInput{Partial: partial, History: history, Catalog: products}

	if ps, ok := s.engine.(engine.ProductSuggester); ok && query.NormalizeQuery(partial) != "" {
		matches, err := ps.SuggestProducts(ctx, partial, query.MaxProductSuggestions)
		if err != nil {
			s.logger.WarnContext(ctx, "engine product suggestions failed, scanning catalog",
				slog.String("error", err.Error()),
			)
		} else {
			in.ProductMatches = matches
		}
	}
	return query.Suggest(in)
}

// Upsert validates and stores a product. It reports whether the product was
// new.
func (s *CatalogService) Upsert(ctx context.Context, p domain.Product) (bool, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return false, apperrors.InvalidInput(err.Error())
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if existing, ok := s.catalog.Get(p.ID); ok {
		p.Likes = max(p.Likes, existing.Likes)
	}

	if s.writer != nil {
		if err := s.writer.Save(ctx, p); err != nil {
			return false, fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	if err := s.engine.Index(ctx, &p); err != nil {
		return false, fmt.Errorf("upsert product %s: index: %w", p.ID, err)
	}
	created := s.catalog.Upsert(p) == 1

	s.logger.InfoContext(ctx, "product upserted",
		slog.String("product_id", p.ID),
		slog.Bool("created", created),
	)
	return created, nil
}

// BulkUpsert stores many products. Invalid products are skipped and
// reported by id.
func (s *CatalogService) BulkUpsert(ctx context.Context, products []domain.Product) (int, map[string]string, error) {
	rejected := make(map[string]string)
	valid := make([]domain.Product, 0, len(products))
	now := time.Now().UTC()
	for _, p := range products {
		p.Normalize()
		if err := p.Validate(); err != nil {
			rejected[p.ID] = err.Error()
			continue
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return 0, rejected, nil
	}

	if s.writer != nil {
		if err := s.writer.Save(ctx, valid...); err != nil {
			return 0, rejected, fmt.Errorf("bulk upsert: %w", err)
		}
	}
	if err := s.engine.BulkIndex(ctx, valid); err != nil {
		return 0, rejected, fmt.Errorf("bulk upsert: index: %w", err)
	}
	s.catalog.Upsert(valid...)

	s.logger.InfoContext(ctx, "bulk upsert completed",
		slog.Int("indexed", len(valid)),
		slog.Int("rejected", len(rejected)),
	)
	return len(valid), rejected, nil
}

// Delete removes a product.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if _, ok := s.catalog.Get(id); !ok {
		return apperrors.NotFound("product", id)
	}

	if s.writer != nil {
		if err := s.writer.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			return fmt.Errorf("delete product %s: %w", id, err)
		}
	}
	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: index: %w", id, err)
	}
	s.catalog.Delete(id)

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}
