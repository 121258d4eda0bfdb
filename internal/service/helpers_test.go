package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/engine"
	"github.com/utafrali/PaintCatalog/internal/engine/memory"
	"github.com/utafrali/PaintCatalog/internal/optimistic"
	"github.com/utafrali/PaintCatalog/internal/source"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func paint(id, name, brand, category string, price int64, colors ...string) domain.Product {
	p := domain.Product{
		ID:          id,
		Name:        name,
		Brand:       brand,
		Category:    category,
		Description: name + " interior paint",
		BasePrice:   decimal.NewFromInt(price),
		InStock:     true,
		Rating:      4,
		Finishes:    []domain.Finish{{ID: "matte", Name: "Matte"}},
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, c := range colors {
		p.Colors = append(p.Colors, domain.Color{ID: id + "-" + c, Name: c, Image: "/img/" + id + ".jpg"})
	}
	return p
}

func testCatalog() []domain.Product {
	return []domain.Product{
		paint("p1", "Regal Select", "Benjamin Moore", "Living Room", 65, "Sage Whisper", "Hale Navy"),
		paint("p2", "Emerald", "Sherwin-Williams", "Living Room", 90, "Sea Salt"),
		paint("p3", "Ultra Kitchen", "Behr", "Kitchen", 43, "Sage Green", "Cracked Pepper"),
		paint("p4", "Signature Bath", "Valspar", "Bathroom", 40, "Aqua Spa"),
	}
}

func staticLoader(products []domain.Product) source.Loader {
	return source.LoaderFunc(func(context.Context) ([]domain.Product, error) {
		out := make([]domain.Product, len(products))
		copy(out, products)
		return out, nil
	})
}

// plainEngine hides the optional engine capabilities of the wrapped engine.
type plainEngine struct {
	engine.SearchEngine
}

// gatedResetEngine blocks Reset until release is closed once release is set.
type gatedResetEngine struct {
	engine.SearchEngine
	entered chan struct{}
	release chan struct{}
}

func (e *gatedResetEngine) Reset(ctx context.Context, products []domain.Product) error {
	if e.release != nil {
		close(e.entered)
		<-e.release
	}
	return e.SearchEngine.Reset(ctx, products)
}

// recordingWriter is a source that records catalog writes.
type recordingWriter struct {
	source.Loader
	mu      sync.Mutex
	saved   []string
	deleted []string
	err     error
}

func (w *recordingWriter) Save(_ context.Context, products ...domain.Product) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	for _, p := range products {
		w.saved = append(w.saved, p.ID)
	}
	return nil
}

func (w *recordingWriter) Delete(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deleted = append(w.deleted, id)
	return w.err
}

func newLoadedCatalogService(t *testing.T, products []domain.Product) *CatalogService {
	t.Helper()
	svc := NewCatalogService(memory.New(), staticLoader(products), optimistic.NewSequencer(), newTestLogger())
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	return svc
}
