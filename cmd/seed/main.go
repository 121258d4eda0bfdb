// Command seed populates the catalog database with the embedded paint catalog
// and optionally a large synthetic catalog for load testing.
//
// Run: go run ./cmd/seed -synthetic 10000
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/utafrali/PaintCatalog/internal/config"
	"github.com/utafrali/PaintCatalog/internal/source/postgres"
	"github.com/utafrali/PaintCatalog/internal/source/static"
	"github.com/utafrali/PaintCatalog/internal/source/synthetic"
	"github.com/utafrali/PaintCatalog/pkg/database"
	"github.com/utafrali/PaintCatalog/pkg/logger"
)

func main() {
	count := flag.Int("synthetic", 0, "number of synthetic products to generate in addition to the embedded catalog")
	batchSize := flag.Int("batch", 500, "products written per transaction")
	seed := flag.Uint64("seed", 42, "random seed for synthetic products")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("paint-catalog-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log, *count, *batchSize, *seed); err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, count, batchSize int, seed uint64) error {
	pcfg := database.DefaultPostgresConfig()
	pcfg.URL = cfg.DatabaseURL
	pool, err := database.NewPostgresPool(ctx, pcfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	src := postgres.New(pool, database.NewQueryTracer("postgresql", cfg.SlowQueryThreshold, log), log)
	if err := src.Migrate(ctx); err != nil {
		return err
	}

	products, err := static.Seed()
	if err != nil {
		return err
	}
	if count > 0 {
		products = append(products, synthetic.Generate(count, seed)...)
	}

	start := time.Now()
	for batch := range slices.Chunk(products, max(batchSize, 1)) {
		if err := src.Save(ctx, batch...); err != nil {
			return err
		}
		log.Info("batch written", slog.Int("products", len(batch)))
	}

	log.Info("catalog seeded",
		slog.Int("products", len(products)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}
