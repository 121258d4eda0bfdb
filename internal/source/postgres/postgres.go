// Package postgres keeps the catalog in a PostgreSQL products table.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/pkg/database"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

var timeNow = func() time.Time { return time.Now().UTC() }

// DB is the subset of *pgxpool.Pool the source uses. pgxmock pools satisfy it.
type DB interface {
	database.MigrationDB
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const loadQuery = `
	SELECT id, name, brand, category, description, base_price::text, in_stock, rating, review_count,
	       colors, finishes, features, coverage, dry_time, application, created_at, likes
	FROM products
	ORDER BY position`

const upsertQuery = `
	INSERT INTO products (id, name, brand, category, description, base_price, in_stock, rating, review_count,
	                      colors, finishes, features, coverage, dry_time, application, created_at, likes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		brand = EXCLUDED.brand,
		category = EXCLUDED.category,
		description = EXCLUDED.description,
		base_price = EXCLUDED.base_price,
		in_stock = EXCLUDED.in_stock,
		rating = EXCLUDED.rating,
		review_count = EXCLUDED.review_count,
		colors = EXCLUDED.colors,
		finishes = EXCLUDED.finishes,
		features = EXCLUDED.features,
		coverage = EXCLUDED.coverage,
		dry_time = EXCLUDED.dry_time,
		application = EXCLUDED.application,
		likes = EXCLUDED.likes,
		updated_at = NOW()`

const deleteQuery = `DELETE FROM products WHERE id = $1`

// Source loads and persists products in PostgreSQL.
type Source struct {
	db     DB
	tracer *database.QueryTracer
	logger *slog.Logger
}

// New creates a PostgreSQL-backed catalog source.
func New(db DB, tracer *database.QueryTracer, logger *slog.Logger) *Source {
	if tracer == nil {
		tracer = database.NewQueryTracer("postgresql", 0, logger)
	}
	return &Source{db: db, tracer: tracer, logger: logger}
}

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("postgres: embedded migrations: %v", err))
	}
	return sub
}

// Migrate applies pending schema migrations.
func (s *Source) Migrate(ctx context.Context) error {
	if err := database.RunMigrations(ctx, s.db, Migrations(), s.logger); err != nil {
		return fmt.Errorf("migrate catalog schema: %w", err)
	}
	return nil
}

// Load reads every product in catalog order.
func (s *Source) Load(ctx context.Context) (products []domain.Product, err error) {
	ctx, end := s.tracer.Trace(ctx, "LoadProducts", loadQuery)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, loadQuery)
	if err != nil {
		return nil, fmt.Errorf("load products: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load products: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p        domain.Product
		price    string
		colors   []byte
		finishes []byte
		features []byte
		apps     []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &p.Description, &price, &p.InStock, &p.Rating, &p.ReviewCount,
		&colors, &finishes, &features, &p.Coverage, &p.DryTime, &apps, &p.CreatedAt, &p.Likes,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}

	if p.BasePrice, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("product %s: parse base price: %w", p.ID, err)
	}
	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"colors", colors, &p.Colors},
		{"finishes", finishes, &p.Finishes},
		{"features", features, &p.Features},
		{"application", apps, &p.Application},
	} {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return domain.Product{}, fmt.Errorf("product %s: decode %s: %w", p.ID, col.name, err)
		}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// Save upserts products in one transaction. Existing rows keep their
// position in catalog order.
func (s *Source) Save(ctx context.Context, products ...domain.Product) (err error) {
	if len(products) == 0 {
		return nil
	}
	ctx, end := s.tracer.Trace(ctx, "SaveProducts", upsertQuery)
	defer func() { end(err) }()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save products: begin tx: %w", err)
	}

	for i := range products {
		args, err := upsertArgs(&products[i])
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("save products: %w", err)
		}
		if _, err := tx.Exec(ctx, upsertQuery, args...); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("save product %s: %w", products[i].ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save products: commit: %w", err)
	}
	return nil
}

func upsertArgs(p *domain.Product) ([]any, error) {
	p.Normalize()
	encoded := make([][]byte, 0, 4)
	for _, v := range []any{p.Colors, p.Finishes, p.Features, p.Application} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("product %s: encode variants: %w", p.ID, err)
		}
		encoded = append(encoded, b)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}
	return []any{
		p.ID, p.Name, p.Brand, p.Category, p.Description, p.BasePrice.String(), p.InStock, p.Rating, p.ReviewCount,
		encoded[0], encoded[1], encoded[2], p.Coverage, p.DryTime, encoded[3], createdAt, p.Likes,
	}, nil
}

// Delete removes a product. Deleting a missing product reports
// domain.ErrProductNotFound.
func (s *Source) Delete(ctx context.Context, id string) (err error) {
	ctx, end := s.tracer.Trace(ctx, "DeleteProduct", deleteQuery)
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete product %s: %w", id, domain.ErrProductNotFound)
	}
	return nil
}

// Ping checks the connection for readiness probes.
func (s *Source) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping catalog database: %w", err)
	}
	return nil
}
