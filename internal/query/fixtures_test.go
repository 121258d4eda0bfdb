package query

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type productOpt func(*domain.Product)

func withColors(names ...string) productOpt {
	return func(p *domain.Product) {
		p.Colors = nil
		for i, n := range names {
			p.Colors = append(p.Colors, domain.Color{ID: fmt.Sprintf("%s-c%d", p.ID, i), Name: n, Image: "/img/" + n + ".png"})
		}
	}
}

func withFinishes(names ...string) productOpt {
	return func(p *domain.Product) {
		p.Finishes = nil
		for i, n := range names {
			p.Finishes = append(p.Finishes, domain.Finish{ID: fmt.Sprintf("%s-f%d", p.ID, i), Name: n})
		}
	}
}

func newProduct(id, name string, basePrice int64, opts ...productOpt) domain.Product {
	p := domain.Product{
		ID:        id,
		Name:      name,
		Brand:     "Everlast",
		Category:  "Interior",
		BasePrice: price(basePrice),
		InStock:   true,
		Rating:    4,
		Colors:    []domain.Color{{ID: id + "-c0", Name: "Ocean Blue"}},
		Finishes:  []domain.Finish{{ID: id + "-f0", Name: "Matte"}},
	}
	for _, o := range opts {
		o(&p)
	}
	return p
}

// paintCatalog is a small mixed catalog used across the property tests.
func paintCatalog() []domain.Product {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Product{
		newProduct("p1", "Everlast Interior", 45, withColors("Sage Whisper", "Warm Cream"), withFinishes("Eggshell", "Satin"),
			func(p *domain.Product) {
				p.Features = []string{"Stain Resistant", "Low-VOC"}
				p.Rating, p.ReviewCount, p.CreatedAt = 4.6, 120, base
			}),
		newProduct("p2", "Coastline Exterior", 68, withColors("Harbor Gray", "Navy"), withFinishes("Satin", "Semi-Gloss"),
			func(p *domain.Product) {
				p.Brand, p.Category = "Coastline", "Exterior"
				p.Features = []string{"Mildew-Resistant", "UV Protection"}
				p.Rating, p.ReviewCount, p.CreatedAt = 4.2, 300, base.AddDate(0, 1, 0)
			}),
		newProduct("p3", "Studio Trim Enamel", 32, withColors("Bright White", "Charcoal"), withFinishes("Gloss"),
			func(p *domain.Product) {
				p.Brand, p.Category = "Studio", "Trim"
				p.InStock = false
				p.Features = []string{"Scrub Resistant"}
				p.Rating, p.ReviewCount = 3.8, 45
			}),
		newProduct("p4", "Everlast Kitchen & Bath", 52, withColors("Fern Green", "Beige Linen"), withFinishes("Satin"),
			func(p *domain.Product) {
				p.Category = "Kitchen"
				p.Features = []string{"Moisture Resistant", "Stain-Resistant"}
				p.Rating, p.ReviewCount, p.CreatedAt = 4.8, 80, base.AddDate(0, 2, 0)
			}),
		newProduct("p5", "Nursery Soft Touch", 58, withColors("Blush Pink"), withFinishes("Matte", "Eggshell"),
			func(p *domain.Product) {
				p.Brand, p.Category = "Studio", "Interior"
				p.Features = []string{"Zero VOC"}
				p.Rating, p.ReviewCount = 4.6, 12
			}),
	}
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i := range products {
		out[i] = products[i].ID
	}
	return out
}
