package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/PaintCatalog/pkg/slug"
)

// Color is a purchasable color variant of a paint product.
type Color struct {
	ID      string `json:"id" validate:"omitempty,max=128"`
	Name    string `json:"name" validate:"required"`
	Hex     string `json:"hex" validate:"omitempty,hexcolor"`
	RGB     string `json:"rgb,omitempty"`
	InStock bool   `json:"in_stock"`
	Image   string `json:"image,omitempty"`
}

// Finish is a sheen variant. Price is an additive surcharge on the base price.
type Finish struct {
	ID          string          `json:"id" validate:"omitempty,max=128"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Sheen       string          `json:"sheen,omitempty"`
	Coverage    string          `json:"coverage,omitempty"`
}

// Product is the catalog's unit of sale.
type Product struct {
	ID          string          `json:"id" validate:"required,max=128"`
	Name        string          `json:"name" validate:"required,max=256"`
	Brand       string          `json:"brand" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"gte=0"`
	InStock     bool            `json:"in_stock"`
	Rating      float64         `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int             `json:"review_count" validate:"gte=0"`
	Colors      []Color         `json:"colors" validate:"min=1,dive"`
	Finishes    []Finish        `json:"finishes" validate:"min=1,dive"`
	Features    []string        `json:"features"`
	Coverage    string          `json:"coverage,omitempty"`
	DryTime     string          `json:"dry_time,omitempty"`
	Application []string        `json:"application"`
	CreatedAt   time.Time       `json:"created_at"`
	Likes       int             `json:"likes"`
}

// Domain errors.
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Validate checks the invariants the query pipeline relies on.
func (p *Product) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	case p.Name == "":
		return fmt.Errorf("%w: product %s: name is required", ErrInvalidProduct, p.ID)
	case p.BasePrice.IsNegative():
		return fmt.Errorf("%w: product %s: base price must not be negative", ErrInvalidProduct, p.ID)
	case p.Rating < 0 || p.Rating > 5:
		return fmt.Errorf("%w: product %s: rating must be within 0-5", ErrInvalidProduct, p.ID)
	case p.ReviewCount < 0:
		return fmt.Errorf("%w: product %s: review count must not be negative", ErrInvalidProduct, p.ID)
	case len(p.Colors) == 0:
		return fmt.Errorf("%w: product %s: at least one color is required", ErrInvalidProduct, p.ID)
	case len(p.Finishes) == 0:
		return fmt.Errorf("%w: product %s: at least one finish is required", ErrInvalidProduct, p.ID)
	}

	seen := make(map[string]struct{}, len(p.Colors))
	for _, c := range p.Colors {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: product %s: duplicate color id %q", ErrInvalidProduct, p.ID, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	for _, f := range p.Finishes {
		if f.Price.IsNegative() {
			return fmt.Errorf("%w: product %s: finish %s surcharge must not be negative", ErrInvalidProduct, p.ID, f.ID)
		}
	}
	return nil
}

// DefaultColor returns the first color. Callers must have validated p.
func (p *Product) DefaultColor() Color {
	return p.Colors[0]
}

// DefaultFinish returns the first finish. Callers must have validated p.
func (p *Product) DefaultFinish() Finish {
	return p.Finishes[0]
}

// PriceWith returns the base price plus the surcharge of the finish with the
// given id, or the base price when no such finish exists.
func (p *Product) PriceWith(finishID string) decimal.Decimal {
	for _, f := range p.Finishes {
		if f.ID == finishID {
			return p.BasePrice.Add(f.Price)
		}
	}
	return p.BasePrice
}

// Normalize fills nil slices so JSON output is stable and derives missing
// color and finish ids from their names.
func (p *Product) Normalize() {
	for i := range p.Colors {
		if p.Colors[i].ID == "" {
			p.Colors[i].ID = slug.Generate(p.Colors[i].Name)
		}
	}
	for i := range p.Finishes {
		if p.Finishes[i].ID == "" {
			p.Finishes[i].ID = slug.Generate(p.Finishes[i].Name)
		}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Application == nil {
		p.Application = []string{}
	}
}
