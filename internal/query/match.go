// Package query holds the pure catalog query pipeline: text matching, filter
// evaluation, sorting, pagination, facets and suggestions. Every function
// treats its input slice as read-only and returns fresh slices.
package query

import (
	"strings"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// NormalizeQuery lower-cases and trims a free-text query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// MatchesText reports whether the normalized query q occurs in the product's
// name, description, brand, category, any color name or any feature. An empty
// q matches everything.
func MatchesText(p *domain.Product, q string) bool {
	if q == "" {
		return true
	}
	if containsFold(p.Name, q) || containsFold(p.Description, q) ||
		containsFold(p.Brand, q) || containsFold(p.Category, q) {
		return true
	}
	for i := range p.Colors {
		if containsFold(p.Colors[i].Name, q) {
			return true
		}
	}
	for _, f := range p.Features {
		if containsFold(f, q) {
			return true
		}
	}
	return false
}

// MatchText returns the products matching the free-text query, in input order.
func MatchText(products []domain.Product, q string) []domain.Product {
	q = NormalizeQuery(q)
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if MatchesText(&products[i], q) {
			out = append(out, products[i])
		}
	}
	return out
}

// containsFold reports whether the lower-cased needle occurs in s.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
