package query

import (
	"fmt"
	"strings"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// colorFamilyTokens maps a family to the substrings that identify it in a
// color name. Families missing here match their own token literally.
var colorFamilyTokens = map[string][]string{
	"green":   {"green", "sage"},
	"gray":    {"gray", "grey", "charcoal"},
	"neutral": {"cream", "white", "beige"},
}

// FamilyTokens returns the color-name substrings for a family token.
func FamilyTokens(family string) []string {
	if tokens, ok := colorFamilyTokens[family]; ok {
		return tokens
	}
	return []string{family}
}

// InFamily reports whether any color of p belongs to family.
func InFamily(p *domain.Product, family string) bool {
	tokens := FamilyTokens(family)
	for i := range p.Colors {
		name := strings.ToLower(p.Colors[i].Name)
		for _, tok := range tokens {
			if strings.Contains(name, tok) {
				return true
			}
		}
	}
	return false
}

// NormalizeFeature lower-cases a feature and folds hyphens and runs of
// whitespace into single spaces, so "Stain-Resistant" equals "stain resistant".
func NormalizeFeature(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(strings.ToLower(s), "-", " ")), " ")
}

// Filter returns the products satisfying every populated dimension of f, in
// input order.
func Filter(products []domain.Product, f domain.SearchFilters) []domain.Product {
	preds := f.Predicates()
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if MatchesAll(&products[i], preds) {
			out = append(out, products[i])
		}
	}
	return out
}

// MatchesAll reports whether p satisfies all predicates.
func MatchesAll(p *domain.Product, preds []domain.Predicate) bool {
	for _, pred := range preds {
		if !Evaluate(p, pred) {
			return false
		}
	}
	return true
}

// Evaluate applies one predicate to p. A set predicate with no values passes.
func Evaluate(p *domain.Product, pred domain.Predicate) bool {
	switch pr := pred.(type) {
	case domain.SetPredicate:
		if len(pr.Values) == 0 {
			return true
		}
		return evaluateSet(p, pr)
	case domain.RangePredicate:
		return pr.Range.Contains(p.BasePrice)
	case domain.ThresholdPredicate:
		return p.Rating >= pr.Min
	case domain.FlagPredicate:
		return p.InStock
	default:
		panic(fmt.Sprintf("query: unhandled predicate %T", pred))
	}
}

func evaluateSet(p *domain.Product, pr domain.SetPredicate) bool {
	switch pr.Dim {
	case domain.DimCategories, domain.DimRoomTypes:
		return pr.Values.Contains(strings.ToLower(p.Category))
	case domain.DimBrands:
		return pr.Values.Contains(strings.ToLower(p.Brand))
	case domain.DimFinishTypes:
		for i := range p.Finishes {
			if pr.Values.Contains(strings.ToLower(p.Finishes[i].Name)) {
				return true
			}
		}
		return false
	case domain.DimColorFamilies:
		for _, family := range pr.Values {
			if InFamily(p, family) {
				return true
			}
		}
		return false
	case domain.DimFeatures:
		for _, feature := range p.Features {
			have := NormalizeFeature(feature)
			for _, want := range pr.Values {
				if strings.Contains(have, NormalizeFeature(want)) {
					return true
				}
			}
		}
		return false
	default:
		panic(fmt.Sprintf("query: unhandled set dimension %q", pr.Dim))
	}
}
