package query

import (
	"strconv"
	"strings"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

// Suggestion limits per source and overall.
const (
	MaxRecentSuggestions   = 3
	MaxProductSuggestions  = 5
	MaxColorSuggestions    = 3
	MaxBrandSuggestions    = 3
	MaxCategorySuggestions = 3
	MaxSuggestions         = 10
)

// SuggestInput carries everything the suggestion generator reads.
// ProductMatches, when non-nil, replaces the catalog scan for product
// suggestions; engines that can search by name supply it.
type SuggestInput struct {
	Partial        string
	History        []string
	Catalog        []domain.Product
	ProductMatches []domain.Product
}

// Suggest assembles typed suggestions in priority order: recent searches,
// products, colors, brands, categories. The result is capped at
// MaxSuggestions and is not de-duplicated across types. A blank partial
// query yields an empty list.
func Suggest(in SuggestInput) []domain.Suggestion {
	q := NormalizeQuery(in.Partial)
	out := make([]domain.Suggestion, 0, MaxSuggestions)
	if q == "" {
		return out
	}

	for i, h := range in.History {
		if len(out) >= MaxRecentSuggestions {
			break
		}
		if strings.Contains(strings.ToLower(h), q) {
			out = append(out, domain.Suggestion{ID: "recent-" + strconv.Itoa(i), Text: h, Type: domain.SuggestionRecent})
		}
	}

	out = append(out, productSuggestions(in, q)...)
	out = append(out, colorSuggestions(in.Catalog, q)...)
	out = append(out, groupSuggestions(in.Catalog, q, domain.SuggestionBrand, MaxBrandSuggestions,
		func(p *domain.Product) string { return p.Brand })...)
	out = append(out, groupSuggestions(in.Catalog, q, domain.SuggestionCategory, MaxCategorySuggestions,
		func(p *domain.Product) string { return p.Category })...)

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func productSuggestions(in SuggestInput, q string) []domain.Suggestion {
	candidates := in.ProductMatches
	prefiltered := candidates != nil
	if !prefiltered {
		candidates = in.Catalog
	}

	var out []domain.Suggestion
	for i := range candidates {
		if len(out) >= MaxProductSuggestions {
			break
		}
		p := &candidates[i]
		if !prefiltered && !containsFold(p.Name, q) && !containsFold(p.Description, q) {
			continue
		}
		s := domain.Suggestion{ID: "product-" + p.ID, Text: p.Name, Type: domain.SuggestionProduct}
		if len(p.Colors) > 0 {
			s.Image = p.DefaultColor().Image
		}
		out = append(out, s)
	}
	return out
}

func colorSuggestions(catalog []domain.Product, q string) []domain.Suggestion {
	seen := map[string]struct{}{}
	var out []domain.Suggestion
	for i := range catalog {
		for _, c := range catalog[i].Colors {
			if len(out) >= MaxColorSuggestions {
				return out
			}
			key := strings.ToLower(c.Name)
			if _, dup := seen[key]; dup || !strings.Contains(key, q) {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.Suggestion{ID: "color-" + key, Text: c.Name, Type: domain.SuggestionColor, Image: c.Image})
		}
	}
	return out
}

// groupSuggestions proposes distinct values of field that contain q, each
// carrying the number of catalog products sharing that value.
func groupSuggestions(catalog []domain.Product, q string, typ domain.SuggestionType, limit int,
	field func(*domain.Product) string) []domain.Suggestion {
	counts := map[string]int{}
	for i := range catalog {
		counts[strings.ToLower(field(&catalog[i]))]++
	}

	seen := map[string]struct{}{}
	var out []domain.Suggestion
	for i := range catalog {
		if len(out) >= limit {
			break
		}
		value := field(&catalog[i])
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup || key == "" || !strings.Contains(key, q) {
			continue
		}
		seen[key] = struct{}{}
		n := counts[key]
		out = append(out, domain.Suggestion{ID: string(typ) + "-" + key, Text: value, Type: typ, Count: &n})
	}
	return out
}
