package elasticsearch

import (
	"strings"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/internal/query"
)

// document is the indexed form of a product: the product itself plus the
// lower-cased keys the query DSL filters on. Position records catalog order
// and breaks every sort tie.
type document struct {
	domain.Product
	Position    int64    `json:"position"`
	SearchText  string   `json:"search_text"`
	NameLower   string   `json:"name_lower"`
	DescLower   string   `json:"description_lower"`
	BrandKey    string   `json:"brand_key"`
	CategoryKey string   `json:"category_key"`
	FinishKeys  []string `json:"finish_keys"`
	ColorNames  []string `json:"color_names_lower"`
	FeatureKeys []string `json:"feature_keys"`
}

func newDocument(p domain.Product, position int64) document {
	p.Normalize()
	doc := document{
		Product:     p,
		Position:    position,
		NameLower:   strings.ToLower(p.Name),
		DescLower:   strings.ToLower(p.Description),
		BrandKey:    strings.ToLower(p.Brand),
		CategoryKey: strings.ToLower(p.Category),
		FinishKeys:  make([]string, 0, len(p.Finishes)),
		ColorNames:  make([]string, 0, len(p.Colors)),
		FeatureKeys: make([]string, 0, len(p.Features)),
	}

	parts := []string{doc.NameLower, doc.DescLower, doc.BrandKey, doc.CategoryKey}
	for _, f := range p.Finishes {
		doc.FinishKeys = append(doc.FinishKeys, strings.ToLower(f.Name))
	}
	for _, c := range p.Colors {
		name := strings.ToLower(c.Name)
		doc.ColorNames = append(doc.ColorNames, name)
		parts = append(parts, name)
	}
	for _, f := range p.Features {
		doc.FeatureKeys = append(doc.FeatureKeys, query.NormalizeFeature(f))
		parts = append(parts, strings.ToLower(f))
	}
	// Newline separators keep single-line queries from matching across fields.
	doc.SearchText = strings.Join(parts, "\n")
	return doc
}
