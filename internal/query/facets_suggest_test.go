package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PaintCatalog/internal/domain"
)

func TestBuildFacets(t *testing.T) {
	idx := BuildFacets(paintCatalog())

	assert.Equal(t, 5, idx.TotalProducts)
	assert.Equal(t, []domain.FacetValue{{Value: "Coastline", Count: 1}, {Value: "Everlast", Count: 2}, {Value: "Studio", Count: 2}}, idx.Brands)
	assert.Equal(t, []domain.FacetValue{{Value: "Exterior", Count: 1}, {Value: "Interior", Count: 2}, {Value: "Kitchen", Count: 1}, {Value: "Trim", Count: 1}}, idx.Categories)
	assert.Equal(t, []domain.FacetValue{
		{Value: "Eggshell", Count: 2}, {Value: "Gloss", Count: 1}, {Value: "Matte", Count: 1}, {Value: "Satin", Count: 3}, {Value: "Semi-Gloss", Count: 1},
	}, idx.Finishes)
	assert.Equal(t, []domain.FacetValue{
		{Value: "green", Count: 2}, {Value: "gray", Count: 2}, {Value: "neutral", Count: 3}, {Value: "pink", Count: 1},
	}, idx.ColorFamilies)
	assert.True(t, idx.Price.Min.Equal(price(32)))
	assert.True(t, idx.Price.Max.Equal(price(68)))
}

func TestBuildFacets_FamilyCountsMatchFilter(t *testing.T) {
	catalog := paintCatalog()
	for _, fv := range BuildFacets(catalog).ColorFamilies {
		got := Filter(catalog, domain.SearchFilters{ColorFamilies: domain.NewStringSet(fv.Value)})
		assert.Len(t, got, fv.Count, fv.Value)
	}
}

func TestBuildFacets_EmptyCatalog(t *testing.T) {
	idx := BuildFacets(nil)
	assert.True(t, idx.Price.Min.IsZero())
	assert.True(t, idx.Price.Max.IsZero())
	assert.Empty(t, idx.Brands)
	assert.NotNil(t, idx.Brands)
	assert.Empty(t, idx.ColorFamilies)
}

func TestSuggest_EmptyQuery(t *testing.T) {
	got := Suggest(SuggestInput{Partial: "  ", History: []string{"sage"}, Catalog: paintCatalog()})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSuggest_PriorityOrder(t *testing.T) {
	got := Suggest(SuggestInput{
		Partial: "ever",
		History: []string{"everlast satin", "gray", "Everlast"},
		Catalog: paintCatalog(),
	})

	types := make([]domain.SuggestionType, len(got))
	for i, s := range got {
		types[i] = s.Type
	}
	assert.Equal(t, []domain.SuggestionType{
		domain.SuggestionRecent, domain.SuggestionRecent,
		domain.SuggestionProduct, domain.SuggestionProduct,
		domain.SuggestionBrand,
	}, types)

	assert.Equal(t, "everlast satin", got[0].Text)
	assert.Equal(t, "Everlast Interior", got[2].Text)
	assert.Equal(t, "/img/Sage Whisper.png", got[2].Image)
	require.NotNil(t, got[4].Count)
	assert.Equal(t, 2, *got[4].Count)
}

func TestSuggest_ColorsDistinctAndCapped(t *testing.T) {
	catalog := []domain.Product{
		newProduct("a", "A", 1, withColors("Sea Green", "Green Tea")),
		newProduct("b", "B", 1, withColors("sea green", "Forest Green", "Mint Green")),
	}
	got := Suggest(SuggestInput{Partial: "green", Catalog: catalog})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Sea Green", "Green Tea", "Forest Green"}, []string{got[0].Text, got[1].Text, got[2].Text})
	for _, s := range got {
		assert.Equal(t, domain.SuggestionColor, s.Type)
	}
}

func TestSuggest_TruncatedToTen(t *testing.T) {
	var catalog []domain.Product
	for _, c := range "abcdefgh" {
		id := string(c)
		catalog = append(catalog, newProduct(id, "Paint "+id, 1, withColors("Paint Color "+id), func(p *domain.Product) {
			p.Brand = "Paint Brand " + id
			p.Category = "Paint Room " + id
		}))
	}
	got := Suggest(SuggestInput{
		Partial: "paint",
		History: []string{"paint 1", "paint 2", "paint 3", "paint 4"},
		Catalog: catalog,
	})
	require.Len(t, got, MaxSuggestions)

	counts := map[domain.SuggestionType]int{}
	for _, s := range got {
		counts[s.Type]++
	}
	assert.Equal(t, 3, counts[domain.SuggestionRecent])
	assert.Equal(t, 5, counts[domain.SuggestionProduct])
	assert.Equal(t, 2, counts[domain.SuggestionColor])
}

func TestSuggest_NoCrossTypeDedup(t *testing.T) {
	got := Suggest(SuggestInput{Partial: "studio", History: []string{"Studio"}, Catalog: paintCatalog()})
	var texts []string
	for _, s := range got {
		texts = append(texts, string(s.Type)+":"+s.Text)
	}
	assert.Equal(t, []string{"recent:Studio", "product:Studio Trim Enamel", "brand:Studio"}, texts)
}

func TestSuggest_CategoryAndPrefilteredProducts(t *testing.T) {
	catalog := paintCatalog()
	got := Suggest(SuggestInput{
		Partial:        "kitchen",
		Catalog:        catalog,
		ProductMatches: []domain.Product{catalog[3]},
	})
	require.Len(t, got, 2)
	assert.Equal(t, domain.SuggestionProduct, got[0].Type)
	assert.Equal(t, "p4", got[0].ID[len("product-"):])
	assert.Equal(t, domain.SuggestionCategory, got[1].Type)
	assert.Equal(t, 1, *got[1].Count)
}
