// Package synthetic generates large deterministic paint catalogs for load
// testing and database seeding.
package synthetic

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/PaintCatalog/internal/domain"
	"github.com/utafrali/PaintCatalog/pkg/slug"
)

var brands = []string{
	"Benjamin Moore", "Sherwin-Williams", "Behr", "Valspar", "PPG",
	"Farrow & Ball", "Clare", "Kilz", "Rust-Oleum", "Dunn-Edwards",
}

var lines = []string{"Regal", "Aura", "Emerald", "Duration", "Ultra", "Premium Plus", "Signature", "Diamond", "Estate", "Cashmere"}

var categories = []struct {
	name    string
	product string
}{
	{"Living Room", "Interior Paint"},
	{"Bedroom", "Interior Paint"},
	{"Kitchen", "Kitchen & Bath Paint"},
	{"Bathroom", "Kitchen & Bath Paint"},
	{"Exterior", "Exterior Paint"},
	{"Trim", "Trim Enamel"},
	{"Ceiling", "Ceiling Paint"},
	{"Basement", "Masonry Sealer"},
	{"Furniture", "Chalk Paint"},
	{"Kids Room", "Zero-VOC Paint"},
}

var palette = []struct {
	name string
	hex  string
}{
	{"Sage Whisper", "#A3B18A"}, {"Hale Navy", "#2E3A4B"}, {"Sea Salt", "#CDD2CA"},
	{"Cracked Pepper", "#4F4F4D"}, {"Aqua Spa", "#8FC1C3"}, {"Chantilly Lace", "#F5F1E6"},
	{"Swiss Coffee", "#EEE9DD"}, {"Agreeable Gray", "#D1CBC1"}, {"Naval", "#2F3D4C"},
	{"Caliente", "#AF3A34"}, {"Evergreen Fog", "#95978A"}, {"Marigold", "#E8A33D"},
	{"Blush Pink", "#E9C4C0"}, {"Oxford Gray", "#6D6E70"}, {"Lemon Sorbet", "#F3E7A5"},
}

var finishes = []struct {
	name      string
	surcharge int64
}{
	{"Flat", 0}, {"Matte", 0}, {"Eggshell", 2}, {"Satin", 3}, {"Semi-Gloss", 4}, {"High Gloss", 6},
}

var features = []string{"Low VOC", "Zero VOC", "Scrubbable", "Mildew Resistant", "One Coat", "Stain Blocking", "Paint & Primer", "Fade Resistant"}

// Generate returns n valid products. The same seed always yields the same
// catalog, so repeated seeding upserts rather than duplicates.
func Generate(n int, seed uint64) []domain.Product {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	out := make([]domain.Product, 0, n)
	for i := range n {
		brand := brands[i%len(brands)]
		line := lines[rng.IntN(len(lines))]
		cat := categories[rng.IntN(len(categories))]

		p := domain.Product{
			ID:          fmt.Sprintf("synthetic-%06d", i),
			Name:        fmt.Sprintf("%s %s", line, cat.product),
			Brand:       brand,
			Category:    cat.name,
			Description: fmt.Sprintf("%s %s for the %s by %s.", line, strings.ToLower(cat.product), strings.ToLower(cat.name), brand),
			BasePrice:   decimal.New(int64(1999+rng.IntN(10000)), -2),
			InStock:     rng.IntN(10) > 0,
			Rating:      float64(30+rng.IntN(21)) / 10,
			ReviewCount: rng.IntN(2500),
			Coverage:    fmt.Sprintf("%d-%d sq ft/gal", 250+25*rng.IntN(4), 350+25*rng.IntN(4)),
			DryTime:     fmt.Sprintf("%d hour", 1+rng.IntN(4)),
			Application: []string{"Brush", "Roller"},
			CreatedAt:   epoch.Add(time.Duration(rng.IntN(365*24)) * time.Hour),
			Likes:       rng.IntN(200),
		}

		for _, c := range pick(rng, len(palette), 1+rng.IntN(4)) {
			p.Colors = append(p.Colors, domain.Color{
				ID:      fmt.Sprintf("%s-%s", p.ID, slug.Generate(palette[c].name)),
				Name:    palette[c].name,
				Hex:     palette[c].hex,
				InStock: rng.IntN(8) > 0,
			})
		}
		for _, f := range pick(rng, len(finishes), 1+rng.IntN(3)) {
			p.Finishes = append(p.Finishes, domain.Finish{
				ID:    slug.Generate(finishes[f].name),
				Name:  finishes[f].name,
				Price: decimal.NewFromInt(finishes[f].surcharge),
			})
		}
		for _, f := range pick(rng, len(features), rng.IntN(4)) {
			p.Features = append(p.Features, features[f])
		}
		out = append(out, p)
	}
	return out
}

// pick returns k distinct indexes below n.
func pick(rng *rand.Rand, n, k int) []int {
	return rng.Perm(n)[:min(k, n)]
}
