// Package merge groups listings from different platforms that describe the
// same item into products.
package merge

import (
	"log"
	"math/rand"
	"strings"
	"time"

	"quick-compare/pkg/models"
)

const (
	DefaultThreshold = 75
	strongMatch      = 90
	qtyTolerance     = 0.15
)

type Merger struct {
	Threshold int
	Debug     bool
	rng       *rand.Rand
}

func NewMerger() *Merger {
	return &Merger{
		Threshold: DefaultThreshold,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand fixes the shuffle order of single-platform products.
func (m *Merger) WithRand(rng *rand.Rand) *Merger {
	m.rng = rng
	return m
}

type group struct {
	product models.Product
	seen    map[string]bool
	cleaned string
	brand   string
	qty     string
}

// Merge folds listings into products. A listing joins the first product that
// does not already carry its platform and either scores above the threshold
// with matching brand and size, or scores at least 90 with a matching brand.
// Products found on several platforms come first in discovery order,
// followed by single-platform products in random order.
func (m *Merger) Merge(listings []models.Listing) []models.Product {
	var groups []*group

	for _, l := range listings {
		name := strings.TrimSpace(l.Name)
		if name == "" || strings.EqualFold(name, "n/a") {
			continue
		}

		cleaned := CleanName(name)
		brand := Brand(name)
		qty := NormalizeQuantity(l.Quantity)
		platform := strings.ToLower(l.Platform)

		if g := m.match(groups, platform, cleaned, brand, qty); g != nil {
			g.product.Platforms = append(g.product.Platforms, models.OfferFromListing(l))
			g.seen[platform] = true
			continue
		}

		groups = append(groups, &group{
			product: models.Product{
				Name:      name,
				Quantity:  orNA(l.Quantity),
				ImageURL:  l.ImageURL,
				Platforms: []models.Offer{models.OfferFromListing(l)},
			},
			seen:    map[string]bool{platform: true},
			cleaned: cleaned,
			brand:   brand,
			qty:     NormalizeQuantity(orNA(l.Quantity)),
		})
	}

	var multi, single []models.Product
	for _, g := range groups {
		if len(g.product.Platforms) > 1 {
			multi = append(multi, g.product)
		} else {
			single = append(single, g.product)
		}
	}

	m.rng.Shuffle(len(single), func(i, j int) {
		single[i], single[j] = single[j], single[i]
	})

	return append(multi, single...)
}

func (m *Merger) match(groups []*group, platform, cleaned, brand, qty string) *group {
	for _, g := range groups {
		if g.seen[platform] {
			continue
		}

		score := TokenSortRatio(cleaned, g.cleaned)
		qtyMatch := qty == g.qty || QuantitiesClose(qty, g.qty, qtyTolerance)
		brandMatch := brand == g.brand

		if m.Debug {
			log.Printf("[MERGE] %q vs %q score=%d qty=%s/%s qty_match=%v brand_match=%v",
				cleaned, g.cleaned, score, qty, g.qty, qtyMatch, brandMatch)
		}

		if (score >= m.Threshold && qtyMatch && brandMatch) || (score >= strongMatch && brandMatch) {
			return g
		}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
