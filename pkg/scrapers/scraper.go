// Package scrapers defines how platform search results are fetched. Each
// platform lives in its own subpackage.
package scrapers

import (
	"context"
	"regexp"

	"quick-compare/pkg/models"
)

// Scraper searches one platform.
type Scraper interface {
	Platform() models.Platform
	Search(ctx context.Context, query string, loc models.Location) ([]models.Listing, error)
}

// Registry holds the scrapers in display order.
type Registry struct {
	scrapers []Scraper
}

func NewRegistry(scrapers ...Scraper) *Registry {
	return &Registry{scrapers: scrapers}
}

func (r *Registry) All() []Scraper {
	return r.scrapers
}

var rupees = regexp.MustCompile(`₹\s*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`)

// CleanPrice pulls the first rupee amount out of s, e.g. "MRP ₹ 1,299 ₹999"
// gives "₹1,299". Text without one gives "N/A".
func CleanPrice(s string) string {
	m := rupees.FindStringSubmatch(s)
	if m == nil {
		return "N/A"
	}
	return "₹" + m[1]
}
