package compare

import (
	"strings"

	"quick-compare/pkg/models"
)

// AllPlatforms is the selector that disables platform filtering.
const AllPlatforms = "all"

// FilterByPlatform keeps the products that have at least one offer on the
// selected platform, in their original order. AllPlatforms returns products
// as is.
func FilterByPlatform(products []models.Product, selector string) []models.Product {
	selector = strings.ToLower(strings.TrimSpace(selector))
	if selector == AllPlatforms {
		return products
	}

	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.HasPlatform(selector) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// ValidSelector reports whether s is AllPlatforms or a known platform key.
func ValidSelector(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == AllPlatforms || models.ParsePlatform(s) != models.Unknown
}
