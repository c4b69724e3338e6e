// Package compare decides which offers to highlight, which products to show
// and how to print platform ETAs. Everything here is a pure function over an
// already fetched search result.
package compare

import (
	"regexp"
	"strconv"
	"strings"

	"quick-compare/pkg/models"
)

var leadingNumber = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)

// ParsePrice turns a formatted price such as "₹1,234.50" into a number.
// Every rune that is not a digit or a dot is dropped and the longest numeric
// prefix of the remainder is parsed, so "1.2.3" reads as 1.2. Anything that
// does not parse yields 0.
func ParsePrice(s string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)

	m := leadingNumber.FindString(cleaned)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// CheapestPrice returns the smallest strictly positive price among offers,
// or 0 when no offer carries a usable price.
func CheapestPrice(offers []models.Offer) float64 {
	var cheapest float64
	for _, o := range offers {
		v := ParsePrice(o.Price)
		if v <= 0 {
			continue
		}
		if cheapest == 0 || v < cheapest {
			cheapest = v
		}
	}
	return cheapest
}

// IsCheapest reports whether the offer sits at the cheapest price. Several
// offers can tie.
//
// The comparison is exact float equality with no epsilon. Both sides come out
// of ParsePrice on the same kind of string so they match bit for bit; if the
// backend ever starts sending prices in differing formats (say "58" and
// "58.00000001") ties will be missed.
func IsCheapest(o models.Offer, cheapest float64) bool {
	v := ParsePrice(o.Price)
	return v > 0 && v == cheapest
}
