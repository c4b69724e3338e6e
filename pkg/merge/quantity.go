package merge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	multiPack  = regexp.MustCompile(`^(\d+)\s*x\s*(\d+(?:\.\d+)?)\s*(ml|litre|liter|l|kg|g)`)
	singleUnit = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(ml|litre|liter|l|kg|g)`)
	normalQty  = regexp.MustCompile(`^(\d+)(ml|g)`)
)

// NormalizeQuantity rewrites a pack size into millilitres or grams:
// "2 x 500 ml" becomes "1000ml", "(1 L)" and "1 litre" become "1000ml",
// "1 kg" becomes "1000g". Sizes without a known unit are lower-cased with
// spaces removed.
func NormalizeQuantity(qty string) string {
	qty = strings.ToLower(strings.TrimSpace(qty))
	if qty == "" {
		return ""
	}

	if m := multiPack.FindStringSubmatch(qty); m != nil {
		count, _ := strconv.ParseFloat(m[1], 64)
		value, _ := strconv.ParseFloat(m[2], 64)
		return toBase(count*value, m[3])
	}

	if m := singleUnit.FindStringSubmatch(qty); m != nil {
		value, _ := strconv.ParseFloat(m[1], 64)
		return toBase(value, m[2])
	}

	return strings.ReplaceAll(qty, " ", "")
}

func toBase(total float64, unit string) string {
	switch {
	case strings.HasPrefix(unit, "l"):
		total *= 1000
		unit = "ml"
	case strings.HasPrefix(unit, "k"):
		total *= 1000
		unit = "g"
	}
	return fmt.Sprintf("%d%s", int(total), unit)
}

// QuantitiesClose reports whether two normalized sizes share a unit and are
// within tolerance of each other, relative to the larger one.
func QuantitiesClose(a, b string, tolerance float64) bool {
	ma, mb := normalQty.FindStringSubmatch(a), normalQty.FindStringSubmatch(b)
	if ma == nil || mb == nil || ma[2] != mb[2] {
		return false
	}
	va, _ := strconv.Atoi(ma[1])
	vb, _ := strconv.Atoi(mb[1])

	diff := va - vb
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= tolerance*float64(max(va, vb))
}
