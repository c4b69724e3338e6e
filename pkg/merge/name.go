package merge

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Packaging and marketing words that differ between platforms for the same
// item.
var noiseWords = []string{
	"fresh", "pouch", "pack", "pc", "combo", "robusta", "regular",
	"tetra", "homogenised", "homogenized", "standardised", "standardized",
	"long life", "farm", "tub", "cup", "stick", "cone", "bottle", "can",
	"jar", "box", "unit", "sachet", "carton",
}

// CleanName lower-cases a product name and strips packaging words.
func CleanName(name string) string {
	name = strings.ToLower(name)
	for _, w := range noiseWords {
		name = strings.ReplaceAll(name, w, "")
	}
	return strings.Join(strings.Fields(name), " ")
}

// Brand guesses the brand as the first word of the name.
func Brand(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// TokenSortRatio scores two names from 0 to 100 after sorting their words,
// so "toned milk amul" and "amul toned milk" score 100.
func TokenSortRatio(a, b string) int {
	sa, sb := sortTokens(a), sortTokens(b)
	longest := max(len([]rune(sa)), len([]rune(sb)))
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(sa, sb)
	return int(100*(1-float64(dist)/float64(longest)) + 0.5)
}

func sortTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
