package compare

import (
	"testing"

	"quick-compare/pkg/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"₹120", 120},
		{"₹1,234.50", 1234.5},
		{"₹ 58", 58},
		{"₹0", 0},
		{"N/A", 0},
		{"", 0},
		{"1.2.3", 1.2},
	}

	for _, tt := range tests {
		if got := ParsePrice(tt.in); got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func milk() models.Product {
	return models.Product{
		Name: "Milk",
		Platforms: []models.Offer{
			{Platform: "blinkit", Price: "₹60", InStock: true},
			{Platform: "zepto", Price: "₹58", InStock: true},
			{Platform: "dmart", Price: "₹0", InStock: true},
		},
	}
}

func TestCheapestPrice(t *testing.T) {
	tests := []struct {
		name   string
		offers []models.Offer
		want   float64
	}{
		{"milk example", milk().Platforms, 58},
		{"nil offers", nil, 0},
		{"no valid price", []models.Offer{{Price: "N/A"}, {Price: "₹0"}, {Price: ""}}, 0},
		{"single valid", []models.Offer{{Price: "N/A"}, {Price: "₹99.50"}}, 99.5},
		{"tie", []models.Offer{{Price: "₹40"}, {Price: "₹40"}, {Price: "₹45"}}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheapestPrice(tt.offers); got != tt.want {
				t.Errorf("CheapestPrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCheapest_MilkExample(t *testing.T) {
	p := milk()
	cheapest := CheapestPrice(p.Platforms)

	want := map[string]bool{"blinkit": false, "zepto": true, "dmart": false}
	for _, o := range p.Platforms {
		if got := IsCheapest(o, cheapest); got != want[o.Platform] {
			t.Errorf("IsCheapest(%s) = %v, want %v", o.Platform, got, want[o.Platform])
		}
	}
}

func TestIsCheapest_TiesAllMarked(t *testing.T) {
	offers := []models.Offer{
		{Platform: "blinkit", Price: "₹40"},
		{Platform: "zepto", Price: "₹40.00"},
		{Platform: "dmart", Price: "₹41"},
	}
	cheapest := CheapestPrice(offers)

	marked := 0
	for _, o := range offers {
		if IsCheapest(o, cheapest) {
			marked++
		}
	}
	if marked != 2 {
		t.Errorf("expected both tied offers marked, got %d", marked)
	}
}

func TestIsCheapest_NoValidPriceMarksNothing(t *testing.T) {
	offers := []models.Offer{{Price: "₹0"}, {Price: "N/A"}}
	cheapest := CheapestPrice(offers)
	for _, o := range offers {
		if IsCheapest(o, cheapest) {
			t.Errorf("offer %q must not be cheapest when no price is valid", o.Price)
		}
	}
}
