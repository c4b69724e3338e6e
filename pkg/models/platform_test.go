package models

import (
	"encoding/json"
	"testing"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in   string
		want Platform
	}{
		{"blinkit", Blinkit},
		{"Zepto", Zepto},
		{" DMART ", DMart},
		{"instamart", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := ParsePlatform(tt.in); got != tt.want {
			t.Errorf("ParsePlatform(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMetaFor_UnknownFallsBackToGeneric(t *testing.T) {
	m := MetaFor("Instamart")
	if m.Name != "Instamart" {
		t.Errorf("expected raw key as display name, got %q", m.Name)
	}
	if m.Color != "bg-gray-500" {
		t.Errorf("expected generic color, got %q", m.Color)
	}
	if m.Logo != "" {
		t.Errorf("expected no logo, got %q", m.Logo)
	}

	if got := MetaFor("DMart").Name; got != "DMart" {
		t.Errorf("expected DMart, got %q", got)
	}
}

func TestOffer_InStockDefaultsToTrue(t *testing.T) {
	var offers []Offer
	body := `[{"platform":"zepto","price":"₹58"},{"platform":"dmart","price":"₹60","in_stock":false}]`
	if err := json.Unmarshal([]byte(body), &offers); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !offers[0].InStock {
		t.Error("expected missing in_stock to default to true")
	}
	if offers[1].InStock {
		t.Error("expected explicit in_stock=false to be kept")
	}
	if offers[0].Kind() != Zepto {
		t.Errorf("expected zepto kind, got %v", offers[0].Kind())
	}
}
