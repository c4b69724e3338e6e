package zepto

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quick-compare/pkg/models"
)

const searchPage = `
<!DOCTYPE html>
<html>
<body>
    <header><span class="font-extrabold">&#8203;10 minutes</span></header>
    <a href="/pn/amul-taaza-toned-milk/pvid/abc123">
        <img src="https://cdn.zeptonow.com/amul.png" />
        <p class="_price_ljyvk_11">₹26</p>
        <div data-slot-id="ProductName"><span>Amul Taaza Toned Milk</span></div>
        <div data-slot-id="PackSize">500 ml</div>
    </a>
    <a href="/pn/amul-taaza-toned-milk/pvid/abc123">
        <div data-slot-id="ProductName"><span>Amul Taaza Toned Milk</span></div>
    </a>
    <a href="/pn/nandini-curd/pvid/def456">
        <div data-slot-id="ProductName"><span>Nandini Curd</span></div>
        <span>MRP ₹ 1,299 ₹999</span>
        <span>Out of Stock</span>
    </a>
    <a href="/pn/banner/pvid/zzz">Offers</a>
</body>
</html>
`

func TestScraper_Search(t *testing.T) {
	var gotLat string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Logf("Received request for: %s?%s", r.URL.Path, r.URL.RawQuery)
		gotLat = r.Header.Get("latitude")
		fmt.Fprint(w, searchPage+"\n")
	}))
	defer ts.Close()

	scraper := NewScraper(0)
	scraper.BaseURL = ts.URL
	scraper.AllowedDomains = nil

	loc := models.Location{Latitude: 12.9716, Longitude: 77.5946}
	listings, err := scraper.Search(context.Background(), "milk", loc)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotLat != "12.971600" {
		t.Errorf("expected latitude header, got %q", gotLat)
	}

	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d: %+v", len(listings), listings)
	}

	milk := listings[0]
	if milk.Name != "Amul Taaza Toned Milk" || milk.Price != "₹26" || milk.Quantity != "500 ml" {
		t.Errorf("unexpected milk listing %+v", milk)
	}
	if milk.ProductURL != ts.URL+"/pn/amul-taaza-toned-milk/pvid/abc123" {
		t.Errorf("unexpected url %q", milk.ProductURL)
	}
	if !milk.InStock || milk.Platform != "zepto" {
		t.Errorf("unexpected platform/stock %+v", milk)
	}

	for _, l := range listings {
		if l.DeliveryTime != "10 minutes" {
			t.Errorf("expected header delivery time on %q, got %q", l.Name, l.DeliveryTime)
		}
	}

	curd := listings[1]
	if curd.Price != "₹1,299" {
		t.Errorf("expected fallback price from card text, got %q", curd.Price)
	}
	if curd.Quantity != "N/A" || curd.InStock {
		t.Errorf("unexpected curd listing %+v", curd)
	}
}

func TestScraper_SearchUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	scraper := NewScraper(0)
	scraper.BaseURL = ts.URL
	scraper.AllowedDomains = nil

	if _, err := scraper.Search(context.Background(), "milk", models.Location{}); err == nil {
		t.Fatal("expected an error for a 403 response")
	}
}
