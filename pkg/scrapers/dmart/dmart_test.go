package dmart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quick-compare/pkg/location"
	"quick-compare/pkg/models"
)

type fakeLocator struct {
	store location.Store
	err   error
	got   string
}

func (f *fakeLocator) Lookup(_ context.Context, pincode string) (location.Store, error) {
	f.got = pincode
	return f.store, f.err
}

const searchJSON = `{
  "totalRecords": 2,
  "products": [
    {
      "seo_token_ntk": "amul-taaza-milk",
      "sKUs": [
        {"name": " Amul Taaza Toned Milk ", "priceSALE": "25", "skuUniqueID": 1001, "buyable": "true",
         "variantTextValue": "500 ml", "productImageKey": "AMU123"},
        {"name": "Amul Taaza Toned Milk", "priceSALE": 49.5, "skuUniqueID": "1002", "buyable": false,
         "variantTextValue": "1 L"}
      ]
    },
    {
      "sKUs": [
        {"name": "Loose Paneer", "priceSALE": null, "buyable": "true"}
      ]
    }
  ]
}`

func TestScraper_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/search/toned milk" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("storeId"); got != "10680" {
			t.Errorf("expected storeId 10680, got %q", got)
		}
		if r.Header.Get("Origin") != "https://www.dmart.in" {
			t.Errorf("missing dmart origin header")
		}
		fmt.Fprint(w, searchJSON)
	}))
	defer ts.Close()

	stores := &fakeLocator{store: location.Store{UniqueID: "U-1", StoreID: "10680"}}
	s := NewScraper(stores, 5*time.Second)
	s.BaseURL = ts.URL

	listings, err := s.Search(context.Background(), "toned milk", models.Location{Address: "Kothrud", Pincode: "411038"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if stores.got != "411038" {
		t.Errorf("expected lookup by pincode, got %q", stores.got)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(listings))
	}

	first := listings[0]
	if first.Name != "Amul Taaza Toned Milk" || first.Price != "₹25" || first.Quantity != "500 ml" {
		t.Errorf("unexpected first listing %+v", first)
	}
	if first.ImageURL != "https://cdn.dmart.in/images/products/AMU123_5_P.jpg" {
		t.Errorf("unexpected image %q", first.ImageURL)
	}
	if first.ProductURL != "https://www.dmart.in/product/amul-taaza-milk?selectedProd=1001" {
		t.Errorf("unexpected url %q", first.ProductURL)
	}
	if !first.InStock || first.Platform != "dmart" {
		t.Errorf("unexpected platform/stock %+v", first)
	}

	second := listings[1]
	if second.Price != "₹49.5" || second.InStock || second.ImageURL != "" {
		t.Errorf("unexpected second listing %+v", second)
	}

	paneer := listings[2]
	if paneer.Price != "N/A" || paneer.ProductURL != "" {
		t.Errorf("unexpected paneer listing %+v", paneer)
	}
}

func TestScraper_SearchNoStore(t *testing.T) {
	s := NewScraper(&fakeLocator{}, time.Second)
	s.BaseURL = "http://127.0.0.1:0"

	_, err := s.Search(context.Background(), "milk", models.Location{Address: "Nowhere"})
	if !errors.Is(err, models.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestScraper_SearchUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	s := NewScraper(&fakeLocator{store: location.Store{UniqueID: "U-1", StoreID: "1"}}, time.Second)
	s.BaseURL = ts.URL

	if _, err := s.Search(context.Background(), "milk", models.Location{Pincode: "411038"}); err == nil {
		t.Fatal("expected an error for a 503 response")
	}
}
