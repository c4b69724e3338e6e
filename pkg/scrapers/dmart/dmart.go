package dmart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quick-compare/pkg/location"
	"quick-compare/pkg/models"
)

const (
	ImageBaseURL   = "https://cdn.dmart.in/images/products/"
	ProductBaseURL = "https://www.dmart.in/product/"
)

// StoreLocator maps a pincode to the store whose catalogue is searched.
type StoreLocator interface {
	Lookup(ctx context.Context, pincode string) (location.Store, error)
}

// DMart exposes a JSON search API, so no browser is needed here.
type Scraper struct {
	BaseURL string
	Stores  StoreLocator
	client  *http.Client
}

func NewScraper(stores StoreLocator, timeout time.Duration) *Scraper {
	return &Scraper{
		BaseURL: location.DMartAPI,
		Stores:  stores,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *Scraper) Platform() models.Platform {
	return models.DMart
}

type searchResponse struct {
	TotalRecords int `json:"totalRecords"`
	Products     []struct {
		SeoToken string `json:"seo_token_ntk"`
		SKUs     []sku  `json:"sKUs"`
	} `json:"products"`
}

type sku struct {
	Name            string          `json:"name"`
	PriceSale       json.RawMessage `json:"priceSALE"`   // string or number
	SkuUniqueID     json.RawMessage `json:"skuUniqueID"` // string or number
	Buyable         json.RawMessage `json:"buyable"`     // "true" or true
	VariantText     string          `json:"variantTextValue"`
	ProductImageKey string          `json:"productImageKey"`
}

func (s *Scraper) Search(ctx context.Context, query string, loc models.Location) ([]models.Listing, error) {
	pincode := loc.Pincode
	if pincode == "" {
		pincode = loc.Address
	}

	store, err := s.Stores.Lookup(ctx, pincode)
	if err != nil {
		return nil, fmt.Errorf("dmart: store lookup: %w", err)
	}
	if !store.Valid() {
		return nil, fmt.Errorf("dmart: pincode %q: %w", pincode, models.ErrStoreNotFound)
	}

	searchURL := fmt.Sprintf("%s/v3/search/%s?page=1&size=100&channel=web&storeId=%s",
		s.BaseURL, url.PathEscape(query), url.QueryEscape(store.StoreID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	log.Printf("[DMART] Searching %q in store %s", query, store.StoreID)

	var resp searchResponse
	if err := location.DoJSON(s.client, req, &resp); err != nil {
		return nil, fmt.Errorf("dmart: search: %w", err)
	}

	now := time.Now()
	var listings []models.Listing
	for _, p := range resp.Products {
		for _, k := range p.SKUs {
			listings = append(listings, k.listing(p.SeoToken, now))
		}
	}

	log.Printf("[DMART] totalRecords=%d, parsed %d items", resp.TotalRecords, len(listings))
	return listings, nil
}

func (k sku) listing(seoToken string, now time.Time) models.Listing {
	l := models.Listing{
		Platform:     models.DMart.Key(),
		Name:         strings.TrimSpace(k.Name),
		Price:        "N/A",
		Quantity:     k.VariantText,
		DeliveryTime: "N/A",
		InStock:      rawString(k.Buyable) == "true",
		ScrapedAt:    now,
	}
	if price := rawString(k.PriceSale); price != "" && price != "0" {
		l.Price = "₹" + price
	}
	if k.ProductImageKey != "" {
		l.ImageURL = ImageBaseURL + k.ProductImageKey + "_5_P.jpg"
	}
	if id := rawString(k.SkuUniqueID); seoToken != "" && id != "" {
		l.ProductURL = ProductBaseURL + seoToken + "?selectedProd=" + id
	}
	return l
}

// rawString renders a JSON scalar without quotes. null gives "".
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	v := string(raw)
	if v == "null" {
		return ""
	}
	return v
}
