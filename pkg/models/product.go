package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrStoreNotFound       = errors.New("no store serves this location")
	ErrUnsupportedPlatform = errors.New("platform not supported")
)

// Listing is a single item as scraped from one platform, before merging.
type Listing struct {
	Platform     string    `json:"platform"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	Quantity     string    `json:"quantity"`
	ImageURL     string    `json:"image_url"`
	ProductURL   string    `json:"product_url"`
	DeliveryTime string    `json:"delivery_time,omitempty"`
	InStock      bool      `json:"in_stock"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// Offer is one platform's price, availability and link for a product.
type Offer struct {
	Platform     string `json:"platform"`
	Price        string `json:"price"`
	InStock      bool   `json:"in_stock"`
	ProductURL   string `json:"product_url,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	DeliveryTime string `json:"delivery_time,omitempty"`
}

// UnmarshalJSON defaults in_stock to true when the field is absent.
func (o *Offer) UnmarshalJSON(data []byte) error {
	type plain Offer
	aux := plain{InStock: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = Offer(aux)
	return nil
}

// Kind resolves the offer's platform key.
func (o Offer) Kind() Platform {
	return ParsePlatform(o.Platform)
}

// OfferFromListing keeps the per-platform fields of a listing.
func OfferFromListing(l Listing) Offer {
	return Offer{
		Platform:     l.Platform,
		Price:        l.Price,
		InStock:      l.InStock,
		ProductURL:   l.ProductURL,
		ImageURL:     l.ImageURL,
		DeliveryTime: l.DeliveryTime,
	}
}

// Product groups the offers of the same item across platforms.
type Product struct {
	Name      string  `json:"name"`
	Quantity  string  `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
	Platforms []Offer `json:"platforms"`
}

// HasPlatform reports whether any offer's lower-cased key equals key.
func (p Product) HasPlatform(key string) bool {
	for _, o := range p.Platforms {
		if strings.ToLower(o.Platform) == key {
			return true
		}
	}
	return false
}

// Location is where the user wants things delivered.
type Location struct {
	Address   string  `json:"address"`
	Pincode   string  `json:"pincode"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

func (l Location) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}
