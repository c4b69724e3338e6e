package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"quick-compare/pkg/models"
)

const GeocodeAPI = "https://maps.googleapis.com/maps/api/geocode/json"

var ErrNoAPIKey = errors.New("GOOGLE_MAPS_API_KEY not configured")

type Geocoder struct {
	BaseURL string
	apiKey  string
	client  *http.Client

	mu    sync.Mutex
	cache map[string][2]float64
}

func NewGeocoder(apiKey string, timeout time.Duration) *Geocoder {
	return &Geocoder{
		BaseURL: GeocodeAPI,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		cache:   make(map[string][2]float64),
	}
}

// Geocode turns an address into coordinates, biased towards India.
func (g *Geocoder) Geocode(ctx context.Context, address string) (lat, lng float64, err error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if key == "" {
		return 0, 0, errors.New("empty address")
	}

	g.mu.Lock()
	if c, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return c[0], c[1], nil
	}
	g.mu.Unlock()

	if g.apiKey == "" {
		return 0, 0, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)
	q.Set("region", "in")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, err
	}

	var resp struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := DoJSON(g.client, req, &resp); err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", address, err)
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return 0, 0, fmt.Errorf("geocode %q: status %s", address, resp.Status)
	}

	loc := resp.Results[0].Geometry.Location
	g.mu.Lock()
	g.cache[key] = [2]float64{loc.Lat, loc.Lng}
	g.mu.Unlock()
	return loc.Lat, loc.Lng, nil
}

// Resolve fills in missing coordinates from the address. The location is
// returned unchanged when it already has coordinates or geocoding fails.
func (g *Geocoder) Resolve(ctx context.Context, loc models.Location) (models.Location, error) {
	if loc.HasCoordinates() || loc.Address == "" {
		return loc, nil
	}
	lat, lng, err := g.Geocode(ctx, loc.Address)
	if err != nil {
		return loc, err
	}
	loc.Latitude, loc.Longitude = lat, lng
	return loc, nil
}
