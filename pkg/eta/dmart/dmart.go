package dmart

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quick-compare/pkg/compare"
	"quick-compare/pkg/location"
	"quick-compare/pkg/models"
)

// StoreLocator maps a pincode to the store whose slots are read.
type StoreLocator interface {
	Lookup(ctx context.Context, pincode string) (location.Store, error)
}

// DMart delivers in slots, so the ETA is the earliest slot text, e.g.
// "Tomorrow\n7:00 AM - 9:00 AM", left as is for the slot parser.
type Fetcher struct {
	BaseURL string
	Stores  StoreLocator
	client  *http.Client
}

func NewFetcher(stores StoreLocator, timeout time.Duration) *Fetcher {
	return &Fetcher{
		BaseURL: location.DMartAPI,
		Stores:  stores,
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) Platform() models.Platform {
	return models.DMart
}

type slotsResponse struct {
	Slots []struct {
		Type     string       `json:"type"`
		TimeSlot *string      `json:"timeSlot"`
		PUPData  []pickupSlot `json:"PUPData"`
	} `json:"slots"`
}

type pickupSlot struct {
	TimeSlot string `json:"timeSlot"`
}

func (f *Fetcher) ETA(ctx context.Context, loc models.Location) (string, error) {
	pincode := loc.Pincode
	if pincode == "" {
		pincode = loc.Address
	}

	store, err := f.Stores.Lookup(ctx, pincode)
	if err != nil {
		return "", fmt.Errorf("dmart eta: %w", err)
	}
	if !store.Valid() {
		return compare.NotAvailable, nil
	}

	slotURL := fmt.Sprintf("%s/v2/pincodes/earliestslot/%s?storeId=%s",
		f.BaseURL, url.PathEscape(pincode), url.QueryEscape(store.StoreID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, slotURL, nil)
	if err != nil {
		return "", err
	}

	var resp slotsResponse
	if err := location.DoJSON(f.client, req, &resp); err != nil {
		return "", fmt.Errorf("dmart eta: earliest slot: %w", err)
	}

	if len(resp.Slots) == 0 {
		return compare.NotAvailable, nil
	}
	first := resp.Slots[0]
	if first.TimeSlot != nil {
		return *first.TimeSlot, nil
	}
	if first.Type == "PUP" && len(first.PUPData) > 0 && first.PUPData[0].TimeSlot != "" {
		return first.PUPData[0].TimeSlot, nil
	}
	return compare.NotAvailable, nil
}
