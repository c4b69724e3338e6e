// Package location resolves where a user is: DMart store ids for a pincode
// and coordinates for a free-text address.
package location

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const DMartAPI = "https://digital.dmart.in/api"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Store is the DMart fulfilment store for a pincode.
type Store struct {
	UniqueID string `json:"unique_id"`
	StoreID  string `json:"store_id"`
	Pincode  string `json:"pincode"`
}

func (s Store) Valid() bool {
	return s.UniqueID != "" && s.StoreID != ""
}

// DMartLocator finds the DMart store serving a pincode. Lookups are
// remembered for the life of the process.
type DMartLocator struct {
	BaseURL string
	client  *http.Client

	mu     sync.Mutex
	stores map[string]Store
}

func NewDMartLocator(timeout time.Duration) *DMartLocator {
	return &DMartLocator{
		BaseURL: DMartAPI,
		client:  &http.Client{Timeout: timeout},
		stores:  make(map[string]Store),
	}
}

// Lookup returns the store for pincode. An invalid Store with a nil error
// means DMart does not deliver there.
func (l *DMartLocator) Lookup(ctx context.Context, pincode string) (Store, error) {
	l.mu.Lock()
	if s, ok := l.stores[pincode]; ok {
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	uniqueID, err := l.uniqueID(ctx, pincode)
	if err != nil {
		return Store{}, err
	}
	store := Store{UniqueID: uniqueID, Pincode: pincode}

	if uniqueID != "" {
		if store.StoreID, err = l.storeID(ctx, pincode, uniqueID); err != nil {
			return Store{}, err
		}
	}

	if store.Valid() {
		l.mu.Lock()
		l.stores[pincode] = store
		l.mu.Unlock()
	}
	return store, nil
}

func (l *DMartLocator) uniqueID(ctx context.Context, searchText string) (string, error) {
	var resp struct {
		SearchResult []struct {
			UniqueID string `json:"uniqueId"`
		} `json:"searchResult"`
	}
	if err := l.post(ctx, "/v2/pincodes/suggestions", map[string]string{"searchText": searchText}, &resp); err != nil {
		return "", fmt.Errorf("dmart: pincode suggestions: %w", err)
	}
	if len(resp.SearchResult) == 0 {
		return "", nil
	}
	return resp.SearchResult[0].UniqueID, nil
}

func (l *DMartLocator) storeID(ctx context.Context, pincode, uniqueID string) (string, error) {
	payload := map[string]string{
		"uniqueId":   uniqueID,
		"apiMode":    "GA",
		"pincode":    pincode,
		"currentLat": "",
		"currentLng": "",
	}
	var resp struct {
		StorePincodeDetails struct {
			StoreID json.Number `json:"storeId"`
		} `json:"storePincodeDetails"`
	}
	if err := l.post(ctx, "/v2/pincodes/details", payload, &resp); err != nil {
		return "", fmt.Errorf("dmart: pincode details: %w", err)
	}
	return resp.StorePincodeDetails.StoreID.String(), nil
}

func (l *DMartLocator) post(ctx context.Context, path string, body, dst any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return DoJSON(l.client, req, dst)
}

// DoJSON sends req with the headers DMart expects and decodes a 200 JSON
// response into dst.
func DoJSON(client *http.Client, req *http.Request, dst any) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Origin", "https://www.dmart.in")
	req.Header.Set("Referer", "https://www.dmart.in/")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
