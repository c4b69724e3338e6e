package blinkit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"quick-compare/pkg/browser"
	"quick-compare/pkg/eta"
	"quick-compare/pkg/models"
)

const HomeURL = "https://blinkit.com/"

var etaSelectors = []string{
	`[data-testid='delivery-time']`,
	`div.LocationBar__Title-sc-x8ezho-8`,
}

type Fetcher struct {
	Headless bool
	Timeout  time.Duration
}

func NewFetcher(headless bool, timeout time.Duration) *Fetcher {
	return &Fetcher{Headless: headless, Timeout: timeout}
}

func (f *Fetcher) Platform() models.Platform {
	return models.Blinkit
}

// ETA types the address into the locality picker, takes the first
// suggestion and reads the delivery time from the header.
func (f *Fetcher) ETA(ctx context.Context, loc models.Location) (string, error) {
	bctx, cancel := browser.New(ctx, browser.Options{Headless: f.Headless, Timeout: f.Timeout, Width: 1366, Height: 768})
	defer cancel()

	var actions []chromedp.Action
	if loc.HasCoordinates() {
		actions = append(actions, browser.Geolocation(loc.Latitude, loc.Longitude))
	}

	var raw string
	actions = append(actions,
		chromedp.Navigate(HomeURL),
		chromedp.WaitVisible(`input[name="select-locality"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="select-locality"]`, loc.Address, chromedp.ByQuery),
		chromedp.Sleep(800*time.Millisecond),
		chromedp.Click(`div.location-footer > div > div > div:nth-child(1)`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		browser.PollText(&raw, 5, time.Second, etaSelectors...),
	)

	log.Printf("[BLINKIT] Fetching ETA for %q", loc.Address)
	if err := chromedp.Run(bctx, actions...); err != nil {
		return "", fmt.Errorf("blinkit eta: %w", err)
	}
	return eta.Normalize(raw), nil
}
