package zepto

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

const HomeURL = "https://www.zeptonow.com/"

var etaSelectors = []string{
	`[data-testid='delivery-time']`,
	`span.font-extrabold`,
}

type Fetcher struct {
	Headless bool
	Timeout  time.Duration
}

func NewFetcher(headless bool, timeout time.Duration) *Fetcher {
	return &Fetcher{Headless: headless, Timeout: timeout}
}

func (f *Fetcher) Platform() models.Platform {
	return models.Zepto
}

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
		chromedp.Click(`button[aria-label="Select Location"]`, chromedp.ByQuery),
		chromedp.SendKeys(`div[data-testid="address-search-input"] input`, loc.Address, chromedp.ByQuery),
		chromedp.Click(`div[data-testid="address-search-item"]`, chromedp.ByQuery),
		chromedp.Click(`button[data-testid="location-confirm-btn"]`, chromedp.ByQuery),
		chromedp.Sleep(800*time.Millisecond),
		chromedp.Evaluate(`window.scrollBy(0, 300)`, nil),
		browser.PollText(&raw, 3, time.Second, etaSelectors...),
	)

	log.Printf("[ZEPTO] Fetching ETA for %q", loc.Address)
	if err := chromedp.Run(bctx, actions...); err != nil {
		return "", fmt.Errorf("zepto eta: %w", err)
	}
	return eta.Normalize(raw), nil
}
