package blinkit

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"quick-compare/pkg/browser"
	"quick-compare/pkg/models"
)

const BaseURL = "https://blinkit.com"

// The search grid only renders client side, so the page is loaded in Chrome
// and the resulting HTML is parsed afterwards.
type Scraper struct {
	BaseURL  string
	Headless bool
	Timeout  time.Duration
}

func NewScraper(headless bool, timeout time.Duration) *Scraper {
	return &Scraper{
		BaseURL:  BaseURL,
		Headless: headless,
		Timeout:  timeout,
	}
}

func (s *Scraper) Platform() models.Platform {
	return models.Blinkit
}

const removeLocationModal = `document.querySelectorAll('.LocationDropDown__LocationModalContainer-sc-bx29pc-0').forEach(e => e.remove())`

func (s *Scraper) Search(ctx context.Context, query string, loc models.Location) ([]models.Listing, error) {
	searchURL := s.BaseURL + "/s/?q=" + url.QueryEscape(query)

	bctx, cancel := browser.New(ctx, browser.Options{Headless: s.Headless, Timeout: s.Timeout})
	defer cancel()

	actions := []chromedp.Action{}
	if loc.HasCoordinates() {
		actions = append(actions, browser.Geolocation(loc.Latitude, loc.Longitude))
	}

	var html string
	actions = append(actions,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady(`div.categories__body`, chromedp.ByQuery),
		chromedp.Evaluate(removeLocationModal, nil),
		browser.Scroll(3, time.Second),
		chromedp.Evaluate(removeLocationModal, nil),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	log.Printf("[BLINKIT] Navigating to %s", searchURL)
	if err := chromedp.Run(bctx, actions...); err != nil {
		return nil, fmt.Errorf("blinkit: chromedp failed: %w", err)
	}

	listings, err := ParseResults(strings.NewReader(html), s.BaseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("[BLINKIT] Scraped %d items for %q", len(listings), query)
	return listings, nil
}

// ParseResults reads the product cards out of a rendered search page.
func ParseResults(r io.Reader, baseURL string) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("blinkit: parse html: %w", err)
	}

	now := time.Now()
	var listings []models.Listing

	doc.Find(`div[role="button"][id]`).Each(func(_ int, card *goquery.Selection) {
		l := models.Listing{
			Platform:  models.Blinkit.Key(),
			Name:      strings.TrimSpace(card.Find("div.tw-text-300").First().Text()),
			Price:     textOr(card.Find("div.tw-text-200.tw-font-semibold").First(), "N/A"),
			Quantity:  textOr(card.Find("div.tw-text-200.tw-font-medium").First(), "N/A"),
			InStock:   true,
			ScrapedAt: now,

			DeliveryTime: textOr(card.Find("div.tw-text-050").First(), "N/A"),
		}
		l.ImageURL, _ = card.Find("img").First().Attr("src")

		if id, _ := card.Attr("id"); id != "" {
			l.ProductURL = baseURL + "/prn/x/prid/" + id
		}
		if strings.Contains(strings.ToLower(card.Text()), "out of stock") {
			l.InStock = false
		}

		listings = append(listings, l)
	})

	return listings, nil
}

func textOr(sel *goquery.Selection, def string) string {
	if sel.Length() == 0 {
		return def
	}
	if t := strings.TrimSpace(sel.Text()); t != "" {
		return t
	}
	return def
}
