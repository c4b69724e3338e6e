package zepto

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"quick-compare/pkg/browser"
	"quick-compare/pkg/models"
	"quick-compare/pkg/scrapers"
)

const BaseURL = "https://www.zeptonow.com"

type Scraper struct {
	BaseURL        string
	AllowedDomains []string
	Timeout        time.Duration
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		BaseURL:        BaseURL,
		AllowedDomains: []string{"www.zeptonow.com", "zeptonow.com"},
		Timeout:        timeout,
	}
}

func (s *Scraper) Platform() models.Platform {
	return models.Zepto
}

func (s *Scraper) collector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(browser.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.AllowedDomains = s.AllowedDomains
	if s.Timeout > 0 {
		c.SetRequestTimeout(s.Timeout)
	}
	return c
}

func (s *Scraper) Search(ctx context.Context, query string, loc models.Location) ([]models.Listing, error) {
	searchURL := s.BaseURL + "/search?query=" + url.QueryEscape(query)
	c := s.collector(ctx)

	var (
		mu       sync.Mutex
		listings []models.Listing
		seen     = map[string]bool{}
		delivery string
	)
	now := time.Now()

	c.OnRequest(func(r *colly.Request) {
		if loc.HasCoordinates() {
			r.Headers.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 6, 64))
			r.Headers.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 6, 64))
		}
	})

	// The header shows one delivery time for the whole search.
	c.OnHTML(`span.font-extrabold`, func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if delivery == "" {
			delivery = strings.TrimSpace(strings.ReplaceAll(e.Text, "\u200b", ""))
		}
	})

	c.OnHTML(`a[href*="/pn/"]`, func(e *colly.HTMLElement) {
		href := e.Attr("href")
		name := strings.TrimSpace(e.ChildText(`div[data-slot-id="ProductName"] span`))
		if name == "" || seen[href] {
			return
		}

		price := e.ChildText(`p._price_ljyvk_11`)
		if price == "" {
			price = e.Text
		}
		quantity := strings.TrimSpace(e.ChildText(`div[data-slot-id="PackSize"]`))
		if quantity == "" {
			quantity = "N/A"
		}

		l := models.Listing{
			Platform:   models.Zepto.Key(),
			Name:       name,
			Price:      scrapers.CleanPrice(price),
			Quantity:   quantity,
			ImageURL:   e.ChildAttr("img", "src"),
			ProductURL: e.Request.AbsoluteURL(href),
			InStock:    !strings.Contains(strings.ToLower(e.Text), "out of stock"),
			ScrapedAt:  now,
		}

		mu.Lock()
		seen[href] = true
		listings = append(listings, l)
		mu.Unlock()
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("zepto: request failed with status %d: %w", r.StatusCode, err)
	})

	log.Printf("[ZEPTO] Visiting %s", searchURL)
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("zepto: visit failed: %w", err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, scrapeErr
	}

	if delivery == "" {
		delivery = "N/A"
	}
	for i := range listings {
		listings[i].DeliveryTime = delivery
	}

	log.Printf("[ZEPTO] Scraped %d items for %q", len(listings), query)
	return listings, nil
}
