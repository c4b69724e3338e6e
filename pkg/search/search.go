// Package search fans a query out to every platform scraper and folds the
// listings into comparable products.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quick-compare/pkg/cache"
	"quick-compare/pkg/logger"
	"quick-compare/pkg/merge"
	"quick-compare/pkg/models"
	"quick-compare/pkg/scrapers"
)

var ErrEmptyQuery = errors.New("query must not be empty")

type Request struct {
	Query    string
	Location models.Location
}

type Result struct {
	Query              string           `json:"query"`
	Location           models.Location  `json:"location"`
	Products           []models.Product `json:"products"`
	Cached             bool             `json:"-"`
	PlatformsSucceeded []string         `json:"platforms_succeeded"`
	PlatformsFailed    []string         `json:"platforms_failed"`
}

// HistoryWriter records raw listings as they were scraped.
type HistoryWriter interface {
	Save(ctx context.Context, listings []models.Listing) error
}

// LocationResolver fills in coordinates for a free-text address.
type LocationResolver interface {
	Resolve(ctx context.Context, loc models.Location) (models.Location, error)
}

type Options struct {
	MaxScrapers     int
	ScrapeTimeout   time.Duration
	TTL             time.Duration
	DefaultLocation models.Location
}

type Service struct {
	registry *scrapers.Registry
	merger   *merge.Merger
	cache    cache.Store
	history  HistoryWriter
	resolver LocationResolver
	opts     Options

	sem   chan struct{}
	group singleflight.Group
}

// NewService wires a search pipeline. cache, history and resolver are
// optional and may be nil.
func NewService(reg *scrapers.Registry, m *merge.Merger, c cache.Store, h HistoryWriter, r LocationResolver, opts Options) *Service {
	if opts.MaxScrapers <= 0 {
		opts.MaxScrapers = 3
	}
	return &Service{
		registry: reg,
		merger:   m,
		cache:    c,
		history:  h,
		resolver: r,
		opts:     opts,
		sem:      make(chan struct{}, opts.MaxScrapers),
	}
}

// Search returns the merged products for req. Identical searches running at
// the same time share one scrape. When every platform fails the result is
// empty rather than an error, with the failures listed in PlatformsFailed.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	query := strings.ToLower(strings.TrimSpace(req.Query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	loc := req.Location
	if strings.TrimSpace(loc.Address) == "" {
		loc.Address = s.opts.DefaultLocation.Address
	}
	if strings.TrimSpace(loc.Pincode) == "" {
		loc.Pincode = s.opts.DefaultLocation.Pincode
	}

	key := cache.SearchKey(query, loc.Address, loc.Pincode)
	if s.cache != nil {
		var cached Result
		if s.cache.Get(ctx, key, &cached) {
			logger.Dedup("Cache hit for %s", key)
			cached.Cached = true
			return &cached, nil
		}
	}

	// The shared scrape outlives any single caller; each caller still
	// gives up when its own context ends.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.run(context.WithoutCancel(ctx), key, query, loc)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			logger.Dedup("Joined in-flight search %s", key)
		}
		res := *r.Val.(*Result)
		return &res, nil
	}
}

type outcome struct {
	listings []models.Listing
	err      error
}

func (s *Service) run(ctx context.Context, key, query string, loc models.Location) (*Result, error) {
	if s.resolver != nil && !loc.HasCoordinates() {
		if resolved, err := s.resolver.Resolve(ctx, loc); err != nil {
			log.Printf("Could not geocode %q: %v", loc.Address, err)
		} else {
			loc = resolved
		}
	}

	all := s.registry.All()
	outcomes := make([]outcome, len(all))

	var wg sync.WaitGroup
	for i, sc := range all {
		wg.Add(1)
		go func(i int, sc scrapers.Scraper) {
			defer wg.Done()
			outcomes[i] = s.scrape(ctx, sc, query, loc)
		}(i, sc)
	}
	wg.Wait()

	res := &Result{Query: query, Location: loc}
	var (
		listings []models.Listing
		firstErr error
	)
	for i, o := range outcomes {
		name := all[i].Platform().Key()
		if o.err != nil {
			log.Printf("[%s] Search for %q failed: %v", strings.ToUpper(name), query, o.err)
			res.PlatformsFailed = append(res.PlatformsFailed, name)
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		res.PlatformsSucceeded = append(res.PlatformsSucceeded, name)
		listings = append(listings, o.listings...)
	}

	// Nothing to show is still an answer; it is just not worth caching.
	if len(res.PlatformsSucceeded) == 0 && firstErr != nil {
		log.Printf("Every platform failed for %q, first error: %v", query, firstErr)
		res.Products = []models.Product{}
		return res, nil
	}

	if s.history != nil && len(listings) > 0 {
		if err := s.history.Save(ctx, listings); err != nil {
			log.Printf("Failed to save listing history: %v", err)
		}
	}

	res.Products = s.merger.Merge(listings)
	if res.Products == nil {
		res.Products = []models.Product{}
	}
	log.Printf("Merged %d listings into %d products for %q", len(listings), len(res.Products), query)

	if s.cache != nil {
		s.cache.Set(ctx, key, res, s.opts.TTL)
	}
	return res, nil
}

// scrape runs one scraper once a semaphore slot is free.
func (s *Service) scrape(ctx context.Context, sc scrapers.Scraper, query string, loc models.Location) outcome {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return outcome{err: ctx.Err()}
	}
	defer func() { <-s.sem }()

	if s.opts.ScrapeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ScrapeTimeout)
		defer cancel()
	}

	start := time.Now()
	listings, err := sc.Search(ctx, query, loc)
	if err != nil {
		return outcome{err: fmt.Errorf("%s: %w", sc.Platform().Key(), err)}
	}
	log.Printf("[%s] %d listings in %s", strings.ToUpper(sc.Platform().Key()), len(listings), time.Since(start).Round(time.Millisecond))
	return outcome{listings: listings}
}
