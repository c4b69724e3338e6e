// Package eta fetches the delivery estimate each platform shows for a
// location.
package eta

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"quick-compare/pkg/cache"
	"quick-compare/pkg/compare"
	"quick-compare/pkg/logger"
	"quick-compare/pkg/models"
)

// StoreClosed is reported when a platform answers without any time in it.
const StoreClosed = "Store Unavailable / Closed"

type Fetcher interface {
	Platform() models.Platform
	ETA(ctx context.Context, loc models.Location) (string, error)
}

var (
	minutesRe = regexp.MustCompile(`(\d+)\s*min`)
	numberRe  = regexp.MustCompile(`(\d+)`)
)

// Normalize turns header text like "Delivery in 12 mins" into "12 min".
func Normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return compare.NotAvailable
	}
	if m := minutesRe.FindStringSubmatch(raw); m != nil {
		return m[1] + " min"
	}
	if m := numberRe.FindStringSubmatch(raw); m != nil {
		return m[1] + " min"
	}
	return StoreClosed
}

type Service struct {
	fetchers []Fetcher
	cache    cache.Store
	ttl      time.Duration
	timeout  time.Duration
}

// NewService wires the fetchers. c may be nil to disable caching.
func NewService(c cache.Store, ttl, timeout time.Duration, fetchers ...Fetcher) *Service {
	return &Service{
		fetchers: fetchers,
		cache:    c,
		ttl:      ttl,
		timeout:  timeout,
	}
}

func (s *Service) fetcher(p models.Platform) Fetcher {
	for _, f := range s.fetchers {
		if f.Platform() == p {
			return f
		}
	}
	return nil
}

// All fetches every platform concurrently. A failing platform shows up as
// N/A rather than failing the whole set.
func (s *Service) All(ctx context.Context, loc models.Location) map[models.Platform]string {
	key := cache.ETAKey(loc.Address, loc.Pincode)

	if s.cache != nil {
		var cached map[models.Platform]string
		if s.cache.Get(ctx, key, &cached) {
			logger.Dedup("Cache hit for ETAs at %s", key)
			return cached
		}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		etas = make(map[models.Platform]string, len(s.fetchers))
	)
	for _, f := range s.fetchers {
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			v := s.fetch(ctx, f, loc)
			mu.Lock()
			etas[f.Platform()] = v
			mu.Unlock()
		}(f)
	}
	wg.Wait()

	if s.cache != nil {
		s.cache.Set(ctx, key, etas, s.ttl)
	}
	return etas
}

// One fetches a single platform's ETA.
func (s *Service) One(ctx context.Context, p models.Platform, loc models.Location) (string, error) {
	f := s.fetcher(p)
	if f == nil {
		return "", fmt.Errorf("eta for %q: %w", p.Key(), models.ErrUnsupportedPlatform)
	}
	return s.fetch(ctx, f, loc), nil
}

func (s *Service) fetch(ctx context.Context, f Fetcher, loc models.Location) string {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := f.ETA(ctx, loc)
	if err != nil {
		log.Printf("[%s] ETA fetch failed: %v", strings.ToUpper(f.Platform().Key()), err)
		return compare.NotAvailable
	}
	log.Printf("[%s] ETA %q in %s", strings.ToUpper(f.Platform().Key()), v, time.Since(start).Round(time.Millisecond))
	return v
}
