package search

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quick-compare/pkg/cache"
	"quick-compare/pkg/merge"
	"quick-compare/pkg/models"
	"quick-compare/pkg/scrapers"
)

type fakeScraper struct {
	p        models.Platform
	listings []models.Listing
	err      error
	delay    time.Duration

	calls   atomic.Int32
	lastLoc models.Location
	mu      sync.Mutex
}

func (f *fakeScraper) Platform() models.Platform { return f.p }

func (f *fakeScraper) Search(ctx context.Context, _ string, loc models.Location) ([]models.Listing, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastLoc = loc
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.listings, f.err
}

type fakeHistory struct {
	saved []models.Listing
}

func (h *fakeHistory) Save(_ context.Context, l []models.Listing) error {
	h.saved = append(h.saved, l...)
	return nil
}

func newTestCache(t *testing.T) cache.Store {
	t.Helper()
	c, err := cache.NewSQLite(t.TempDir() + "/cache.db")
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func listing(platform, name, price, qty string) models.Listing {
	return models.Listing{Platform: platform, Name: name, Price: price, Quantity: qty, InStock: true}
}

var defaultLoc = models.Location{Address: "Kothrud, Pune", Pincode: "411038"}

func newService(t *testing.T, h HistoryWriter, scs ...scrapers.Scraper) *Service {
	t.Helper()
	m := merge.NewMerger().WithRand(rand.New(rand.NewSource(1)))
	return NewService(scrapers.NewRegistry(scs...), m, newTestCache(t), h, nil, Options{
		MaxScrapers:     2,
		ScrapeTimeout:   time.Second,
		TTL:             time.Minute,
		DefaultLocation: defaultLoc,
	})
}

func TestService_SearchMergesAndCaches(t *testing.T) {
	blinkit := &fakeScraper{p: models.Blinkit, listings: []models.Listing{
		listing("blinkit", "Amul Taaza Toned Milk", "₹27", "500 ml"),
	}}
	zepto := &fakeScraper{p: models.Zepto, listings: []models.Listing{
		listing("zepto", "Amul Taaza Toned Fresh Milk", "₹26", "500 ml"),
	}}
	dmart := &fakeScraper{p: models.DMart, err: models.ErrStoreNotFound}
	h := &fakeHistory{}

	svc := newService(t, h, blinkit, zepto, dmart)

	res, err := svc.Search(context.Background(), Request{Query: "  Milk "})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Cached {
		t.Error("first search should not be cached")
	}
	if res.Query != "milk" {
		t.Errorf("expected normalised query, got %q", res.Query)
	}
	if len(res.Products) != 1 || len(res.Products[0].Platforms) != 2 {
		t.Fatalf("expected one product on two platforms, got %+v", res.Products)
	}
	if got := res.PlatformsSucceeded; len(got) != 2 || got[0] != "blinkit" || got[1] != "zepto" {
		t.Errorf("unexpected succeeded platforms %v", got)
	}
	if got := res.PlatformsFailed; len(got) != 1 || got[0] != "dmart" {
		t.Errorf("unexpected failed platforms %v", got)
	}
	if len(h.saved) != 2 {
		t.Errorf("expected 2 listings saved to history, got %d", len(h.saved))
	}
	if blinkit.lastLoc != defaultLoc {
		t.Errorf("expected default location, got %+v", blinkit.lastLoc)
	}

	again, err := svc.Search(context.Background(), Request{Query: "milk", Location: models.Location{Address: "KOTHRUD, PUNE"}})
	if err != nil {
		t.Fatalf("second Search failed: %v", err)
	}
	if !again.Cached {
		t.Error("expected second search to be served from cache")
	}
	if blinkit.calls.Load() != 1 {
		t.Errorf("blinkit scraped %d times, want 1", blinkit.calls.Load())
	}
	if len(again.Products) != 1 {
		t.Errorf("cached result lost products: %+v", again.Products)
	}
}

func TestService_SearchEmptyQuery(t *testing.T) {
	svc := newService(t, nil)
	if _, err := svc.Search(context.Background(), Request{Query: "   "}); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestService_SearchAllFailIsEmptyResult(t *testing.T) {
	blinkit := &fakeScraper{p: models.Blinkit, err: errors.New("chrome crashed")}
	svc := newService(t, nil,
		blinkit,
		&fakeScraper{p: models.DMart, err: models.ErrStoreNotFound},
	)

	res, err := svc.Search(context.Background(), Request{Query: "bread"})
	if err != nil {
		t.Fatalf("expected an empty result, got error %v", err)
	}
	if res.Products == nil || len(res.Products) != 0 {
		t.Errorf("expected an empty product list, got %+v", res.Products)
	}
	if len(res.PlatformsSucceeded) != 0 {
		t.Errorf("expected no succeeded platforms, got %v", res.PlatformsSucceeded)
	}
	if got := res.PlatformsFailed; len(got) != 2 || got[0] != "blinkit" || got[1] != "dmart" {
		t.Errorf("unexpected failed platforms %v", got)
	}

	again, err := svc.Search(context.Background(), Request{Query: "bread"})
	if err != nil {
		t.Fatalf("second Search failed: %v", err)
	}
	if again.Cached || blinkit.calls.Load() != 2 {
		t.Errorf("an all-failed search must not be cached (cached=%v, calls=%d)", again.Cached, blinkit.calls.Load())
	}
}

func TestService_SearchTimeoutPerScraper(t *testing.T) {
	slow := &fakeScraper{p: models.Zepto, delay: time.Minute}
	fast := &fakeScraper{p: models.Blinkit, listings: []models.Listing{listing("blinkit", "Bread", "₹40", "400 g")}}
	svc := newService(t, nil, fast, slow)
	svc.opts.ScrapeTimeout = 20 * time.Millisecond

	res, err := svc.Search(context.Background(), Request{Query: "bread"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(res.PlatformsFailed) != 1 || res.PlatformsFailed[0] != "zepto" {
		t.Errorf("expected zepto to time out, got %v", res.PlatformsFailed)
	}
}

func TestService_ConcurrentSearchesShareOneScrape(t *testing.T) {
	sc := &fakeScraper{p: models.Blinkit, delay: 50 * time.Millisecond, listings: []models.Listing{
		listing("blinkit", "Eggs", "₹70", "6 pcs"),
	}}
	m := merge.NewMerger()
	svc := NewService(scrapers.NewRegistry(sc), m, nil, nil, nil, Options{DefaultLocation: defaultLoc})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Search(context.Background(), Request{Query: "eggs"}); err != nil {
				t.Errorf("Search failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := sc.calls.Load(); n != 1 {
		t.Errorf("expected a single scrape, got %d", n)
	}
}

func TestService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	sc := &fakeScraper{p: models.Blinkit, delay: 200 * time.Millisecond, listings: []models.Listing{
		listing("blinkit", "Eggs", "₹70", "6 pcs"),
	}}
	svc := NewService(scrapers.NewRegistry(sc), merge.NewMerger(), nil, nil, nil, Options{DefaultLocation: defaultLoc})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Search(firstCtx, Request{Query: "eggs"})
		firstErr <- err
	}()

	deadline := time.Now().Add(time.Second)
	for sc.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	secondDone := make(chan struct{})
	var (
		second    *Result
		secondErr error
	)
	go func() {
		defer close(secondDone)
		second, secondErr = svc.Search(context.Background(), Request{Query: "eggs"})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller: expected context.Canceled, got %v", err)
	}

	<-secondDone
	if secondErr != nil {
		t.Fatalf("second caller failed: %v", secondErr)
	}
	if len(second.Products) != 1 || len(second.PlatformsFailed) != 0 {
		t.Errorf("unexpected shared result %+v", second)
	}
	if n := sc.calls.Load(); n != 1 {
		t.Errorf("expected one shared scrape, got %d", n)
	}
}
