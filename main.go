package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quick-compare/pkg/cache"
	"quick-compare/pkg/config"
	"quick-compare/pkg/eta"
	etablinkit "quick-compare/pkg/eta/blinkit"
	etadmart "quick-compare/pkg/eta/dmart"
	etazepto "quick-compare/pkg/eta/zepto"
	"quick-compare/pkg/history"
	"quick-compare/pkg/location"
	"quick-compare/pkg/logger"
	"quick-compare/pkg/merge"
	"quick-compare/pkg/middleware"
	"quick-compare/pkg/models"
	"quick-compare/pkg/scrapers"
	"quick-compare/pkg/scrapers/blinkit"
	"quick-compare/pkg/scrapers/dmart"
	"quick-compare/pkg/scrapers/zepto"
	"quick-compare/pkg/search"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var purgers []history.Purger
	var results cache.Store
	switch cfg.CacheBackend {
	case "redis":
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
		}
		results = rc
		log.Printf("Cache backed by redis at %s", cfg.RedisAddr)
	default:
		sc, err := cache.NewSQLite(sqliteDSN(cfg.CacheDBPath))
		if err != nil {
			log.Fatalf("Failed to initialize cache: %v", err)
		}
		results = sc
		purgers = append(purgers, sc)
		log.Printf("Cache initialized at %s", cfg.CacheDBPath)
	}
	defer results.Close()

	listings, err := history.New(sqliteDSN(cfg.CacheDBPath))
	if err != nil {
		log.Fatalf("Failed to initialize listing history: %v", err)
	}
	defer listings.Close()

	go history.Janitor(ctx, listings, time.Hour, cfg.HistoryRetention, purgers...)

	stores := location.NewDMartLocator(cfg.ETATimeout)
	var resolver locationResolver
	if cfg.GoogleMapsAPIKey != "" {
		resolver = location.NewGeocoder(cfg.GoogleMapsAPIKey, cfg.ETATimeout)
	} else {
		log.Println("GOOGLE_MAPS_API_KEY not set, addresses will not be geocoded")
	}

	registry := scrapers.NewRegistry(
		blinkit.NewScraper(cfg.Headless, cfg.ScrapeTimeout),
		zepto.NewScraper(cfg.ScrapeTimeout),
		dmart.NewScraper(stores, cfg.ScrapeTimeout),
	)

	defaultLoc := models.Location{Address: cfg.DefaultAddress, Pincode: cfg.DefaultPincode}

	searcher := search.NewService(registry, merge.NewMerger(), results, listings, resolver, search.Options{
		MaxScrapers:     cfg.MaxScrapers,
		ScrapeTimeout:   cfg.ScrapeTimeout,
		TTL:             cfg.SearchTTL,
		DefaultLocation: defaultLoc,
	})

	etas := eta.NewService(results, cfg.ETATTL, cfg.ETATimeout,
		etablinkit.NewFetcher(cfg.Headless, cfg.ETATimeout),
		etazepto.NewFetcher(cfg.Headless, cfg.ETATimeout),
		etadmart.NewFetcher(stores, cfg.ETATimeout),
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, time.Minute, 5*time.Minute)

	srv := &server{
		search:   searcher,
		etas:     etas,
		history:  listings,
		resolver: resolver,
		limiter:  limiter,
		cfg:      cfg,
		defaults: defaultLoc,
	}

	ip := GetOutboundIP()
	if ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), cfg.Port)
	} else {
		fmt.Println("Could not determine local IP address.")
	}
	fmt.Printf("Access URL: http://localhost:%s\n", cfg.Port)
	fmt.Printf("API Docs: http://localhost:%s/\n", cfg.Port)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
		logger.Flush()
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// sqliteDSN lets the cache and history share one database file.
func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP
}
