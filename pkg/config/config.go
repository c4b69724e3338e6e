package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	CacheBackend string
	CacheDBPath  string
	RedisAddr    string
	SearchTTL    time.Duration
	ETATTL       time.Duration

	HistoryRetention time.Duration

	MaxScrapers   int
	ScrapeTimeout time.Duration
	ETATimeout    time.Duration
	Headless      bool

	DefaultAddress   string
	DefaultPincode   string
	GoogleMapsAPIKey string

	RateLimitRPS   float64
	RateLimitBurst int
}

var defaults = map[string]any{
	"PORT":                   "9090",
	"CACHE_BACKEND":          "sqlite",
	"CACHE_DB_PATH":          "./cache.db",
	"REDIS_ADDR":             "localhost:6379",
	"SEARCH_TTL_MINUTES":     5,
	"ETA_TTL_MINUTES":        5,
	"HISTORY_RETENTION_DAYS": 7,
	"MAX_SCRAPERS":           3,
	"SCRAPE_TIMEOUT_SECONDS": 60,
	"ETA_TIMEOUT_SECONDS":    25,
	"HEADLESS":               true,
	"DEFAULT_ADDRESS":        "Kothrud, Pune",
	"DEFAULT_PINCODE":        "411038",
	"GOOGLE_MAPS_API_KEY":    "",
	"RATE_LIMIT_RPS":         1.0,
	"RATE_LIMIT_BURST":       5,
}

// Load reads the configuration from the environment, falling back to
// defaults for anything unset or non-positive.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("PORT"),
		CacheBackend:     v.GetString("CACHE_BACKEND"),
		CacheDBPath:      v.GetString("CACHE_DB_PATH"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		SearchTTL:        time.Duration(positive(v, "SEARCH_TTL_MINUTES")) * time.Minute,
		ETATTL:           time.Duration(positive(v, "ETA_TTL_MINUTES")) * time.Minute,
		HistoryRetention: time.Duration(positive(v, "HISTORY_RETENTION_DAYS")) * 24 * time.Hour,
		MaxScrapers:      positive(v, "MAX_SCRAPERS"),
		ScrapeTimeout:    time.Duration(positive(v, "SCRAPE_TIMEOUT_SECONDS")) * time.Second,
		ETATimeout:       time.Duration(positive(v, "ETA_TIMEOUT_SECONDS")) * time.Second,
		Headless:         v.GetBool("HEADLESS"),
		DefaultAddress:   v.GetString("DEFAULT_ADDRESS"),
		DefaultPincode:   v.GetString("DEFAULT_PINCODE"),
		GoogleMapsAPIKey: v.GetString("GOOGLE_MAPS_API_KEY"),
		RateLimitRPS:     v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:   positive(v, "RATE_LIMIT_BURST"),
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = defaults["RATE_LIMIT_RPS"].(float64)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func positive(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return defaults[key].(int)
}

func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want sqlite or redis)", c.CacheBackend)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}
