package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/go-chi/chi/v5"

	"quick-compare/pkg/api"
	"quick-compare/pkg/compare"
	"quick-compare/pkg/config"
	"quick-compare/pkg/middleware"
	"quick-compare/pkg/models"
	"quick-compare/pkg/search"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
)

type searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Result, error)
}

type etaService interface {
	All(ctx context.Context, loc models.Location) map[models.Platform]string
	One(ctx context.Context, p models.Platform, loc models.Location) (string, error)
}

type historyReader interface {
	ByPlatform(ctx context.Context, p models.Platform, since time.Time, limit int) ([]models.Listing, error)
}

type locationResolver interface {
	Resolve(ctx context.Context, loc models.Location) (models.Location, error)
}

type server struct {
	search   searcher
	etas     etaService
	history  historyReader
	resolver locationResolver
	limiter  *middleware.RateLimiter
	cfg      *config.Config
	defaults models.Location
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteNotFound(w, "No route for "+r.URL.Path, r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path), r.URL.Path)
	})

	r.Get("/", docsHandler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/config", s.handleConfig)
	r.Get("/history/{platform}", s.handleHistory)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/search", s.handleSearch)
		r.Post("/eta", s.handleETAs)
		r.Post("/eta/{platform}", s.handleETA)
	})

	return r
}

func docsHandler(w http.ResponseWriter, r *http.Request) {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("QuickCompare API"),
		),
	)
	if err != nil {
		api.WriteInternalServerError(w, err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func (s *server) handleConfig(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{
		"maps_api_key": s.cfg.GoogleMapsAPIKey,
	})
}

type locationRequest struct {
	Address   string  `json:"address"`
	Pincode   string  `json:"pincode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (lr locationRequest) location() models.Location {
	return models.Location{
		Address:   strings.TrimSpace(lr.Address),
		Pincode:   strings.TrimSpace(lr.Pincode),
		Latitude:  lr.Latitude,
		Longitude: lr.Longitude,
	}
}

type searchRequest struct {
	locationRequest
	Query    string `json:"query"`
	Platform string `json:"platform"`
	WithETA  bool   `json:"with_eta"`
}

type searchResponse struct {
	Query              string                `json:"query"`
	Platform           string                `json:"platform"`
	Cache              bool                  `json:"cache"`
	PlatformsSucceeded []string              `json:"platforms_succeeded"`
	PlatformsFailed    []string              `json:"platforms_failed"`
	Products           []compare.ProductView `json:"products"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	selector := strings.ToLower(strings.TrimSpace(req.Platform))
	if selector == "" {
		selector = compare.AllPlatforms
	}
	if !compare.ValidSelector(selector) {
		api.WriteBadRequest(w, "Platform not supported. Available: all, blinkit, zepto, dmart", r.URL.Path)
		return
	}

	res, err := s.search.Search(r.Context(), search.Request{Query: req.Query, Location: req.location()})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			api.WriteBadRequest(w, "Query is required.", r.URL.Path)
			return
		}
		log.Printf("Search for %q failed: %v", req.Query, err)
		api.WriteUpstreamError(w, err, r.URL.Path)
		return
	}

	var etas map[models.Platform]string
	if req.WithETA {
		etas = s.etas.All(r.Context(), res.Location)
	}

	api.WriteJSON(w, http.StatusOK, searchResponse{
		Query:              res.Query,
		Platform:           selector,
		Cache:              res.Cached,
		PlatformsSucceeded: nonNil(res.PlatformsSucceeded),
		PlatformsFailed:    nonNil(res.PlatformsFailed),
		Products:           compare.BuildViews(res.Products, selector, etas),
	})
}

type etaResponse struct {
	Platform string        `json:"platform,omitempty"`
	ETA      string        `json:"eta"`
	Display  string        `json:"display"`
	Slot     *compare.Slot `json:"slot,omitempty"`
}

func newETAResponse(p models.Platform, raw string) etaResponse {
	return etaResponse{
		ETA:     raw,
		Display: compare.FormatETA(raw, p.Key()),
		Slot:    compare.SlotFor(raw, p.Key()),
	}
}

func (s *server) handleETAs(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	loc := s.resolve(r.Context(), req.location())
	etas := s.etas.All(r.Context(), loc)

	out := make(map[string]etaResponse, len(models.Platforms))
	for _, p := range models.Platforms {
		raw, ok := etas[p]
		if !ok {
			raw = compare.NotAvailable
		}
		out[p.Key()] = newETAResponse(p, raw)
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (s *server) handleETA(w http.ResponseWriter, r *http.Request) {
	p := models.ParsePlatform(chi.URLParam(r, "platform"))
	if p == models.Unknown {
		api.WriteBadRequest(w, "Platform not supported. Available: blinkit, zepto, dmart", r.URL.Path)
		return
	}

	var req locationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	raw, err := s.etas.One(r.Context(), p, s.resolve(r.Context(), req.location()))
	if err != nil {
		if errors.Is(err, models.ErrUnsupportedPlatform) {
			api.WriteBadRequest(w, err.Error(), r.URL.Path)
			return
		}
		api.WriteUpstreamError(w, err, r.URL.Path)
		return
	}

	resp := newETAResponse(p, raw)
	resp.Platform = p.Key()
	api.WriteJSON(w, http.StatusOK, resp)
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	p := models.ParsePlatform(chi.URLParam(r, "platform"))
	if p == models.Unknown {
		api.WriteBadRequest(w, "Platform not supported. Available: blinkit, zepto, dmart", r.URL.Path)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			api.WriteBadRequest(w, fmt.Sprintf("Invalid limit: %s. Must be between 1 and %d.", raw, maxHistoryLimit), r.URL.Path)
			return
		}
		limit = n
	}

	since, err := parseSince(r.URL.Query().Get("since"), time.Now())
	if err != nil {
		api.WriteBadRequest(w, "Invalid since: "+err.Error()+". Use a duration like 24h or an RFC 3339 time.", r.URL.Path)
		return
	}

	listings, err := s.history.ByPlatform(r.Context(), p, since, limit)
	if err != nil {
		log.Printf("History lookup for %s failed: %v", p, err)
		api.WriteUpstreamError(w, err, r.URL.Path)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	api.WriteJSON(w, http.StatusOK, listings)
}

// parseSince accepts a look-back duration ("24h") or an RFC 3339 time.
// Empty means no lower bound.
func parseSince(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("not a duration or RFC 3339 time: %q", raw)
}

// resolve applies the default location and geocodes the address when a
// resolver is configured.
func (s *server) resolve(ctx context.Context, loc models.Location) models.Location {
	if loc.Address == "" {
		loc.Address = s.defaults.Address
	}
	if loc.Pincode == "" {
		loc.Pincode = s.defaults.Pincode
	}
	if s.resolver == nil {
		return loc
	}
	resolved, err := s.resolver.Resolve(ctx, loc)
	if err != nil {
		log.Printf("Could not geocode %q: %v", loc.Address, err)
		return loc
	}
	return resolved
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	// An empty body means "all defaults".
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		api.WriteBadRequest(w, "Invalid JSON body: "+err.Error(), r.URL.Path)
		return false
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
