// Package geocode resolves free-text addresses to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"routeline/internal/polyline"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrAddressNotFound is returned when the geocoder has no match for an address.
var ErrAddressNotFound = errors.New("address not found")

// Cache stores resolved addresses. Implemented by redis.Cache.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
}

// Config configures NominatimGeocoder
type Config struct {
	BaseURL        string
	UserAgent      string
	RequestsPerSec float64
	Timeout        time.Duration
	CacheTTL       time.Duration
}

// NominatimGeocoder resolves addresses with the OSM Nominatim search API
type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
	log        *zap.Logger
}

// NewNominatimGeocoder creates a geocoder. cache may be nil.
func NewNominatimGeocoder(cfg Config, cache Cache, log *zap.Logger) *NominatimGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &NominatimGeocoder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		log:        log,
	}
}

// Geocode converts an address to coordinates
func (n *NominatimGeocoder) Geocode(ctx context.Context, address string) (polyline.Coordinate, error) {
	key := normalize(address)
	if key == "" {
		return polyline.Coordinate{}, ErrAddressNotFound
	}

	if c, ok := n.cached(ctx, key); ok {
		return c, nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return polyline.Coordinate{}, err
	}

	params := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return polyline.Coordinate{}, err
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return polyline.Coordinate{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return polyline.Coordinate{}, fmt.Errorf("nominatim: HTTP error: %d", resp.StatusCode)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return polyline.Coordinate{}, fmt.Errorf("nominatim: decode response: %w", err)
	}
	if len(results) == 0 {
		return polyline.Coordinate{}, ErrAddressNotFound
	}

	point, err := parseCoordinate(results[0].Lat, results[0].Lon)
	if err != nil {
		return polyline.Coordinate{}, fmt.Errorf("nominatim: %w", err)
	}

	n.store(ctx, key, point)
	return point, nil
}

func (n *NominatimGeocoder) cached(ctx context.Context, key string) (polyline.Coordinate, bool) {
	if n.cache == nil {
		return polyline.Coordinate{}, false
	}

	val, ok, err := n.cache.Get(ctx, key)
	if err != nil {
		n.log.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
		return polyline.Coordinate{}, false
	}
	if !ok {
		return polyline.Coordinate{}, false
	}

	lat, lng, found := strings.Cut(val, ",")
	if !found {
		return polyline.Coordinate{}, false
	}
	c, err := parseCoordinate(lat, lng)
	if err != nil {
		return polyline.Coordinate{}, false
	}
	return c, true
}

func (n *NominatimGeocoder) store(ctx context.Context, key string, c polyline.Coordinate) {
	if n.cache == nil {
		return
	}

	val := strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
	if err := n.cache.Set(ctx, key, val, n.cacheTTL); err != nil {
		n.log.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func parseCoordinate(lat, lng string) (polyline.Coordinate, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return polyline.Coordinate{}, fmt.Errorf("invalid latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return polyline.Coordinate{}, fmt.Errorf("invalid longitude %q", lng)
	}
	return polyline.Coordinate{Lat: la, Lng: lo}, nil
}

// normalize folds case and whitespace so equivalent queries share a cache entry
func normalize(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
