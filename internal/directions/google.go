// Package directions fetches driving routes between two coordinates.
package directions

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
)

const googleDirectionsEndpoint = "/directions/json"

// ErrNoRoute is returned when the provider finds no route between the points.
var ErrNoRoute = errors.New("no route found")

// Route is the part of a provider route this service keeps
type Route struct {
	Polyline        string // overview geometry, encoded polyline
	Precision       int    // decimal digits of Polyline
	Summary         string
	DistanceMeters  int
	DurationSeconds int
}

// GoogleProvider calls the Google Directions API
type GoogleProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleProvider creates a new Google Directions provider
func NewGoogleProvider(apiKey, baseURL string, timeout time.Duration) *GoogleProvider {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &GoogleProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Summary          string `json:"summary"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route returns the first route between origin and destination
func (g *GoogleProvider) Route(ctx context.Context, origin, destination polyline.Coordinate) (*Route, error) {
	params := url.Values{}
	params.Set("origin", formatCoordinate(origin))
	params.Set("destination", formatCoordinate(destination))
	params.Set("mode", "driving")
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+googleDirectionsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions: HTTP error: %d", resp.StatusCode)
	}

	var result googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("directions: decode response: %w", err)
	}

	switch result.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, ErrNoRoute
	default:
		return nil, fmt.Errorf("directions API error: %s - %s", result.Status, result.ErrorMessage)
	}
	if len(result.Routes) == 0 {
		return nil, ErrNoRoute
	}

	first := result.Routes[0]
	route := &Route{
		Polyline:  first.OverviewPolyline.Points,
		Precision: polyline.DefaultPrecision,
		Summary:   first.Summary,
	}
	for _, leg := range first.Legs {
		route.DistanceMeters += leg.Distance.Value
		route.DurationSeconds += leg.Duration.Value
	}

	return route, nil
}

func formatCoordinate(c polyline.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
