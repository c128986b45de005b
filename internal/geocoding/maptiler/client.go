// Package maptiler provides a client for the MapTiler geocoding API.
package maptiler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/geocoding"
	"github.com/cellway/cellway/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "maptiler"

	// DefaultBaseURL is the MapTiler API base URL.
	DefaultBaseURL = "https://api.maptiler.com"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the MapTiler client.
type ClientConfig struct {
	// APIKey is the MapTiler API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the hosted API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a MapTiler geocoding API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new MapTiler client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Forward finds places matching a text query.
func (c *Client) Forward(ctx context.Context, req geocoding.ForwardRequest) ([]geocoding.Place, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("autocomplete", strconv.FormatBool(req.Autocomplete))
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Proximity != nil {
		q.Set("proximity", fmt.Sprintf("%f,%f", req.Proximity.Lon, req.Proximity.Lat))
	}

	endpoint := fmt.Sprintf("%s/geocoding/%s.json?%s",
		c.baseURL, url.PathEscape(req.Query), q.Encode())
	return c.fetch(ctx, endpoint)
}

// Reverse finds the places at a coordinate.
func (c *Client) Reverse(ctx context.Context, p geo.Point) ([]geocoding.Place, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s/geocoding/%f,%f.json?%s",
		c.baseURL, p.Lon, p.Lat, q.Encode())
	return c.fetch(ctx, endpoint)
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]geocoding.Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", geocoding.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, geocoding.ErrInvalidAPIKey
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status code %d", geocoding.ErrProviderUnavailable, resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	places := make([]geocoding.Place, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Center) < 2 {
			continue
		}
		places = append(places, geocoding.Place{
			ID:        f.ID,
			Name:      f.Text,
			PlaceName: f.PlaceName,
			// GeoJSON centers are [lon, lat].
			Center:    geo.Point{Lat: f.Center[1], Lon: f.Center[0]},
			Kinds:     f.PlaceType,
			Relevance: f.Relevance,
		})
	}

	c.logger.Debug().
		Int("results", len(places)).
		Msg("received places from maptiler")
	return places, nil
}

// MapTiler geocoding response structures (GeoJSON).

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	PlaceName string    `json:"place_name"`
	PlaceType []string  `json:"place_type"`
	Center    []float64 `json:"center"`
	Relevance float64   `json:"relevance"`
}
