// Package google adapts the Google Geocoding API to the geocoding
// provider interface. It is the fallback for deployments without a
// MapTiler key.
package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/geocoding"
)

// ProviderName identifies this geocoding provider.
const ProviderName = "google"

// ClientConfig holds configuration for the Google geocoder.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Geocoding API client.
type Client struct {
	client *maps.Client
	logger zerolog.Logger
}

// NewClient creates a new Google geocoding client.
func NewClient(cfg ClientConfig) (*Client, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating google maps client: %w", err)
	}

	return &Client{client: client, logger: cfg.Logger}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Forward finds places matching a text query. The Geocoding API has no
// autocomplete mode or result limit, so those request fields are applied
// client-side.
func (c *Client) Forward(ctx context.Context, req geocoding.ForwardRequest) ([]geocoding.Place, error) {
	gr := &maps.GeocodingRequest{Address: req.Query}
	if req.Proximity != nil {
		// Bias results toward the proximity point with a small viewport.
		gr.Bounds = &maps.LatLngBounds{
			SouthWest: maps.LatLng{Lat: req.Proximity.Lat - 0.25, Lng: req.Proximity.Lon - 0.25},
			NorthEast: maps.LatLng{Lat: req.Proximity.Lat + 0.25, Lng: req.Proximity.Lon + 0.25},
		}
	}

	results, err := c.client.Geocode(ctx, gr)
	if err != nil {
		return nil, c.mapError(err)
	}

	places := toPlaces(results)
	if req.Limit > 0 && len(places) > req.Limit {
		places = places[:req.Limit]
	}

	c.logger.Debug().
		Int("results", len(places)).
		Msg("received places from google")
	return places, nil
}

// Reverse finds the places at a coordinate.
func (c *Client) Reverse(ctx context.Context, p geo.Point) ([]geocoding.Place, error) {
	results, err := c.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lon},
	})
	if err != nil {
		return nil, c.mapError(err)
	}
	return toPlaces(results), nil
}

func (c *Client) mapError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "REQUEST_DENIED") || strings.Contains(msg, "invalid API key"):
		return geocoding.ErrInvalidAPIKey
	default:
		return fmt.Errorf("%w: %s", geocoding.ErrProviderUnavailable, msg)
	}
}

func toPlaces(results []maps.GeocodingResult) []geocoding.Place {
	places := make([]geocoding.Place, 0, len(results))
	for _, r := range results {
		places = append(places, geocoding.Place{
			ID:        r.PlaceID,
			Name:      shortName(r),
			PlaceName: r.FormattedAddress,
			Center:    geo.Point{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng},
			Kinds:     r.Types,
		})
	}
	return places
}

// shortName picks a display name from the first address component,
// falling back to the leading segment of the formatted address.
func shortName(r maps.GeocodingResult) string {
	if len(r.AddressComponents) > 0 && r.AddressComponents[0].LongName != "" {
		return r.AddressComponents[0].LongName
	}
	if i := strings.Index(r.FormattedAddress, ","); i > 0 {
		return r.FormattedAddress[:i]
	}
	return r.FormattedAddress
}
