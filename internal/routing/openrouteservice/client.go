// Package openrouteservice provides a client for the OpenRouteService
// directions API, an alternative to GraphHopper for self-hosted setups.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/provider/resilience"
	"github.com/cellway/cellway/internal/routing"
	"github.com/cellway/cellway/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultProfile is the default routing profile.
	DefaultProfile = "driving-car"

	// maxAlternativePaths caps alternative route requests; the ORS
	// alternative_routes option rejects target counts above 3.
	maxAlternativePaths = 3
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the hosted API).
	BaseURL string

	// Profile is the routing profile (optional, defaults to driving-car).
	Profile string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService API client.
type Client struct {
	apiKey     string
	baseURL    string
	profile    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	profile := cfg.Profile
	if profile == "" {
		profile = DefaultProfile
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		profile:    profile,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchAlternatives retrieves up to maxAlternatives route alternatives
// between two points.
func (c *Client) FetchAlternatives(ctx context.Context, start, end geo.Point, maxAlternatives int) ([]routing.RouteCandidate, error) {
	if !validCoordinate(start) {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_START",
			Message:  "invalid start coordinates",
			Err:      routing.ErrInvalidInput,
		}
	}
	if !validCoordinate(end) {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_END",
			Message:  "invalid end coordinates",
			Err:      routing.ErrInvalidInput,
		}
	}

	if maxAlternatives <= 0 || maxAlternatives > maxAlternativePaths {
		maxAlternatives = maxAlternativePaths
	}

	orsReq := orsRequest{
		// ORS uses [lon, lat] order (GeoJSON)
		Coordinates: [][]float64{
			{start.Lon, start.Lat},
			{end.Lon, end.Lat},
		},
		Instructions: true,
		Geometry:     true,
		Units:        "m",
		Language:     "en",
		Elevation:    true,
	}
	if maxAlternatives > 1 {
		orsReq.AlternativeRoutes = &alternativeRoutesOpts{
			TargetCount: maxAlternatives,
		}
	}

	body, err := json.Marshal(orsReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, c.profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	c.logger.Debug().
		Str("profile", c.profile).
		Float64("start_lat", start.Lat).
		Float64("start_lon", start.Lon).
		Float64("end_lat", end.Lat).
		Float64("end_lon", end.Lon).
		Int("max_alternatives", maxAlternatives).
		Msg("requesting routes from openrouteservice")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Propagate cancellation untouched so the orchestrator can tell
		// an aborted request from a provider outage.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var orsResp orsResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(orsResp.Routes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRoute,
		}
	}

	cands := make([]routing.RouteCandidate, 0, len(orsResp.Routes))
	for i := range orsResp.Routes {
		cands = append(cands, c.toCandidate(&orsResp.Routes[i]))
	}

	c.logger.Debug().
		Int("alternatives", len(cands)).
		Msg("received routes from openrouteservice")
	return cands, nil
}

// handleErrorResponse maps ORS error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	if err := json.Unmarshal(body, &orsErr); err != nil {
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_API_KEY",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrInvalidAPIKey,
		}
	case http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case http.StatusNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRoute,
		}
	case http.StatusBadRequest:
		switch orsErr.Error.Code {
		case orsErrorCodeNotFound:
			return &routing.Error{
				Provider: ProviderName,
				Code:     "NO_ROUTE",
				Message:  orsErr.Error.Message,
				Err:      routing.ErrNoRoute,
			}
		case orsErrorCodeDistanceLimit:
			return &routing.Error{
				Provider: ProviderName,
				Code:     "DISTANCE_LIMIT",
				Message:  orsErr.Error.Message,
				Err:      routing.ErrDistanceLimitExceeded,
			}
		default:
			return &routing.Error{
				Provider: ProviderName,
				Code:     "BAD_REQUEST",
				Message:  orsErr.Error.Message,
				Err:      routing.ErrInvalidInput,
			}
		}
	default:
		if statusCode >= 500 {
			return &routing.Error{
				Provider: ProviderName,
				Code:     fmt.Sprintf("SERVER_%d", statusCode),
				Message:  "routing provider is temporarily unavailable",
				Err:      routing.ErrProviderUnavailable,
			}
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  orsErr.Error.Message,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toCandidate converts an ORS route to the domain model.
func (c *Client) toCandidate(route *orsRoute) routing.RouteCandidate {
	geometry := decodeGeometry(route.Geometry)

	cand := routing.RouteCandidate{
		Geometry:        geometry,
		DistanceMeters:  route.Summary.Distance,
		DurationSeconds: route.Summary.Duration,
		AscendMeters:    route.Ascent,
		DescendMeters:   route.Descent,
	}

	for i := range route.Segments {
		for j := range route.Segments[i].Steps {
			step := &route.Segments[i].Steps[j]
			s := routing.Step{
				Sign:            orsStepSign(step.Type),
				Text:            step.Instruction,
				StreetName:      step.Name,
				DistanceMeters:  step.Distance,
				DurationSeconds: step.Duration,
				ExitNumber:      step.ExitNumber,
			}
			if seg := sliceSegment(geometry, step.WayPoints); len(seg) > 0 {
				anchor := seg[0]
				s.Anchor = &anchor
				s.Segment = seg
			}
			cand.Steps = append(cand.Steps, s)
		}
	}

	return cand
}

// orsStepSign maps ORS instruction types onto the GraphHopper-style sign
// codes the rest of the pipeline uses.
func orsStepSign(orsType int) int {
	switch orsType {
	case 0, 1: // left / right
		if orsType == 0 {
			return -2
		}
		return 2
	case 2: // sharp left
		return -3
	case 3: // sharp right
		return 3
	case 4: // slight left
		return -1
	case 5: // slight right
		return 1
	case 6: // straight
		return 0
	case 7, 8: // enter / exit roundabout
		return 6
	case 10: // arrive
		return 4
	case 11: // depart
		return 0
	default:
		return 0
	}
}

// decodeGeometry parses the route's encoded polyline. ORS always encodes
// route geometry when the JSON directions format is requested.
func decodeGeometry(encoded string) []geo.Point {
	if encoded == "" {
		return nil
	}

	lls := polyline.Decode(encoded)
	pts := make([]geo.Point, 0, len(lls))
	for _, ll := range lls {
		pts = append(pts, geo.Point{Lat: ll.Lat, Lon: ll.Lon})
	}
	return pts
}

// sliceSegment cuts the step's way-point interval out of the geometry,
// clamping out-of-range indices.
func sliceSegment(geometry []geo.Point, interval []int) []geo.Point {
	if len(interval) < 2 || len(geometry) == 0 {
		return nil
	}

	from, to := interval[0], interval[1]
	if from < 0 {
		from = 0
	}
	if to >= len(geometry) {
		to = len(geometry) - 1
	}
	if from > to {
		return nil
	}
	return geometry[from : to+1]
}

// validCoordinate checks finiteness and range.
func validCoordinate(p geo.Point) bool {
	return p.Finite() && p.Valid()
}
