// Package graphhopper provides a client for the GraphHopper routing API.
package graphhopper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/provider/resilience"
	"github.com/cellway/cellway/internal/routing"
	"github.com/cellway/cellway/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "graphhopper"

	// DefaultBaseURL is the GraphHopper API base URL.
	DefaultBaseURL = "https://graphhopper.com/api/1"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultProfile is the default routing profile.
	DefaultProfile = "car"

	// maxAlternativePaths caps alternative route requests.
	maxAlternativePaths = 10
)

// routeDetails are the per-segment detail layers requested with every
// route.
var routeDetails = []string{"street_name", "time", "distance", "max_speed", "road_class"}

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the GraphHopper client.
type ClientConfig struct {
	// APIKey is the GraphHopper API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the hosted API).
	BaseURL string

	// Profile is the routing profile (optional, defaults to car).
	Profile string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 20s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a GraphHopper API client.
type Client struct {
	apiKey     string
	baseURL    string
	profile    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new GraphHopper client.
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

	if maxAlternatives <= 0 {
		maxAlternatives = 5
	}
	if maxAlternatives > maxAlternativePaths {
		maxAlternatives = maxAlternativePaths
	}

	q := url.Values{}
	q.Add("point", formatCoordinate(start))
	q.Add("point", formatCoordinate(end))
	q.Set("profile", c.profile)
	q.Set("locale", "en")
	q.Set("instructions", "true")
	q.Set("calc_points", "true")
	q.Set("points_encoded", "false")
	if maxAlternatives > 1 {
		q.Set("algorithm", "alternative_route")
		q.Set("alternative_route.max_paths", strconv.Itoa(maxAlternatives))
		q.Set("alternative_route.max_weight_factor", "1.8")
		q.Set("alternative_route.max_share_factor", "0.8")
	}
	for _, d := range routeDetails {
		q.Add("details", d)
	}
	q.Set("key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/route?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Float64("start_lat", start.Lat).
		Float64("start_lon", start.Lon).
		Float64("end_lat", end.Lat).
		Float64("end_lon", end.Lon).
		Int("max_alternatives", maxAlternatives).
		Msg("requesting routes from graphhopper")

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

	var ghResp ghResponse
	if err := json.Unmarshal(respBody, &ghResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(ghResp.Paths) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRoute,
		}
	}

	cands := make([]routing.RouteCandidate, 0, len(ghResp.Paths))
	for i := range ghResp.Paths {
		cand, err := c.toCandidate(&ghResp.Paths[i])
		if err != nil {
			return nil, fmt.Errorf("decoding path %d: %w", i, err)
		}
		cands = append(cands, cand)
	}

	c.logger.Debug().
		Int("alternatives", len(cands)).
		Msg("received routes from graphhopper")
	return cands, nil
}

// handleErrorResponse maps GraphHopper error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var ghErr ghErrorResponse
	if err := json.Unmarshal(body, &ghErr); err != nil {
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	message := ghErr.Message
	if message == "" && len(ghErr.Hints) > 0 {
		message = ghErr.Hints[0].Message
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
	case http.StatusBadRequest:
		lower := strings.ToLower(message)
		switch {
		case strings.Contains(lower, "cannot find point"):
			return &routing.Error{
				Provider: ProviderName,
				Code:     "POINT_NOT_FOUND",
				Message:  message,
				Err:      routing.ErrNoRoute,
			}
		case strings.Contains(lower, "connection between locations not found"):
			return &routing.Error{
				Provider: ProviderName,
				Code:     "NO_ROUTE",
				Message:  message,
				Err:      routing.ErrNoRoute,
			}
		case strings.Contains(lower, "limit") && (strings.Contains(lower, "km") || strings.Contains(lower, "distance")):
			return &routing.Error{
				Provider: ProviderName,
				Code:     "DISTANCE_LIMIT",
				Message:  message,
				Err:      routing.ErrDistanceLimitExceeded,
			}
		default:
			return &routing.Error{
				Provider: ProviderName,
				Code:     "BAD_REQUEST",
				Message:  message,
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
			Message:  message,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toCandidate converts a GraphHopper path to the domain model.
func (c *Client) toCandidate(path *ghPath) (routing.RouteCandidate, error) {
	geometry, err := decodeGeometry(path.Points, path.PointsEncoded)
	if err != nil {
		return routing.RouteCandidate{}, fmt.Errorf("decoding geometry: %w", err)
	}

	snapped, err := decodeGeometry(path.SnappedWaypoints, path.PointsEncoded)
	if err != nil {
		// Snapped waypoints are a nicety; a malformed block should not
		// sink an otherwise good route.
		snapped = nil
	}

	cand := routing.RouteCandidate{
		Geometry:        geometry,
		DistanceMeters:  path.Distance,
		DurationSeconds: float64(path.Time) / 1000.0,
		AscendMeters:    path.Ascend,
		DescendMeters:   path.Descend,
		Snapped:         snapped,
	}

	for _, inst := range path.Instructions {
		step := routing.Step{
			Sign:            inst.Sign,
			Text:            inst.Text,
			StreetName:      inst.StreetName,
			DistanceMeters:  inst.Distance,
			DurationSeconds: float64(inst.Time) / 1000.0,
			ExitNumber:      inst.ExitNumber,
			TurnAngle:       inst.TurnAngle,
		}
		if seg := sliceSegment(geometry, inst.Interval); len(seg) > 0 {
			anchor := seg[0]
			step.Anchor = &anchor
			step.Segment = seg
		}
		cand.Steps = append(cand.Steps, step)
	}

	return cand, nil
}

// decodeGeometry parses a points block, either a GeoJSON LineString with
// [lon, lat] coordinates or an encoded polyline string.
func decodeGeometry(raw json.RawMessage, encoded bool) ([]geo.Point, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	if encoded {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("encoded points: %w", err)
		}
		lls := polyline.Decode(s)
		pts := make([]geo.Point, 0, len(lls))
		for _, ll := range lls {
			pts = append(pts, geo.Point{Lat: ll.Lat, Lon: ll.Lon})
		}
		return pts, nil
	}

	var ls ghLineString
	if err := json.Unmarshal(raw, &ls); err != nil {
		return nil, fmt.Errorf("line string: %w", err)
	}

	pts := make([]geo.Point, 0, len(ls.Coordinates))
	for _, c := range ls.Coordinates {
		if len(c) < 2 {
			continue
		}
		pts = append(pts, geo.Point{Lat: c[1], Lon: c[0]})
	}
	return pts, nil
}

// sliceSegment cuts the instruction's interval out of the geometry,
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

// formatCoordinate renders a point as the lat,lon pair GraphHopper
// expects.
func formatCoordinate(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// validCoordinate checks finiteness and range.
func validCoordinate(p geo.Point) bool {
	return p.Finite() && p.Valid()
}
