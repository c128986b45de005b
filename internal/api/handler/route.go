package handler

import (
	"errors"
	"net"
	"net/http"

	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/api/response"
	"github.com/cellway/cellway/internal/coverage"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/routing"
)

// maxTowersPerVariant caps how many correlated towers a variant carries
// on the wire. Dense urban corridors can match thousands; an even sample
// keeps the payload renderable without losing corridor shape.
const maxTowersPerVariant = 300

// RouteHandler handles route computation endpoints.
type RouteHandler struct {
	manager *routing.Manager
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(manager *routing.Manager) *RouteHandler {
	return &RouteHandler{
		manager: manager,
	}
}

// ComputeRoutes handles GET /v1/routes/compute - compute all route
// variants between two points and return the resulting session snapshot.
// An optional kind parameter selects the active variant when available.
func (h *RouteHandler) ComputeRoutes(w http.ResponseWriter, r *http.Request) {
	var fieldErrs []models.FieldError
	startLat := floatParam(r, "start_lat", &fieldErrs)
	startLon := floatParam(r, "start_lon", &fieldErrs)
	endLat := floatParam(r, "end_lat", &fieldErrs)
	endLon := floatParam(r, "end_lon", &fieldErrs)

	var kind routing.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, err := routing.ParseKind(raw)
		if err != nil {
			fieldErrs = append(fieldErrs, models.FieldError{
				Field:   "kind",
				Message: "must be one of fastest, cell_coverage, balanced",
				Code:    "invalid",
			})
		}
		kind = parsed
	}

	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrs)
		return
	}

	start := routing.Waypoint{
		Point: geo.Point{Lat: startLat, Lon: startLon},
		Label: r.URL.Query().Get("start_label"),
	}
	end := routing.Waypoint{
		Point: geo.Point{Lat: endLat, Lon: endLon},
		Label: r.URL.Query().Get("end_label"),
	}

	session := h.manager.Session(sessionKey(r))
	snap, err := session.Start(r.Context(), start, end)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrInvalidInput):
			response.BadRequest(w, r, "coordinates are out of range", nil)
		case errors.Is(err, routing.ErrDistanceLimitExceeded):
			response.BadRequest(w, r, "route distance exceeds the supported limit", nil)
		case errors.Is(err, routing.ErrAllVariantsFailed):
			response.ServiceUnavailable(w, r, "route computation is unavailable right now")
		default:
			response.InternalError(w, r, "route computation failed")
		}
		return
	}

	if kind != "" {
		// A missing variant keeps the current selection; the client sees
		// which kinds succeeded in the snapshot.
		if selected, err := session.Select(kind); err == nil {
			snap = selected
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, snapshotResponse(snap))
}

// sessionKey identifies the routing session owner: the authenticated
// user when present, the client address otherwise.
func sessionKey(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return userID
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// snapshotResponse converts a session snapshot to its wire form.
func snapshotResponse(snap routing.Snapshot) models.RouteComputeResponse {
	resp := models.RouteComputeResponse{
		Status:     string(snap.Status),
		ActiveKind: string(snap.ActiveKind),
		UpdatedAt:  models.Timestamp(snap.UpdatedAt),
	}
	if snap.Start.Valid() {
		resp.Start = waypointModel(snap.Start)
	}
	if snap.End.Valid() {
		resp.End = waypointModel(snap.End)
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}

	if snap.Variants != nil {
		resp.Variants = make(map[string]*models.RouteVariant, len(snap.Variants))
		for k, v := range snap.Variants {
			resp.Variants[string(k)] = variantModel(v)
		}
	}
	return resp
}

func waypointModel(wp routing.Waypoint) *models.Waypoint {
	return &models.Waypoint{
		Point: models.Point{Lat: wp.Point.Lat, Lon: wp.Point.Lon},
		Label: wp.Label,
	}
}

func variantModel(v *routing.Variant) *models.RouteVariant {
	if v == nil {
		return nil
	}

	out := &models.RouteVariant{
		Kind:            string(v.Kind),
		Geometry:        pointsModel(v.Geometry),
		DistanceMeters:  v.DistanceMeters,
		DurationSeconds: v.DurationSeconds,
		AscendMeters:    v.AscendMeters,
		DescendMeters:   v.DescendMeters,
		Snapped:         pointsModel(v.Snapped),
		SignalScore:     v.SignalScore,
		Provider:        v.Provider,
		ComputedAt:      models.Timestamp(v.ComputedAt),
	}

	if len(v.Steps) > 0 {
		out.Steps = make([]models.RouteStep, len(v.Steps))
		for i, s := range v.Steps {
			step := models.RouteStep{
				Sign:            s.Sign,
				Text:            s.Text,
				StreetName:      s.StreetName,
				DistanceMeters:  s.DistanceMeters,
				DurationSeconds: s.DurationSeconds,
				ExitNumber:      s.ExitNumber,
				TurnAngle:       s.TurnAngle,
			}
			if s.Anchor != nil {
				step.Anchor = &models.Point{Lat: s.Anchor.Lat, Lon: s.Anchor.Lon}
			}
			out.Steps[i] = step
		}
	}

	sampled := coverage.SampleEvenly(v.Towers, maxTowersPerVariant)
	if len(sampled) > 0 {
		out.Towers = make([]models.RouteTower, len(sampled))
		for i, ct := range sampled {
			out.Towers[i] = models.RouteTower{
				ID:                    ct.ID,
				Lat:                   ct.Lat,
				Lon:                   ct.Lon,
				Radio:                 ct.Radio,
				RangeMeters:           ct.RangeMeters,
				AverageSignal:         ct.AverageSignal,
				Samples:               ct.Samples,
				DistanceToRouteMeters: ct.DistanceToRouteMeters,
				PositionAlongRoute:    ct.PositionAlongRoute,
			}
		}
	}

	return out
}

func pointsModel(points []geo.Point) []models.Point {
	if points == nil {
		return nil
	}
	out := make([]models.Point, len(points))
	for i, p := range points {
		out[i] = models.Point{Lat: p.Lat, Lon: p.Lon}
	}
	return out
}
