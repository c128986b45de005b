package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/api/response"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/routestore"
)

// SavedRouteHandler handles saved route endpoints. All of them require
// authentication; the user ID scopes every operation.
type SavedRouteHandler struct {
	service *routestore.Service
}

// NewSavedRouteHandler creates a new SavedRouteHandler.
func NewSavedRouteHandler(service *routestore.Service) *SavedRouteHandler {
	return &SavedRouteHandler{
		service: service,
	}
}

// Create handles POST /v1/routes/saved - save a computed route.
func (h *SavedRouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	var req models.SavedRouteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	input := &routestore.SaveRequest{
		OriginName:      req.Origin.Name,
		Origin:          geo.Point{Lat: req.Origin.Point.Lat, Lon: req.Origin.Point.Lon},
		DestinationName: req.Destination.Name,
		Destination:     geo.Point{Lat: req.Destination.Point.Lat, Lon: req.Destination.Point.Lon},
		Kind:            req.Kind,
		Geometry:        geometryPoints(req.Geometry),
		DistanceMeters:  req.DistanceMeters,
		DurationSeconds: req.DurationSeconds,
		SignalScore:     req.SignalScore,
		HasAlternatives: req.HasAlternatives,
		ImageDataURL:    req.ImageDataURL,
	}

	saved, err := h.service.Save(r.Context(), userID, input)
	if err != nil {
		var verr *routestore.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "validation error", verr.Errors)
			return
		}
		response.InternalError(w, r, "failed to save route")
		return
	}

	response.Created(w, r, "/v1/routes/saved/"+saved.ID, savedRouteModel(saved))
}

// List handles GET /v1/routes/saved - list the user's saved routes,
// newest first.
func (h *SavedRouteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	routes, err := h.service.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, r, "failed to list saved routes")
		return
	}

	resp := models.SavedRoutesResponse{
		Routes: make([]models.SavedRoute, len(routes)),
	}
	for i, sr := range routes {
		resp.Routes[i] = savedRouteModel(sr)
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// Get handles GET /v1/routes/saved/{routeID} - fetch one saved route.
func (h *SavedRouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	routeID := chi.URLParam(r, "routeID")
	saved, err := h.service.Get(r.Context(), userID, routeID)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, savedRouteModel(saved))
}

// Delete handles DELETE /v1/routes/saved/{routeID} - remove a saved route.
func (h *SavedRouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return
	}

	routeID := chi.URLParam(r, "routeID")
	if err := h.service.Delete(r.Context(), userID, routeID); err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	response.NoContent(w, r)
}

// writeLookupError maps lookup failures. Routes belonging to another
// user read as not found so IDs cannot be probed.
func (h *SavedRouteHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, routestore.ErrRouteNotFound) || errors.Is(err, routestore.ErrNotAuthorized) {
		response.NotFound(w, r, "saved route not found")
		return
	}
	response.InternalError(w, r, "saved route lookup failed")
}

func savedRouteModel(sr *routestore.SavedRoute) models.SavedRoute {
	return models.SavedRoute{
		ID: sr.ID,
		Origin: models.SavedRouteEndpoint{
			Name:  sr.Origin.Name,
			Point: models.Point{Lat: sr.Origin.Point.Lat, Lon: sr.Origin.Point.Lon},
		},
		Destination: models.SavedRouteEndpoint{
			Name:  sr.Destination.Name,
			Point: models.Point{Lat: sr.Destination.Point.Lat, Lon: sr.Destination.Point.Lon},
		},
		Kind:            string(sr.Kind),
		Geometry:        pointsModel(sr.Geometry),
		DistanceMeters:  sr.DistanceMeters,
		DurationSeconds: sr.DurationSeconds,
		SignalScore:     sr.SignalScore,
		HasAlternatives: sr.HasAlternatives,
		ImageDataURL:    sr.ImageDataURL,
		CreatedAt:       models.Timestamp(sr.CreatedAt),
	}
}

func geometryPoints(points []models.Point) []geo.Point {
	if points == nil {
		return nil
	}
	out := make([]geo.Point, len(points))
	for i, p := range points {
		out[i] = geo.Point{Lat: p.Lat, Lon: p.Lon}
	}
	return out
}
