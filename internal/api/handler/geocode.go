package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/api/response"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/geocoding"
)

// GeocodeHandler handles geocoding endpoints.
type GeocodeHandler struct {
	service *geocoding.Service
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(service *geocoding.Service) *GeocodeHandler {
	return &GeocodeHandler{
		service: service,
	}
}

// Forward handles GET /v1/geo/forward - text search for places.
func (h *GeocodeHandler) Forward(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := geocoding.ForwardRequest{
		Query:        q.Get("q"),
		Autocomplete: q.Get("autocomplete") == "true",
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 10 {
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "limit", Message: "must be an integer between 1 and 10", Code: "invalid"},
			})
			return
		}
		req.Limit = limit
	}

	var fieldErrs []models.FieldError
	proxLon, hasLon := optionalFloatParam(r, "proximity_lon", &fieldErrs)
	proxLat, hasLat := optionalFloatParam(r, "proximity_lat", &fieldErrs)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrs)
		return
	}
	if hasLon && hasLat {
		req.Proximity = &geo.Point{Lat: proxLat, Lon: proxLon}
	}

	places, err := h.service.Forward(r.Context(), req)
	if err != nil {
		if errors.Is(err, geocoding.ErrEmptyQuery) {
			response.BadRequest(w, r, "validation error", []models.FieldError{
				{Field: "q", Message: "required", Code: "required"},
			})
			return
		}
		h.writeProviderError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	response.JSON(w, r, http.StatusOK, h.geocodeResponse(places))
}

// Reverse handles GET /v1/geo/reverse - places at a coordinate.
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var fieldErrs []models.FieldError
	lat := floatParam(r, "lat", &fieldErrs)
	lon := floatParam(r, "lon", &fieldErrs)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrs)
		return
	}

	places, err := h.service.Reverse(r.Context(), geo.Point{Lat: lat, Lon: lon})
	if err != nil {
		if errors.Is(err, geocoding.ErrInvalidPoint) {
			response.BadRequest(w, r, "coordinates are out of range", nil)
			return
		}
		h.writeProviderError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	response.JSON(w, r, http.StatusOK, h.geocodeResponse(places))
}

func (h *GeocodeHandler) writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	// A rejected key is a deployment problem, not something the client
	// can act on; both cases read as provider downtime from outside.
	if errors.Is(err, geocoding.ErrProviderUnavailable) || errors.Is(err, geocoding.ErrInvalidAPIKey) {
		response.ServiceUnavailable(w, r, "geocoding is unavailable right now")
		return
	}
	response.InternalError(w, r, "geocoding failed")
}

func (h *GeocodeHandler) geocodeResponse(places []geocoding.Place) models.GeocodeResponse {
	out := models.GeocodeResponse{
		Places:   make([]models.Place, len(places)),
		Provider: h.service.ProviderName(),
	}
	for i, p := range places {
		out.Places[i] = models.Place{
			ID:        p.ID,
			Name:      p.Name,
			PlaceName: p.PlaceName,
			Center:    models.Point{Lat: p.Center.Lat, Lon: p.Center.Lon},
			Kinds:     p.Kinds,
			Relevance: p.Relevance,
		}
	}
	return out
}
