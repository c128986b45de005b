package handler

import (
	"errors"
	"net/http"

	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/api/response"
	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/towers"
)

// TowersHandler handles cell tower query endpoints.
type TowersHandler struct {
	service *towers.Service
}

// NewTowersHandler creates a new TowersHandler.
func NewTowersHandler(service *towers.Service) *TowersHandler {
	return &TowersHandler{
		service: service,
	}
}

// Query handles GET /v1/towers - towers inside a bounding box.
func (h *TowersHandler) Query(w http.ResponseWriter, r *http.Request) {
	var fieldErrs []models.FieldError
	bounds := geo.BoundingBox{
		MinLat: floatParam(r, "min_lat", &fieldErrs),
		MinLon: floatParam(r, "min_lon", &fieldErrs),
		MaxLat: floatParam(r, "max_lat", &fieldErrs),
		MaxLon: floatParam(r, "max_lon", &fieldErrs),
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrs)
		return
	}

	result, err := h.service.WithinBounds(r.Context(), bounds)
	if err != nil {
		switch {
		case errors.Is(err, towers.ErrInvalidBounds):
			response.BadRequest(w, r, "bounding box is malformed", nil)
		case errors.Is(err, towers.ErrNoData):
			response.ServiceUnavailable(w, r, "tower data is not loaded yet")
		default:
			response.InternalError(w, r, "tower query failed")
		}
		return
	}

	resp := models.TowersResponse{
		Towers:    make([]models.Tower, len(result.Towers)),
		Source:    result.Source,
		FetchedAt: models.Timestamp(result.FetchedAt),
	}
	for i, t := range result.Towers {
		resp.Towers[i] = models.Tower{
			ID:            t.ID,
			Lat:           t.Lat,
			Lon:           t.Lon,
			Radio:         t.Radio,
			RangeMeters:   t.RangeMeters,
			AverageSignal: t.AverageSignal,
			Samples:       t.Samples,
		}
	}

	w.Header().Set("Cache-Control", "private, max-age=600")
	response.JSON(w, r, http.StatusOK, resp)
}
