package handler

import (
	"net/http"

	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/api/response"
)

// DefaultMapConfig is the map bootstrap served when deployment config
// provides none: the Boston metro area, where the bundled tower dataset
// is densest.
var DefaultMapConfig = models.MapConfig{
	StyleURL: "https://api.maptiler.com/maps/streets-v2/style.json",
	InitialView: models.MapView{
		Center: models.Point{Lat: 42.336687, Lon: -71.095762},
		Zoom:   13,
	},
}

// MapConfigHandler serves the client map bootstrap.
type MapConfigHandler struct {
	config models.MapConfig
}

// NewMapConfigHandler creates a new MapConfigHandler. A zero-value config
// falls back to DefaultMapConfig.
func NewMapConfigHandler(config models.MapConfig) *MapConfigHandler {
	if config.StyleURL == "" {
		config = DefaultMapConfig
	}
	return &MapConfigHandler{
		config: config,
	}
}

// GetConfig handles GET /v1/map/config - map style and initial camera.
func (h *MapConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, h.config)
}
