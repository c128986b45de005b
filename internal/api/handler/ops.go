// Package handler provides HTTP handlers for the CellWay API.
package handler

import (
	"net/http"
	"time"

	"github.com/cellway/cellway/internal/api/models"
	"github.com/cellway/cellway/internal/api/response"
	"github.com/cellway/cellway/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
	}
}

// HealthCheck handles GET /health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ready - readiness check. The service is
// degraded when any provider circuit is open, but still serves traffic;
// cached and fallback data cover provider outages.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	details := map[string]interface{}{}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			if ph.IsUnhealthy() {
				status = models.HealthStatusDegraded
				details[ph.Name] = "circuit open"
			}
		}
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if len(details) > 0 {
		health.Details = details
	}
	response.JSON(w, r, http.StatusOK, health)
}

// Providers handles GET /v1/ops/providers - circuit breaker state for
// every registered external provider.
func (h *OpsHandler) Providers(w http.ResponseWriter, r *http.Request) {
	var statuses []models.ProviderStatus
	if h.registry != nil {
		all := h.registry.GetAllHealth()
		statuses = make([]models.ProviderStatus, 0, len(all))
		for _, ph := range all {
			statuses = append(statuses, providerStatus(ph))
		}
	}
	if statuses == nil {
		statuses = []models.ProviderStatus{}
	}

	response.JSON(w, r, http.StatusOK, models.ProvidersResponse{Providers: statuses})
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	status := models.HealthStatusOK
	switch {
	case ph.IsUnhealthy():
		status = models.HealthStatusFail
	case ph.IsDegraded():
		status = models.HealthStatusDegraded
	}

	ps := models.ProviderStatus{
		Provider:     ph.Name,
		Status:       status,
		CircuitState: ph.CircuitState.String(),
	}
	if ph.LastSuccessAt != nil {
		t := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &t
	}
	if ph.LastFailureAt != nil {
		t := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &t
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
