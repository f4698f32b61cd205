// Package api exposes the dashboard over HTTP: the tracked-city collection,
// per-city actions, a manual refresh trigger, health, and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/controller"
	"github.com/kjstillabower/weather-dashboard/internal/gateway"
	"github.com/kjstillabower/weather-dashboard/internal/refresh"
)

// HealthConfig holds the thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	StartTime        time.Time
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	controller   *controller.Controller
	orchestrator *refresh.Orchestrator
	healthConfig *HealthConfig
	logger       *zap.Logger

	shuttingDown     atomic.Bool
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	ctrl *controller.Controller,
	orchestrator *refresh.Orchestrator,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		controller:   ctrl,
		orchestrator: orchestrator,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// SetShuttingDown flips the health endpoint to shutting-down. Called once when
// the shutdown signal arrives so load balancers stop routing here.
func (h *Handler) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// ListCities handles GET /cities. Cards come back in insertion order.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCityCards(h.controller.Cities()))
}

// AddCity handles POST /cities. The body carries the free-form name; the
// response is the new card, errored when the first refresh failed.
func (h *Handler) AddCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a name field")
		return
	}

	city, err := h.controller.AddCity(r.Context(), body.Name)
	if err != nil {
		writeAddError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCityCard(city))
}

// RemoveCity handles DELETE /cities/{id}.
func (h *Handler) RemoveCity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.controller.RemoveCity(r.Context(), id) {
		writeError(w, r, http.StatusNotFound, "CITY_NOT_TRACKED", "no tracked city with that id")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReloadCity handles POST /cities/{id}/reload. A failed reload is still a 200:
// the outcome lives on the card, not in the transport status.
func (h *Handler) ReloadCity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.controller.ReloadCity(r.Context(), id)
	if errors.Is(err, controller.ErrCityGone) {
		writeError(w, r, http.StatusNotFound, "CITY_NOT_TRACKED", "no tracked city with that id")
		return
	}
	if err != nil {
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Debug("reload failed", zap.String("id", id), zap.Error(err))
		}
	}

	for _, city := range h.controller.Cities() {
		if city.ID == id {
			writeJSON(w, http.StatusOK, newCityCard(city))
			return
		}
	}
	writeError(w, r, http.StatusNotFound, "CITY_NOT_TRACKED", "no tracked city with that id")
}

// RefreshAll handles POST /refresh. The pass runs in the background; 202 means
// it was accepted, not that it finished.
func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	go h.orchestrator.RefreshAll(context.WithoutCancel(r.Context()), "manual")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"upstreams": "healthy"}
	if result.status == "degraded" {
		checks["upstreams"] = "unhealthy"
	}
	resp := map[string]interface{}{
		"status":        result.status,
		"service":       "weather-dashboard",
		"version":       "dev",
		"trackedCities": len(h.controller.Cities()),
		"checks":        checks,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if h.shuttingDown.Load() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig != nil && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errCount, total := h.orchestrator.Outcomes().ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(errCount) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "refresh_error_rate"}
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope with code, message, and the
// request's correlation id when available.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID, _ = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeAddError maps controller errors from an add attempt to HTTP statuses.
func writeAddError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, controller.ErrNameEmpty),
		errors.Is(err, controller.ErrNameTooLong),
		errors.Is(err, controller.ErrNameInvalidChars):
		writeError(w, r, http.StatusBadRequest, "INVALID_NAME", err.Error())
	case errors.Is(err, controller.ErrDuplicateCity):
		writeError(w, r, http.StatusConflict, "DUPLICATE_CITY", err.Error())
	case errors.Is(err, controller.ErrCityNotFound):
		writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND", err.Error())
	case errors.Is(err, gateway.ErrUpstreamFailure), errors.Is(err, gateway.ErrMalformedPayload):
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "unable to look up that city right now")
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Debug("geocoding error", zap.Error(err))
		}
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "unexpected error")
	}
}
