package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// NewRouter wires the dashboard routes with correlation and metrics
// middleware applied to every route.
func NewRouter(h *Handler, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/cities", h.ListCities).Methods(http.MethodGet)
	router.HandleFunc("/cities", h.AddCity).Methods(http.MethodPost)
	router.HandleFunc("/cities/{id}", h.RemoveCity).Methods(http.MethodDelete)
	router.HandleFunc("/cities/{id}/reload", h.ReloadCity).Methods(http.MethodPost)
	router.HandleFunc("/refresh", h.RefreshAll).Methods(http.MethodPost)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	return router
}
