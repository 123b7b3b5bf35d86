package http

import (
	"net/http"

	apierrors "propulsores/internal/errors"
)

// MetricsHandler serves the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps the registry handler. A nil handler means metrics
// are disabled and /metrics answers 404.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.NotFound(w, r)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
