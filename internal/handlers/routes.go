package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/device-monitor/internal/middleware"
)

// Rate limit applied to the control API.
const (
	RateLimitRequests = 60
	RateLimitWindow   = 60 // seconds
)

// NewRouter wires the control API. /health and /metrics bypass authentication.
func NewRouter(h *ServiceHandler, authMW *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware, gatherer prometheus.Gatherer) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/service/start", h.Start)
	api.HandleFunc("/api/service/stop", h.Stop)
	api.HandleFunc("/api/status", h.Status)
	api.HandleFunc("/api/records", h.Records)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.Health)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/api/", limiter.RateLimit(RateLimitRequests, RateLimitWindow)(authMW.Authenticate(api)))
	return mux
}
