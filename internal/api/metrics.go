package api

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerMetricsRoutes mounts the Prometheus scrape endpoint directly on
// the underlying mux. Exposition format isn't a Huma JSON operation, so
// this bypasses the OpenAPI layer the way promhttp.Handler expects.
func (s *Server) registerMetricsRoutes() {
	s.mux.Handle("/metrics", promhttp.Handler())
}
