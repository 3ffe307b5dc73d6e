// Package http provides the demo HTTP service.
//
// The HTTP server exposes endpoints for:
//   - Liveness (/) and readiness (/health) probes
//   - Service information (/about)
//   - Prometheus metrics (/metrics)
//   - A live feed of served requests (/ws/requests, when a stream handler is set)
//
// Unmatched paths return a structured 404 payload naming the path and handler
// panics return a structured 500 payload.
package http
