// Package prometheus provides the Prometheus metrics collector for example-app.
//
// Each Collector owns its registry, so any number of servers can run in one
// process. The request metric names (app_requests_total,
// app_request_duration_seconds) are what the existing dashboards and alerts query.
package prometheus
