// Package publisher moves request events off the HTTP request path.
//
// The pool owns a bounded queue drained by a fixed number of goroutines that:
//   - Take request events enqueued by the HTTP middleware
//   - Publish them to the event bus (in-memory or Redis Streams)
//   - Count published, failed and dropped events
//
// Enqueue never blocks: a full queue drops the event. The health monitor
// tracks worker states and queue depth and records them as metrics.
package publisher
