// Package events defines the request event model and the event bus port.
//
// Implementations:
//   - redis: Redis Streams, every subscriber reads the full stream
//   - memory: in-process fan-out, used when no Redis address is configured
package events
