// Package listener consumes topology change events from the MQTT
// stream and evicts stale cache entries.
//
// Delivery is at-least-once and unordered, so processing is strictly
// idempotent: an event for an uncached entity is a no-op, and a
// duplicate eviction changes nothing. Create events are ignored
// outright - a newly created entity cannot be cached yet.
//
// Each processed event is journaled and broadcast to the invalidation
// feed; failures on either path are logged but never block eviction.
package listener
