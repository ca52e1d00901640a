package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCacheMetric writes a single cache counter observation to InfluxDB.
//
// This is the primary method for recording cache behaviour over time.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - store: The cache store name (e.g., "device_by_name", "space_by_id")
//   - outcome: One of "hit", "miss", "put", "eviction"
//
// Example:
//
//	client.WriteCacheMetric("device_by_name", "hit")
//	client.WriteCacheMetric("gateway_by_hardware_id", "eviction")
func (c *Client) WriteCacheMetric(store string, outcome string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"cache_ops",
		map[string]string{
			"store":   store,
			"outcome": outcome,
		},
		map[string]interface{}{
			"count": int64(1),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteResolverLatency records the duration of a resolver call against the
// remote topology service.
//
// Used for tracking how much time cache misses spend on network round trips.
//
// Parameters:
//   - operation: Resolver operation name (e.g., "device_get_by_name")
//   - durationMS: Wall-clock duration of the call in milliseconds
//   - hit: Whether the call was served from cache without a network trip
func (c *Client) WriteResolverLatency(operation string, durationMS float64, hit bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"resolver_latency",
		map[string]string{
			"operation": operation,
			"cache_hit": boolTag(hit),
		},
		map[string]interface{}{
			"duration_ms": durationMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEventProcessed records a topology change event handled by the listener.
//
// Parameters:
//   - entityType: "Device" or "Space"
//   - accessType: "Create", "Update", or "Delete"
//   - evicted: Whether any cache entry was evicted for the event
func (c *Client) WriteEventProcessed(entityType, accessType string, evicted bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"topology_events",
		map[string]string{
			"entity_type": entityType,
			"access_type": accessType,
			"evicted":     boolTag(evicted),
		},
		map[string]interface{}{
			"count": int64(1),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom measurement with arbitrary tags and fields.
//
// Use the typed Write* methods where one fits; this is the escape hatch
// for measurements they do not cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom measurement with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, ts)
	c.writeAPI.WritePoint(point)
}

// boolTag converts a bool to an InfluxDB tag value.
func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
