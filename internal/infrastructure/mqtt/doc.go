// Package mqtt provides MQTT client connectivity for the Twin Topology Proxy.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The proxy uses MQTT as the transport for the topology change event
// stream. The topology service publishes change notifications to the
// broker; the change listener subscribes and invalidates caches.
//
//	Topology Service → MQTT Broker → Twin Topology Proxy
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to topology change events
//	err = client.Subscribe(mqtt.Topics{}.TopologyChanges(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a cache invalidation notice
//	topic := mqtt.Topics{}.CacheInvalidation()
//	client.Publish(topic, []byte(`{"entityType":"Device","id":"..."}`), 1, false)
package mqtt
