package mqtt

import "fmt"

// Topic prefixes for the Twin Topology Proxy.
//
// The topology service publishes change notifications under the topology
// prefix; the proxy publishes its own liveness and cache activity under
// the system and cache prefixes.
const (
	// TopicPrefix is the base for all proxy topics.
	TopicPrefix = "twinproxy"

	// TopicPrefixTopology is the base for topology change topics.
	TopicPrefixTopology = "twinproxy/topology"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "twinproxy/system"

	// TopicPrefixCache is the base for cache activity topics.
	TopicPrefixCache = "twinproxy/cache"
)

// Topics provides builders for the proxy's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	changeTopic := topics.TopologyChanges()
//	// Returns: "twinproxy/topology/changes"
type Topics struct{}

// TopologyChanges returns the topic the topology service publishes
// change events to. This is the default; deployments can override it
// via events.topic in config.yaml.
//
// Example: twinproxy/topology/changes
func (Topics) TopologyChanges() string {
	return fmt.Sprintf("%s/changes", TopicPrefixTopology)
}

// CacheInvalidation returns the topic the proxy publishes cache
// invalidation notices to after processing a change event.
//
// Example: twinproxy/cache/invalidation
func (Topics) CacheInvalidation() string {
	return fmt.Sprintf("%s/invalidation", TopicPrefixCache)
}

// SystemStatus returns the topic for proxy online/offline status.
// Used for the Last Will and Testament message.
//
// Example: twinproxy/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopology returns a wildcard matching every topology topic.
//
// Example: twinproxy/topology/#
func (Topics) AllTopology() string {
	return fmt.Sprintf("%s/#", TopicPrefixTopology)
}

// All returns a wildcard matching every proxy topic.
//
// Example: twinproxy/#
func (Topics) All() string {
	return fmt.Sprintf("%s/#", TopicPrefix)
}
