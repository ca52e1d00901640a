// Package resolver implements the caching lookup layer between
// consumers and the remote topology service.
//
// Three resolvers cooperate:
//
//   - MetadataResolver turns property-key and extended-type names into
//     remote identifiers, creating the definition on first use and
//     memoizing the result for the process lifetime.
//   - GatewayResolver supplies the tenant root identifier and a default
//     gateway device id, creating the gateway device exactly once on
//     first access when no static id is configured.
//   - DeviceResolver and SpaceResolver provide create/update/lookup/
//     delete over devices and spaces, backed by dual-indexed caches
//     (name and id) that cross-populate on every hit.
//
// The resolvers never retry and never cache absence: a failed lookup
// always re-queries the remote service on the next call. Cache
// invalidation is the listener package's job, driven by topology
// change events.
package resolver
