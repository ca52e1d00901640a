// Package topology binds the proxy to the remote topology service.
//
// The topology service is the system of record for the digital twin:
// devices, spaces, sensors, property keys, and extended types all live
// there, reachable over a JSON REST API. This package provides:
//
//   - The domain types shared across the proxy (Device, Space, Sensor,
//     PropertyKey, ExtendedType, Endpoint, ChangeEvent)
//   - Closed enumerations for entity categories (PropertyScope,
//     TypeCategory, EntityType, AccessType)
//   - Service, the interface resolvers consume
//   - Client, the HTTP implementation of Service
//
// # Architecture
//
//	Resolvers → topology.Service → HTTP → Topology Service
//
// The proxy never owns topology data: everything read through this
// package is a non-authoritative copy whose lifetime is bounded by
// explicit cache eviction, not TTL.
//
// # Error Handling
//
// Lookups that match nothing return empty slices, not errors. Sentinel
// errors cover the remote failure modes callers branch on:
//
//	if errors.Is(err, topology.ErrConflict) {
//	    // lost a create race; re-query and take the winner
//	}
//
// Network and service failures propagate to the caller unchanged; this
// layer adds no retry policy of its own.
package topology
