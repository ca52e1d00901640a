// Package cache provides the in-memory stores backing the resolvers.
//
// A Store is a flat key/value map guarded by a read/write mutex. Stores
// hold entries indefinitely: there is no TTL and no size bound, because
// the working set is the site topology and eviction is driven solely by
// change notifications. Only successful lookups are cached; a miss is
// never recorded, so an entity created remotely after a failed lookup
// is found on the next attempt.
//
// The resolvers keep entities under two stores at once (one keyed by
// name, one by identifier) and cross-populate both on any hit, so a
// follow-up lookup through either key is served from memory.
package cache
