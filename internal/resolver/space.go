package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/twinproxy/internal/cache"
	"github.com/nerrad567/twinproxy/internal/topology"
)

// SpaceCaches holds the stores backing the space resolver.
type SpaceCaches struct {
	ByName *cache.Store[topology.Space]
	ByID   *cache.Store[topology.Space]
}

// SpaceResolver provides cached create/update/lookup/delete over
// spaces. It mirrors DeviceResolver without the hardware-id and
// gateway concerns.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type SpaceResolver struct {
	svc      topology.Service
	metadata *MetadataResolver
	caches   SpaceCaches
	logger   Logger
	metrics  Metrics
}

// NewSpaceResolver creates a space resolver.
func NewSpaceResolver(svc topology.Service, metadata *MetadataResolver, caches SpaceCaches) *SpaceResolver {
	return &SpaceResolver{
		svc:      svc,
		metadata: metadata,
		caches:   caches,
		logger:   noopLogger{},
		metrics:  noopMetrics{},
	}
}

// SetLogger sets the logger for the resolver.
func (r *SpaceResolver) SetLogger(logger Logger) {
	r.logger = logger
}

// SetMetrics sets the metrics sink for the resolver.
func (r *SpaceResolver) SetMetrics(metrics Metrics) {
	r.metrics = metrics
}

// Create creates a space under the given parent. Attributes and
// properties are resolved through the metadata resolver before attach.
func (r *SpaceResolver) Create(ctx context.Context, name, parentID string, properties, attributes map[string]string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: space", ErrEmptyName)
	}

	attrs, err := resolveSpaceAttributes(ctx, r.metadata, attributes, r.logger)
	if err != nil {
		return "", err
	}

	props, err := resolveProperties(ctx, r.metadata, topology.ScopeSpaces, properties)
	if err != nil {
		return "", err
	}

	req := topology.CreateSpaceRequest{
		Name:       name,
		ParentID:   parentID,
		Properties: props,
	}
	if attrs.description != nil {
		req.Description = *attrs.description
	}
	if attrs.friendlyName != nil {
		req.FriendlyName = *attrs.friendlyName
	}
	if attrs.statusID != nil {
		req.StatusID = *attrs.statusID
	}
	if attrs.typeID != nil {
		req.TypeID = *attrs.typeID
	}
	if attrs.subtypeID != nil {
		req.SubtypeID = *attrs.subtypeID
	}

	id, err := r.svc.CreateSpace(ctx, req)
	if err != nil {
		return "", err
	}

	r.logger.Info("space created", "name", name, "id", id, "parent", parentID)

	return id, nil
}

// UpdateComplete fully redefines the identified space. Attributes not
// supplied reset to their defaults: empty description and friendly
// name, and status, type and subtype to the "None" sentinel.
func (r *SpaceResolver) UpdateComplete(ctx context.Context, id, parentID string, properties, attributes map[string]string) error {
	attrs, err := resolveSpaceAttributes(ctx, r.metadata, attributes, r.logger)
	if err != nil {
		return err
	}

	if attrs.description == nil {
		attrs.description = ptr("")
	}
	if attrs.friendlyName == nil {
		attrs.friendlyName = ptr("")
	}
	if attrs.statusID == nil {
		noneID, err := r.metadata.ResolveType(ctx, NoneTypeName, topology.CategorySpaceStatus)
		if err != nil {
			return err
		}
		attrs.statusID = ptr(noneID)
	}
	if attrs.typeID == nil {
		noneID, err := r.metadata.ResolveType(ctx, NoneTypeName, topology.CategorySpaceType)
		if err != nil {
			return err
		}
		attrs.typeID = ptr(noneID)
	}
	if attrs.subtypeID == nil {
		noneID, err := r.metadata.ResolveType(ctx, NoneTypeName, topology.CategorySpaceSubtype)
		if err != nil {
			return err
		}
		attrs.subtypeID = ptr(noneID)
	}

	props, err := resolveProperties(ctx, r.metadata, topology.ScopeSpaces, properties)
	if err != nil {
		return err
	}
	if props == nil {
		props = []topology.Property{}
	}

	return r.svc.UpdateSpace(ctx, id, topology.UpdateSpaceRequest{
		ParentID:     ptr(parentID),
		Description:  attrs.description,
		FriendlyName: attrs.friendlyName,
		StatusID:     attrs.statusID,
		TypeID:       attrs.typeID,
		SubtypeID:    attrs.subtypeID,
		Properties:   props,
	})
}

// UpdatePartial changes only the supplied fields of the identified
// space. An empty parent id means "leave unchanged".
func (r *SpaceResolver) UpdatePartial(ctx context.Context, id, parentID string, properties, attributes map[string]string) error {
	attrs, err := resolveSpaceAttributes(ctx, r.metadata, attributes, r.logger)
	if err != nil {
		return err
	}

	props, err := resolveProperties(ctx, r.metadata, topology.ScopeSpaces, properties)
	if err != nil {
		return err
	}

	req := topology.UpdateSpaceRequest{
		Description:  attrs.description,
		FriendlyName: attrs.friendlyName,
		StatusID:     attrs.statusID,
		TypeID:       attrs.typeID,
		SubtypeID:    attrs.subtypeID,
		Properties:   props,
	}
	if parentID != "" {
		req.ParentID = ptr(parentID)
	}

	return r.svc.UpdateSpace(ctx, id, req)
}

// GetByName returns the space with the given name, or nil when no
// space matches. A remote fetch populates both the name and id stores.
func (r *SpaceResolver) GetByName(ctx context.Context, name string) (*topology.Space, error) {
	start := time.Now()

	if space, ok := r.caches.ByName.Get(name); ok {
		r.observe("space.get_by_name", start, true)
		return copySpace(space), nil
	}

	spaces, err := r.svc.Spaces(ctx, topology.SpaceFilter{Name: name, IncludeAll: true})
	if err != nil {
		return nil, err
	}
	if len(spaces) == 0 {
		r.observe("space.get_by_name", start, false)
		return nil, nil
	}

	space := spaces[0]
	r.cacheSpace(space)
	r.observe("space.get_by_name", start, false)

	return copySpace(space), nil
}

// GetByID returns the space with the given id, or nil when no space
// matches. A remote fetch populates both the name and id stores.
func (r *SpaceResolver) GetByID(ctx context.Context, id string) (*topology.Space, error) {
	start := time.Now()

	if space, ok := r.caches.ByID.Get(id); ok {
		r.observe("space.get_by_id", start, true)
		return copySpace(space), nil
	}

	spaces, err := r.svc.Spaces(ctx, topology.SpaceFilter{IDs: []string{id}, IncludeAll: true})
	if err != nil {
		return nil, err
	}
	if len(spaces) == 0 {
		r.observe("space.get_by_id", start, false)
		return nil, nil
	}

	space := spaces[0]
	r.cacheSpace(space)
	r.observe("space.get_by_id", start, false)

	return copySpace(space), nil
}

// DeleteByName removes the space with the given name and evicts both
// cache entries. A name that matches nothing logs a warning and
// succeeds.
func (r *SpaceResolver) DeleteByName(ctx context.Context, name string) error {
	space, err := r.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if space == nil {
		r.logger.Warn("delete of unknown space, nothing to do", "name", name)
		return nil
	}

	if err := r.svc.DeleteSpace(ctx, space.ID); err != nil {
		return err
	}

	r.caches.ByName.Evict(space.Name)
	r.caches.ByID.Evict(space.ID)
	r.metrics.WriteCacheMetric(r.caches.ByID.Name(), "eviction")

	r.logger.Info("space deleted", "name", name, "id", space.ID)

	return nil
}

// Invalidate evicts both cache entries belonging to the identified
// space: the name key first, then the id key.
//
// Returns:
//   - bool: true if the space was cached and entries were evicted
func (r *SpaceResolver) Invalidate(id string) bool {
	space, ok := r.caches.ByID.Get(id)
	if !ok {
		return false
	}

	r.caches.ByName.Evict(space.Name)
	r.caches.ByID.Evict(id)
	r.metrics.WriteCacheMetric(r.caches.ByID.Name(), "eviction")

	return true
}

// InvalidateByName evicts cache entries for the named space.
func (r *SpaceResolver) InvalidateByName(name string) bool {
	space, ok := r.caches.ByName.Get(name)
	if !ok {
		return false
	}
	return r.Invalidate(space.ID)
}

// CacheStats returns snapshots of the resolver's two stores.
func (r *SpaceResolver) CacheStats() []cache.Stats {
	return []cache.Stats{
		r.caches.ByName.Stats(),
		r.caches.ByID.Stats(),
	}
}

func (r *SpaceResolver) cacheSpace(space topology.Space) {
	r.caches.ByName.Put(space.Name, space)
	r.caches.ByID.Put(space.ID, space)
}

func (r *SpaceResolver) observe(operation string, start time.Time, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.metrics.WriteCacheMetric(r.caches.ByName.Name(), outcome)
	r.metrics.WriteResolverLatency(operation, float64(time.Since(start).Microseconds())/1000.0, hit)
}

// copySpace returns an isolated copy so callers cannot mutate cached
// state through the shared properties slice.
func copySpace(space topology.Space) *topology.Space {
	out := space
	if space.Properties != nil {
		out.Properties = make([]topology.Property, len(space.Properties))
		copy(out.Properties, space.Properties)
	}
	return &out
}
