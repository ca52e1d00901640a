package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/twinproxy/internal/topology"
)

// MetadataResolver resolves property-key and extended-type names to
// remote identifiers, creating the definition on first use.
//
// Resolutions are memoized per (name, scope/category) for the process
// lifetime: metadata definitions are never deleted remotely, so there
// is no invalidation channel for them. A create that collides with a
// concurrent create (HTTP 409) re-queries once and adopts the winner.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type MetadataResolver struct {
	svc topology.Service

	mu    sync.Mutex
	keys  map[string]string // (scope|lowercase name) -> property key id
	types map[string]string // (category|lowercase name) -> type id

	logger Logger
}

// NewMetadataResolver creates a metadata resolver over the given
// topology service.
func NewMetadataResolver(svc topology.Service) *MetadataResolver {
	return &MetadataResolver{
		svc:    svc,
		keys:   make(map[string]string),
		types:  make(map[string]string),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the resolver.
func (m *MetadataResolver) SetLogger(logger Logger) {
	m.logger = logger
}

// ResolvePropertyKey returns the identifier of the property key with
// the given name in scope, creating it (primitive type "string") when
// it does not exist yet.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - name: Property key name, matched case-insensitively
//   - scope: Entity kind the key applies to
//
// Returns:
//   - string: The property key identifier
//   - error: ErrEmptyName, or a topology service failure
func (m *MetadataResolver) ResolvePropertyKey(ctx context.Context, name string, scope topology.PropertyScope) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: property key", ErrEmptyName)
	}

	memoKey := string(scope) + "|" + strings.ToLower(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.keys[memoKey]; ok {
		return id, nil
	}

	id, err := m.lookupPropertyKey(ctx, name, scope)
	if err != nil {
		return "", err
	}

	if id == "" {
		id, err = m.svc.CreatePropertyKey(ctx, topology.CreatePropertyKeyRequest{
			Name:          name,
			Scope:         scope,
			PrimitiveType: "string",
		})
		if errors.Is(err, topology.ErrConflict) {
			// Lost a create race; the winner's definition is now
			// queryable.
			m.logger.Debug("property key create conflict, re-querying", "name", name, "scope", scope)
			id, err = m.lookupPropertyKey(ctx, name, scope)
			if err == nil && id == "" {
				err = fmt.Errorf("%w: property key %q", ErrMetadataUnresolved, name)
			}
		}
		if err != nil {
			return "", err
		}
		m.logger.Info("property key created", "name", name, "scope", scope, "id", id)
	}

	m.keys[memoKey] = id

	return id, nil
}

// ResolveType returns the identifier of the extended type with the
// given name in category, creating it when it does not exist yet.
//
// The canonical remote name is the supplied name with all whitespace
// stripped; the raw name is retained as the friendly name on create.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - name: Type name, matched case-insensitively after stripping
//   - category: Type category (device-type, space-status, ...)
//
// Returns:
//   - string: The extended type identifier
//   - error: ErrEmptyName, or a topology service failure
func (m *MetadataResolver) ResolveType(ctx context.Context, name string, category topology.TypeCategory) (string, error) {
	canonical := stripWhitespace(name)
	if canonical == "" {
		return "", fmt.Errorf("%w: type in category %s", ErrEmptyName, category)
	}

	memoKey := string(category) + "|" + strings.ToLower(canonical)

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.types[memoKey]; ok {
		return id, nil
	}

	id, err := m.lookupType(ctx, canonical, category)
	if err != nil {
		return "", err
	}

	if id == "" {
		id, err = m.svc.CreateType(ctx, topology.CreateTypeRequest{
			Name:         canonical,
			FriendlyName: name,
			Category:     category,
		})
		if errors.Is(err, topology.ErrConflict) {
			m.logger.Debug("type create conflict, re-querying", "name", canonical, "category", category)
			id, err = m.lookupType(ctx, canonical, category)
			if err == nil && id == "" {
				err = fmt.Errorf("%w: type %q", ErrMetadataUnresolved, canonical)
			}
		}
		if err != nil {
			return "", err
		}
		m.logger.Info("type created", "name", canonical, "category", category, "id", id)
	}

	m.types[memoKey] = id

	return id, nil
}

// lookupPropertyKey queries the service and returns the id of the
// case-insensitive exact match, or "" when absent. Callers hold m.mu.
func (m *MetadataResolver) lookupPropertyKey(ctx context.Context, name string, scope topology.PropertyScope) (string, error) {
	keys, err := m.svc.PropertyKeys(ctx, scope, name)
	if err != nil {
		return "", fmt.Errorf("querying property key %q: %w", name, err)
	}

	for _, key := range keys {
		if strings.EqualFold(key.Name, name) {
			return key.ID, nil
		}
	}

	return "", nil
}

// lookupType queries the service and returns the id of the
// case-insensitive exact match, or "" when absent. Callers hold m.mu.
func (m *MetadataResolver) lookupType(ctx context.Context, canonical string, category topology.TypeCategory) (string, error) {
	types, err := m.svc.Types(ctx, category, canonical)
	if err != nil {
		return "", fmt.Errorf("querying type %q: %w", canonical, err)
	}

	for _, t := range types {
		if strings.EqualFold(t.Name, canonical) {
			return t.ID, nil
		}
	}

	return "", nil
}

// stripWhitespace removes all whitespace from s.
func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
