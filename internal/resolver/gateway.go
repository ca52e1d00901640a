package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/twinproxy/internal/infrastructure/config"
	"github.com/nerrad567/twinproxy/internal/topology"
)

// GatewayResolver supplies the tenant root identifier and the default
// gateway device id.
//
// The tenant id is a pure configuration read. The gateway id is
// resolved lazily on first access: a statically configured id wins;
// otherwise a gateway device named DefaultGateway is looked up and, if
// absent, created directly under the tenant root. The resolved id is
// held for the process lifetime.
//
// First access under concurrency performs exactly one creation:
// readers take a read lock on the fast path, and the slow path
// re-checks under the write lock before resolving.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type GatewayResolver struct {
	svc topology.Service
	cfg config.TenantConfig

	mu        sync.RWMutex
	gatewayID string

	logger Logger
}

// NewGatewayResolver creates a gateway resolver for the configured
// tenant.
func NewGatewayResolver(svc topology.Service, cfg config.TenantConfig) *GatewayResolver {
	return &GatewayResolver{
		svc:    svc,
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the resolver.
func (g *GatewayResolver) SetLogger(logger Logger) {
	g.logger = logger
}

// Tenant returns the tenant root space identifier. No network call.
func (g *GatewayResolver) Tenant() string {
	return g.cfg.ID
}

// Gateway returns the default gateway device id, resolving it on first
// access.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - string: The gateway device identifier
//   - error: Topology service failure during lookup or creation
func (g *GatewayResolver) Gateway(ctx context.Context) (string, error) {
	g.mu.RLock()
	id := g.gatewayID
	g.mu.RUnlock()

	if id != "" {
		return id, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Another caller may have resolved while we waited for the lock.
	if g.gatewayID != "" {
		return g.gatewayID, nil
	}

	id, err := g.resolve(ctx)
	if err != nil {
		return "", err
	}

	g.gatewayID = id

	return id, nil
}

// resolve determines the gateway id. Callers hold g.mu.
func (g *GatewayResolver) resolve(ctx context.Context) (string, error) {
	if g.cfg.DefaultGatewayID != "" {
		g.logger.Debug("using configured default gateway", "id", g.cfg.DefaultGatewayID)
		return g.cfg.DefaultGatewayID, nil
	}

	id, err := g.findByName(ctx)
	if err != nil {
		return "", err
	}
	if id != "" {
		g.logger.Debug("found existing gateway device", "id", id)
		return id, nil
	}

	id, err = g.svc.CreateDevice(ctx, topology.CreateDeviceRequest{
		Name:       DefaultGatewayName,
		HardwareID: DefaultGatewayName,
		SpaceID:    g.cfg.ID,
	})
	if errors.Is(err, topology.ErrConflict) {
		// A previous run created it; pick up the existing device.
		id, err = g.findByName(ctx)
		if err == nil && id == "" {
			err = fmt.Errorf("gateway device exists but is not queryable: %w", topology.ErrInvalidResponse)
		}
	}
	if err != nil {
		return "", fmt.Errorf("creating default gateway: %w", err)
	}

	g.logger.Info("default gateway device created", "id", id, "tenant", g.cfg.ID)

	return id, nil
}

func (g *GatewayResolver) findByName(ctx context.Context) (string, error) {
	devices, err := g.svc.Devices(ctx, topology.DeviceFilter{Name: DefaultGatewayName})
	if err != nil {
		return "", fmt.Errorf("querying default gateway: %w", err)
	}
	if len(devices) == 0 {
		return "", nil
	}
	return devices[0].ID, nil
}
