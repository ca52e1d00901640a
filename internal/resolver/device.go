package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/twinproxy/internal/cache"
	"github.com/nerrad567/twinproxy/internal/topology"
)

// DeviceCaches holds the stores backing the device resolver.
type DeviceCaches struct {
	ByName              *cache.Store[topology.Device]
	ByID                *cache.Store[topology.Device]
	GatewayByHardwareID *cache.Store[string]
}

// DeviceResolver provides cached create/update/lookup/delete over
// devices.
//
// Lookups are read-through: a hit on either the name or id store
// serves from memory, and a remote fetch populates both stores so the
// paired lookup is also a hit. Absence is never cached.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type DeviceResolver struct {
	svc      topology.Service
	metadata *MetadataResolver
	caches   DeviceCaches
	logger   Logger
	metrics  Metrics
}

// NewDeviceResolver creates a device resolver.
func NewDeviceResolver(svc topology.Service, metadata *MetadataResolver, caches DeviceCaches) *DeviceResolver {
	return &DeviceResolver{
		svc:      svc,
		metadata: metadata,
		caches:   caches,
		logger:   noopLogger{},
		metrics:  noopMetrics{},
	}
}

// SetLogger sets the logger for the resolver.
func (r *DeviceResolver) SetLogger(logger Logger) {
	r.logger = logger
}

// SetMetrics sets the metrics sink for the resolver.
func (r *DeviceResolver) SetMetrics(metrics Metrics) {
	r.metrics = metrics
}

// Create creates a device. The hardware id is set to the name; the
// recognised attributes and the named properties are resolved through
// the metadata resolver before attach.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - name: Device name, doubles as the hardware id
//   - spaceID: Parent space id
//   - gatewayID: Gateway device id, empty for none
//   - properties: Named string properties, may be nil
//   - attributes: Attribute map (description, friendlyName, status,
//     type, subtype), may be nil
//
// Returns:
//   - string: The minted device id
//   - error: Metadata or topology service failure
func (r *DeviceResolver) Create(ctx context.Context, name, spaceID, gatewayID string, properties, attributes map[string]string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: device", ErrEmptyName)
	}

	attrs, err := resolveDeviceAttributes(ctx, r.metadata, attributes, r.logger)
	if err != nil {
		return "", err
	}

	props, err := resolveProperties(ctx, r.metadata, topology.ScopeDevices, properties)
	if err != nil {
		return "", err
	}

	req := topology.CreateDeviceRequest{
		Name:       name,
		HardwareID: name,
		GatewayID:  gatewayID,
		SpaceID:    spaceID,
		Properties: props,
	}
	if attrs.description != nil {
		req.Description = *attrs.description
	}
	if attrs.friendlyName != nil {
		req.FriendlyName = *attrs.friendlyName
	}
	if attrs.status != nil {
		req.Status = *attrs.status
	}
	if attrs.typeID != nil {
		req.TypeID = *attrs.typeID
	}
	if attrs.subtypeID != nil {
		req.SubtypeID = *attrs.subtypeID
	}

	id, err := r.svc.CreateDevice(ctx, req)
	if err != nil {
		return "", err
	}

	r.logger.Info("device created", "name", name, "id", id, "space", spaceID)

	return id, nil
}

// UpdateComplete fully redefines the identified device. Every remote
// field is written: attributes not supplied reset to their defaults
// (empty description and friendly name, status "Provisioned", type and
// subtype to the "None" sentinel), and the property set is replaced.
func (r *DeviceResolver) UpdateComplete(ctx context.Context, id, spaceID, gatewayID string, properties, attributes map[string]string) error {
	attrs, err := resolveDeviceAttributes(ctx, r.metadata, attributes, r.logger)
	if err != nil {
		return err
	}

	if attrs.description == nil {
		attrs.description = ptr("")
	}
	if attrs.friendlyName == nil {
		attrs.friendlyName = ptr("")
	}
	if attrs.status == nil {
		attrs.status = ptr(DefaultDeviceStatus)
	}
	if attrs.typeID == nil {
		noneID, err := r.metadata.ResolveType(ctx, NoneTypeName, topology.CategoryDeviceType)
		if err != nil {
			return err
		}
		attrs.typeID = ptr(noneID)
	}
	if attrs.subtypeID == nil {
		noneID, err := r.metadata.ResolveType(ctx, NoneTypeName, topology.CategoryDeviceSubtype)
		if err != nil {
			return err
		}
		attrs.subtypeID = ptr(noneID)
	}

	props, err := resolveProperties(ctx, r.metadata, topology.ScopeDevices, properties)
	if err != nil {
		return err
	}
	if props == nil {
		props = []topology.Property{}
	}

	return r.svc.UpdateDevice(ctx, id, topology.UpdateDeviceRequest{
		GatewayID:    ptr(gatewayID),
		SpaceID:      ptr(spaceID),
		Description:  attrs.description,
		FriendlyName: attrs.friendlyName,
		Status:       attrs.status,
		TypeID:       attrs.typeID,
		SubtypeID:    attrs.subtypeID,
		Properties:   props,
	})
}

// UpdatePartial changes only the supplied fields of the identified
// device. Empty parent and gateway ids mean "leave unchanged";
// attributes are applied key by key.
func (r *DeviceResolver) UpdatePartial(ctx context.Context, id, spaceID, gatewayID string, properties, attributes map[string]string) error {
	attrs, err := resolveDeviceAttributes(ctx, r.metadata, attributes, r.logger)
	if err != nil {
		return err
	}

	props, err := resolveProperties(ctx, r.metadata, topology.ScopeDevices, properties)
	if err != nil {
		return err
	}

	req := topology.UpdateDeviceRequest{
		Description:  attrs.description,
		FriendlyName: attrs.friendlyName,
		Status:       attrs.status,
		TypeID:       attrs.typeID,
		SubtypeID:    attrs.subtypeID,
		Properties:   props,
	}
	if spaceID != "" {
		req.SpaceID = ptr(spaceID)
	}
	if gatewayID != "" {
		req.GatewayID = ptr(gatewayID)
	}

	return r.svc.UpdateDevice(ctx, id, req)
}

// GetByName returns the device with the given name, or nil when no
// device matches. A remote fetch populates both the name and id
// stores.
func (r *DeviceResolver) GetByName(ctx context.Context, name string) (*topology.Device, error) {
	start := time.Now()

	if dev, ok := r.caches.ByName.Get(name); ok {
		r.observe("device.get_by_name", start, true)
		return copyDevice(dev), nil
	}

	devices, err := r.svc.Devices(ctx, topology.DeviceFilter{Name: name, IncludeAll: true})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		r.observe("device.get_by_name", start, false)
		return nil, nil
	}

	dev := devices[0]
	r.cacheDevice(dev)
	r.observe("device.get_by_name", start, false)

	return copyDevice(dev), nil
}

// GetByID returns the device with the given id, or nil when no device
// matches. A remote fetch populates both the name and id stores.
func (r *DeviceResolver) GetByID(ctx context.Context, id string) (*topology.Device, error) {
	start := time.Now()

	if dev, ok := r.caches.ByID.Get(id); ok {
		r.observe("device.get_by_id", start, true)
		return copyDevice(dev), nil
	}

	devices, err := r.svc.Devices(ctx, topology.DeviceFilter{IDs: []string{id}, IncludeAll: true})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		r.observe("device.get_by_id", start, false)
		return nil, nil
	}

	dev := devices[0]
	r.cacheDevice(dev)
	r.observe("device.get_by_id", start, false)

	return copyDevice(dev), nil
}

// DeleteByName removes the device with the given name and evicts all
// of its cache entries. A name that matches nothing logs a warning and
// succeeds: the desired end state already holds.
func (r *DeviceResolver) DeleteByName(ctx context.Context, name string) error {
	dev, err := r.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if dev == nil {
		r.logger.Warn("delete of unknown device, nothing to do", "name", name)
		return nil
	}

	if err := r.svc.DeleteDevice(ctx, dev.ID); err != nil {
		return err
	}

	r.caches.ByName.Evict(dev.Name)
	r.caches.GatewayByHardwareID.Evict(dev.HardwareID)
	r.caches.ByID.Evict(dev.ID)
	r.metrics.WriteCacheMetric(r.caches.ByID.Name(), "eviction")

	r.logger.Info("device deleted", "name", name, "id", dev.ID)

	return nil
}

// GatewayIDByHardwareID returns the gateway id responsible for the
// given hardware id, or "" when the hardware id is unknown.
//
// A sensor match wins: the sensor's parent device supplies the gateway
// id. A device match is the fallback. Either way a device without a
// gateway id is its own gateway.
func (r *DeviceResolver) GatewayIDByHardwareID(ctx context.Context, hardwareID string) (string, error) {
	start := time.Now()

	if id, ok := r.caches.GatewayByHardwareID.Get(hardwareID); ok {
		r.observe("device.gateway_by_hardware_id", start, true)
		return id, nil
	}

	sensors, err := r.svc.Sensors(ctx, topology.SensorFilter{HardwareIDs: []string{hardwareID}})
	if err != nil {
		return "", err
	}
	if len(sensors) > 0 {
		dev, err := r.GetByID(ctx, sensors[0].DeviceID)
		if err != nil {
			return "", err
		}
		if dev != nil {
			id := gatewayOf(*dev)
			r.caches.GatewayByHardwareID.Put(hardwareID, id)
			r.observe("device.gateway_by_hardware_id", start, false)
			return id, nil
		}
	}

	devices, err := r.svc.Devices(ctx, topology.DeviceFilter{HardwareIDs: []string{hardwareID}})
	if err != nil {
		return "", err
	}
	if len(devices) > 0 {
		id := gatewayOf(devices[0])
		r.caches.GatewayByHardwareID.Put(hardwareID, id)
		r.observe("device.gateway_by_hardware_id", start, false)
		return id, nil
	}

	r.observe("device.gateway_by_hardware_id", start, false)

	return "", nil
}

// Invalidate evicts every cache entry belonging to the identified
// device: the name key, the gateway-by-hardware-id key, then the id
// key. The id store is read before anything is evicted so the sibling
// keys can be derived.
//
// Returns:
//   - bool: true if the device was cached and entries were evicted
func (r *DeviceResolver) Invalidate(id string) bool {
	dev, ok := r.caches.ByID.Get(id)
	if !ok {
		return false
	}

	r.caches.ByName.Evict(dev.Name)
	r.caches.GatewayByHardwareID.Evict(dev.HardwareID)
	r.caches.ByID.Evict(id)
	r.metrics.WriteCacheMetric(r.caches.ByID.Name(), "eviction")

	return true
}

// InvalidateByName evicts cache entries for the named device. Used by
// the admin API; change events carry ids and use Invalidate.
func (r *DeviceResolver) InvalidateByName(name string) bool {
	dev, ok := r.caches.ByName.Get(name)
	if !ok {
		return false
	}
	return r.Invalidate(dev.ID)
}

// CacheStats returns snapshots of the resolver's three stores.
func (r *DeviceResolver) CacheStats() []cache.Stats {
	return []cache.Stats{
		r.caches.ByName.Stats(),
		r.caches.ByID.Stats(),
		r.caches.GatewayByHardwareID.Stats(),
	}
}

func (r *DeviceResolver) cacheDevice(dev topology.Device) {
	r.caches.ByName.Put(dev.Name, dev)
	r.caches.ByID.Put(dev.ID, dev)
}

func (r *DeviceResolver) observe(operation string, start time.Time, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.metrics.WriteCacheMetric(r.caches.ByName.Name(), outcome)
	r.metrics.WriteResolverLatency(operation, float64(time.Since(start).Microseconds())/1000.0, hit)
}

// gatewayOf applies the self-is-gateway fallback.
func gatewayOf(dev topology.Device) string {
	if dev.GatewayID != "" {
		return dev.GatewayID
	}
	return dev.ID
}

// copyDevice returns an isolated copy so callers cannot mutate cached
// state through the shared properties slice.
func copyDevice(dev topology.Device) *topology.Device {
	out := dev
	if dev.Properties != nil {
		out.Properties = make([]topology.Property, len(dev.Properties))
		copy(out.Properties, dev.Properties)
	}
	return &out
}
