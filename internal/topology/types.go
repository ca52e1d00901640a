package topology

import "context"

// EntityType identifies the kind of entity a change event refers to.
type EntityType string

// Entity types carried by topology change events.
const (
	EntityDevice EntityType = "Device"
	EntitySpace  EntityType = "Space"
)

// AccessType identifies what happened to an entity in a change event.
type AccessType string

// Access types carried by topology change events.
const (
	AccessCreate AccessType = "Create"
	AccessUpdate AccessType = "Update"
	AccessDelete AccessType = "Delete"
)

// PropertyScope is the entity category a property key definition is
// scoped to. Property keys for devices and spaces live in separate
// namespaces on the topology service.
type PropertyScope string

// Valid property scopes.
const (
	ScopeDevices PropertyScope = "devices"
	ScopeSpaces  PropertyScope = "spaces"
)

// IsValid reports whether the scope is a member of the closed enumeration.
func (s PropertyScope) IsValid() bool {
	return s == ScopeDevices || s == ScopeSpaces
}

// TypeCategory is the classification axis an extended type belongs to.
type TypeCategory string

// Valid type categories.
const (
	CategoryDeviceType    TypeCategory = "device-type"
	CategoryDeviceSubtype TypeCategory = "device-subtype"
	CategorySpaceType     TypeCategory = "space-type"
	CategorySpaceSubtype  TypeCategory = "space-subtype"
	CategorySpaceStatus   TypeCategory = "space-status"
)

// IsValid reports whether the category is a member of the closed enumeration.
func (c TypeCategory) IsValid() bool {
	switch c {
	case CategoryDeviceType, CategoryDeviceSubtype, CategorySpaceType, CategorySpaceSubtype, CategorySpaceStatus:
		return true
	default:
		return false
	}
}

// Property is a named string value attached to a device or space.
// The name must resolve to a PropertyKey before the value can be written.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Device is a controllable or monitorable entity in the twin.
//
// Status is a plain string on the remote schema ("Provisioned",
// "Active", ...); type and subtype are extended-type identifiers
// resolved through the metadata resolver.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	HardwareID   string     `json:"hardwareId"`
	GatewayID    string     `json:"gatewayId,omitempty"`
	SpaceID      string     `json:"spaceId,omitempty"`
	Description  string     `json:"description,omitempty"`
	FriendlyName string     `json:"friendlyName,omitempty"`
	Status       string     `json:"status,omitempty"`
	TypeID       string     `json:"typeId,omitempty"`
	SubtypeID    string     `json:"subtypeId,omitempty"`
	Properties   []Property `json:"properties,omitempty"`
}

// Space is a node in the tenant's location tree. Root spaces have no
// parent. Status, type, and subtype are all extended-type identifiers.
type Space struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ParentID     string     `json:"parentSpaceId,omitempty"`
	Description  string     `json:"description,omitempty"`
	FriendlyName string     `json:"friendlyName,omitempty"`
	StatusID     string     `json:"statusId,omitempty"`
	TypeID       string     `json:"typeId,omitempty"`
	SubtypeID    string     `json:"subtypeId,omitempty"`
	Properties   []Property `json:"properties,omitempty"`
}

// Sensor is a telemetry source attached to a device.
type Sensor struct {
	ID         string `json:"id"`
	HardwareID string `json:"hardwareId"`
	DeviceID   string `json:"deviceId"`
}

// PropertyKey is a named, typed attribute definition scoped to an
// entity category.
type PropertyKey struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Scope         PropertyScope `json:"scope"`
	PrimitiveType string        `json:"primitiveDataType"`
}

// ExtendedType is a named classification resolved to a stable identifier.
type ExtendedType struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	FriendlyName string       `json:"friendlyName,omitempty"`
	Category     TypeCategory `json:"category"`
}

// Endpoint is a registered delivery target for topology events.
type Endpoint struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Path       string   `json:"path"`
	EventTypes []string `json:"eventTypes,omitempty"`
}

// EndpointTypeEventHub is the endpoint type the proxy registers for the
// topology-operation event stream.
const EndpointTypeEventHub = "EventHub"

// EventTypeTopologyOperation is the event type carried by topology
// change notifications.
const EventTypeTopologyOperation = "TopologyOperation"

// ChangeEvent is a topology change notification delivered over the
// event stream. Delivery is at-least-once and unordered; consumers
// must tolerate duplicates.
type ChangeEvent struct {
	EntityType EntityType `json:"entityType"`
	AccessType AccessType `json:"accessType"`
	ID         string     `json:"id"`
}

// DeviceFilter narrows a device query. Zero-value fields are ignored.
// Name matching is case-insensitive on the service side.
type DeviceFilter struct {
	IDs         []string
	Name        string
	HardwareIDs []string
	GatewayID   string
	SpaceID     string
	IncludeAll  bool // include properties and types in the result
}

// SpaceFilter narrows a space query. Zero-value fields are ignored.
type SpaceFilter struct {
	IDs        []string
	Name       string
	ParentID   string
	IncludeAll bool
}

// SensorFilter narrows a sensor query.
type SensorFilter struct {
	HardwareIDs []string
}

// CreateDeviceRequest is the payload for creating a device.
type CreateDeviceRequest struct {
	Name         string     `json:"name"`
	HardwareID   string     `json:"hardwareId"`
	GatewayID    string     `json:"gatewayId,omitempty"`
	SpaceID      string     `json:"spaceId,omitempty"`
	Description  string     `json:"description,omitempty"`
	FriendlyName string     `json:"friendlyName,omitempty"`
	Status       string     `json:"status,omitempty"`
	TypeID       string     `json:"typeId,omitempty"`
	SubtypeID    string     `json:"subtypeId,omitempty"`
	Properties   []Property `json:"properties,omitempty"`
}

// UpdateDeviceRequest is the payload for patching a device. Nil pointer
// fields are omitted from the wire payload and left unchanged by the
// service; the complete-update path populates every field explicitly.
type UpdateDeviceRequest struct {
	GatewayID    *string    `json:"gatewayId,omitempty"`
	SpaceID      *string    `json:"spaceId,omitempty"`
	Description  *string    `json:"description,omitempty"`
	FriendlyName *string    `json:"friendlyName,omitempty"`
	Status       *string    `json:"status,omitempty"`
	TypeID       *string    `json:"typeId,omitempty"`
	SubtypeID    *string    `json:"subtypeId,omitempty"`
	Properties   []Property `json:"properties,omitempty"`
}

// CreateSpaceRequest is the payload for creating a space.
type CreateSpaceRequest struct {
	Name         string     `json:"name"`
	ParentID     string     `json:"parentSpaceId,omitempty"`
	Description  string     `json:"description,omitempty"`
	FriendlyName string     `json:"friendlyName,omitempty"`
	StatusID     string     `json:"statusId,omitempty"`
	TypeID       string     `json:"typeId,omitempty"`
	SubtypeID    string     `json:"subtypeId,omitempty"`
	Properties   []Property `json:"properties,omitempty"`
}

// UpdateSpaceRequest is the payload for patching a space. Semantics
// match UpdateDeviceRequest.
type UpdateSpaceRequest struct {
	ParentID     *string    `json:"parentSpaceId,omitempty"`
	Description  *string    `json:"description,omitempty"`
	FriendlyName *string    `json:"friendlyName,omitempty"`
	StatusID     *string    `json:"statusId,omitempty"`
	TypeID       *string    `json:"typeId,omitempty"`
	SubtypeID    *string    `json:"subtypeId,omitempty"`
	Properties   []Property `json:"properties,omitempty"`
}

// CreatePropertyKeyRequest is the payload for creating a property key.
type CreatePropertyKeyRequest struct {
	Name          string        `json:"name"`
	Scope         PropertyScope `json:"scope"`
	PrimitiveType string        `json:"primitiveDataType"`
}

// CreateTypeRequest is the payload for creating an extended type.
type CreateTypeRequest struct {
	Name         string       `json:"name"`
	FriendlyName string       `json:"friendlyName,omitempty"`
	Category     TypeCategory `json:"category"`
}

// CreateEndpointRequest is the payload for registering an event endpoint.
type CreateEndpointRequest struct {
	Type       string   `json:"type"`
	Path       string   `json:"path"`
	EventTypes []string `json:"eventTypes"`
}

// Service is the operation surface the resolvers consume. The HTTP
// Client implements it; tests substitute call-counting fakes.
type Service interface {
	// Devices returns all devices matching the filter. An empty result
	// is not an error.
	Devices(ctx context.Context, filter DeviceFilter) ([]Device, error)
	CreateDevice(ctx context.Context, req CreateDeviceRequest) (string, error)
	UpdateDevice(ctx context.Context, id string, req UpdateDeviceRequest) error
	DeleteDevice(ctx context.Context, id string) error

	// Spaces returns all spaces matching the filter. An empty result
	// is not an error.
	Spaces(ctx context.Context, filter SpaceFilter) ([]Space, error)
	CreateSpace(ctx context.Context, req CreateSpaceRequest) (string, error)
	UpdateSpace(ctx context.Context, id string, req UpdateSpaceRequest) error
	DeleteSpace(ctx context.Context, id string) error

	Sensors(ctx context.Context, filter SensorFilter) ([]Sensor, error)

	PropertyKeys(ctx context.Context, scope PropertyScope, name string) ([]PropertyKey, error)
	CreatePropertyKey(ctx context.Context, req CreatePropertyKeyRequest) (string, error)

	Types(ctx context.Context, category TypeCategory, name string) ([]ExtendedType, error)
	CreateType(ctx context.Context, req CreateTypeRequest) (string, error)

	Endpoints(ctx context.Context, endpointType, path string) ([]Endpoint, error)
	CreateEndpoint(ctx context.Context, req CreateEndpointRequest) (string, error)
}
