package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/twinproxy/internal/topology"
)

// fakeService is an in-memory stand-in for the remote topology
// service. It stores entities, answers filtered queries and counts
// calls per method so tests can assert on network traffic.
type fakeService struct {
	mu     sync.Mutex
	nextID int
	calls  map[string]int
	errOn  map[string]error

	devices      []topology.Device
	spaces       []topology.Space
	sensors      []topology.Sensor
	propertyKeys []topology.PropertyKey
	types        []topology.ExtendedType
	endpoints    []topology.Endpoint
}

func newFakeService() *fakeService {
	return &fakeService{
		calls: make(map[string]int),
		errOn: make(map[string]error),
	}
}

func (f *fakeService) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeService) failWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errOn[method] = err
}

// record bumps the call counter and returns any injected error.
// Callers hold f.mu.
func (f *fakeService) record(method string) error {
	f.calls[method]++
	return f.errOn[method]
}

func (f *fakeService) mintID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeService) Devices(_ context.Context, filter topology.DeviceFilter) ([]topology.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Devices"); err != nil {
		return nil, err
	}

	var out []topology.Device
	for _, dev := range f.devices {
		if filter.Name != "" && dev.Name != filter.Name {
			continue
		}
		if len(filter.IDs) > 0 && !contains(filter.IDs, dev.ID) {
			continue
		}
		if len(filter.HardwareIDs) > 0 && !contains(filter.HardwareIDs, dev.HardwareID) {
			continue
		}
		if filter.GatewayID != "" && dev.GatewayID != filter.GatewayID {
			continue
		}
		out = append(out, dev)
	}
	return out, nil
}

func (f *fakeService) CreateDevice(_ context.Context, req topology.CreateDeviceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateDevice"); err != nil {
		return "", err
	}

	id := f.mintID("dev")
	f.devices = append(f.devices, topology.Device{
		ID:           id,
		Name:         req.Name,
		HardwareID:   req.HardwareID,
		GatewayID:    req.GatewayID,
		SpaceID:      req.SpaceID,
		Description:  req.Description,
		FriendlyName: req.FriendlyName,
		Status:       req.Status,
		TypeID:       req.TypeID,
		SubtypeID:    req.SubtypeID,
		Properties:   req.Properties,
	})
	return id, nil
}

func (f *fakeService) UpdateDevice(_ context.Context, id string, req topology.UpdateDeviceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateDevice"); err != nil {
		return err
	}

	for i := range f.devices {
		if f.devices[i].ID != id {
			continue
		}
		applyString(&f.devices[i].GatewayID, req.GatewayID)
		applyString(&f.devices[i].SpaceID, req.SpaceID)
		applyString(&f.devices[i].Description, req.Description)
		applyString(&f.devices[i].FriendlyName, req.FriendlyName)
		applyString(&f.devices[i].Status, req.Status)
		applyString(&f.devices[i].TypeID, req.TypeID)
		applyString(&f.devices[i].SubtypeID, req.SubtypeID)
		if req.Properties != nil {
			f.devices[i].Properties = req.Properties
		}
		return nil
	}
	return topology.ErrNotFound
}

func (f *fakeService) DeleteDevice(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteDevice"); err != nil {
		return err
	}

	for i := range f.devices {
		if f.devices[i].ID == id {
			f.devices = append(f.devices[:i], f.devices[i+1:]...)
			return nil
		}
	}
	return topology.ErrNotFound
}

func (f *fakeService) Spaces(_ context.Context, filter topology.SpaceFilter) ([]topology.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Spaces"); err != nil {
		return nil, err
	}

	var out []topology.Space
	for _, space := range f.spaces {
		if filter.Name != "" && space.Name != filter.Name {
			continue
		}
		if len(filter.IDs) > 0 && !contains(filter.IDs, space.ID) {
			continue
		}
		if filter.ParentID != "" && space.ParentID != filter.ParentID {
			continue
		}
		out = append(out, space)
	}
	return out, nil
}

func (f *fakeService) CreateSpace(_ context.Context, req topology.CreateSpaceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateSpace"); err != nil {
		return "", err
	}

	id := f.mintID("space")
	f.spaces = append(f.spaces, topology.Space{
		ID:           id,
		Name:         req.Name,
		ParentID:     req.ParentID,
		Description:  req.Description,
		FriendlyName: req.FriendlyName,
		StatusID:     req.StatusID,
		TypeID:       req.TypeID,
		SubtypeID:    req.SubtypeID,
		Properties:   req.Properties,
	})
	return id, nil
}

func (f *fakeService) UpdateSpace(_ context.Context, id string, req topology.UpdateSpaceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateSpace"); err != nil {
		return err
	}

	for i := range f.spaces {
		if f.spaces[i].ID != id {
			continue
		}
		applyString(&f.spaces[i].ParentID, req.ParentID)
		applyString(&f.spaces[i].Description, req.Description)
		applyString(&f.spaces[i].FriendlyName, req.FriendlyName)
		applyString(&f.spaces[i].StatusID, req.StatusID)
		applyString(&f.spaces[i].TypeID, req.TypeID)
		applyString(&f.spaces[i].SubtypeID, req.SubtypeID)
		if req.Properties != nil {
			f.spaces[i].Properties = req.Properties
		}
		return nil
	}
	return topology.ErrNotFound
}

func (f *fakeService) DeleteSpace(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteSpace"); err != nil {
		return err
	}

	for i := range f.spaces {
		if f.spaces[i].ID == id {
			f.spaces = append(f.spaces[:i], f.spaces[i+1:]...)
			return nil
		}
	}
	return topology.ErrNotFound
}

func (f *fakeService) Sensors(_ context.Context, filter topology.SensorFilter) ([]topology.Sensor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Sensors"); err != nil {
		return nil, err
	}

	var out []topology.Sensor
	for _, sensor := range f.sensors {
		if len(filter.HardwareIDs) > 0 && !contains(filter.HardwareIDs, sensor.HardwareID) {
			continue
		}
		out = append(out, sensor)
	}
	return out, nil
}

func (f *fakeService) PropertyKeys(_ context.Context, scope topology.PropertyScope, name string) ([]topology.PropertyKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PropertyKeys"); err != nil {
		return nil, err
	}

	var out []topology.PropertyKey
	for _, key := range f.propertyKeys {
		if key.Scope != scope {
			continue
		}
		if name != "" && !strings.EqualFold(key.Name, name) {
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

func (f *fakeService) CreatePropertyKey(_ context.Context, req topology.CreatePropertyKeyRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreatePropertyKey"); err != nil {
		return "", err
	}

	for _, key := range f.propertyKeys {
		if key.Scope == req.Scope && strings.EqualFold(key.Name, req.Name) {
			return "", topology.ErrConflict
		}
	}

	id := f.mintID("pk")
	f.propertyKeys = append(f.propertyKeys, topology.PropertyKey{
		ID:            id,
		Name:          req.Name,
		Scope:         req.Scope,
		PrimitiveType: req.PrimitiveType,
	})
	return id, nil
}

func (f *fakeService) Types(_ context.Context, category topology.TypeCategory, name string) ([]topology.ExtendedType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Types"); err != nil {
		return nil, err
	}

	var out []topology.ExtendedType
	for _, t := range f.types {
		if t.Category != category {
			continue
		}
		if name != "" && !strings.EqualFold(t.Name, name) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeService) CreateType(_ context.Context, req topology.CreateTypeRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateType"); err != nil {
		return "", err
	}

	for _, t := range f.types {
		if t.Category == req.Category && strings.EqualFold(t.Name, req.Name) {
			return "", topology.ErrConflict
		}
	}

	id := f.mintID("type")
	f.types = append(f.types, topology.ExtendedType{
		ID:           id,
		Name:         req.Name,
		FriendlyName: req.FriendlyName,
		Category:     req.Category,
	})
	return id, nil
}

func (f *fakeService) Endpoints(_ context.Context, endpointType, path string) ([]topology.Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Endpoints"); err != nil {
		return nil, err
	}

	var out []topology.Endpoint
	for _, ep := range f.endpoints {
		if endpointType != "" && ep.Type != endpointType {
			continue
		}
		if path != "" && ep.Path != path {
			continue
		}
		out = append(out, ep)
	}
	return out, nil
}

func (f *fakeService) CreateEndpoint(_ context.Context, req topology.CreateEndpointRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateEndpoint"); err != nil {
		return "", err
	}

	id := f.mintID("ep")
	f.endpoints = append(f.endpoints, topology.Endpoint{
		ID:         id,
		Type:       req.Type,
		Path:       req.Path,
		EventTypes: req.EventTypes,
	})
	return id, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
