package topology

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Devices returns all devices matching the filter.
//
// A filter that matches nothing yields a nil slice and a nil error;
// absence is an ordinary query outcome, not a failure.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - filter: Query constraints (zero-value fields are ignored)
//
// Returns:
//   - []Device: Matching devices, nil when none match
//   - error: Transport or decode failure
func (c *Client) Devices(ctx context.Context, filter DeviceFilter) ([]Device, error) {
	query := url.Values{}
	if len(filter.IDs) > 0 {
		query.Set("ids", strings.Join(filter.IDs, ","))
	}
	if filter.Name != "" {
		query.Set("names", filter.Name)
	}
	if len(filter.HardwareIDs) > 0 {
		query.Set("hardwareIds", strings.Join(filter.HardwareIDs, ","))
	}
	if filter.GatewayID != "" {
		query.Set("gatewayIds", filter.GatewayID)
	}
	if filter.SpaceID != "" {
		query.Set("spaceIds", filter.SpaceID)
	}
	if filter.IncludeAll {
		query.Set("includes", "ConnectedDataStream,Description,Gateway,Types,PropertyKeys,Properties,Sensors,SensorsTypes,Space")
	}

	return list[Device](c, ctx, "/devices", query)
}

// CreateDevice creates a device and returns its minted id.
//
// Returns ErrConflict when a device with the same name already exists.
func (c *Client) CreateDevice(ctx context.Context, req CreateDeviceRequest) (string, error) {
	id, err := create(c, ctx, "/devices", req)
	if err != nil {
		return "", fmt.Errorf("creating device %q: %w", req.Name, err)
	}
	return id, nil
}

// UpdateDevice patches the identified device. Only non-nil fields of
// req are sent; omitted fields keep their current values.
func (c *Client) UpdateDevice(ctx context.Context, id string, req UpdateDeviceRequest) error {
	if err := c.do(ctx, http.MethodPatch, "/devices/"+url.PathEscape(id), nil, req, nil); err != nil {
		return fmt.Errorf("updating device %s: %w", id, err)
	}
	return nil
}

// DeleteDevice removes the identified device.
//
// Returns ErrNotFound when the device does not exist; callers decide
// whether absence matters.
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/devices/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}
	return nil
}
