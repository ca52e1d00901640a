package resolver

import (
	"context"
	"fmt"

	"github.com/nerrad567/twinproxy/internal/topology"
)

// Recognised attribute keys. "location" is accepted on the wire but
// has no remote mapping yet and is reported as unsupported.
const (
	attrDescription  = "description"
	attrFriendlyName = "friendlyName"
	attrStatus       = "status"
	attrType         = "type"
	attrSubtype      = "subtype"
	attrLocation     = "location"
)

// deviceAttributes is the resolved form of a device attribute map.
// Nil fields were not supplied.
type deviceAttributes struct {
	description  *string
	friendlyName *string
	status       *string
	typeID       *string
	subtypeID    *string
}

// spaceAttributes is the resolved form of a space attribute map.
// Space status is an extended type, unlike the plain device status.
type spaceAttributes struct {
	description  *string
	friendlyName *string
	statusID     *string
	typeID       *string
	subtypeID    *string
}

// resolveDeviceAttributes maps raw attribute keys to remote fields,
// resolving type and subtype names to ids. Unrecognised keys are
// logged and skipped; they never fail the operation.
func resolveDeviceAttributes(ctx context.Context, metadata *MetadataResolver, attrs map[string]string, logger Logger) (deviceAttributes, error) {
	var resolved deviceAttributes

	for key, value := range attrs {
		switch key {
		case attrDescription:
			resolved.description = ptr(value)
		case attrFriendlyName:
			resolved.friendlyName = ptr(value)
		case attrStatus:
			resolved.status = ptr(value)
		case attrType:
			id, err := metadata.ResolveType(ctx, value, topology.CategoryDeviceType)
			if err != nil {
				return deviceAttributes{}, fmt.Errorf("resolving device type %q: %w", value, err)
			}
			resolved.typeID = ptr(id)
		case attrSubtype:
			id, err := metadata.ResolveType(ctx, value, topology.CategoryDeviceSubtype)
			if err != nil {
				return deviceAttributes{}, fmt.Errorf("resolving device subtype %q: %w", value, err)
			}
			resolved.subtypeID = ptr(id)
		case attrLocation:
			logger.Warn("location attribute not supported, skipping", "value", value)
		default:
			logger.Error("unrecognised device attribute, skipping", "key", key)
		}
	}

	return resolved, nil
}

// resolveSpaceAttributes is the space counterpart of
// resolveDeviceAttributes. Status names resolve to space-status type
// ids.
func resolveSpaceAttributes(ctx context.Context, metadata *MetadataResolver, attrs map[string]string, logger Logger) (spaceAttributes, error) {
	var resolved spaceAttributes

	for key, value := range attrs {
		switch key {
		case attrDescription:
			resolved.description = ptr(value)
		case attrFriendlyName:
			resolved.friendlyName = ptr(value)
		case attrStatus:
			id, err := metadata.ResolveType(ctx, value, topology.CategorySpaceStatus)
			if err != nil {
				return spaceAttributes{}, fmt.Errorf("resolving space status %q: %w", value, err)
			}
			resolved.statusID = ptr(id)
		case attrType:
			id, err := metadata.ResolveType(ctx, value, topology.CategorySpaceType)
			if err != nil {
				return spaceAttributes{}, fmt.Errorf("resolving space type %q: %w", value, err)
			}
			resolved.typeID = ptr(id)
		case attrSubtype:
			id, err := metadata.ResolveType(ctx, value, topology.CategorySpaceSubtype)
			if err != nil {
				return spaceAttributes{}, fmt.Errorf("resolving space subtype %q: %w", value, err)
			}
			resolved.subtypeID = ptr(id)
		case attrLocation:
			logger.Warn("location attribute not supported, skipping", "value", value)
		default:
			logger.Error("unrecognised space attribute, skipping", "key", key)
		}
	}

	return resolved, nil
}

// resolveProperties ensures each named property has a registered key
// in scope and returns the wire representation.
func resolveProperties(ctx context.Context, metadata *MetadataResolver, scope topology.PropertyScope, properties map[string]string) ([]topology.Property, error) {
	if len(properties) == 0 {
		return nil, nil
	}

	resolved := make([]topology.Property, 0, len(properties))
	for name, value := range properties {
		if _, err := metadata.ResolvePropertyKey(ctx, name, scope); err != nil {
			return nil, fmt.Errorf("resolving property %q: %w", name, err)
		}
		resolved = append(resolved, topology.Property{Name: name, Value: value})
	}

	return resolved, nil
}

func ptr(s string) *string {
	return &s
}
