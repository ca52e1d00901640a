package topology

import (
	"context"
	"fmt"
	"net/url"
)

// Endpoints returns registered notification endpoints matching the
// given type and path. Used to check for an existing registration
// before creating one.
func (c *Client) Endpoints(ctx context.Context, endpointType, path string) ([]Endpoint, error) {
	query := url.Values{}
	if endpointType != "" {
		query.Set("types", endpointType)
	}
	if path != "" {
		query.Set("paths", path)
	}

	return list[Endpoint](c, ctx, "/endpoints", query)
}

// CreateEndpoint registers a notification endpoint and returns its
// minted id.
//
// Returns ErrConflict when an equivalent registration already exists;
// registration is idempotent from the caller's point of view.
func (c *Client) CreateEndpoint(ctx context.Context, req CreateEndpointRequest) (string, error) {
	id, err := create(c, ctx, "/endpoints", req)
	if err != nil {
		return "", fmt.Errorf("registering endpoint %q: %w", req.Path, err)
	}
	return id, nil
}
