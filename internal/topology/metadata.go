package topology

import (
	"context"
	"fmt"
	"net/url"
)

// PropertyKeys returns the property keys in scope whose name matches.
// Matching is performed remotely and may be case-insensitive; callers
// filter the result for an exact (case-insensitive) hit.
func (c *Client) PropertyKeys(ctx context.Context, scope PropertyScope, name string) ([]PropertyKey, error) {
	query := url.Values{}
	query.Set("scopes", string(scope))
	if name != "" {
		query.Set("names", name)
	}
	query.Set("includes", "Description")

	return list[PropertyKey](c, ctx, "/propertykeys", query)
}

// CreatePropertyKey registers a property key and returns its minted id.
//
// Returns ErrConflict when a key with the same name already exists in
// the scope; the caller re-queries to pick up the winner.
func (c *Client) CreatePropertyKey(ctx context.Context, req CreatePropertyKeyRequest) (string, error) {
	id, err := create(c, ctx, "/propertykeys", req)
	if err != nil {
		return "", fmt.Errorf("creating property key %q: %w", req.Name, err)
	}
	return id, nil
}

// Types returns the extended types in category whose name matches.
func (c *Client) Types(ctx context.Context, category TypeCategory, name string) ([]ExtendedType, error) {
	query := url.Values{}
	query.Set("categories", string(category))
	if name != "" {
		query.Set("names", name)
	}
	query.Set("includes", "Description")

	return list[ExtendedType](c, ctx, "/types", query)
}

// CreateType registers an extended type and returns its minted id.
//
// Returns ErrConflict when the name is already taken within the
// category; the caller re-queries to pick up the winner.
func (c *Client) CreateType(ctx context.Context, req CreateTypeRequest) (string, error) {
	id, err := create(c, ctx, "/types", req)
	if err != nil {
		return "", fmt.Errorf("creating type %q: %w", req.Name, err)
	}
	return id, nil
}
