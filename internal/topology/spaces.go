package topology

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Spaces returns all spaces matching the filter. A filter that matches
// nothing yields a nil slice and a nil error.
func (c *Client) Spaces(ctx context.Context, filter SpaceFilter) ([]Space, error) {
	query := url.Values{}
	if len(filter.IDs) > 0 {
		query.Set("ids", strings.Join(filter.IDs, ","))
	}
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}
	if filter.ParentID != "" {
		query.Set("spaceId", filter.ParentID)
	}
	if filter.IncludeAll {
		query.Set("includes", "Types,Values,Properties,PropertyKeys")
	}

	return list[Space](c, ctx, "/spaces", query)
}

// CreateSpace creates a space and returns its minted id.
//
// Returns ErrConflict when a sibling with the same name already exists
// under the same parent.
func (c *Client) CreateSpace(ctx context.Context, req CreateSpaceRequest) (string, error) {
	id, err := create(c, ctx, "/spaces", req)
	if err != nil {
		return "", fmt.Errorf("creating space %q: %w", req.Name, err)
	}
	return id, nil
}

// UpdateSpace patches the identified space. Only non-nil fields of req
// are sent; omitted fields keep their current values.
func (c *Client) UpdateSpace(ctx context.Context, id string, req UpdateSpaceRequest) error {
	if err := c.do(ctx, http.MethodPatch, "/spaces/"+url.PathEscape(id), nil, req, nil); err != nil {
		return fmt.Errorf("updating space %s: %w", id, err)
	}
	return nil
}

// DeleteSpace removes the identified space.
//
// Returns ErrNotFound when the space does not exist.
func (c *Client) DeleteSpace(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/spaces/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting space %s: %w", id, err)
	}
	return nil
}
