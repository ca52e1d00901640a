package topology

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/twinproxy/internal/infrastructure/config"
)

// Default timeouts for topology service operations.
const (
	defaultRequestTimeout = 30 * time.Second
	defaultHealthTimeout  = 5 * time.Second

	// maxErrorBodyBytes limits how much of an error response body is
	// read into the returned error message.
	maxErrorBodyBytes = 512
)

// Client talks JSON over HTTP to the remote topology service.
//
// Every method issues a single request/response round trip. The client
// adds bearer-token auth and correlation-id propagation; it does not
// retry. Callers that need retry semantics wrap the client themselves.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// compile-time check that Client satisfies Service.
var _ Service = (*Client)(nil)

// NewClient creates a topology service client from configuration.
//
// Parameters:
//   - cfg: Topology service configuration from config.yaml
//
// Returns:
//   - *Client: Client ready for use (no connection is established eagerly)
func NewClient(cfg config.TopologyConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// HealthCheck verifies the topology service is reachable.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	return c.do(checkCtx, http.MethodGet, "/health", nil, nil, nil)
}

// do issues a single HTTP request and decodes the JSON response into out.
//
// Status mapping:
//   - 2xx: decode body into out (if out is non-nil)
//   - 404: ErrNotFound
//   - 409: ErrConflict
//   - anything else: ErrRequestFailed with a body snippet
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := CorrelationID(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close on read path

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s %s", ErrConflict, method, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // Snippet is best effort
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrRequestFailed, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %w", ErrInvalidResponse, method, path, err)
	}

	return nil
}

// createdResponse is the body returned by create operations.
type createdResponse struct {
	ID string `json:"id"`
}

// list issues a GET returning a JSON array, mapping 404 to an empty result.
func list[T any](c *Client, ctx context.Context, path string, query url.Values) ([]T, error) {
	var results []T
	if err := c.do(ctx, http.MethodGet, path, query, nil, &results); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return results, nil
}

// create issues a POST and returns the minted identifier.
func create(c *Client, ctx context.Context, path string, body any) (string, error) {
	var resp createdResponse
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: create %s returned no id", ErrInvalidResponse, path)
	}
	return resp.ID, nil
}
