package topology

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// correlationKey is a private type for context keys to avoid collisions.
type correlationKey struct{}

// correlationIDBytes is the number of random bytes used for correlation IDs.
const correlationIDBytes = 8

// WithCorrelationID returns a context carrying the given correlation id.
// The HTTP client forwards it as the X-Correlation-ID header so a single
// resolver call can be traced across the proxy and the topology service.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id carried by the context, or
// an empty string if none was set.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// NewCorrelationID creates a random hex correlation id.
func NewCorrelationID() string {
	b := make([]byte, correlationIDBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}
