package resolver

// Default names and values applied when an entity is created or fully
// redefined without explicit attributes.
const (
	// DefaultGatewayName is the name and hardware id given to the
	// gateway device created on first access.
	DefaultGatewayName = "DefaultGateway"

	// DefaultDeviceStatus is the device status applied when none is
	// supplied.
	DefaultDeviceStatus = "Provisioned"

	// NoneTypeName is the sentinel extended-type name used to reset a
	// type, subtype or space status on a complete update.
	NoneTypeName = "None"
)

// Logger defines the logging interface used by the resolvers.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Metrics receives cache and latency observations from the resolvers.
// The influxdb client satisfies this; a noop implementation is used
// when metrics are disabled.
type Metrics interface {
	WriteCacheMetric(store, outcome string)
	WriteResolverLatency(operation string, durationMS float64, hit bool)
}

// noopMetrics discards all observations.
type noopMetrics struct{}

func (noopMetrics) WriteCacheMetric(string, string)           {}
func (noopMetrics) WriteResolverLatency(string, float64, bool) {}
