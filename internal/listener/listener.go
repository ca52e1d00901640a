package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/twinproxy/internal/infrastructure/config"
	"github.com/nerrad567/twinproxy/internal/infrastructure/mqtt"
	"github.com/nerrad567/twinproxy/internal/journal"
	"github.com/nerrad567/twinproxy/internal/topology"
)

// journalTimeout bounds the sqlite write for a single event.
const journalTimeout = 5 * time.Second

// Logger defines the logging interface used by the listener.
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

// Bus is the subset of the MQTT client the listener needs.
type Bus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Invalidator evicts all cache entries for an entity id, reporting
// whether anything was cached.
type Invalidator interface {
	Invalidate(id string) bool
}

// Broadcaster pushes processed events to the live invalidation feed.
type Broadcaster interface {
	BroadcastInvalidation(entityType, accessType, entityID string, evicted bool)
}

// EventMetrics records processed-event observations.
type EventMetrics interface {
	WriteEventProcessed(entityType, accessType string, evicted bool)
}

// noopBroadcaster and noopMetrics stand in when the feed or metrics
// are not wired.
type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastInvalidation(string, string, string, bool) {}

type noopMetrics struct{}

func (noopMetrics) WriteEventProcessed(string, string, bool) {}

// Listener subscribes to the topology change topic and drives cache
// eviction.
type Listener struct {
	cfg     config.EventsConfig
	bus     Bus
	svc     topology.Service
	devices Invalidator
	spaces  Invalidator
	journal journal.Repository

	broadcaster Broadcaster
	metrics     EventMetrics
	logger      Logger
}

// New creates a listener. The journal may be nil when journaling is
// disabled.
func New(cfg config.EventsConfig, bus Bus, svc topology.Service, devices, spaces Invalidator, repo journal.Repository) *Listener {
	return &Listener{
		cfg:         cfg,
		bus:         bus,
		svc:         svc,
		devices:     devices,
		spaces:      spaces,
		journal:     repo,
		broadcaster: noopBroadcaster{},
		metrics:     noopMetrics{},
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the listener.
func (l *Listener) SetLogger(logger Logger) {
	l.logger = logger
}

// SetBroadcaster sets the invalidation feed sink.
func (l *Listener) SetBroadcaster(b Broadcaster) {
	l.broadcaster = b
}

// SetMetrics sets the metrics sink.
func (l *Listener) SetMetrics(m EventMetrics) {
	l.metrics = m
}

// Start registers the change endpoint with the topology service (when
// configured) and subscribes to the change topic.
//
// Parameters:
//   - ctx: Context for the endpoint registration call
//
// Returns:
//   - error: Registration or subscription failure
func (l *Listener) Start(ctx context.Context) error {
	if l.cfg.SelfRegister {
		if err := l.EnsureEndpoint(ctx); err != nil {
			return fmt.Errorf("registering change endpoint: %w", err)
		}
	}

	if err := l.bus.Subscribe(l.cfg.Topic, byte(l.cfg.QoS), l.handleMessage); err != nil {
		return fmt.Errorf("subscribing to change topic: %w", err)
	}

	l.logger.Info("topology change listener started", "topic", l.cfg.Topic, "qos", l.cfg.QoS)

	return nil
}

// EnsureEndpoint registers the change topic as a notification endpoint
// on the topology service. Registration is idempotent: an existing
// equivalent endpoint short-circuits, and losing a create race to a
// concurrent registration is treated as success.
func (l *Listener) EnsureEndpoint(ctx context.Context) error {
	existing, err := l.svc.Endpoints(ctx, topology.EndpointTypeEventHub, l.cfg.Topic)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		l.logger.Debug("change endpoint already registered", "id", existing[0].ID, "path", l.cfg.Topic)
		return nil
	}

	id, err := l.svc.CreateEndpoint(ctx, topology.CreateEndpointRequest{
		Type:       topology.EndpointTypeEventHub,
		Path:       l.cfg.Topic,
		EventTypes: []string{topology.EventTypeTopologyOperation},
	})
	if err != nil {
		if isConflict(err) {
			l.logger.Debug("change endpoint registered concurrently", "path", l.cfg.Topic)
			return nil
		}
		return err
	}

	l.logger.Info("change endpoint registered", "id", id, "path", l.cfg.Topic)

	return nil
}

// handleMessage processes a single change event payload.
func (l *Listener) handleMessage(topic string, payload []byte) error {
	var event topology.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decoding change event on %s: %w", topic, err)
	}

	if event.ID == "" {
		return fmt.Errorf("change event on %s has no entity id", topic)
	}

	// A just-created entity cannot be cached yet.
	if event.AccessType == topology.AccessCreate {
		l.logger.Debug("ignoring create event", "entity", event.EntityType, "id", event.ID)
		return nil
	}
	if event.AccessType != topology.AccessUpdate && event.AccessType != topology.AccessDelete {
		l.logger.Debug("ignoring unknown access type", "access", event.AccessType, "id", event.ID)
		return nil
	}

	var evicted bool
	switch event.EntityType {
	case topology.EntityDevice:
		evicted = l.devices.Invalidate(event.ID)
	case topology.EntitySpace:
		evicted = l.spaces.Invalidate(event.ID)
	default:
		l.logger.Debug("ignoring unknown entity type", "entity", event.EntityType, "id", event.ID)
		return nil
	}

	l.logger.Debug("change event processed",
		"entity", event.EntityType, "access", event.AccessType,
		"id", event.ID, "evicted", evicted)

	l.record(event, evicted)
	l.broadcaster.BroadcastInvalidation(string(event.EntityType), string(event.AccessType), event.ID, evicted)
	l.metrics.WriteEventProcessed(string(event.EntityType), string(event.AccessType), evicted)

	return nil
}

// record journals the processed event. Journal failures are logged,
// never propagated: eviction already happened and must not be retried
// for the sake of bookkeeping.
func (l *Listener) record(event topology.ChangeEvent, evicted bool) {
	if l.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	entry := &journal.Entry{
		EntityType:    string(event.EntityType),
		AccessType:    string(event.AccessType),
		EntityID:      event.ID,
		Evicted:       evicted,
		CorrelationID: topology.NewCorrelationID(),
	}
	if err := l.journal.Create(ctx, entry); err != nil {
		l.logger.Error("journaling change event failed", "id", event.ID, "error", err)
	}
}

func isConflict(err error) bool {
	return errors.Is(err, topology.ErrConflict)
}
