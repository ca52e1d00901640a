// twinproxy - caching topology-resolution proxy.
//
// twinproxy sits between local consumers and a remote digital-twins
// topology service. It resolves devices, spaces, and metadata through
// dual-indexed in-memory caches, creates the tenant default gateway on
// first use, and keeps the caches coherent by listening for topology
// change events over MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/twinproxy/migrations"

	"github.com/nerrad567/twinproxy/internal/api"
	"github.com/nerrad567/twinproxy/internal/cache"
	"github.com/nerrad567/twinproxy/internal/infrastructure/config"
	"github.com/nerrad567/twinproxy/internal/infrastructure/database"
	"github.com/nerrad567/twinproxy/internal/infrastructure/influxdb"
	"github.com/nerrad567/twinproxy/internal/infrastructure/logging"
	"github.com/nerrad567/twinproxy/internal/infrastructure/mqtt"
	"github.com/nerrad567/twinproxy/internal/journal"
	"github.com/nerrad567/twinproxy/internal/listener"
	"github.com/nerrad567/twinproxy/internal/resolver"
	"github.com/nerrad567/twinproxy/internal/topology"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting twinproxy",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the change journal database
	db, err := database.Open(database.Config{
		Path:        cfg.Journal.Path,
		WALMode:     cfg.Journal.WALMode,
		BusyTimeout: cfg.Journal.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening journal database: %w", err)
	}
	defer func() {
		log.Info("closing journal database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing journal database", "error", closeErr)
		}
	}()
	log.Info("journal database connected", "path", cfg.Journal.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	journalRepo := journal.NewSQLiteRepository(db.DB)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Topology service HTTP client
	topo := topology.NewClient(cfg.Topology)
	log.Info("topology client initialised", "base_url", cfg.Topology.BaseURL)

	// Resolvers and their backing cache stores
	deviceCaches := resolver.DeviceCaches{
		ByName:              cache.NewStore[topology.Device]("devices-by-name"),
		ByID:                cache.NewStore[topology.Device]("devices-by-id"),
		GatewayByHardwareID: cache.NewStore[string]("gateways-by-hardware-id"),
	}
	spaceCaches := resolver.SpaceCaches{
		ByName: cache.NewStore[topology.Space]("spaces-by-name"),
		ByID:   cache.NewStore[topology.Space]("spaces-by-id"),
	}

	metadata := resolver.NewMetadataResolver(topo)
	metadata.SetLogger(log)

	gateway := resolver.NewGatewayResolver(topo, cfg.Tenant)
	gateway.SetLogger(log)

	devices := resolver.NewDeviceResolver(topo, metadata, deviceCaches)
	devices.SetLogger(log)

	spaces := resolver.NewSpaceResolver(topo, metadata, spaceCaches)
	spaces.SetLogger(log)

	if influxClient != nil {
		devices.SetMetrics(influxClient)
		spaces.SetMetrics(influxClient)
	}
	log.Info("resolvers initialised", "tenant", cfg.Tenant.ID)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Admin API server (health, cache stats, eviction, journal, live feed)
	checks := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     mqttClient,
		"topology": topo,
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}

	srv, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Devices:  devices,
		Spaces:   spaces,
		Journal:  journalRepo,
		Checks:   checks,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := srv.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Topology change listener: endpoint self-registration plus the
	// MQTT subscription that drives cache eviction.
	lst := listener.New(cfg.Events, mqttClient, topo, devices, spaces, journalRepo)
	lst.SetLogger(log)
	lst.SetBroadcaster(srv.Hub())
	if influxClient != nil {
		lst.SetMetrics(influxClient)
	}
	if startErr := lst.Start(ctx); startErr != nil {
		return fmt.Errorf("starting change listener: %w", startErr)
	}

	// Resolve the tenant default gateway up front so the first consumer
	// request does not pay the creation round-trip. Failure is not
	// fatal: resolution is retried on the next access.
	if gatewayID, gwErr := gateway.Gateway(ctx); gwErr != nil {
		log.Warn("default gateway not yet resolved", "error", gwErr)
	} else {
		log.Info("default gateway resolved", "gateway_id", gatewayID)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, topo, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. MQTT
	// 3. InfluxDB (if enabled)
	// 4. Journal database

	log.Info("twinproxy stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses TWINPROXY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("TWINPROXY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Journal database to check
//   - mqttClient: MQTT client to check
//   - topo: Topology service client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, topo *topology.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if err := topo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("topology: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
