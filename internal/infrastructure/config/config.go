package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Twin Topology Proxy.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Tenant   TenantConfig   `yaml:"tenant"`
	Topology TopologyConfig `yaml:"topology"`
	Events   EventsConfig   `yaml:"events"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	Journal  JournalConfig  `yaml:"journal"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// TenantConfig identifies the root scope all resolved entities live under.
type TenantConfig struct {
	// ID is the tenant root space identifier on the topology service.
	ID string `yaml:"id"`

	// Name is a human-readable label used only in logs.
	Name string `yaml:"name"`

	// DefaultGatewayID, when set, is returned by the gateway resolver
	// without ever creating a gateway device. Leave empty to let the
	// proxy create one on first access.
	DefaultGatewayID string `yaml:"default_gateway_id"`
}

// TopologyConfig contains connection settings for the remote topology service.
type TopologyConfig struct {
	// BaseURL is the root of the topology service REST API,
	// e.g. "https://topology.example.com/api/v1".
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token sent on every request.
	Token string `yaml:"token"`

	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// EventsConfig contains topology-change event stream settings.
type EventsConfig struct {
	// Topic is the MQTT topic the topology service publishes change
	// events to.
	Topic string `yaml:"topic"`

	// QoS is the subscription QoS for the change topic.
	QoS int `yaml:"qos"`

	// SelfRegister controls whether the proxy registers the change
	// endpoint with the topology service on startup.
	SelfRegister bool `yaml:"self_register"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains admin HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// JournalConfig contains the SQLite change-event journal settings.
type JournalConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for cache metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings for the admin API.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TWINPROXY_SECTION_KEY
// For example: TWINPROXY_TOPOLOGY_TOKEN, TWINPROXY_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Tenant: TenantConfig{
			Name: "default",
		},
		Topology: TopologyConfig{
			TimeoutSeconds: 30,
		},
		Events: EventsConfig{
			Topic:        "twinproxy/topology/changes",
			QoS:          1,
			SelfRegister: true,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "twinproxy",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8085,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Journal: JournalConfig{
			Path:        "./data/twinproxy.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TWINPROXY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Tenant
	if v := os.Getenv("TWINPROXY_TENANT_ID"); v != "" {
		cfg.Tenant.ID = v
	}

	// Topology service
	if v := os.Getenv("TWINPROXY_TOPOLOGY_URL"); v != "" {
		cfg.Topology.BaseURL = v
	}
	if v := os.Getenv("TWINPROXY_TOPOLOGY_TOKEN"); v != "" {
		cfg.Topology.Token = v
	}

	// Journal
	if v := os.Getenv("TWINPROXY_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// MQTT
	if v := os.Getenv("TWINPROXY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TWINPROXY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TWINPROXY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("TWINPROXY_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("TWINPROXY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("TWINPROXY_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Tenant validation
	if c.Tenant.ID == "" {
		errs = append(errs, "tenant.id is required")
	}

	// Topology service validation
	if c.Topology.BaseURL == "" {
		errs = append(errs, "topology.base_url is required")
	}
	if c.Topology.TimeoutSeconds <= 0 {
		errs = append(errs, "topology.timeout_seconds must be positive")
	}

	// Events validation
	if c.Events.Topic == "" {
		errs = append(errs, "events.topic is required")
	}
	if c.Events.QoS < 0 || c.Events.QoS > 2 {
		errs = append(errs, "events.qos must be 0, 1, or 2")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Journal validation
	if c.Journal.Path == "" {
		errs = append(errs, "journal.path is required")
	}

	// Security validation - JWT secret is REQUIRED
	// The admin API can evict cache entries and read the change journal;
	// a forged token would let an attacker degrade resolution performance
	// or observe topology activity.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set TWINPROXY_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TopologyTimeout returns the topology service request timeout as a Duration.
func (c *Config) TopologyTimeout() time.Duration {
	return time.Duration(c.Topology.TimeoutSeconds) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
