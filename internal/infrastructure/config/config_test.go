package config

import (
	"os"
	"path/filepath"
	"testing"
)

// validConfig returns a minimal configuration that passes validation.
// Tests mutate individual fields to exercise specific failure cases.
func validConfig() *Config {
	return &Config{
		Tenant: TenantConfig{ID: "tenant-root"},
		Topology: TopologyConfig{
			BaseURL:        "https://topology.example.com/api/v1",
			TimeoutSeconds: 30,
		},
		Events: EventsConfig{
			Topic: "twinproxy/topology/changes",
			QoS:   1,
		},
		MQTT: MQTTConfig{QoS: 1},
		API:  APIConfig{Port: 8085},
		Journal: JournalConfig{
			Path: "/data/twinproxy.db",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{Secret: "test-secret-key-at-least-32-chars!"},
		},
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
tenant:
  id: "tenant-root"
topology:
  base_url: "https://topology.example.com/api/v1"
  timeout_seconds: 10
events:
  topic: "twinproxy/topology/changes"
  qos: 1
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
journal:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 8085
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tenant.ID != "tenant-root" {
		t.Errorf("Tenant.ID = %q, want %q", cfg.Tenant.ID, "tenant-root")
	}

	if cfg.Topology.BaseURL != "https://topology.example.com/api/v1" {
		t.Errorf("Topology.BaseURL = %q, want %q", cfg.Topology.BaseURL, "https://topology.example.com/api/v1")
	}

	if cfg.Journal.Path != "/tmp/test.db" {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
tenant:
  id: ""
topology:
  base_url: "https://topology.example.com/api/v1"
api:
  port: 8085
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty tenant.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing tenant id",
			mutate:  func(c *Config) { c.Tenant.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing topology base url",
			mutate:  func(c *Config) { c.Topology.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "zero topology timeout",
			mutate:  func(c *Config) { c.Topology.TimeoutSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "missing events topic",
			mutate:  func(c *Config) { c.Events.Topic = "" },
			wantErr: true,
		},
		{
			name:    "invalid events qos",
			mutate:  func(c *Config) { c.Events.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "invalid mqtt qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 5 },
			wantErr: true,
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "missing journal path",
			mutate:  func(c *Config) { c.Journal.Path = "" },
			wantErr: true,
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "too-short" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
tenant:
  id: "tenant-root"
topology:
  base_url: "https://topology.example.com/api/v1"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("TWINPROXY_TOPOLOGY_TOKEN", "env-token")
	t.Setenv("TWINPROXY_MQTT_HOST", "broker.internal")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Topology.Token != "env-token" {
		t.Errorf("Topology.Token = %q, want %q", cfg.Topology.Token, "env-token")
	}
	if cfg.MQTT.Broker.Host != "broker.internal" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.internal")
	}
}
