package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
service:
  name: "devicepulse-test"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
redis:
  addr: "redis.local:6379"
influxdb:
  enabled: true
  url: "http://influx.local:8086"
  org: "test"
  bucket: "metrics"
alerts:
  rules:
    - metric: "temperature"
      operator: ">"
      limit: 90
      severity: "critical"
      cooldown_sec: 300
      alert_worthy: true
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "devicepulse-test" {
		t.Errorf("Service.Name = %q, want %q", cfg.Service.Name, "devicepulse-test")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Redis.Addr != "redis.local:6379" {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Redis.Addr, "redis.local:6379")
	}
	if len(cfg.Alerts.Rules) != 1 {
		t.Fatalf("len(Alerts.Rules) = %d, want 1", len(cfg.Alerts.Rules))
	}

	rule := cfg.Alerts.Rules[0]
	if rule.Metric != "temperature" || rule.Operator != ">" || rule.Limit != 90 {
		t.Errorf("rule = %+v, want temperature > 90", rule)
	}
	if rule.Cooldown() != 300*time.Second {
		t.Errorf("Cooldown() = %v, want 300s", rule.Cooldown())
	}
	if !rule.AlertWorthy {
		t.Error("AlertWorthy = false, want true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal file, everything else should come from defaults.
	cfg, err := Load(writeConfig(t, "service:\n  name: devicepulse\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Jitter != 0.2 {
		t.Errorf("Retry.Jitter = %v, want 0.2", cfg.Retry.Jitter)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEVICEPULSE_REDIS_ADDR", "override:6380")
	t.Setenv("DEVICEPULSE_STORAGE_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, "service:\n  name: devicepulse\nredis:\n  addr: file:6379\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Redis.Addr != "override:6380" {
		t.Errorf("Redis.Addr = %q, want env override %q", cfg.Redis.Addr, "override:6380")
	}
	if cfg.Storage.Auth.APIKey != "env-key" {
		t.Errorf("Storage.Auth.APIKey = %q, want %q", cfg.Storage.Auth.APIKey, "env-key")
	}
}

func TestValidate_RuleErrors(t *testing.T) {
	tests := []struct {
		name    string
		rule    ThresholdRuleConfig
		wantErr string
	}{
		{
			name:    "missing metric",
			rule:    ThresholdRuleConfig{Operator: ">", Severity: "high"},
			wantErr: "metric is required",
		},
		{
			name:    "bad operator",
			rule:    ThresholdRuleConfig{Metric: "temperature", Operator: "~", Severity: "high"},
			wantErr: "operator",
		},
		{
			name:    "bad severity",
			rule:    ThresholdRuleConfig{Metric: "temperature", Operator: ">", Severity: "urgent"},
			wantErr: "severity",
		},
		{
			name:    "negative cooldown",
			rule:    ThresholdRuleConfig{Metric: "temperature", Operator: ">", Severity: "high", CooldownSec: -1},
			wantErr: "cooldown_sec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Alerts.Rules = []ThresholdRuleConfig{tt.rule}

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RetryBounds(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retry.MaxAttempts = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for max_attempts = 0, got nil")
	}

	cfg = defaultConfig()
	cfg.Retry.Jitter = 1.5

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for jitter > 1, got nil")
	}
}
