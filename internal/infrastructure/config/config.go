package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Device Pulse.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Logging  LoggingConfig  `yaml:"logging"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Redis    RedisConfig    `yaml:"redis"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Storage  StorageConfig  `yaml:"storage"`
	Retry    RetryConfig    `yaml:"retry"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	API      APIConfig      `yaml:"api"`
}

// ServiceConfig contains service identity settings.
type ServiceConfig struct {
	// Name is the service identifier stamped on every published event
	// as the event source.
	Name string `yaml:"name"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
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
}

// RedisConfig contains Redis connection settings for the status cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// InfluxDBConfig contains InfluxDB connection settings for the metrics store.
type InfluxDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

// StorageConfig contains settings for the external device storage service.
//
// The storage service owns device master data; Device Pulse only reads it
// over the service's HTTP API.
type StorageConfig struct {
	Enabled bool              `yaml:"enabled"`
	BaseURL string            `yaml:"base_url"`
	Timeout int               `yaml:"timeout"`
	Auth    StorageAuthConfig `yaml:"auth"`
}

// StorageAuthConfig contains storage service credentials.
//
// Both an API key and basic auth credentials may be configured. When both
// are present the API key takes precedence and basic auth is ignored.
type StorageAuthConfig struct {
	APIKey   string `yaml:"api_key"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RetryConfig contains the shared retry policy for publish and write paths.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMS int     `yaml:"base_delay_ms"`
	MaxDelayMS  int     `yaml:"max_delay_ms"`
	Jitter      float64 `yaml:"jitter"`
}

// AlertsConfig contains threshold rule definitions.
//
// Rules are loaded once at startup and are immutable for the process
// lifetime.
type AlertsConfig struct {
	Rules []ThresholdRuleConfig `yaml:"rules"`
}

// ThresholdRuleConfig defines a single metric threshold rule.
// A cooldown_sec of 0 (or omitted) disables duplicate suppression for
// the rule; every breach fires.
type ThresholdRuleConfig struct {
	Metric      string  `yaml:"metric"`
	Operator    string  `yaml:"operator"`
	Limit       float64 `yaml:"limit"`
	Severity    string  `yaml:"severity"`
	CooldownSec int     `yaml:"cooldown_sec"`
	AlertWorthy bool    `yaml:"alert_worthy"`
}

// Cooldown returns the rule cooldown as a Duration.
func (r ThresholdRuleConfig) Cooldown() time.Duration {
	return time.Duration(r.CooldownSec) * time.Second
}

// APIConfig contains the operational HTTP server settings (health endpoints).
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DEVICEPULSE_SECTION_KEY
// For example: DEVICEPULSE_REDIS_ADDR, DEVICEPULSE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "devicepulse",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "devicepulse-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		InfluxDB: InfluxDBConfig{
			Enabled: true,
			URL:     "http://localhost:8086",
			Org:     "devicepulse",
			Bucket:  "device-metrics",
		},
		Storage: StorageConfig{
			Enabled: true,
			BaseURL: "http://localhost:8090",
			Timeout: 5,
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelayMS: 100,
			MaxDelayMS:  5000,
			Jitter:      0.2,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DEVICEPULSE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("DEVICEPULSE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DEVICEPULSE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("DEVICEPULSE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DEVICEPULSE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Redis
	if v := os.Getenv("DEVICEPULSE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DEVICEPULSE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// InfluxDB
	if v := os.Getenv("DEVICEPULSE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("DEVICEPULSE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Storage service
	if v := os.Getenv("DEVICEPULSE_STORAGE_URL"); v != "" {
		cfg.Storage.BaseURL = v
	}
	if v := os.Getenv("DEVICEPULSE_STORAGE_API_KEY"); v != "" {
		cfg.Storage.Auth.APIKey = v
	}
	if v := os.Getenv("DEVICEPULSE_STORAGE_USERNAME"); v != "" {
		cfg.Storage.Auth.Username = v
	}
	if v := os.Getenv("DEVICEPULSE_STORAGE_PASSWORD"); v != "" {
		cfg.Storage.Auth.Password = v
	}
}

// validOperators are the comparison operators accepted in threshold rules.
var validOperators = map[string]bool{
	">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true,
}

// validSeverities are the severity levels accepted in threshold rules.
var validSeverities = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Service.Name == "" {
		errs = append(errs, "service.name is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Storage.Enabled && c.Storage.BaseURL == "" {
		errs = append(errs, "storage.base_url is required when storage is enabled")
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be at least 1")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		errs = append(errs, "retry.jitter must be between 0 and 1")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	for i, rule := range c.Alerts.Rules {
		if rule.Metric == "" {
			errs = append(errs, fmt.Sprintf("alerts.rules[%d].metric is required", i))
		}
		if !validOperators[rule.Operator] {
			errs = append(errs, fmt.Sprintf("alerts.rules[%d].operator %q is not valid", i, rule.Operator))
		}
		if !validSeverities[rule.Severity] {
			errs = append(errs, fmt.Sprintf("alerts.rules[%d].severity %q is not valid", i, rule.Severity))
		}
		if rule.CooldownSec < 0 {
			errs = append(errs, fmt.Sprintf("alerts.rules[%d].cooldown_sec must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetTimeout returns the storage client timeout as a Duration.
func (s StorageConfig) GetTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}
