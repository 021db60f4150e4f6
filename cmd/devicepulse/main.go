// Device Pulse - device state coordination service.
//
// Device Pulse keeps device state consistent across its backends (the
// Redis state cache, the InfluxDB metrics store, the external device
// storage service and the MQTT event bus) while emitting domain events
// for status transitions, threshold breaches, health checks and alerts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/device-pulse/internal/alert"
	"github.com/nerrad567/device-pulse/internal/api"
	"github.com/nerrad567/device-pulse/internal/coordinator"
	"github.com/nerrad567/device-pulse/internal/event"
	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
	"github.com/nerrad567/device-pulse/internal/infrastructure/influxdb"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/infrastructure/mqtt"
	"github.com/nerrad567/device-pulse/internal/infrastructure/redis"
	"github.com/nerrad567/device-pulse/internal/ingest"
	"github.com/nerrad567/device-pulse/internal/metrics"
	"github.com/nerrad567/device-pulse/internal/publisher"
	"github.com/nerrad567/device-pulse/internal/retry"
	"github.com/nerrad567/device-pulse/internal/statecache"
	"github.com/nerrad567/device-pulse/internal/storage"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Device Pulse",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, cfg.Service.Name, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to Redis (state cache)
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection")
		if closeErr := redisClient.Close(); closeErr != nil {
			log.Error("error closing Redis", "error", closeErr)
		}
	}()
	log.Info("Redis connected", "addr", cfg.Redis.Addr)

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

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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
	} else {
		log.Info("InfluxDB disabled")
	}

	// Storage service client (optional)
	storageClient := storage.NewClient(cfg.Storage, log)
	if storageClient.Enabled() {
		log.Info("storage service client configured", "base_url", cfg.Storage.BaseURL)
	} else {
		log.Info("storage service disabled")
	}

	// Shared retry policy for publish and metric write paths
	policy := retry.FromConfig(cfg.Retry)

	// Domain components
	builder := event.NewBuilder(cfg.Service.Name)
	cache := statecache.New(redisClient, log)

	pub := publisher.New(mqttClient, policy, log, publisher.Options{
		QoS: byte(cfg.MQTT.QoS),
	})
	defer func() {
		log.Info("closing publisher", "dropped_events", pub.Dropped())
		pub.Close()
	}()

	metricsWriter := metrics.NewWriter(metricsSink(influxClient), policy, log, 0)
	metricsWriter.Start(ctx)
	defer func() {
		log.Info("closing metrics writer", "queued", metricsWriter.QueueDepth())
		metricsWriter.Close()
	}()

	rules := alert.RulesFromConfig(cfg.Alerts.Rules)
	evaluator := alert.NewEvaluator(rules, cache, builder, log)
	log.Info("alert evaluator initialised", "rules", evaluator.RuleCount())

	// Retained per-device status mirror for late subscribers
	board := publisher.NewStatusBoard(mqttClient, log)

	coord := coordinator.New(cache, pub, metricsWriter, evaluator, storageClient, board, builder, log)

	// Inbound consumers
	consumer := ingest.New(mqttClient, coord, byte(cfg.MQTT.QoS), log)
	if err := consumer.Start(); err != nil {
		return fmt.Errorf("starting ingest consumers: %w", err)
	}
	defer func() {
		if closeErr := consumer.Close(); closeErr != nil {
			log.Warn("error stopping ingest consumers", "error", closeErr)
		}
	}()

	// Operational HTTP server
	checks := map[string]api.HealthChecker{
		"redis": cache.HealthCheck,
		"mqtt":  mqttClient.HealthCheck,
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient.HealthCheck
	}
	if storageClient.Enabled() {
		checks["storage"] = storageClient.HealthCheck
	}

	apiServer := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Version: version,
		Checks:  checks,
	})
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing api server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy before declaring readiness
	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Device Pulse stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DEVICEPULSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DEVICEPULSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for name, check := range checks {
		if err := check(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// metricsSink adapts the optional InfluxDB client to the metrics
// writer's sink interface. When InfluxDB is disabled a discard sink is
// used so the rest of the pipeline behaves identically.
func metricsSink(client *influxdb.Client) metrics.Sink {
	if client != nil {
		return client
	}
	return discardSink{}
}

type discardSink struct{}

func (discardSink) WriteSample(_ context.Context, _, _, _ string, _ float64, _ time.Time) error {
	return nil
}
