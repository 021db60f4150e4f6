// Package influxdb provides InfluxDB connectivity for Device Pulse.
//
// It wraps the official influxdb-client-go v2 library with Device
// Pulse-specific patterns for connection management, sample writing, and
// health monitoring.
//
// # Purpose
//
// This package handles time-series storage for device metric samples.
// Each sample is written as a point in the device_metrics measurement,
// tagged with device_id, metric, and unit.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "devicepulse",
//	    Bucket: "device-metrics",
//	}
//
//	client, err := influxdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.WriteSample(ctx, "dev-1", "temperature", "celsius", 21.5, time.Now().UTC())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Writes are synchronous and return wrapped sentinel errors. Retry with
// backoff is the responsibility of the metrics writer; this package only
// reports failures.
package influxdb
