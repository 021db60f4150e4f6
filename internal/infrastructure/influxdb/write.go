package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// measurementDeviceMetrics is the measurement (table) holding all device
// metric samples.
const measurementDeviceMetrics = "device_metrics"

// WriteSample writes a single device metric sample to InfluxDB.
//
// The write is synchronous and idempotent per (device_id, metric,
// timestamp): re-writing the same point overwrites rather than
// duplicates, which makes replay after retry safe.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique identifier for the device (e.g., "dev-1")
//   - metric: The metric name (e.g., "temperature")
//   - unit: The unit tag for the sample (e.g., "celsius")
//   - value: The numeric value to record
//   - timestamp: The sample time (UTC)
//
// Returns:
//   - error: nil on success, or wrapped ErrWriteFailed
//
// Example:
//
//	err := client.WriteSample(ctx, "dev-1", "temperature", "celsius", 21.5, time.Now().UTC())
func (c *Client) WriteSample(ctx context.Context, deviceID, metric, unit string, value float64, timestamp time.Time) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		measurementDeviceMetrics,
		map[string]string{
			"device_id": deviceID,
			"metric":    metric,
			"unit":      unit,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteSample.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//   - timestamp: The exact time for this data point
func (c *Client) WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}
