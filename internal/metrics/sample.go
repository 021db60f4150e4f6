package metrics

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

// maxMetricNameLength bounds metric names to keep series cardinality
// and tag sizes sane.
const maxMetricNameLength = 64

// metricNamePattern matches valid metric names: lowercase, starting
// with a letter, with underscores as separators.
var metricNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Sample is one metric observation for a device.
type Sample struct {
	DeviceID  string    `json:"device_id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the sample is well formed.
//
// Returns ErrInvalidMetric (wrapped with detail) when the metric name
// is malformed or the value is NaN or infinite.
func (s Sample) Validate() error {
	if s.DeviceID == "" {
		return fmt.Errorf("%w: device id is empty", ErrInvalidMetric)
	}
	if s.Metric == "" {
		return fmt.Errorf("%w: metric name is empty", ErrInvalidMetric)
	}
	if len(s.Metric) > maxMetricNameLength {
		return fmt.Errorf("%w: metric name %q exceeds %d characters", ErrInvalidMetric, s.Metric, maxMetricNameLength)
	}
	if !metricNamePattern.MatchString(s.Metric) {
		return fmt.Errorf("%w: metric name %q must be lowercase with underscores", ErrInvalidMetric, s.Metric)
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("%w: value for %q is not finite", ErrInvalidMetric, s.Metric)
	}
	return nil
}

// knownUnits maps well-known metric names to their units.
var knownUnits = map[string]string{
	"temperature":     "celsius",
	"humidity":        "percent",
	"battery":         "percent",
	"battery_level":   "percent",
	"pressure":        "hpa",
	"voltage":         "volts",
	"current":         "amps",
	"power":           "watts",
	"energy":          "kwh",
	"signal_strength": "dbm",
	"rssi":            "dbm",
	"uptime":          "seconds",
	"latency":         "milliseconds",
	"co2":             "ppm",
	"illuminance":     "lux",
}

// DeriveUnit returns the conventional unit for a metric name, or the
// empty string for metrics with no convention. An explicitly supplied
// unit on the sample always wins.
func DeriveUnit(metric string) string {
	return knownUnits[metric]
}
