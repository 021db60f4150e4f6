package metrics

import "errors"

// Sentinel errors for metric recording.
var (
	// ErrInvalidMetric indicates a sample with a malformed metric name
	// or a non-finite value.
	ErrInvalidMetric = errors.New("invalid metric")

	// ErrClosed indicates the writer has been shut down.
	ErrClosed = errors.New("metrics writer closed")
)
