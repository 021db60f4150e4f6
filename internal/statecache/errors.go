package statecache

import "errors"

// Sentinel errors for cache operations.
//
// Callers should use errors.Is for comparison as errors may be wrapped
// with additional context.
var (
	// ErrNotFound indicates no cached record exists for the device.
	ErrNotFound = errors.New("device state not found")

	// ErrUnavailable indicates the cache backend could not be reached.
	ErrUnavailable = errors.New("state cache unavailable")

	// ErrConflict indicates the atomic update lost too many races and
	// gave up.
	ErrConflict = errors.New("state update conflict")
)
