package storage

import "errors"

// Sentinel errors for storage service calls.
var (
	// ErrNotFound indicates the storage service has no such device.
	ErrNotFound = errors.New("device not found")

	// ErrUnavailable indicates the storage service could not be reached
	// or returned an unexpected response.
	ErrUnavailable = errors.New("storage service unavailable")

	// ErrDisabled indicates the storage client is not configured.
	ErrDisabled = errors.New("storage service disabled")
)
