package redis

import "errors"

// Sentinel errors for Redis operations.
var (
	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("redis: connection failed")
)
