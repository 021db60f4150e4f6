package coordinator

import "errors"

// Sentinel errors for coordinator operations.
//
// Callers should use errors.Is for comparison as errors may be wrapped
// with additional context.
var (
	// ErrInvalidStatus indicates a status outside the known set.
	ErrInvalidStatus = errors.New("invalid device status")

	// ErrCacheUnavailable indicates the state cache could not commit
	// the transition. The transition did not happen.
	ErrCacheUnavailable = errors.New("state cache unavailable")
)
