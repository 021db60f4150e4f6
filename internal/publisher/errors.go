package publisher

import (
	"errors"
	"fmt"
)

// Sentinel errors for event publishing.
//
// ErrTransient and ErrPermanent both wrap ErrPublishFailed, so callers
// can match the broad class or the specific one with errors.Is.
var (
	// ErrPublishFailed is the base class for delivery failures.
	ErrPublishFailed = errors.New("publish failed")

	// ErrTransient indicates a failure a retry may fix, such as a
	// disconnected broker or a publish timeout.
	ErrTransient = fmt.Errorf("%w: transient", ErrPublishFailed)

	// ErrPermanent indicates a failure retrying cannot fix, such as an
	// invalid topic or an oversized payload.
	ErrPermanent = fmt.Errorf("%w: permanent", ErrPublishFailed)

	// ErrDropped indicates the event was abandoned after exhausting
	// retries. The dropped event is logged in full before this is
	// returned.
	ErrDropped = errors.New("event dropped after retries")

	// ErrClosed indicates the publisher has been shut down.
	ErrClosed = errors.New("publisher closed")
)
