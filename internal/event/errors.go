package event

import "errors"

// Sentinel errors for event construction.
//
// Callers should use errors.Is for comparison as errors may be wrapped
// with additional context.
var (
	// ErrUnknownType indicates an event type outside the known set.
	ErrUnknownType = errors.New("unknown event type")

	// ErrInvalidPayload indicates the payload's concrete type or content
	// does not match the event type.
	ErrInvalidPayload = errors.New("invalid event payload")

	// ErrMissingDeviceID indicates an event was built without a device id.
	ErrMissingDeviceID = errors.New("missing device id")
)
