package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Builder constructs validated events with a fixed source.
//
// A single Builder is created at startup and shared; it is stateless
// and safe for concurrent use.
type Builder struct {
	source string
}

// NewBuilder creates an event builder that stamps every event with the
// given source identifier.
func NewBuilder(source string) *Builder {
	return &Builder{source: source}
}

// Option customizes a built event.
type Option func(*Event)

// WithCorrelationID attaches a correlation id for request tracing.
// Empty values are ignored.
func WithCorrelationID(id string) Option {
	return func(e *Event) {
		if id != "" {
			e.CorrelationID = id
		}
	}
}

// WithTags appends caller-supplied tags after the type-derived tags.
func WithTags(tags ...string) Option {
	return func(e *Event) {
		e.Tags = append(e.Tags, tags...)
	}
}

// Build constructs an event of the given type for the given device.
//
// The payload's concrete type must match the event type
// (StatusChangedPayload for TypeStatusChanged, and so on) or
// ErrInvalidPayload is returned. Tags are composed deterministically:
// the category tag first, then type-specific tags, then any tags added
// via WithTags.
//
// Parameters:
//   - eventType: one of the Type constants
//   - deviceID: the subject device; must be non-empty
//   - payload: the typed payload matching eventType
//   - opts: optional correlation id and extra tags
//
// Returns:
//   - Event: the fully populated envelope
//   - error: ErrUnknownType, ErrMissingDeviceID, or ErrInvalidPayload
func (b *Builder) Build(eventType Type, deviceID string, payload any, opts ...Option) (Event, error) {
	if deviceID == "" {
		return Event{}, ErrMissingDeviceID
	}

	tags, err := composeTags(eventType, payload)
	if err != nil {
		return Event{}, err
	}

	e := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		DeviceID:  deviceID,
		Payload:   payload,
		Source:    b.source,
		Tags:      tags,
		Timestamp: time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e, nil
}

// composeTags validates the payload shape and derives the ordered tag
// list for the event type.
func composeTags(eventType Type, payload any) ([]string, error) {
	category := eventType.Category()
	if category == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, eventType)
	}

	switch eventType {
	case TypeStatusChanged:
		p, ok := payload.(StatusChangedPayload)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires StatusChangedPayload, got %T", ErrInvalidPayload, eventType, payload)
		}
		if p.CurrentStatus == "" {
			return nil, fmt.Errorf("%w: current status is empty", ErrInvalidPayload)
		}
		return []string{category, p.CurrentStatus}, nil

	case TypeThresholdExceeded:
		p, ok := payload.(ThresholdExceededPayload)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires ThresholdExceededPayload, got %T", ErrInvalidPayload, eventType, payload)
		}
		if p.Metric == "" || p.Severity == "" {
			return nil, fmt.Errorf("%w: metric and severity are required", ErrInvalidPayload)
		}
		return []string{category, p.Metric, p.Severity}, nil

	case TypeHealthCheck:
		p, ok := payload.(HealthCheckPayload)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires HealthCheckPayload, got %T", ErrInvalidPayload, eventType, payload)
		}
		if p.Result != "healthy" && p.Result != "unhealthy" {
			return nil, fmt.Errorf("%w: health result must be healthy or unhealthy, got %q", ErrInvalidPayload, p.Result)
		}
		return []string{category, p.Result}, nil

	case TypeAlertTriggered:
		p, ok := payload.(AlertTriggeredPayload)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires AlertTriggeredPayload, got %T", ErrInvalidPayload, eventType, payload)
		}
		if p.AlertType == "" || p.Severity == "" {
			return nil, fmt.Errorf("%w: alert type and severity are required", ErrInvalidPayload)
		}
		return []string{category, p.AlertType, p.Severity}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, eventType)
	}
}
