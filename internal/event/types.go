package event

import "time"

// Type identifies the kind of domain event.
type Type string

// Event types.
const (
	// TypeStatusChanged is emitted when a device's status transitions.
	TypeStatusChanged Type = "status-changed"

	// TypeThresholdExceeded is emitted when a metric sample breaches a
	// threshold rule.
	TypeThresholdExceeded Type = "threshold-exceeded"

	// TypeHealthCheck is emitted when a device health-check outcome is
	// recorded.
	TypeHealthCheck Type = "health-check"

	// TypeAlertTriggered is emitted when a breached rule is flagged as
	// alert-worthy.
	TypeAlertTriggered Type = "alert-triggered"
)

// AllTypes returns all valid event types.
func AllTypes() []Type {
	return []Type{
		TypeStatusChanged, TypeThresholdExceeded, TypeHealthCheck, TypeAlertTriggered,
	}
}

// Category returns the leading tag for the event type.
//
// The category is always the first entry in an event's tag list;
// downstream consumers filter on it, so the mapping is part of the wire
// contract.
func (t Type) Category() string {
	switch t {
	case TypeStatusChanged:
		return "status-change"
	case TypeThresholdExceeded:
		return "threshold-exceeded"
	case TypeHealthCheck:
		return "health-check"
	case TypeAlertTriggered:
		return "alert"
	default:
		return ""
	}
}

// Event is the envelope for all device domain events.
//
// Events are immutable facts: once built they are never modified, only
// serialized and published. The Payload field holds one of the typed
// payload structs below; its concrete type is determined by Type and
// enforced by the Builder.
type Event struct {
	// ID is a unique identifier for this event (UUID).
	ID string `json:"id"`

	// Type determines the payload shape and the event topic.
	Type Type `json:"type"`

	// DeviceID identifies the device the event describes. All events for
	// one device are published through the same ordered channel.
	DeviceID string `json:"device_id"`

	// Payload carries the type-specific event body.
	Payload any `json:"payload"`

	// CorrelationID is propagated from the originating request when
	// available, for tracing.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Source identifies the emitting service.
	Source string `json:"source"`

	// Tags is an ordered list for routing and filtering. The first tag
	// is always the category; type-specific tags follow, then any
	// caller-supplied tags. Order matters to downstream filters.
	Tags []string `json:"tags"`

	// Timestamp is the event creation time (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// StatusChangedPayload is the payload for TypeStatusChanged events.
type StatusChangedPayload struct {
	PreviousStatus string `json:"previous_status"`
	CurrentStatus  string `json:"current_status"`
	Reason         string `json:"reason,omitempty"`

	// SincePrevious is how long the device held the previous status,
	// in milliseconds. Zero when the previous status is unknown.
	SincePreviousMS int64 `json:"since_previous_ms,omitempty"`

	// DeviceName is master-data enrichment from the storage service.
	// Empty when the storage service is unavailable.
	DeviceName string `json:"device_name,omitempty"`
}

// ThresholdExceededPayload is the payload for TypeThresholdExceeded events.
type ThresholdExceededPayload struct {
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit,omitempty"`
	Operator string  `json:"operator"`
	Limit    float64 `json:"limit"`
	Severity string  `json:"severity"`
}

// HealthCheckPayload is the payload for TypeHealthCheck events.
type HealthCheckPayload struct {
	// Result is "healthy" or "unhealthy".
	Result  string `json:"result"`
	Details string `json:"details,omitempty"`
}

// AlertTriggeredPayload is the payload for TypeAlertTriggered events.
type AlertTriggeredPayload struct {
	// AlertType names the class of alert (e.g., "metric-threshold").
	AlertType string  `json:"alert_type"`
	Severity  string  `json:"severity"`
	Metric    string  `json:"metric,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Message   string  `json:"message,omitempty"`
}
