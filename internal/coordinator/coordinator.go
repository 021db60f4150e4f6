package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/device-pulse/internal/event"
	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/metrics"
	"github.com/nerrad567/device-pulse/internal/statecache"
	"github.com/nerrad567/device-pulse/internal/storage"
)

// Known device statuses.
const (
	StatusOnline      = "online"
	StatusOffline     = "offline"
	StatusDegraded    = "degraded"
	StatusMaintenance = "maintenance"
)

// enrichTimeout bounds the master-data lookup during a transition so a
// slow storage service cannot stall status publication.
const enrichTimeout = 2 * time.Second

// validStatuses is the closed set Transition accepts.
var validStatuses = map[string]bool{
	StatusOnline:      true,
	StatusOffline:     true,
	StatusDegraded:    true,
	StatusMaintenance: true,
}

// StateCache is the device state store.
type StateCache interface {
	GetStatus(ctx context.Context, deviceID string) (statecache.StatusRecord, error)
	SetStatus(ctx context.Context, deviceID string, rec statecache.StatusRecord) (statecache.StatusRecord, bool, error)
}

// EventPublisher delivers domain events without blocking the caller.
type EventPublisher interface {
	PublishAsync(ev event.Event) error
}

// MetricsRecorder accepts metric samples for asynchronous persistence.
type MetricsRecorder interface {
	Record(sample metrics.Sample) error
}

// AlertEvaluator turns metric samples into threshold and alert events.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, sample metrics.Sample, correlationID string) ([]event.Event, error)
}

// DeviceDirectory looks up device master data for event enrichment.
type DeviceDirectory interface {
	Enabled() bool
	GetDevice(ctx context.Context, deviceID string) (storage.Device, error)
}

// StatusAnnouncer mirrors committed statuses to a retained location
// where late subscribers can read current state.
type StatusAnnouncer interface {
	AnnounceStatus(deviceID, status, reason string, changedAt time.Time) error
}

// Coordinator keeps device state consistent across the cache, the
// metrics store, the storage service and the event bus.
//
// All status mutations flow through Transition. Operations for the same
// device are serialized through a per-device lock; distinct devices
// proceed fully in parallel. Once the cache write commits, the
// transition has happened: event publication and metrics persistence
// are asynchronous continuations whose failures are incidents to
// report, never reasons to roll back.
type Coordinator struct {
	cache     StateCache
	publisher EventPublisher
	metrics   MetricsRecorder
	alerts    AlertEvaluator
	directory DeviceDirectory
	announcer StatusAnnouncer
	builder   *event.Builder
	logger    *logging.Logger

	locks *lockArena
}

// New creates a coordinator over the given collaborators. directory may
// be a disabled client, and announcer may be nil; enrichment and
// retained status announcements are skipped respectively.
func New(
	cache StateCache,
	publisher EventPublisher,
	metricsRecorder MetricsRecorder,
	alerts AlertEvaluator,
	directory DeviceDirectory,
	announcer StatusAnnouncer,
	builder *event.Builder,
	logger *logging.Logger,
) *Coordinator {
	return &Coordinator{
		cache:     cache,
		publisher: publisher,
		metrics:   metricsRecorder,
		alerts:    alerts,
		directory: directory,
		announcer: announcer,
		builder:   builder,
		logger:    logger.With("component", "coordinator"),
		locks:     newLockArena(),
	}
}

// Transition moves a device to a new status.
//
// The algorithm:
//  1. Validate the status against the known set.
//  2. Read the cached record; a cold cache means the previous status is
//     unknown, not an error.
//  3. If the device already has the requested status, return nil
//     without writing or publishing anything.
//  4. Commit the new record to the cache atomically. A cache failure
//     aborts the transition.
//  5. Mirror the committed status to the retained status topic, then
//     build the status-changed event and hand it to the publisher
//     asynchronously. The transition is committed at this point;
//     announce and publish failures surface through logs and the
//     publisher's dropped-event reporting, not through this return
//     value.
//
// Parameters:
//   - deviceID: the device to transition
//   - newStatus: one of the Status constants
//   - reason: free-text cause recorded on the cache record and event
//   - correlationID: propagated onto the event; may be empty
//
// Returns:
//   - event.Event: the status-changed event handed to the publisher;
//     the zero event for the idempotent no-op case
//   - error: ErrInvalidStatus, ErrCacheUnavailable, or nil (including
//     the idempotent no-op case)
func (c *Coordinator) Transition(ctx context.Context, deviceID, newStatus, reason, correlationID string) (event.Event, error) {
	if deviceID == "" {
		return event.Event{}, fmt.Errorf("%w: empty device id", ErrInvalidStatus)
	}
	if !validStatuses[newStatus] {
		return event.Event{}, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	l := c.locks.acquire(deviceID)
	defer c.locks.release(deviceID, l)

	var (
		previousStatus string
		previousAt     time.Time
	)

	current, err := c.cache.GetStatus(ctx, deviceID)
	switch {
	case err == nil:
		if current.CurrentStatus == newStatus {
			c.logger.Debug("transition is a no-op",
				"device_id", deviceID,
				"status", newStatus,
				"correlation_id", correlationID,
			)
			return event.Event{}, nil
		}
		previousStatus = current.CurrentStatus
		previousAt = current.LastChangedAt
	case errors.Is(err, statecache.ErrNotFound):
		// First sighting of this device.
	default:
		return event.Event{}, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	now := time.Now().UTC()
	_, _, err = c.cache.SetStatus(ctx, deviceID, statecache.StatusRecord{
		CurrentStatus: newStatus,
		LastChangedAt: now,
		ChangeReason:  reason,
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	c.announceStatus(deviceID, newStatus, reason, now)

	payload := event.StatusChangedPayload{
		PreviousStatus: previousStatus,
		CurrentStatus:  newStatus,
		Reason:         reason,
		DeviceName:     c.lookupName(ctx, deviceID),
	}
	if !previousAt.IsZero() {
		payload.SincePreviousMS = now.Sub(previousAt).Milliseconds()
	}

	ev, err := c.builder.Build(event.TypeStatusChanged, deviceID, payload,
		event.WithCorrelationID(correlationID))
	if err != nil {
		// Transition is committed; a build failure here is a bug worth
		// shouting about, not a reason to report failure to the caller.
		c.logger.Error("building status-changed event",
			"device_id", deviceID,
			"error", err,
		)
		return event.Event{}, nil
	}

	c.publishContinuation(ev)

	c.logger.Info("device status changed",
		"device_id", deviceID,
		"previous_status", previousStatus,
		"current_status", newStatus,
		"reason", reason,
		"correlation_id", correlationID,
	)

	return ev, nil
}

// RecordMetric persists a metric sample and evaluates it against the
// alert rules.
//
// The sample is validated synchronously; persistence happens in the
// metrics writer's background queue and never blocks or fails this
// call. Alert evaluation runs inline so breaches are detected at
// ingestion time, with resulting events published asynchronously.
//
// Returns:
//   - error: metrics.ErrInvalidMetric for malformed samples; nil
//     otherwise
func (c *Coordinator) RecordMetric(ctx context.Context, sample metrics.Sample, correlationID string) error {
	if err := c.metrics.Record(sample); err != nil {
		return err
	}

	events, err := c.alerts.Evaluate(ctx, sample, correlationID)
	if err != nil {
		c.logger.Error("alert evaluation failed",
			"device_id", sample.DeviceID,
			"metric", sample.Metric,
			"correlation_id", correlationID,
			"error", err,
		)
		return nil
	}

	for _, ev := range events {
		c.publishContinuation(ev)
	}

	return nil
}

// RecordHealthCheck records a device health-check outcome.
//
// A health-check event is always published. An unhealthy result also
// transitions the device to degraded, and a healthy result brings a
// degraded device back online; transitions between other statuses
// (offline, maintenance) are left to explicit status reports.
func (c *Coordinator) RecordHealthCheck(ctx context.Context, deviceID string, healthy bool, details, correlationID string) error {
	if deviceID == "" {
		return fmt.Errorf("%w: empty device id", ErrInvalidStatus)
	}

	result := "healthy"
	if !healthy {
		result = "unhealthy"
	}

	ev, err := c.builder.Build(event.TypeHealthCheck, deviceID,
		event.HealthCheckPayload{Result: result, Details: details},
		event.WithCorrelationID(correlationID))
	if err != nil {
		return err
	}
	c.publishContinuation(ev)

	if !healthy {
		_, err := c.Transition(ctx, deviceID, StatusDegraded, "health check failed", correlationID)
		return err
	}

	current, err := c.cache.GetStatus(ctx, deviceID)
	if err == nil && current.CurrentStatus == StatusDegraded {
		_, err := c.Transition(ctx, deviceID, StatusOnline, "health check recovered", correlationID)
		return err
	}

	return nil
}

// announceStatus mirrors a committed status to the retained status
// topic. Failures are logged, never returned.
func (c *Coordinator) announceStatus(deviceID, status, reason string, changedAt time.Time) {
	if c.announcer == nil {
		return
	}
	if err := c.announcer.AnnounceStatus(deviceID, status, reason, changedAt); err != nil {
		c.logger.Warn("retained status announce failed",
			"device_id", deviceID,
			"status", status,
			"error", err,
		)
	}
}

// publishContinuation hands an event to the publisher without tying it
// to the caller's context.
func (c *Coordinator) publishContinuation(ev event.Event) {
	if err := c.publisher.PublishAsync(ev); err != nil {
		c.logger.Error("enqueueing event failed",
			"device_id", ev.DeviceID,
			"event_id", ev.ID,
			"event_type", string(ev.Type),
			"error", err,
		)
	}
}

// lookupName fetches the device's display name from the storage
// service. Failures degrade to an empty name.
func (c *Coordinator) lookupName(ctx context.Context, deviceID string) string {
	if c.directory == nil || !c.directory.Enabled() {
		return ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	device, err := c.directory.GetDevice(lookupCtx, deviceID)
	if err != nil {
		c.logger.Debug("master data lookup failed",
			"device_id", deviceID,
			"error", err,
		)
		return ""
	}

	return device.Name
}

// ValidStatuses returns the accepted status set, for validation at the
// ingest boundary.
func ValidStatuses() []string {
	return []string{StatusOnline, StatusOffline, StatusDegraded, StatusMaintenance}
}
