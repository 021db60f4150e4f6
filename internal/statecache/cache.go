package statecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
)

// Key layout within Redis. All keys carry the service prefix so a
// shared Redis instance stays navigable.
const (
	statusKeyFormat = "devicepulse:device:%s:status"
	alertKeyFormat  = "devicepulse:alert:%s:%s:%s"
)

// maxTxRetries bounds optimistic transaction retries when concurrent
// writers race on the same device key.
const maxTxRetries = 5

// StatusRecord is the cached state for one device. Records are only
// mutated through the coordinator.
type StatusRecord struct {
	DeviceID string `json:"device_id"`

	// CurrentStatus is the device's status as of LastChangedAt.
	CurrentStatus string `json:"current_status"`

	// PreviousStatus is the status CurrentStatus replaced. Empty for a
	// device's first record.
	PreviousStatus string `json:"previous_status,omitempty"`

	// LastChangedAt is when CurrentStatus took effect (UTC).
	LastChangedAt time.Time `json:"last_changed_at"`

	// ChangeReason is the free-text cause of the last transition.
	ChangeReason string `json:"change_reason,omitempty"`
}

// Cache is the Redis-backed device state store.
//
// Status updates are atomic read-modify-write operations: concurrent
// transitions for the same device serialize through Redis optimistic
// transactions, so the previous status returned to each writer is the
// value that writer actually replaced.
type Cache struct {
	client *goredis.Client
	logger *logging.Logger
}

// New creates a state cache backed by the given Redis client.
func New(client *goredis.Client, logger *logging.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// GetStatus retrieves the cached status record for a device.
//
// Returns:
//   - StatusRecord: the cached record
//   - error: ErrNotFound if no record exists, ErrUnavailable on backend failure
func (c *Cache) GetStatus(ctx context.Context, deviceID string) (StatusRecord, error) {
	key := statusKey(deviceID)

	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return StatusRecord{}, fmt.Errorf("%w: device %s", ErrNotFound, deviceID)
	}
	if err != nil {
		return StatusRecord{}, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}

	var rec StatusRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// A corrupt record is treated as absent; the next write repairs it.
		c.logger.Warn("discarding corrupt status record",
			"device_id", deviceID,
			"error", err,
		)
		return StatusRecord{}, fmt.Errorf("%w: device %s", ErrNotFound, deviceID)
	}

	return rec, nil
}

// SetStatus atomically replaces a device's status record and returns
// the record it replaced.
//
// The read and write happen inside a Redis optimistic transaction: if
// another writer updates the key between our read and write, the
// transaction is retried with the fresh value. The returned previous
// record is therefore exactly what this call overwrote.
//
// Parameters:
//   - deviceID: the device whose status is updated; stamped onto the
//     record
//   - rec: the new status record; LastChangedAt defaults to now, and
//     PreviousStatus is overwritten with the replaced record's status
//
// Returns:
//   - StatusRecord: the previous record
//   - bool: true when a previous record existed
//   - error: ErrUnavailable on backend failure, ErrConflict after
//     exhausting transaction retries
func (c *Cache) SetStatus(ctx context.Context, deviceID string, rec StatusRecord) (StatusRecord, bool, error) {
	key := statusKey(deviceID)

	rec.DeviceID = deviceID
	if rec.LastChangedAt.IsZero() {
		rec.LastChangedAt = time.Now().UTC()
	}

	var (
		previous StatusRecord
		existed  bool
	)

	txn := func(tx *goredis.Tx) error {
		previous = StatusRecord{}
		existed = false

		raw, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, goredis.Nil):
			// First write for this device.
		case err != nil:
			return err
		default:
			if jsonErr := json.Unmarshal([]byte(raw), &previous); jsonErr == nil {
				existed = true
			}
		}

		// PreviousStatus is derived inside the transaction so it always
		// names the status this write actually replaced.
		next := rec
		if existed {
			next.PreviousStatus = previous.CurrentStatus
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal status record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := c.client.Watch(ctx, txn, key)
		if err == nil {
			return previous, existed, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return StatusRecord{}, false, fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}

	return StatusRecord{}, false, fmt.Errorf("%w: device %s after %d attempts", ErrConflict, deviceID, maxTxRetries)
}

// MarkAlert records that an alert fired for the given device, metric
// and severity, suppressing duplicates for the cooldown window.
//
// The record is written with SET NX EX so the check and the write are a
// single atomic operation; the key evicts itself when the cooldown
// expires. A non-positive cooldown means no suppression window: the
// call reports first=true without touching the backend.
//
// Returns:
//   - bool: true when this is the first alert in the window (the alert
//     should be emitted), false when a duplicate was suppressed
//   - error: ErrUnavailable on backend failure
func (c *Cache) MarkAlert(ctx context.Context, deviceID, metric, severity string, cooldown time.Duration) (bool, error) {
	// Redis treats a zero expiration as "never expire", which would
	// suppress the alert permanently after its first firing.
	if cooldown <= 0 {
		return true, nil
	}

	key := alertKey(deviceID, metric, severity)

	first, err := c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx %s: %v", ErrUnavailable, key, err)
	}

	return first, nil
}

// ClearAlert removes the cooldown record for a device/metric/severity
// combination, re-arming the alert before its window expires.
func (c *Cache) ClearAlert(ctx context.Context, deviceID, metric, severity string) error {
	key := alertKey(deviceID, metric, severity)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrUnavailable, key, err)
	}

	return nil
}

// HealthCheck verifies the cache backend is reachable.
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func statusKey(deviceID string) string {
	return fmt.Sprintf(statusKeyFormat, deviceID)
}

func alertKey(deviceID, metric, severity string) string {
	return fmt.Sprintf(alertKeyFormat, deviceID, metric, severity)
}
