// Package mqtt provides MQTT connectivity for Device Pulse.
//
// It wraps the eclipse/paho.mqtt.golang library with Device Pulse-specific
// patterns for connection management, publishing, subscriptions, and
// automatic reconnection.
//
// # Purpose
//
// MQTT is the event bus of the service:
//   - Outbound domain events are published to per-device topics
//     (devicepulse/device/{id}/event/{type})
//   - Inbound status reports, metric samples, and health-check results
//     arrive on devicepulse/ingest/... topics
//   - Service liveness is announced on devicepulse/system/status via LWT
//
// # Ordering
//
// The client is configured with ordered in-flight delivery
// (SetOrderMatters), so messages published on one connection are not
// reordered. Per-device FIFO across retries is enforced one level up by
// the publisher package, which serialises publishes per device.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Subscriptions are tracked and automatically restored on reconnect.
//
// # Error Handling
//
// Operations return sentinel errors (ErrNotConnected, ErrPublishFailed,
// ErrTimeout, ...) that callers check with errors.Is. Handler panics are
// recovered and logged.
package mqtt
