package mqtt

import "fmt"

// Topic prefixes for the Device Pulse MQTT hierarchy.
//
// Outbound domain events use the per-device scheme:
//
//	devicepulse/device/{device_id}/event/{event_type}
//
// Keying all event topics by device id routes every event for one device
// through the same ordered channel, preserving per-device FIFO downstream.
const (
	// TopicPrefix is the base for all Device Pulse topics.
	TopicPrefix = "devicepulse"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "devicepulse/device"

	// TopicPrefixIngest is the base for inbound device traffic.
	TopicPrefixIngest = "devicepulse/ingest"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "devicepulse/system"
)

// Topics provides builders for Device Pulse MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.DeviceEvent("dev-1", "status-changed")
//	// Returns: "devicepulse/device/dev-1/event/status-changed"
type Topics struct{}

// DeviceEvent returns the topic for a domain event of a device.
//
// Example: devicepulse/device/dev-1/event/status-changed
func (Topics) DeviceEvent(deviceID, eventType string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixDevice, deviceID, eventType)
}

// DeviceStatus returns the retained topic carrying a device's last known status.
//
// Example: devicepulse/device/dev-1/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDevice, deviceID)
}

// IngestStatus returns the inbound topic for device status reports.
//
// Example: devicepulse/ingest/status/dev-1
func (Topics) IngestStatus(deviceID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefixIngest, deviceID)
}

// IngestMetric returns the inbound topic for device metric samples.
//
// Example: devicepulse/ingest/metric/dev-1
func (Topics) IngestMetric(deviceID string) string {
	return fmt.Sprintf("%s/metric/%s", TopicPrefixIngest, deviceID)
}

// IngestHealth returns the inbound topic for device health-check results.
//
// Example: devicepulse/ingest/health/dev-1
func (Topics) IngestHealth(deviceID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixIngest, deviceID)
}

// SystemStatus returns the topic for service online/offline status (LWT).
//
// Example: devicepulse/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllIngestStatus returns a pattern matching all inbound status reports.
//
// Pattern: devicepulse/ingest/status/+
func (Topics) AllIngestStatus() string {
	return fmt.Sprintf("%s/status/+", TopicPrefixIngest)
}

// AllIngestMetrics returns a pattern matching all inbound metric samples.
//
// Pattern: devicepulse/ingest/metric/+
func (Topics) AllIngestMetrics() string {
	return fmt.Sprintf("%s/metric/+", TopicPrefixIngest)
}

// AllIngestHealth returns a pattern matching all inbound health-check results.
//
// Pattern: devicepulse/ingest/health/+
func (Topics) AllIngestHealth() string {
	return fmt.Sprintf("%s/health/+", TopicPrefixIngest)
}
