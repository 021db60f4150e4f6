package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/device-pulse/internal/infrastructure/logging"
	"github.com/nerrad567/device-pulse/internal/infrastructure/mqtt"
)

// RetainedPublisher publishes retained messages at the connection's
// default QoS.
type RetainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// statusNotice is the wire format of a retained device status message.
type statusNotice struct {
	DeviceID  string    `json:"device_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// StatusBoard mirrors each device's last known status onto its retained
// status topic, so a new subscriber sees current state immediately
// instead of waiting for the next transition event.
//
// Announcements are last-write-wins and carry no ordering guarantee
// beyond the broker's; the ordered event stream on the per-device event
// topics remains the source of truth for transition history.
type StatusBoard struct {
	transport RetainedPublisher
	logger    *logging.Logger
}

// NewStatusBoard creates a status board publishing through the given
// transport.
func NewStatusBoard(transport RetainedPublisher, logger *logging.Logger) *StatusBoard {
	return &StatusBoard{
		transport: transport,
		logger:    logger.With("component", "statusboard"),
	}
}

// AnnounceStatus replaces the retained status message for a device.
func (b *StatusBoard) AnnounceStatus(deviceID, status, reason string, changedAt time.Time) error {
	payload, err := json.Marshal(statusNotice{
		DeviceID:  deviceID,
		Status:    status,
		Reason:    reason,
		ChangedAt: changedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: encode status notice for %s: %v", ErrPermanent, deviceID, err)
	}

	return b.transport.PublishRetained(mqtt.Topics{}.DeviceStatus(deviceID), payload)
}
