package mqtt

import "errors"

// Sentinel errors for broker operations, checked with errors.Is. The
// publisher classifies ErrInvalidTopic and ErrInvalidQoS as permanent;
// everything else here is retryable.
var (
	// ErrNotConnected reports an operation attempted while the broker
	// connection is down. Paho keeps reconnecting in the background, so
	// the condition is transient.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed reports a failed initial connection attempt.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed reports a rejected or failed publish.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed reports a rejected or failed subscribe.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed reports a rejected or failed unsubscribe.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS reports a QoS level outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic reports an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout reports an operation that exceeded its deadline.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
