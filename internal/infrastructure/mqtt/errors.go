package mqtt

import "errors"

// Sentinel errors for the event bridge transport. Wrapped errors carry
// these as their head, so callers match with errors.Is.
var (
	// ErrNotConnected: operation attempted while the broker link is down.
	// The paho layer reconnects on its own; callers normally just retry
	// or drop the event.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed: the initial broker connection did not come up.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed: a publish was rejected or timed out.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed: a subscription was rejected or timed out.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed: an unsubscribe was rejected or timed out.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS: QoS outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic: empty topic string.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
