package mqtt

import (
	"fmt"
)

// maxPayloadSize caps MQTT payloads at 1MB, aligned with typical
// broker limits. Door events are a few hundred bytes; this guards
// against programming errors, not normal traffic.
const maxPayloadSize = 1 << 20

// Publish sends a message to the specified topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "petdoor/front-door/status")
//   - payload: The message payload (JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker keeps the message for new subscribers.
//     Use for state topics (door status, battery), not for events.
//
// Returns:
//   - error: nil on success, or a wrapped error describing the failure
//
// Example:
//
//	topic := mqtt.Topics{}.DoorStatus("front-door")
//	err := client.Publish(topic, []byte(`{"status":"DOOR_CLOSED"}`), 1, true)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload. Equivalent to Publish with
// []byte(payload).
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// PublishRetained publishes a retained message with the configured
// default QoS. Use for state updates where new subscribers should see
// the current state immediately.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
