package mqtt

import (
	"context"
	"fmt"
)

// Publish sends a message to the specified MQTT topic and waits for the
// engine to complete the flow required by qos.
//
// Parameters:
//   - ctx: Cancels the wait (the message may still be delivered)
//   - topic: The topic to publish to
//   - qos: Delivery guarantee level
//   - retain: Whether the broker should retain the message for new subscribers
//   - payload: Raw message bytes
//
// Returns:
//   - error: nil on success, or wrapped ErrPublishFailed
func (e *Engine) Publish(ctx context.Context, topic string, qos QoS, retain bool, payload []byte) error {
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	if !qos.Valid() {
		return ErrInvalidQoS
	}

	token := e.client.Publish(topic, byte(qos), retain, payload)
	if err := waitToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	e.notify(Event{Kind: EventPubAck, Topic: topic})
	return nil
}
