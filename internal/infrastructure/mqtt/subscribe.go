package mqtt

import (
	"context"
	"fmt"
)

// Subscribe registers interest in a topic filter.
//
// Topics can include MQTT wildcards:
//   - + (single-level): "sensors/+/temperature"
//   - # (multi-level): "sensors/#"
//
// Matching messages are delivered through Poll as EventPublish; the engine
// does not keep per-filter handlers.
//
// Returns:
//   - error: nil once the broker has acknowledged, or wrapped ErrSubscribeFailed
func (e *Engine) Subscribe(ctx context.Context, topic string, qos QoS) error {
	if err := ValidateTopic(topic); err != nil {
		return err
	}
	if !qos.Valid() {
		return ErrInvalidQoS
	}

	token := e.client.Subscribe(topic, byte(qos), nil)
	if err := waitToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	e.notify(Event{Kind: EventSubAck, Topic: topic})
	return nil
}

// Unsubscribe removes a topic filter. Messages already in flight may still
// be delivered.
//
// Returns:
//   - error: nil once the broker has acknowledged, or wrapped ErrUnsubscribeFailed
func (e *Engine) Unsubscribe(ctx context.Context, topic string) error {
	if err := ValidateTopic(topic); err != nil {
		return err
	}

	token := e.client.Unsubscribe(topic)
	if err := waitToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	e.notify(Event{Kind: EventUnsubAck, Topic: topic})
	return nil
}
