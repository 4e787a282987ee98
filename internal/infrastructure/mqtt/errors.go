package mqtt

import "errors"

// Domain-specific errors for MQTT engine operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidOptions is returned by NewEngine when the broker host,
	// port or client identifier cannot be used to build a client.
	ErrInvalidOptions = errors.New("mqtt: invalid engine options")

	// ErrConnectionFailed is returned from Poll when a dial attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrConnectionLost is returned from Poll when an established
	// connection drops.
	ErrConnectionLost = errors.New("mqtt: connection lost")

	// ErrEngineClosed is returned from Poll after Disconnect.
	ErrEngineClosed = errors.New("mqtt: engine closed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
