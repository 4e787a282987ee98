package session

import (
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// Message is one inbound application message.
type Message struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`

	// Timestamp is the receive time in milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

// newMessage decodes payload and stamps it with the receive time.
func newMessage(topic string, payload []byte, at time.Time) Message {
	return Message{
		Topic:     topic,
		Payload:   decodePayload(payload),
		Timestamp: at.UnixMilli(),
	}
}

// decodePayload converts raw bytes to text, replacing invalid UTF-8 with
// U+FFFD.
func decodePayload(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
