package mqtt

import (
	"fmt"
	"strings"
)

// QoS is an MQTT delivery guarantee level.
//
// It serialises as "atmostonce", "atleastonce" or "exactlyonce" so saved
// profiles stay readable; the digits 0-2 are also accepted on input.
type QoS byte

// QoS levels, mapped 1:1 onto the MQTT wire values.
const (
	AtMostOnce  QoS = 0
	AtLeastOnce QoS = 1
	ExactlyOnce QoS = 2
)

// Valid reports whether q is a level the protocol defines.
func (q QoS) Valid() bool {
	return q <= maxQoS
}

// String returns the lowercase name of the level.
func (q QoS) String() string {
	switch q {
	case AtMostOnce:
		return "atmostonce"
	case AtLeastOnce:
		return "atleastonce"
	case ExactlyOnce:
		return "exactlyonce"
	default:
		return fmt.Sprintf("qos(%d)", byte(q))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q QoS) MarshalText() ([]byte, error) {
	if !q.Valid() {
		return nil, ErrInvalidQoS
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *QoS) UnmarshalText(text []byte) error {
	parsed, err := ParseQoS(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQoS parses a level name or digit.
func ParseQoS(s string) (QoS, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "atmostonce", "0":
		return AtMostOnce, nil
	case "atleastonce", "1":
		return AtLeastOnce, nil
	case "exactlyonce", "2":
		return ExactlyOnce, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidQoS, s)
	}
}
