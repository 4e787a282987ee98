package mqtt

import "strings"

// brokerSchemes are the URL prefixes users commonly paste in front of a
// broker host. Matching is exact and case-sensitive.
var brokerSchemes = []string{
	"mqtt://",
	"mqtts://",
	"tcp://",
	"ssl://",
	"ws://",
	"wss://",
}

// StripScheme trims surrounding whitespace from a broker address and removes
// one recognised scheme prefix.
//
// Unrecognised prefixes are left in place:
//
//	StripScheme("mqtt://broker.local")  // "broker.local"
//	StripScheme("  broker.local ")      // "broker.local"
//	StripScheme("http://broker.local")  // "http://broker.local"
//	StripScheme("mqtt://")              // ""
func StripScheme(address string) string {
	address = strings.TrimSpace(address)
	for _, scheme := range brokerSchemes {
		if stripped, ok := strings.CutPrefix(address, scheme); ok {
			return stripped
		}
	}
	return address
}

// ValidateTopic reports whether a topic or topic filter can be sent to the
// broker. Wildcard placement is left to the broker to police.
func ValidateTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	return nil
}
