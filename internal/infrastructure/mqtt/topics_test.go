package mqtt

import (
	"errors"
	"testing"
)

func TestStripScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mqtt://broker.example.com", "broker.example.com"},
		{"mqtts://broker.example.com", "broker.example.com"},
		{"tcp://broker.example.com", "broker.example.com"},
		{"ssl://broker.example.com", "broker.example.com"},
		{"ws://broker.example.com", "broker.example.com"},
		{"wss://broker.example.com", "broker.example.com"},
		{"broker.example.com", "broker.example.com"},
		{"  mqtt://broker.example.com  ", "broker.example.com"},
		{"\tbroker.local\n", "broker.local"},
		{"mqtt://", ""},
		{"", ""},
		{"http://broker.example.com", "http://broker.example.com"},
		{"MQTT://broker.example.com", "MQTT://broker.example.com"},
		{"mqtt://mqtt://double", "mqtt://double"},
		{"192.168.1.10", "192.168.1.10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripScheme(tt.in); got != tt.want {
				t.Errorf("StripScheme(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateTopic(t *testing.T) {
	if err := ValidateTopic(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("ValidateTopic(\"\") = %v, want ErrInvalidTopic", err)
	}
	for _, topic := range []string{"a", "a/b/c", "sensors/+/temp", "#"} {
		if err := ValidateTopic(topic); err != nil {
			t.Errorf("ValidateTopic(%q) = %v, want nil", topic, err)
		}
	}
}
