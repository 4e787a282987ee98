package profile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
	"github.com/nerrad567/topiclab/internal/session"
	"github.com/nerrad567/topiclab/internal/variables"
)

// ButtonColor is the display colour of a publish button.
type ButtonColor string

// Button colours. An unset colour renders as ColorOrange.
const (
	ColorOrange ButtonColor = "orange"
	ColorGreen  ButtonColor = "green"
	ColorBlue   ButtonColor = "blue"
	ColorPurple ButtonColor = "purple"
	ColorRed    ButtonColor = "red"
	ColorTeal   ButtonColor = "teal"
)

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown colours.
func (c *ButtonColor) UnmarshalText(text []byte) error {
	switch v := ButtonColor(strings.ToLower(string(text))); v {
	case "", ColorOrange, ColorGreen, ColorBlue, ColorPurple, ColorRed, ColorTeal:
		*c = v
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColor, text)
	}
}

// Button is a saved publish action.
type Button struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Topic   string   `json:"topic"`
	Payload string   `json:"payload,omitempty"`
	QoS     mqtt.QoS `json:"qos"`
	Retain  bool     `json:"retain"`

	Color ButtonColor `json:"color,omitempty"`

	// MultiSendEnabled lets one press publish several times, spaced by
	// MultiSendInterval milliseconds.
	MultiSendEnabled  bool `json:"multi_send_enabled,omitempty"`
	MultiSendInterval int  `json:"multi_send_interval,omitempty"`
}

// DisplayColor returns the colour to render, defaulting to orange.
func (b Button) DisplayColor() ButtonColor {
	if b.Color == "" {
		return ColorOrange
	}
	return b.Color
}

// Resolve expands placeholders in the topic and payload.
func (b Button) Resolve(vars map[string]string) (topic, payload string) {
	return variables.Substitute(b.Topic, vars), variables.Substitute(b.Payload, vars)
}

// Connection is a saved broker profile.
type Connection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	ClientID  string `json:"client_id"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	UseTLS    bool   `json:"use_tls"`

	// AutoConnect defaults to true when absent from stored data.
	AutoConnect bool `json:"auto_connect"`

	Variables     map[string]string `json:"variables"`
	Buttons       []Button          `json:"buttons"`
	Subscriptions []string          `json:"subscriptions"`
}

// connectionJSON avoids recursion in the JSON methods.
type connectionJSON Connection

// UnmarshalJSON applies the auto_connect default.
func (c *Connection) UnmarshalJSON(data []byte) error {
	aux := connectionJSON{AutoConnect: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Connection(aux)
	return nil
}

// MarshalJSON writes empty collections as [] and {} rather than null.
func (c Connection) MarshalJSON() ([]byte, error) {
	aux := connectionJSON(c)
	if aux.Variables == nil {
		aux.Variables = map[string]string{}
	}
	if aux.Buttons == nil {
		aux.Buttons = []Button{}
	}
	if aux.Subscriptions == nil {
		aux.Subscriptions = []string{}
	}
	return json.Marshal(aux)
}

// Validate checks the fields needed to connect.
func (c Connection) Validate() error {
	var errs []string
	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if mqtt.StripScheme(c.BrokerURL) == "" {
		errs = append(errs, "broker_url is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	for i, b := range c.Buttons {
		if b.ID == "" || b.Topic == "" {
			errs = append(errs, fmt.Sprintf("buttons[%d] needs an id and a topic", i))
		}
		if b.MultiSendInterval < 0 {
			errs = append(errs, fmt.Sprintf("buttons[%d].multi_send_interval must not be negative", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: connection %q: %s", ErrInvalid, c.ID, strings.Join(errs, "; "))
	}
	return nil
}

// SessionConfig converts the profile into session connection settings.
func (c Connection) SessionConfig() session.ConnectionConfig {
	return session.ConnectionConfig{
		Name:      c.Name,
		BrokerURL: c.BrokerURL,
		Port:      c.Port,
		ClientID:  c.ClientID,
		Username:  c.Username,
		Password:  c.Password,
		TLS:       c.UseTLS,
	}
}

// Button returns the button with the given id.
func (c Connection) Button(id string) (Button, error) {
	for _, b := range c.Buttons {
		if b.ID == id {
			return b, nil
		}
	}
	return Button{}, fmt.Errorf("%w: button %q", ErrNotFound, id)
}

// ResolvedSubscriptions returns the saved filters with placeholders expanded.
func (c Connection) ResolvedSubscriptions() []string {
	out := make([]string, 0, len(c.Subscriptions))
	for _, s := range c.Subscriptions {
		out = append(out, variables.Substitute(s, c.Variables))
	}
	return out
}

// AppData is everything the store persists.
type AppData struct {
	Connections      []Connection `json:"connections"`
	LastConnectionID string       `json:"last_connection_id,omitempty"`
}

// Connection returns the profile with the given id.
func (d AppData) Connection(id string) (Connection, error) {
	for _, c := range d.Connections {
		if c.ID == id {
			return c, nil
		}
	}
	return Connection{}, fmt.Errorf("%w: connection %q", ErrNotFound, id)
}

// LastConnection returns the most recently used profile, if it still exists.
func (d AppData) LastConnection() (Connection, bool) {
	if d.LastConnectionID == "" {
		return Connection{}, false
	}
	c, err := d.Connection(d.LastConnectionID)
	return c, err == nil
}

// Validate checks every connection and rejects duplicate ids.
func (d AppData) Validate() error {
	seen := make(map[string]bool, len(d.Connections))
	for _, c := range d.Connections {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate connection id %q", ErrInvalid, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// legacyProject is the single-project project.json layout.
type legacyProject struct {
	Name       string            `json:"name"`
	Connection legacyConnection  `json:"connection"`
	Variables  map[string]string `json:"variables"`
	Buttons    []Button          `json:"buttons"`
}

type legacyConnection struct {
	BrokerURL   string `json:"broker_url"`
	Port        int    `json:"port"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	UseTLS      bool   `json:"use_tls"`
	AutoConnect *bool  `json:"auto_connect"`
}

// toConnection converts a legacy project into a profile with the given id.
func (p legacyProject) toConnection(id string) Connection {
	autoConnect := true
	if p.Connection.AutoConnect != nil {
		autoConnect = *p.Connection.AutoConnect
	}
	return Connection{
		ID:            id,
		Name:          p.Name,
		BrokerURL:     p.Connection.BrokerURL,
		Port:          p.Connection.Port,
		ClientID:      p.Connection.ClientID,
		Username:      p.Connection.Username,
		Password:      p.Connection.Password,
		UseTLS:        p.Connection.UseTLS,
		AutoConnect:   autoConnect,
		Variables:     p.Variables,
		Buttons:       p.Buttons,
		Subscriptions: []string{},
	}
}
