package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
)

func sampleConnection() Connection {
	return Connection{
		ID:          "c1",
		Name:        "Local",
		BrokerURL:   "mqtt://localhost",
		Port:        1883,
		ClientID:    "topiclab-test",
		AutoConnect: true,
		Variables:   map[string]string{"room": "kitchen"},
		Buttons: []Button{
			{ID: "b1", Name: "On", Topic: "home/{room}/light", Payload: "on", QoS: mqtt.AtLeastOnce, Color: ColorGreen},
		},
		Subscriptions: []string{"home/{room}/#"},
	}
}

func TestConnectionJSON_AutoConnectDefaultsTrue(t *testing.T) {
	var c Connection
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","name":"n","broker_url":"localhost","port":1883}`), &c))
	assert.True(t, c.AutoConnect)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","auto_connect":false}`), &c))
	assert.False(t, c.AutoConnect)
}

func TestConnectionJSON_EmptyCollections(t *testing.T) {
	raw, err := json.Marshal(Connection{ID: "c1"})
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, []any{}, generic["buttons"])
	assert.Equal(t, []any{}, generic["subscriptions"])
	assert.Equal(t, map[string]any{}, generic["variables"])
	assert.NotContains(t, generic, "username")
	assert.NotContains(t, generic, "password")
}

func TestButtonJSON(t *testing.T) {
	var b Button
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "b1", "name": "Go", "topic": "t", "qos": "exactlyonce",
		"retain": true, "color": "teal", "multi_send_enabled": true, "multi_send_interval": 250
	}`), &b))

	assert.Equal(t, mqtt.ExactlyOnce, b.QoS)
	assert.Equal(t, ColorTeal, b.Color)
	assert.True(t, b.MultiSendEnabled)
	assert.Equal(t, 250, b.MultiSendInterval)

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"qos":"exactlyonce"`)
}

func TestButtonJSON_NullOptionals(t *testing.T) {
	var b Button
	require.NoError(t, json.Unmarshal([]byte(`{"id":"b1","topic":"t","qos":"atmostonce","payload":null,"color":null}`), &b))
	assert.Empty(t, b.Payload)
	assert.Equal(t, ColorOrange, b.DisplayColor())
}

func TestButtonJSON_RejectsUnknownColor(t *testing.T) {
	var b Button
	err := json.Unmarshal([]byte(`{"id":"b1","topic":"t","color":"magenta"}`), &b)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestButtonResolve(t *testing.T) {
	b := sampleConnection().Buttons[0]
	topic, payload := b.Resolve(map[string]string{"room": "hall"})
	assert.Equal(t, "home/hall/light", topic)
	assert.Equal(t, "on", payload)
}

func TestConnectionValidate(t *testing.T) {
	require.NoError(t, sampleConnection().Validate())

	bad := sampleConnection()
	bad.Port = 0
	bad.BrokerURL = "mqtt://"
	err := bad.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "broker_url")
}

func TestConnectionLookups(t *testing.T) {
	c := sampleConnection()

	b, err := c.Button("b1")
	require.NoError(t, err)
	assert.Equal(t, "On", b.Name)

	_, err = c.Button("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"home/kitchen/#"}, c.ResolvedSubscriptions())

	sc := c.SessionConfig()
	assert.Equal(t, "Local", sc.Name)
	assert.Equal(t, 1883, sc.Port)
}

func TestAppData(t *testing.T) {
	data := AppData{Connections: []Connection{sampleConnection()}, LastConnectionID: "c1"}
	require.NoError(t, data.Validate())

	last, ok := data.LastConnection()
	require.True(t, ok)
	assert.Equal(t, "c1", last.ID)

	data.LastConnectionID = "gone"
	_, ok = data.LastConnection()
	assert.False(t, ok)

	data.Connections = append(data.Connections, sampleConnection())
	assert.ErrorIs(t, data.Validate(), ErrInvalid)
}
