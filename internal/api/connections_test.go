package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
	"github.com/nerrad567/topiclab/internal/profile"
	"github.com/nerrad567/topiclab/internal/session"
)

func TestPressButton_SubstitutesVariables(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t)

	rec := env.do(t, http.MethodPost, "/api/v1/connections/conn-1/buttons/on/press", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[pressResponse](t, rec)
	assert.Equal(t, "home/kitchen/kitchen-lamp/set", resp.Topic)
	assert.Equal(t, `{"state":"{state}"}`, resp.Payload)
	assert.Equal(t, 1, resp.Sent)

	assert.Equal(t, []published{{
		Topic:   "home/kitchen/kitchen-lamp/set",
		Payload: `{"state":"{state}"}`,
		QoS:     mqtt.AtLeastOnce,
	}}, env.engine.publishes())
}

func TestPressButton_MultiSend(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t)

	rec := env.do(t, http.MethodPost, "/api/v1/connections/conn-1/buttons/burst/press", map[string]int{"count": 3}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[pressResponse](t, rec)
	assert.Equal(t, 3, resp.Requested)
	assert.Equal(t, 3, resp.Sent)
	assert.Len(t, env.engine.publishes(), 3)

	// count is ignored for buttons without multi-send
	rec = env.do(t, http.MethodPost, "/api/v1/connections/conn-1/buttons/on/press", map[string]int{"count": 5}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[pressResponse](t, rec).Sent)
	assert.Len(t, env.engine.publishes(), 4)
}

func TestPressLimit(t *testing.T) {
	tests := []struct {
		name         string
		interval     time.Duration
		writeTimeout time.Duration
		want         int
	}{
		{"no write deadline", time.Second, 0, maxPressCount},
		{"default server timeout", time.Second, 30 * time.Second, 21},
		{"deadline within publish timeout", time.Second, sessionOpTimeout, 1},
		{"short interval hits hard cap", time.Millisecond, 30 * time.Second, maxPressCount},
		{"half second spacing", 500 * time.Millisecond, 12 * time.Second, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pressLimit(tt.interval, tt.writeTimeout))
		})
	}
}

func TestPressButton_MultiSendCappedByWriteTimeout(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Config.Timeouts.Write = 11
	})
	env.connect(t)

	conn := testConnection()
	conn.Buttons[1].MultiSendInterval = 600
	require.NoError(t, env.store.Save(context.Background(), profile.AppData{
		Connections: []profile.Connection{conn},
	}))

	rec := env.do(t, http.MethodPost, "/api/v1/connections/conn-1/buttons/burst/press", map[string]int{"count": 5}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[pressResponse](t, rec)
	assert.Equal(t, 5, resp.Requested)
	assert.Equal(t, 2, resp.Sent)
	assert.Len(t, env.engine.publishes(), 2)
}

func TestPressButton_Errors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Save(context.Background(), profile.AppData{
		Connections: []profile.Connection{testConnection()},
	}))

	rec := env.do(t, http.MethodPost, "/api/v1/connections/conn-1/buttons/on/press", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code, "not connected")

	rec = env.do(t, http.MethodPost, "/api/v1/connections/conn-1/buttons/missing/press", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/connections/nope/buttons/on/press", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribeSaved(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t)

	rec := env.do(t, http.MethodPost, "/api/v1/connections/conn-1/subscribe-saved", map[string]any{"qos": "atleastonce"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"home/kitchen/#", "status/#"}, decode[subscriptionsResponse](t, rec).Subscriptions)
	assert.Equal(t, []string{"home/kitchen/#", "status/#"}, env.session.Subscriptions())
}

func TestSubscribeSaved_NotConnected(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Save(context.Background(), profile.AppData{
		Connections: []profile.Connection{testConnection()},
	}))

	rec := env.do(t, http.MethodPost, "/api/v1/connections/conn-1/subscribe-saved", nil, "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, session.CodeNotConnected, decode[Error](t, rec).Code)
}

func TestSubstitutePreview(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Save(context.Background(), profile.AppData{
		Connections: []profile.Connection{testConnection()},
	}))

	rec := env.do(t, http.MethodPost, "/api/v1/variables/substitute", map[string]any{
		"template":      "{device}/{state}/{room}",
		"connection_id": "conn-1",
		"variables":     map[string]string{"room": "hall"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[substituteResponse](t, rec)
	assert.Equal(t, "hall-lamp/{state}/hall", resp.Result)
	assert.Equal(t, []string{"state"}, resp.Unresolved)

	rec = env.do(t, http.MethodPost, "/api/v1/variables/substitute", map[string]any{"template": "plain"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, substituteResponse{Result: "plain", Unresolved: []string{}}, decode[substituteResponse](t, rec))

	rec = env.do(t, http.MethodPost, "/api/v1/variables/substitute", map[string]any{"template": "x", "connection_id": "nope"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
