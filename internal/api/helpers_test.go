package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/topiclab/internal/infrastructure/config"
	"github.com/nerrad567/topiclab/internal/infrastructure/logging"
	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
	"github.com/nerrad567/topiclab/internal/profile"
	"github.com/nerrad567/topiclab/internal/session"
)

const (
	testSecret = "test-secret-key-at-least-32-characters-long"
	waitFor    = 2 * time.Second
	tick       = 5 * time.Millisecond
)

type published struct {
	Topic   string
	Payload string
	QoS     mqtt.QoS
	Retain  bool
}

// stubEngine acknowledges the connection on its first poll and then
// delivers whatever the test pushes into events.
type stubEngine struct {
	events chan mqtt.Event
	closed chan struct{}
	once   sync.Once

	mu           sync.Mutex
	published    []published
	subscribed   []string
	subscribeErr error
}

func newStubEngine() *stubEngine {
	e := &stubEngine{
		events: make(chan mqtt.Event, 16),
		closed: make(chan struct{}),
	}
	e.events <- mqtt.Event{Kind: mqtt.EventConnAck}
	return e
}

func (e *stubEngine) Poll(ctx context.Context) (mqtt.Event, error) {
	select {
	case <-ctx.Done():
		return mqtt.Event{}, ctx.Err()
	case <-e.closed:
		return mqtt.Event{}, mqtt.ErrEngineClosed
	case ev := <-e.events:
		return ev, nil
	}
}

func (e *stubEngine) Publish(_ context.Context, topic string, qos mqtt.QoS, retain bool, payload []byte) error {
	if err := mqtt.ValidateTopic(topic); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published = append(e.published, published{Topic: topic, Payload: string(payload), QoS: qos, Retain: retain})
	return nil
}

func (e *stubEngine) Subscribe(_ context.Context, topic string, _ mqtt.QoS) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subscribeErr != nil {
		return e.subscribeErr
	}
	e.subscribed = append(e.subscribed, topic)
	return nil
}

func (e *stubEngine) Unsubscribe(context.Context, string) error { return nil }

func (e *stubEngine) Disconnect() error {
	e.once.Do(func() { close(e.closed) })
	return nil
}

func (e *stubEngine) publishes() []published {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]published(nil), e.published...)
}

type testEnv struct {
	server  *Server
	handler http.Handler
	session *session.Session
	store   profile.Store
	engine  *stubEngine
	hub     *Hub
}

// newTestEnv builds a server over a stub engine and a JSON store in a temp
// dir. mutate may adjust the dependencies before New.
func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	log := logging.Nop()
	wsCfg := config.WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}
	hub := NewHub(wsCfg, log)

	engine := newStubEngine()
	sess := session.New(session.Config{
		Dialer:      func(session.ConnectionConfig) (session.Engine, error) { return engine, nil },
		Notifier:    hub,
		SettleDelay: time.Millisecond,
		Backoff:     time.Millisecond,
	})
	t.Cleanup(func() { sess.Disconnect() })

	store, err := profile.NewJSONStore(t.TempDir())
	require.NoError(t, err)

	deps := Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:      wsCfg,
		Logger:  log,
		Session: sess,
		Store:   store,
		Hub:     hub,
		Version: "test",
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	if srv.auditRepo != nil {
		go srv.drainAuditLog(ctx)
	}

	return &testEnv{
		server:  srv,
		handler: srv.Handler(),
		session: sess,
		store:   store,
		engine:  engine,
		hub:     hub,
	}
}

// do performs a request against the handler. body is JSON-encoded unless
// it is nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func testConnection() profile.Connection {
	return profile.Connection{
		ID:          "conn-1",
		Name:        "Test broker",
		BrokerURL:   "mqtt://127.0.0.1",
		Port:        1883,
		ClientID:    "topiclab-api-test",
		AutoConnect: true,
		Variables:   map[string]string{"room": "kitchen", "device": "{room}-lamp"},
		Buttons: []profile.Button{
			{ID: "on", Name: "On", Topic: "home/{room}/{device}/set", Payload: `{"state":"{state}"}`, QoS: mqtt.AtLeastOnce},
			{ID: "burst", Name: "Burst", Topic: "test/burst", Payload: "x", MultiSendEnabled: true, MultiSendInterval: 1},
		},
		Subscriptions: []string{"home/{room}/#", "status/#"},
	}
}

// connect saves testConnection, connects the session through the API and
// waits for the connected status.
func (e *testEnv) connect(t *testing.T) {
	t.Helper()

	require.NoError(t, e.store.Save(context.Background(), profile.AppData{
		Connections: []profile.Connection{testConnection()},
	}))

	rec := e.do(t, http.MethodPost, "/api/v1/session/connect", testConnection(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Eventually(t, func() bool {
		return e.session.Status() == session.StatusConnected
	}, waitFor, tick)
}
