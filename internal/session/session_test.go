package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
)

func TestNewSessionDefaults(t *testing.T) {
	s := New(Config{})

	assert.Equal(t, StatusDisconnected, s.Status())
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.Subscriptions())
	assert.Nil(t, s.Current())
	assert.Equal(t, DefaultSettleDelay, s.cfg.SettleDelay)
	assert.Equal(t, DefaultBackoff, s.cfg.Backoff)
	assert.Equal(t, DefaultMaxConsecutiveErrors, s.cfg.MaxConsecutiveErrors)
	assert.Equal(t, DefaultBufferCapacity, s.state.messages.Cap())
}

func TestOperationsWithoutConnection(t *testing.T) {
	s, rec, _ := newTestSession(newFakeEngine())
	ctx := context.Background()

	err := s.Publish(ctx, "lab/t", []byte("x"), mqtt.AtMostOnce, false)
	assert.ErrorIs(t, err, ErrNotConnected)

	err = s.Subscribe(ctx, "lab/t", mqtt.AtMostOnce)
	assert.ErrorIs(t, err, ErrNotConnected)

	err = s.Unsubscribe(ctx, "lab/t")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.Empty(t, s.Subscriptions())
	assert.Empty(t, s.Messages())
	assert.Equal(t, StatusDisconnected, s.Status())
	assert.Empty(t, rec.Statuses())
}

func TestDisconnectNeverConnected(t *testing.T) {
	s, rec, _ := newTestSession(newFakeEngine())

	info := s.Disconnect()

	assert.Nil(t, info)
	assert.Equal(t, StatusDisconnected, s.Status())
	assert.Equal(t, []Status{StatusDisconnected}, rec.Statuses())
}

func TestConnectStartsSupervisor(t *testing.T) {
	engine := newFakeEngine()
	s, rec, _ := newTestSession(engine)

	require.NoError(t, s.Connect(context.Background(), testConnection()))
	assert.Equal(t, StatusConnecting, s.Status())

	engine.send(t, fakePoll{ev: mqtt.Event{Kind: mqtt.EventConnAck}})
	require.Eventually(t, func() bool { return s.Status() == StatusConnected }, waitFor, time.Millisecond)

	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, rec.Statuses())
	assert.Equal(t, &ConnectionInfo{Name: "lab", BrokerURL: "mqtt://broker.local"}, s.Current())
}

func TestConnectTwiceIsNoOp(t *testing.T) {
	engine := newFakeEngine()
	s, rec, dials := newTestSession(engine)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx, testConnection()))
	first := currentLink(s)

	require.NoError(t, s.Connect(ctx, testConnection()))

	assert.Equal(t, 1, *dials)
	assert.Same(t, first, currentLink(s))
	assert.Equal(t, []Status{StatusConnecting}, rec.Statuses())
}

func TestOnStartRunsOnlyForNewConnections(t *testing.T) {
	engine := newFakeEngine()
	rec := &recorder{}
	var started []string
	var statusesAtStart []int
	s := New(Config{
		Dialer:   func(ConnectionConfig) (Engine, error) { return engine, nil },
		Notifier: rec,
		OnStart: func(cfg ConnectionConfig) {
			started = append(started, cfg.Name)
			statusesAtStart = append(statusesAtStart, len(rec.Statuses()))
		},
		SettleDelay: time.Millisecond,
		Backoff:     time.Millisecond,
	})
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx, testConnection()))

	other := testConnection()
	other.Name = "other"
	require.NoError(t, s.Connect(ctx, other))
	assert.Equal(t, []string{"lab"}, started, "no-op connect must not announce a new connection")
	assert.Equal(t, "lab", s.Current().Name)

	s.Disconnect()
	require.NoError(t, s.Connect(ctx, other))

	assert.Equal(t, []string{"lab", "other"}, started)
	// Each hook call precedes that connection's connecting status.
	assert.Equal(t, []int{0, 2}, statusesAtStart)
}

func TestConnectResetsHistory(t *testing.T) {
	engine := newFakeEngine()
	s, _, _ := newTestSession(engine)
	ctx := context.Background()

	require.NoError(t, s.Connect(ctx, testConnection()))
	require.NoError(t, s.Subscribe(ctx, "lab/#", mqtt.AtMostOnce))
	engine.send(t, fakePoll{ev: mqtt.Event{Kind: mqtt.EventPublish, Topic: "lab/a", Payload: []byte("1")}})
	require.Eventually(t, func() bool { return len(s.Messages()) == 1 }, waitFor, time.Millisecond)

	s.Disconnect()
	assert.Empty(t, s.Subscriptions())
	assert.Len(t, s.Messages(), 1, "disconnect keeps message history")

	require.NoError(t, s.Connect(ctx, testConnection()))
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.Subscriptions())
}

func TestConnectDialerFailure(t *testing.T) {
	rec := &recorder{}
	s := New(Config{
		Dialer: func(ConnectionConfig) (Engine, error) {
			return nil, mqtt.ErrInvalidOptions
		},
		Notifier:    rec,
		SettleDelay: time.Millisecond,
	})

	err := s.Connect(context.Background(), testConnection())

	require.ErrorIs(t, err, ErrClient)
	assert.ErrorIs(t, err, mqtt.ErrInvalidOptions)
	assert.Equal(t, StatusError, s.Status())
	assert.Nil(t, currentLink(s))
	assert.Equal(t, []Status{StatusConnecting, StatusError}, rec.Statuses())
	assert.ErrorIs(t, s.Publish(context.Background(), "t", nil, mqtt.AtMostOnce, false), ErrNotConnected)
}

func TestInboundMessage(t *testing.T) {
	engine := newFakeEngine()
	s, rec, _ := newTestSession(engine)
	require.NoError(t, s.Connect(context.Background(), testConnection()))

	before := time.Now().UnixMilli()
	engine.send(t, fakePoll{ev: mqtt.Event{
		Kind:    mqtt.EventPublish,
		Topic:   "lab/raw",
		Payload: []byte{'h', 'i', 0xff},
	}})
	require.Eventually(t, func() bool { return len(rec.Messages()) == 1 }, waitFor, time.Millisecond)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "lab/raw", msgs[0].Topic)
	assert.Equal(t, "hi\uFFFD", msgs[0].Payload)
	assert.GreaterOrEqual(t, msgs[0].Timestamp, before)
	assert.Equal(t, msgs[0], rec.Messages()[0])

	s.ClearMessages()
	assert.Empty(t, s.Messages())
}

func TestErrorCeilingStopsSupervisor(t *testing.T) {
	engine := newFakeEngine()
	s, rec, _ := newTestSession(engine)
	require.NoError(t, s.Connect(context.Background(), testConnection()))
	l := currentLink(s)

	for range DefaultMaxConsecutiveErrors {
		engine.sendError(t)
	}

	require.Eventually(t, func() bool { return !l.alive() }, waitFor, time.Millisecond)
	assert.Equal(t, StatusError, s.Status())

	want := []Status{StatusConnecting}
	for range DefaultMaxConsecutiveErrors {
		want = append(want, StatusError)
	}
	assert.Equal(t, want, rec.Statuses())

	select {
	case engine.polls <- fakePoll{}:
		t.Fatal("supervisor polled after reaching the error ceiling")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSuccessResetsErrorCount(t *testing.T) {
	engine := newFakeEngine()
	s, _, _ := newTestSession(engine)
	require.NoError(t, s.Connect(context.Background(), testConnection()))
	l := currentLink(s)

	engine.sendError(t)
	engine.send(t, fakePoll{ev: mqtt.Event{Kind: mqtt.EventConnAck}})
	for range DefaultMaxConsecutiveErrors - 1 {
		engine.sendError(t)
	}

	// The send only completes if the supervisor went back to polling.
	engine.send(t, fakePoll{ev: mqtt.Event{Kind: mqtt.EventSubAck}})
	assert.True(t, l.alive())
	assert.Equal(t, StatusError, s.Status(), "non-connack events leave the status alone")
}

func TestConnectAfterCeilingStartsFresh(t *testing.T) {
	engine := newFakeEngine()
	s, _, dials := newTestSession(engine)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, testConnection()))
	dead := currentLink(s)

	for range DefaultMaxConsecutiveErrors {
		engine.sendError(t)
	}
	require.Eventually(t, func() bool { return !dead.alive() }, waitFor, time.Millisecond)

	require.NoError(t, s.Connect(ctx, testConnection()))

	assert.Equal(t, 2, *dials)
	assert.NotSame(t, dead, currentLink(s))
	assert.True(t, currentLink(s).alive())
	assert.Equal(t, StatusConnecting, s.Status())
}

func TestDisconnectCancelsSupervisor(t *testing.T) {
	engine := newFakeEngine()
	s, rec, _ := newTestSession(engine)
	require.NoError(t, s.Connect(context.Background(), testConnection()))
	l := currentLink(s)

	info := s.Disconnect()

	require.NotNil(t, info)
	assert.Equal(t, "lab", info.Name)
	assert.Equal(t, "mqtt://broker.local", info.BrokerURL)
	require.Eventually(t, func() bool { return !l.alive() }, waitFor, time.Millisecond)

	assert.Equal(t, StatusDisconnected, s.Status())
	assert.Equal(t, []Status{StatusConnecting, StatusDisconnected}, rec.Statuses())
	assert.Nil(t, currentLink(s))
	assert.Nil(t, s.Current())
	assert.Nil(t, s.Disconnect(), "second disconnect has nothing to report")

	engine.mu.Lock()
	assert.Equal(t, 1, engine.disconnects)
	engine.mu.Unlock()
}

func TestSubscribeTracksTopics(t *testing.T) {
	engine := newFakeEngine()
	s, _, _ := newTestSession(engine)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, testConnection()))

	require.NoError(t, s.Subscribe(ctx, "lab/a", mqtt.AtMostOnce))
	require.NoError(t, s.Subscribe(ctx, "lab/b", mqtt.AtLeastOnce))
	require.NoError(t, s.Subscribe(ctx, "lab/a", mqtt.ExactlyOnce))
	assert.Equal(t, []string{"lab/a", "lab/b"}, s.Subscriptions())

	require.NoError(t, s.Unsubscribe(ctx, "lab/a"))
	assert.Equal(t, []string{"lab/b"}, s.Subscriptions())

	// Unknown topics are forwarded and leave the set alone.
	require.NoError(t, s.Unsubscribe(ctx, "lab/zzz"))
	assert.Equal(t, []string{"lab/b"}, s.Subscriptions())
}

func TestSubscribeFailureLeavesSetUnchanged(t *testing.T) {
	engine := newFakeEngine()
	engine.subscribeErr = mqtt.ErrSubscribeFailed
	engine.unsubscribeErr = mqtt.ErrUnsubscribeFailed
	s, _, _ := newTestSession(engine)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, testConnection()))

	err := s.Subscribe(ctx, "lab/a", mqtt.AtMostOnce)
	assert.ErrorIs(t, err, ErrClient)
	assert.Empty(t, s.Subscriptions())

	engine.mu.Lock()
	engine.subscribeErr = nil
	engine.mu.Unlock()
	require.NoError(t, s.Subscribe(ctx, "lab/a", mqtt.AtMostOnce))

	err = s.Unsubscribe(ctx, "lab/a")
	assert.ErrorIs(t, err, ErrClient)
	assert.Equal(t, []string{"lab/a"}, s.Subscriptions())
}

func TestPublishForwards(t *testing.T) {
	engine := newFakeEngine()
	s, _, _ := newTestSession(engine)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx, testConnection()))

	require.NoError(t, s.Publish(ctx, "lab/out", []byte("on"), mqtt.AtLeastOnce, true))

	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.Equal(t, []string{"lab/out"}, engine.published)
}

func TestClientErrorPassesCancellation(t *testing.T) {
	assert.NoError(t, clientError(nil))

	wrapped := clientError(errors.New("boom"))
	assert.ErrorIs(t, wrapped, ErrClient)

	cancelled := clientError(context.Canceled)
	assert.Equal(t, context.Canceled, cancelled)
}
