package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
)

const waitFor = 2 * time.Second

type fakePoll struct {
	ev  mqtt.Event
	err error
}

// fakeEngine hands Poll results over an unbuffered channel so a test knows
// the supervisor is back in Poll whenever a send completes.
type fakeEngine struct {
	polls chan fakePoll

	mu             sync.Mutex
	published      []string
	subscribeErr   error
	unsubscribeErr error
	disconnects    int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{polls: make(chan fakePoll)}
}

func (f *fakeEngine) Poll(ctx context.Context) (mqtt.Event, error) {
	select {
	case <-ctx.Done():
		return mqtt.Event{}, ctx.Err()
	case p := <-f.polls:
		return p.ev, p.err
	}
}

func (f *fakeEngine) Publish(_ context.Context, topic string, _ mqtt.QoS, _ bool, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, topic)
	return nil
}

func (f *fakeEngine) Subscribe(context.Context, string, mqtt.QoS) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribeErr
}

func (f *fakeEngine) Unsubscribe(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribeErr
}

func (f *fakeEngine) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

// send delivers one poll result, failing the test if the supervisor is not
// polling.
func (f *fakeEngine) send(t *testing.T, p fakePoll) {
	t.Helper()
	select {
	case f.polls <- p:
	case <-time.After(waitFor):
		t.Fatal("supervisor is not polling")
	}
}

func (f *fakeEngine) sendError(t *testing.T) {
	t.Helper()
	f.send(t, fakePoll{err: errors.New("connection refused")})
}

// recorder is a Notifier that keeps every event.
type recorder struct {
	mu       sync.Mutex
	statuses []Status
	messages []Message
}

func (r *recorder) StatusChanged(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) MessageReceived(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *recorder) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

func (r *recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// newTestSession returns a session whose dialer hands out engine and counts
// calls.
func newTestSession(engine *fakeEngine) (*Session, *recorder, *int) {
	rec := &recorder{}
	dials := 0
	var mu sync.Mutex
	s := New(Config{
		Dialer: func(ConnectionConfig) (Engine, error) {
			mu.Lock()
			defer mu.Unlock()
			dials++
			return engine, nil
		},
		Notifier:    rec,
		SettleDelay: time.Millisecond,
		Backoff:     time.Millisecond,
	})
	return s, rec, &dials
}

func testConnection() ConnectionConfig {
	return ConnectionConfig{
		Name:      "lab",
		BrokerURL: "mqtt://broker.local",
		Port:      1883,
		ClientID:  "topiclab-test",
	}
}

// currentLink returns the link under the read lock.
func currentLink(s *Session) *link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.link
}
