package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultSettleDelay          = 500 * time.Millisecond
	DefaultBackoff              = 500 * time.Millisecond
	DefaultMaxConsecutiveErrors = 5
)

// Engine is the protocol engine a session supervises. *mqtt.Engine
// satisfies it.
type Engine interface {
	Poll(ctx context.Context) (mqtt.Event, error)
	Publish(ctx context.Context, topic string, qos mqtt.QoS, retain bool, payload []byte) error
	Subscribe(ctx context.Context, topic string, qos mqtt.QoS) error
	Unsubscribe(ctx context.Context, topic string) error
	Disconnect() error
}

// Dialer builds an engine for a connection. It must not block on the
// network; the supervisor's first Poll performs the dial.
type Dialer func(cfg ConnectionConfig) (Engine, error)

// ConnectionConfig describes the broker a session connects to.
type ConnectionConfig struct {
	// Name is the display name returned by Disconnect.
	Name string

	// BrokerURL may carry a scheme such as mqtt:// or ssl://; it is
	// stripped before dialling.
	BrokerURL string
	Port      int
	ClientID  string

	// Username and Password are optional.
	Username string
	Password string

	TLS bool
}

// ConnectionInfo identifies the connection a session was last opened with.
type ConnectionInfo struct {
	Name      string `json:"name"`
	BrokerURL string `json:"broker_url"`
}

// Logger defines the logging interface for the session.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds optional collaborators and tuning for a Session.
type Config struct {
	// Dialer builds the engine. Defaults to DialPaho.
	Dialer Dialer

	// Notifier receives status and message events. Defaults to NopNotifier.
	Notifier Notifier

	// Logger defaults to a no-op logger.
	Logger Logger

	// OnStart, if set, runs when Connect starts a new connection, before
	// the connecting status is emitted. It is not called when Connect is a
	// no-op. It runs under the session lock and must not call back into
	// the Session.
	OnStart func(cfg ConnectionConfig)

	// SettleDelay is how long Connect waits after starting the supervisor.
	SettleDelay time.Duration

	// Backoff is the pause between failed polls.
	Backoff time.Duration

	// MaxConsecutiveErrors is the run of poll errors after which the
	// supervisor stops.
	MaxConsecutiveErrors int

	// BufferCapacity is the number of retained messages.
	BufferCapacity int
}

// link is the engine and supervisor owned by a connected session.
type link struct {
	engine Engine
	cancel context.CancelFunc
	done   chan struct{}
}

// alive reports whether the supervisor is still running.
func (l *link) alive() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// close stops the supervisor without waiting and disconnects the engine.
func (l *link) close() error {
	l.cancel()
	return l.engine.Disconnect()
}

// Session owns at most one supervised MQTT connection.
//
// Thread Safety: all methods are safe for concurrent use.
type Session struct {
	cfg   Config
	state *state

	mu   sync.RWMutex
	link *link
	info *ConnectionInfo
}

// New creates a disconnected session.
func New(cfg Config) *Session {
	if cfg.Dialer == nil {
		cfg.Dialer = DialPaho
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}

	return &Session{
		cfg: cfg,
		state: &state{
			status:   newStatusCell(cfg.Notifier),
			messages: NewMessageBuffer(cfg.BufferCapacity),
			subs:     &SubscriptionSet{},
			notifier: cfg.Notifier,
			logger:   cfg.Logger,
			now:      time.Now,
		},
	}
}

// DialPaho builds a paho-backed engine with a 30 second keepalive.
func DialPaho(cfg ConnectionConfig) (Engine, error) {
	engine, err := mqtt.NewEngine(mqtt.Options{
		Host:      mqtt.StripScheme(cfg.BrokerURL),
		Port:      cfg.Port,
		ClientID:  cfg.ClientID,
		Username:  cfg.Username,
		Password:  cfg.Password,
		TLS:       cfg.TLS,
		KeepAlive: mqtt.DefaultKeepAlive,
	})
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// Connect starts a supervised connection to the broker in cfg.
//
// If a connection is already being supervised, Connect returns nil without
// changing anything. Otherwise it resets the message buffer and
// subscriptions, starts the supervisor and waits SettleDelay before
// returning. The broker handshake may still be in progress at that point;
// watch Status or the Notifier for the outcome.
//
// A session whose supervisor gave up after repeated errors is treated as
// disconnected, so calling Connect again starts a fresh connection.
//
// Returns:
//   - error: wrapped ErrClient if the engine could not be built
func (s *Session) Connect(ctx context.Context, cfg ConnectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link != nil {
		if s.link.alive() {
			return nil
		}
		s.cfg.Logger.Info("replacing stopped mqtt supervisor")
		_ = s.link.close()
		s.link = nil
	}

	if s.cfg.OnStart != nil {
		s.cfg.OnStart(cfg)
	}

	st := s.state
	st.status.set(StatusConnecting)
	st.messages.Clear()
	st.subs.Clear()

	engine, err := s.cfg.Dialer(cfg)
	if err != nil {
		st.status.set(StatusError)
		return fmt.Errorf("%w: %w", ErrClient, err)
	}

	superCtx, cancel := context.WithCancel(context.Background())
	l := &link{
		engine: engine,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.link = l
	s.info = &ConnectionInfo{Name: cfg.Name, BrokerURL: cfg.BrokerURL}

	sv := &supervisor{
		engine:    engine,
		state:     st,
		backoff:   s.cfg.Backoff,
		maxErrors: s.cfg.MaxConsecutiveErrors,
	}
	go sv.run(superCtx, l.done)

	s.cfg.Logger.Info("mqtt session started",
		"name", cfg.Name,
		"broker", cfg.BrokerURL,
		"port", cfg.Port,
		"client_id", cfg.ClientID,
	)

	sleep(ctx, s.cfg.SettleDelay)
	return nil
}

// Disconnect stops the supervisor, closes the engine and clears the
// subscriptions. It never fails and is safe to call when not connected.
//
// Returns:
//   - *ConnectionInfo: The connection that was open, or nil
func (s *Session) Disconnect() *ConnectionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link != nil {
		if err := s.link.close(); err != nil {
			s.cfg.Logger.Warn("mqtt disconnect failed", "error", err)
		}
		s.link = nil
	}

	s.state.subs.Clear()
	s.state.status.set(StatusDisconnected)

	info := s.info
	s.info = nil
	if info != nil {
		s.cfg.Logger.Info("mqtt session stopped", "name", info.Name, "broker", info.BrokerURL)
	}
	return info
}

// Publish sends payload to topic.
func (s *Session) Publish(ctx context.Context, topic string, payload []byte, qos mqtt.QoS, retain bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.link == nil {
		return ErrNotConnected
	}
	return clientError(s.link.engine.Publish(ctx, topic, qos, retain, payload))
}

// Subscribe subscribes to topic and records it once the broker accepts.
func (s *Session) Subscribe(ctx context.Context, topic string, qos mqtt.QoS) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.link == nil {
		return ErrNotConnected
	}
	if err := s.link.engine.Subscribe(ctx, topic, qos); err != nil {
		return clientError(err)
	}
	s.state.subs.Add(topic)
	return nil
}

// Unsubscribe unsubscribes from topic and forgets it once the broker
// accepts.
func (s *Session) Unsubscribe(ctx context.Context, topic string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.link == nil {
		return ErrNotConnected
	}
	if err := s.link.engine.Unsubscribe(ctx, topic); err != nil {
		return clientError(err)
	}
	s.state.subs.Remove(topic)
	return nil
}

// Messages returns the buffered messages, oldest first.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.messages.Snapshot()
}

// ClearMessages empties the message buffer.
func (s *Session) ClearMessages() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.state.messages.Clear()
}

// Subscriptions returns the active topic filters in subscription order.
func (s *Session) Subscriptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.subs.List()
}

// Status returns the current connection status.
func (s *Session) Status() Status {
	return s.state.status.get()
}

// Current returns the connection the session was opened with, or nil when
// disconnected.
func (s *Session) Current() *ConnectionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// clientError wraps engine failures in ErrClient. Context errors pass
// through unchanged.
func clientError(err error) error {
	if err == nil || isCancellation(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrClient, err)
}
