package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// eventQueueSize bounds the number of undelivered events. When the queue is
// full paho's router blocks, which pushes back on the broker connection.
const eventQueueSize = 64

// EventKind classifies an engine event.
type EventKind int

// Event kinds surfaced by Poll.
const (
	// EventConnAck reports that the broker accepted the connection.
	EventConnAck EventKind = iota + 1

	// EventPublish reports an inbound application message.
	EventPublish

	// EventSubAck reports a completed subscribe request.
	EventSubAck

	// EventUnsubAck reports a completed unsubscribe request.
	EventUnsubAck

	// EventPubAck reports a completed publish request.
	EventPubAck
)

// String returns a short name for logging.
func (k EventKind) String() string {
	switch k {
	case EventConnAck:
		return "connack"
	case EventPublish:
		return "publish"
	case EventSubAck:
		return "suback"
	case EventUnsubAck:
		return "unsuback"
	case EventPubAck:
		return "puback"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one item of protocol activity. Topic and Payload are set for
// EventPublish (and Topic for the ack kinds).
type Event struct {
	Kind    EventKind
	Topic   string
	Payload []byte
}

// pollResult is a queued Poll return value.
type pollResult struct {
	event Event
	err   error
}

// Engine drives one paho client and exposes its activity through Poll.
//
// Thread Safety:
//   - Publish, Subscribe, Unsubscribe and Disconnect are safe for concurrent use.
//   - Poll is intended for a single consumer goroutine.
type Engine struct {
	client pahomqtt.Client
	opts   Options

	results chan pollResult

	// dialing is true while a Connect token is outstanding.
	dialing atomic.Bool

	closed    chan struct{}
	closeOnce sync.Once
}

// NewEngine builds an engine for the given broker. No network activity
// happens until the first Poll.
//
// Returns:
//   - *Engine: Engine ready to be polled
//   - error: ErrInvalidOptions if the host or port is unusable
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:    opts,
		results: make(chan pollResult, eventQueueSize),
		closed:  make(chan struct{}),
	}

	clientOpts := buildClientOptions(opts)

	clientOpts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		e.push(pollResult{event: Event{Kind: EventConnAck}})
	})

	clientOpts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		e.push(pollResult{err: fmt.Errorf("%w: %w", ErrConnectionLost, err)})
	})

	clientOpts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		e.push(pollResult{event: Event{
			Kind:    EventPublish,
			Topic:   msg.Topic(),
			Payload: msg.Payload(),
		}})
	})

	e.client = pahomqtt.NewClient(clientOpts)
	return e, nil
}

// BrokerURL returns the URL the engine dials.
func (e *Engine) BrokerURL() string {
	return e.opts.brokerURL()
}

// Poll waits for the next protocol event.
//
// If the connection is down and no dial is in flight, Poll starts one first.
// A failed dial or a dropped connection is returned as an error; polling
// again redials.
//
// Parameters:
//   - ctx: Cancels the wait (the dial itself continues in the background)
//
// Returns:
//   - Event: The next event when err is nil
//   - error: ErrConnectionFailed, ErrConnectionLost, ErrEngineClosed or ctx.Err()
func (e *Engine) Poll(ctx context.Context) (Event, error) {
	if e.isClosed() {
		return Event{}, ErrEngineClosed
	}

	if !e.client.IsConnectionOpen() && e.dialing.CompareAndSwap(false, true) {
		e.dial()
	}

	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case <-e.closed:
		return Event{}, ErrEngineClosed
	case r := <-e.results:
		return r.event, r.err
	}
}

// dial starts a connect attempt and reports failure through the queue.
// Success is reported by the OnConnect handler.
//
// If the engine is closed while the attempt is in flight, the goroutine
// waits for the attempt to finish and drops any connection it produced.
func (e *Engine) dial() {
	token := e.client.Connect()
	go func() {
		select {
		case <-token.Done():
		case <-e.closed:
			<-token.Done()
			e.dialing.Store(false)
			if token.Error() == nil && e.client.IsConnectionOpen() {
				e.client.Disconnect(defaultDisconnectQuiesce)
			}
			return
		}
		e.dialing.Store(false)
		if err := token.Error(); err != nil {
			e.push(pollResult{err: fmt.Errorf("%w: %w", ErrConnectionFailed, err)})
		}
	}()
}

// push queues a poll result, giving up if the engine is closed.
func (e *Engine) push(r pollResult) {
	select {
	case e.results <- r:
	case <-e.closed:
	}
}

// notify queues an acknowledgement event without blocking the caller.
func (e *Engine) notify(ev Event) {
	select {
	case e.results <- pollResult{event: ev}:
	default:
	}
}

// Disconnect closes the engine and disconnects the client. A dial that is
// still waiting for CONNACK is aborted, so no connection outlives the
// engine. It is safe to call more than once.
func (e *Engine) Disconnect() error {
	e.closeOnce.Do(func() {
		close(e.closed)
		// paho aborts an in-flight connect and ignores a client that is
		// already down.
		e.client.Disconnect(defaultDisconnectQuiesce)
	})
	return nil
}

// IsConnected reports whether the underlying connection is currently open.
func (e *Engine) IsConnected() bool {
	return e.client.IsConnectionOpen()
}

func (e *Engine) isClosed() bool {
	select {
	case <-e.closed:
		return true
	default:
		return false
	}
}

// waitToken blocks until the token completes or ctx is done.
func waitToken(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
