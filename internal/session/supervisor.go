package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
)

// state is the part of a session shared between the façade and its
// supervisor. Both sides hold the same pointer.
type state struct {
	status   *statusCell
	messages *MessageBuffer
	subs     *SubscriptionSet
	notifier Notifier
	logger   Logger
	now      func() time.Time
}

// supervisor drives one engine until it is cancelled or gives up.
type supervisor struct {
	engine    Engine
	state     *state
	backoff   time.Duration
	maxErrors int
}

// run polls the engine until ctx is cancelled or maxErrors consecutive poll
// errors occur. done is closed on return.
func (sv *supervisor) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	st := sv.state
	consecutive := 0

	for {
		ev, err := sv.engine.Poll(ctx)
		if ctx.Err() != nil {
			st.logger.Debug("supervisor cancelled")
			return
		}

		if err != nil {
			consecutive++
			err = fmt.Errorf("%w: %w", ErrConnection, err)
			st.logger.Warn("mqtt poll failed",
				"error", err,
				"consecutive", consecutive,
			)
			if !st.status.setLive(ctx, StatusError) {
				return
			}
			if consecutive >= sv.maxErrors {
				st.logger.Error("mqtt supervisor giving up",
					"consecutive", consecutive,
					"error", err,
				)
				return
			}
			if !sleep(ctx, sv.backoff) {
				return
			}
			continue
		}

		consecutive = 0
		sv.handle(ctx, ev)
	}
}

// handle applies one successful engine event to the shared state.
func (sv *supervisor) handle(ctx context.Context, ev mqtt.Event) {
	st := sv.state
	switch ev.Kind {
	case mqtt.EventConnAck:
		if st.status.setLive(ctx, StatusConnected) {
			st.logger.Info("mqtt connected")
		}
	case mqtt.EventPublish:
		msg := newMessage(ev.Topic, ev.Payload, st.now())
		st.messages.Push(msg)
		st.notifier.MessageReceived(msg)
	default:
		st.logger.Debug("mqtt event", "kind", ev.Kind.String(), "topic", ev.Topic)
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// isCancellation reports whether err only signals context cancellation.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
