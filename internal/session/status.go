package session

import (
	"context"
	"sync"
)

// Status is the lifecycle phase of a session.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// statusCell holds the current status and publishes every change.
//
// The notifier is invoked while the lock is held so that observers see
// changes in the same order they were stored.
type statusCell struct {
	mu       sync.RWMutex
	current  Status
	notifier Notifier
}

func newStatusCell(n Notifier) *statusCell {
	return &statusCell{current: StatusDisconnected, notifier: n}
}

func (c *statusCell) get() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// set stores s and emits it.
func (c *statusCell) set(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = s
	c.notifier.StatusChanged(s)
}

// setLive is set for the supervisor. The write is dropped once ctx is
// cancelled so a stopping supervisor cannot overwrite the status stored by
// Disconnect. It reports whether the write happened.
func (c *statusCell) setLive(ctx context.Context, s Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}
	c.current = s
	c.notifier.StatusChanged(s)
	return true
}
