package session

import "sync"

// DefaultBufferCapacity is the number of messages a session retains.
const DefaultBufferCapacity = 100

// MessageBuffer is a fixed-capacity FIFO of messages. When full, pushing
// evicts the oldest entry. It is safe for concurrent use.
type MessageBuffer struct {
	mu    sync.RWMutex
	items []Message
	head  int // index of the oldest message
	size  int
}

// NewMessageBuffer returns an empty buffer. A capacity below one is
// treated as DefaultBufferCapacity.
func NewMessageBuffer(capacity int) *MessageBuffer {
	if capacity < 1 {
		capacity = DefaultBufferCapacity
	}
	return &MessageBuffer{items: make([]Message, capacity)}
}

// Push appends m, evicting the oldest message if the buffer is full.
func (b *MessageBuffer) Push(m Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = m
		b.size++
		return
	}
	b.items[b.head] = m
	b.head = (b.head + 1) % capacity
}

// Snapshot returns the buffered messages oldest first.
func (b *MessageBuffer) Snapshot() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Message, b.size)
	for i := range b.size {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Len returns the number of buffered messages.
func (b *MessageBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *MessageBuffer) Cap() int {
	return len(b.items)
}

// Clear drops every message.
func (b *MessageBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.items)
	b.head = 0
	b.size = 0
}
