package session

import (
	"slices"
	"sync"
)

// SubscriptionSet is an insertion-ordered list of unique topic filters.
// It is safe for concurrent use.
type SubscriptionSet struct {
	mu     sync.RWMutex
	topics []string
}

// Add appends topic unless it is already present. It reports whether the
// set changed.
func (s *SubscriptionSet) Add(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.topics, topic) {
		return false
	}
	s.topics = append(s.topics, topic)
	return true
}

// Remove deletes topic. It reports whether the set changed.
func (s *SubscriptionSet) Remove(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.topics, topic)
	if i < 0 {
		return false
	}
	s.topics = slices.Delete(s.topics, i, i+1)
	return true
}

// Contains reports whether topic is in the set.
func (s *SubscriptionSet) Contains(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.topics, topic)
}

// List returns a copy of the topics in insertion order. It never returns nil.
func (s *SubscriptionSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.topics))
	copy(out, s.topics)
	return out
}

// Clear removes every topic.
func (s *SubscriptionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = nil
}
