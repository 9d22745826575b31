package graph

import (
	"sync"

	"github.com/agentic-research/lifecards/api"
	"github.com/google/uuid"
)

// Subscription is the handle of one query. A persistent subscription would
// redeliver on store mutation until cancelled; today every query delivers
// once and the handle closes right after.
type Subscription struct {
	handle string

	mu        sync.Mutex
	closed    bool
	delivered int
}

func newSubscription(handle string) *Subscription {
	if handle == "" {
		handle = uuid.NewString()
	}
	return &Subscription{handle: handle}
}

// Handle returns the caller supplied handle, or a generated one.
func (s *Subscription) Handle() string { return s.handle }

// Cancel closes the handle. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the handle will deliver again.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Deliveries returns how many result sets were handed to the observer.
func (s *Subscription) Deliveries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}

// deliver hands results to observer and closes the handle. The observer
// runs without the handle's lock held.
func (s *Subscription) deliver(observer Observer, results []api.Record) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSubscriptionClosed
	}
	s.closed = true
	s.delivered++
	s.mu.Unlock()

	observer(results)
	return nil
}
