package remotesync

import (
	"context"
	"sync"
)

// Subscriptions tracks cancel handles for bulk teardown.
type Subscriptions struct {
	mu      sync.Mutex
	cancels []func()
}

// Add tracks cancel. A nil cancel is ignored.
func (s *Subscriptions) Add(cancel func()) {
	if cancel == nil {
		return
	}
	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()
}

// CancelAll cancels every tracked handle and forgets them. Calling it again
// is a no-op; handles added afterwards are tracked normally.
func (s *Subscriptions) CancelAll() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}

// Len returns the number of live handles.
func (s *Subscriptions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

// BindContext runs CancelAll once ctx is done. The returned stop function
// detaches the binding.
func (s *Subscriptions) BindContext(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, s.CancelAll)
}
