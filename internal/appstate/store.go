package appstate

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store owns the current Snapshot. All mutation goes through Dispatch,
// which runs one reducer pass at a time and publishes the result to every
// subscriber.
type Store struct {
	mu      sync.Mutex // serializes Dispatch and subscriber registration
	current atomic.Pointer[Snapshot]
	subs    map[*Subscription]struct{}
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for transition tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithState seeds the store with st instead of InitialState.
func WithState(st State) Option {
	return func(s *Store) {
		s.current.Store(&Snapshot{State: st})
	}
}

// New creates a store at version 0 holding InitialState.
func New(opts ...Option) *Store {
	s := &Store{
		subs: make(map[*Subscription]struct{}),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.current.Store(&Snapshot{State: InitialState()})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies a to the current state and notifies subscribers. A nil
// action is ignored. Dispatch must not be called from inside a reducer;
// reducers are pure and cannot reach the store.
func (s *Store) Dispatch(a Action) {
	if a == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(a)
}

// DispatchIf applies a only when cond holds for the current state, checked
// under the same lock as the transition. It reports whether a was applied.
func (s *Store) DispatchIf(cond func(State) bool, a Action) bool {
	if a == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !cond(s.current.Load().State) {
		return false
	}
	s.applyLocked(a)
	return true
}

func (s *Store) applyLocked(a Action) {
	prev := s.current.Load()
	next := &Snapshot{
		Version: prev.Version + 1,
		State:   Reduce(prev.State, a),
	}
	s.current.Store(next)

	s.log.Debug("dispatch", "action", TypeOf(a), "version", next.Version)

	// Offers happen under mu, so every subscriber sees versions in order.
	for sub := range s.subs {
		sub.offer(*next)
	}
}

// Snapshot returns the current snapshot. It is always fully formed.
func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

// State returns the current state.
func (s *Store) State() State {
	return s.current.Load().State
}

// Subscribe registers a subscriber. The current snapshot is delivered
// immediately; later snapshots may be coalesced but never arrive out of
// order.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		ch:    make(chan Snapshot, 1),
		store: s,
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	sub.offer(*s.current.Load())
	s.mu.Unlock()

	return sub
}

func (s *Store) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// Subscription receives snapshots from a Store.
type Subscription struct {
	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
	store  *Store
}

// C returns the snapshot channel. It is closed by Cancel.
func (sub *Subscription) C() <-chan Snapshot {
	return sub.ch
}

// Cancel detaches the subscription and closes its channel. Safe to call
// more than once.
func (sub *Subscription) Cancel() {
	sub.store.unsubscribe(sub)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}

// offer replaces any undelivered snapshot with snap. The channel has
// capacity one and offer is its only sender, so the final send cannot block.
func (sub *Subscription) offer(snap Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.ch <- snap:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}
