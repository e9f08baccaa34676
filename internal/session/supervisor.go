package session

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/abhisek/fitrack/internal/appstate"
)

// Supervisor starts an engine whenever the store gains an active session
// and aborts it when the session is cleared by someone else.
type Supervisor struct {
	store *appstate.Store
	cfg   Config
	log   *slog.Logger

	mu      sync.Mutex
	sess    *appstate.Session // identity of the session cur was built for
	cur     *Engine
	changed chan struct{}
}

// NewSupervisor returns a Supervisor for st. Engines it starts dispatch to
// st, and only while their own session is still the active one;
// cfg.Dispatcher is ignored.
func NewSupervisor(st *appstate.Store, cfg Config) *Supervisor {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{store: st, cfg: cfg, log: log, changed: make(chan struct{})}
}

// Run follows the store until ctx is done. A live engine is aborted on
// return.
func (s *Supervisor) Run(ctx context.Context) error {
	sub := s.store.Subscribe()
	defer sub.Cancel()
	defer s.reset()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-sub.C():
			if !ok {
				return nil
			}
			s.observe(snap.State.Training.ActiveSession)
		}
	}
}

// observe reconciles the engine with the active session. Session pointers
// are stable across snapshots until StopTraining, so pointer identity
// distinguishes a new session from the same one seen again.
func (s *Supervisor) observe(active *appstate.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active == s.sess {
		return
	}
	if s.cur != nil && !s.cur.Phase().Terminal() {
		s.log.Warn("active session cleared while engine live", "exercise", s.cur.Session().ExerciseID)
		s.cur.Abort()
	}
	s.sess = active
	s.cur = nil
	if active != nil {
		cfg := s.cfg
		cfg.Dispatcher = sessionDispatcher{store: s.store, sess: active}
		e := NewEngine(*active, cfg)
		if err := e.Start(); err != nil {
			s.log.Error("start session engine", "error", err)
		}
		s.cur = e
	}
	s.broadcastLocked()
}

// sessionDispatcher drops actions once sess is no longer the active
// session, so an engine finishing late cannot clear a newer session.
type sessionDispatcher struct {
	store *appstate.Store
	sess  *appstate.Session
}

func (d sessionDispatcher) Dispatch(a appstate.Action) {
	d.store.DispatchIf(func(st appstate.State) bool {
		return st.Training.ActiveSession == d.sess
	}, a)
}

func (s *Supervisor) reset() {
	s.observe(nil)
}

func (s *Supervisor) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Current returns the engine for the active session.
func (s *Supervisor) Current() (*Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil, ErrNoActiveSession
	}
	return s.cur, nil
}

// Await blocks until an engine exists for the active session or ctx is done.
func (s *Supervisor) Await(ctx context.Context) (*Engine, error) {
	return s.AwaitSession(ctx, nil)
}

// AwaitSession blocks until the engine for target exists and returns it.
// A nil target accepts any session. If target is no longer active in the
// store and has no engine, ErrNoActiveSession is returned.
func (s *Supervisor) AwaitSession(ctx context.Context, target *appstate.Session) (*Engine, error) {
	for {
		s.mu.Lock()
		cur, sess, changed := s.cur, s.sess, s.changed
		s.mu.Unlock()

		if cur != nil && (target == nil || sess == target) {
			return cur, nil
		}
		if target != nil && appstate.ActiveTraining(s.store.State()) != target {
			return nil, ErrNoActiveSession
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

// Pause pauses the current engine.
func (s *Supervisor) Pause() (int, error) {
	e, err := s.Current()
	if err != nil {
		return 0, err
	}
	return e.Pause()
}

// Resume resumes the current engine.
func (s *Supervisor) Resume() error {
	e, err := s.Current()
	if err != nil {
		return err
	}
	return e.Resume()
}

// Stop cancels the current engine.
func (s *Supervisor) Stop() error {
	e, err := s.Current()
	if err != nil {
		return err
	}
	return e.Stop()
}
