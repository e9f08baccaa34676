// Package remotesync bridges push feeds from the document store into the
// application store.
package remotesync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/store"
)

// FetchFailedMessage is the toast shown when a feed delivery fails.
const FetchFailedMessage = "Fetching exercises failed, please try again later"

// Dispatcher applies actions. *appstate.Store implements it.
type Dispatcher interface {
	Dispatch(a appstate.Action)
}

// Feeds is the subset of store.Backend the syncer reads.
type Feeds interface {
	WatchExercises(ctx context.Context, fn func([]appstate.Exercise, error)) (store.Subscription, error)
	WatchFinished(ctx context.Context, fn func([]appstate.FinishedRecord, error)) (store.Subscription, error)
}

// Syncer owns the catalog and history feed adapters.
type Syncer struct {
	d        Dispatcher
	feeds    Feeds
	notifier notify.Notifier
	log      *slog.Logger
	duration time.Duration
	subs     Subscriptions
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithNotifyDuration sets how long failure toasts stay visible.
func WithNotifyDuration(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.duration = d
		}
	}
}

// New returns a Syncer. A nil notifier or logger discards.
func New(d Dispatcher, feeds Feeds, n notify.Notifier, log *slog.Logger, opts ...Option) *Syncer {
	if n == nil {
		n = notify.Discard{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Syncer{d: d, feeds: feeds, notifier: n, log: log, duration: notify.DefaultDuration}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscriptions returns the tracked feed handles.
func (s *Syncer) Subscriptions() *Subscriptions {
	return &s.subs
}

// FetchAvailableExercises subscribes to the catalog feed. Every batch
// replaces the catalog.
func (s *Syncer) FetchAvailableExercises(ctx context.Context) error {
	a := &feedAdapter[appstate.Exercise]{
		s:    s,
		name: store.CollectionExercises,
		replace: func(list []appstate.Exercise) appstate.Action {
			return appstate.SetAvailableTrainings{Exercises: list}
		},
	}
	return a.start(func(fn func([]appstate.Exercise, error)) (store.Subscription, error) {
		return s.feeds.WatchExercises(ctx, fn)
	})
}

// FetchFinishedExercises subscribes to the history feed. Every batch
// replaces the history.
func (s *Syncer) FetchFinishedExercises(ctx context.Context) error {
	a := &feedAdapter[appstate.FinishedRecord]{
		s:    s,
		name: store.CollectionFinished,
		replace: func(list []appstate.FinishedRecord) appstate.Action {
			return appstate.SetFinishedTrainings{Records: list}
		},
	}
	return a.start(func(fn func([]appstate.FinishedRecord, error)) (store.Subscription, error) {
		return s.feeds.WatchFinished(ctx, fn)
	})
}

// CancelSubscriptions cancels every feed. Deliveries already in flight are
// dropped.
func (s *Syncer) CancelSubscriptions() {
	s.subs.CancelAll()
}

// FollowAuth starts both feeds on every true and tears them down on every
// false, until changes closes or ctx is done. Feeds are cancelled on return.
func (s *Syncer) FollowAuth(ctx context.Context, changes <-chan bool) {
	defer s.CancelSubscriptions()
	for {
		select {
		case <-ctx.Done():
			return
		case authed, ok := <-changes:
			if !ok {
				return
			}
			if authed {
				s.onLogin(ctx)
			} else {
				s.onLogout()
			}
		}
	}
}

func (s *Syncer) onLogin(ctx context.Context) {
	// A repeated login restarts the feeds instead of stacking them.
	s.CancelSubscriptions()
	s.d.Dispatch(appstate.SetAuthenticated{})
	if err := s.FetchAvailableExercises(ctx); err != nil {
		s.log.Error("subscribe to catalog", "error", err)
	}
	if err := s.FetchFinishedExercises(ctx); err != nil {
		s.log.Error("subscribe to history", "error", err)
	}
}

func (s *Syncer) onLogout() {
	s.CancelSubscriptions()
	s.d.Dispatch(appstate.StopTraining{})
	s.d.Dispatch(appstate.SetUnauthenticated{})
}

// feedAdapter turns one feed's deliveries into actions.
type feedAdapter[T any] struct {
	s       *Syncer
	name    string
	replace func([]T) appstate.Action

	mu        sync.Mutex
	cancelled bool
	loaded    bool
}

func (a *feedAdapter[T]) start(watch func(fn func([]T, error)) (store.Subscription, error)) error {
	a.s.d.Dispatch(appstate.StartLoading{})

	sub, err := watch(a.deliver)
	if err != nil {
		a.deliver(nil, err)
		return fmt.Errorf("watch %s: %w", a.name, err)
	}
	a.s.subs.Add(func() {
		a.cancel()
		sub.Cancel()
	})
	return nil
}

func (a *feedAdapter[T]) deliver(list []T, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelled {
		return
	}

	if err != nil {
		a.s.log.Warn("feed delivery failed", "collection", a.name, "error", err)
		a.s.d.Dispatch(appstate.StopLoading{})
		a.s.notifier.Notify(FetchFailedMessage, "", a.s.duration)
		return
	}

	a.s.d.Dispatch(a.replace(list))
	if !a.loaded {
		a.loaded = true
		a.s.d.Dispatch(appstate.StopLoading{})
	}
	a.s.log.Debug("feed delivered", "collection", a.name, "count", len(list))
}

func (a *feedAdapter[T]) cancel() {
	a.mu.Lock()
	a.cancelled = true
	a.mu.Unlock()
}
