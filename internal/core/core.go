// Package core wires the application store, sync adapters, session
// supervisor and auth service into one runtime shared by every front end.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/auth"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/remotesync"
	"github.com/abhisek/fitrack/internal/session"
	"github.com/abhisek/fitrack/internal/store"
)

// Caller-facing errors for StartTraining.
var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrUnknownExercise  = errors.New("unknown exercise")
	ErrAlreadyTraining  = errors.New("a training session is already active")
)

// Options holds Core collaborators.
type Options struct {
	Backend        store.Backend
	Notifier       notify.Notifier
	Logger         *slog.Logger
	Clock          session.Clock
	NotifyDuration time.Duration
}

// Core is the running application.
type Core struct {
	Store    *appstate.Store
	Backend  store.Backend
	Auth     *auth.Service
	Sync     *remotesync.Syncer
	Sessions *session.Supervisor
	Notifier notify.Notifier

	authChanges *auth.Listener
	log         *slog.Logger
}

// New builds a Core. Call Run to start following auth and sessions.
func New(opts Options) *Core {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	n := opts.Notifier
	if n == nil {
		n = notify.NewLog(log)
	}

	st := appstate.New(appstate.WithLogger(log.With("component", "appstate")))
	c := &Core{
		Store:    st,
		Backend:  opts.Backend,
		Auth:     auth.New(),
		Notifier: n,
		log:      log,
	}
	// Subscribe before anyone can log in so no change is missed.
	c.authChanges = c.Auth.Subscribe()
	c.Sync = remotesync.New(st, opts.Backend, n, log.With("component", "remotesync"),
		remotesync.WithNotifyDuration(opts.NotifyDuration))
	c.Sessions = session.NewSupervisor(st, session.Config{
		Clock:          opts.Clock,
		Recorder:       opts.Backend,
		Notifier:       n,
		Logger:         log.With("component", "session"),
		NotifyDuration: opts.NotifyDuration,
	})
	return c
}

// Run follows auth changes and supervises sessions until ctx is done.
// Feeds are cancelled and a live session is aborted on return. Run must be
// called at most once.
func (c *Core) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.authChanges.Cancel()

	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		c.Sync.FollowAuth(ctx, c.authChanges.C())
	}()

	err := c.Sessions.Run(ctx)
	cancel()
	<-syncDone
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Login signs in and waits until the store reflects it.
func (c *Core) Login(ctx context.Context, creds auth.Credentials) (auth.User, error) {
	u, err := c.Auth.Login(creds)
	if err != nil {
		return auth.User{}, err
	}
	if err := c.WaitFor(ctx, appstate.IsAuth); err != nil {
		return auth.User{}, err
	}
	return u, nil
}

// Register signs up and waits until the store reflects it.
func (c *Core) Register(ctx context.Context, creds auth.Credentials) (auth.User, error) {
	u, err := c.Auth.Register(creds)
	if err != nil {
		return auth.User{}, err
	}
	if err := c.WaitFor(ctx, appstate.IsAuth); err != nil {
		return auth.User{}, err
	}
	return u, nil
}

// Logout signs out and waits until the store reflects it.
func (c *Core) Logout(ctx context.Context) error {
	c.Auth.Logout()
	return c.WaitFor(ctx, func(s appstate.State) bool { return !appstate.IsAuth(s) })
}

// StartTraining activates exerciseID and returns the engine running it.
func (c *Core) StartTraining(ctx context.Context, exerciseID string) (*session.Engine, error) {
	st := c.Store.State()
	if !appstate.IsAuth(st) {
		return nil, ErrNotAuthenticated
	}
	if appstate.IsTraining(st) {
		return nil, ErrAlreadyTraining
	}
	if _, ok := appstate.FindExercise(st, exerciseID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExercise, exerciseID)
	}

	c.Store.Dispatch(appstate.StartTraining{ExerciseID: exerciseID})

	sess := appstate.ActiveTraining(c.Store.State())
	if sess == nil || sess.ExerciseID != exerciseID {
		// Lost a race with another start.
		return nil, ErrAlreadyTraining
	}
	return c.Sessions.AwaitSession(ctx, sess)
}

// WaitFor blocks until pred holds for the current state or ctx is done.
func (c *Core) WaitFor(ctx context.Context, pred func(appstate.State) bool) error {
	sub := c.Store.Subscribe()
	defer sub.Cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-sub.C():
			if !ok {
				return errors.New("store subscription closed")
			}
			if pred(snap.State) {
				return nil
			}
		}
	}
}
