// Package session runs the timed exercise state machine. An Engine advances
// progress one step per tick, persists a finished record when the session
// completes or is cancelled, and then clears the active session from the
// application store.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/notify"
)

// SaveFailedMessage is the toast shown when a finished record can't be saved.
const SaveFailedMessage = "Saving exercise failed"

// DefaultSaveTimeout bounds one persistence call.
const DefaultSaveTimeout = 10 * time.Second

// Recorder persists finished records.
type Recorder interface {
	AddFinished(ctx context.Context, rec appstate.FinishedRecord) (appstate.FinishedRecord, error)
}

// Dispatcher applies actions to the application store.
type Dispatcher interface {
	Dispatch(a appstate.Action)
}

// Config holds engine collaborators. Nil fields fall back to the system
// clock, discard notifier and discard logger. Recorder and Dispatcher are
// required.
type Config struct {
	Clock          Clock
	Recorder       Recorder
	Dispatcher     Dispatcher
	Notifier       notify.Notifier
	Logger         *slog.Logger
	NotifyDuration time.Duration
	SaveTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Notifier == nil {
		c.Notifier = notify.Discard{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.NotifyDuration <= 0 {
		c.NotifyDuration = notify.DefaultDuration
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = DefaultSaveTimeout
	}
	return c
}

// Status is a point-in-time view of an engine.
type Status struct {
	Session  appstate.Session `json:"session"`
	Phase    string           `json:"phase"`
	Progress int              `json:"progress"`
}

// Engine drives one session from Idle to a terminal phase. It is safe for
// concurrent use.
type Engine struct {
	sess appstate.Session
	cfg  Config

	mu       sync.Mutex
	phase    Phase
	progress int
	gen      uint64 // bumped on every ticker start and stop
	ticker   Ticker
	stopTick chan struct{}

	done      chan struct{}
	result    appstate.FinishedRecord
	recorded  bool
	resultErr error
}

// NewEngine returns an Idle engine for sess.
func NewEngine(sess appstate.Session, cfg Config) *Engine {
	return &Engine{
		sess: sess,
		cfg:  cfg.withDefaults(),
		done: make(chan struct{}),
	}
}

// Session returns the session being run.
func (e *Engine) Session() appstate.Session { return e.sess }

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Progress returns the current progress in [0, Steps].
func (e *Engine) Progress() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Status returns phase and progress together.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Session: e.sess, Phase: e.phase.String(), Progress: e.progress}
}

// Done is closed once the engine reaches a terminal phase and its record,
// if any, has been handled.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Result returns the record built at session end. ok reports whether it was
// saved; it is false while the engine is live, after an abort, and when
// persistence failed, in which case err says why.
func (e *Engine) Result() (rec appstate.FinishedRecord, ok bool, err error) {
	select {
	case <-e.done:
	default:
		return appstate.FinishedRecord{}, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.recorded, e.resultErr
}

// Start begins ticking from zero.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.phase.Terminal():
		return ErrFinished
	case e.phase != PhaseIdle:
		return ErrAlreadyStarted
	}
	e.phase = PhaseRunning
	e.startTickerLocked()
	e.cfg.Logger.Info("session started",
		"exercise", e.sess.ExerciseID,
		"duration_s", e.sess.DurationSeconds,
		"tick", TickInterval(e.sess.DurationSeconds))
	return nil
}

// Pause stops ticking and returns the retained progress. The caller must
// follow up with Resume or Stop (or Decide).
func (e *Engine) Pause() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase.Terminal() {
		return e.progress, ErrFinished
	}
	if e.phase != PhaseRunning {
		return e.progress, ErrNotRunning
	}
	e.stopTickerLocked()
	e.phase = PhasePaused
	e.cfg.Logger.Debug("session paused", "exercise", e.sess.ExerciseID, "progress", e.progress)
	return e.progress, nil
}

// Resume continues from the retained progress with a fresh ticker.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase.Terminal() {
		return ErrFinished
	}
	if e.phase != PhasePaused {
		return ErrNotPaused
	}
	e.phase = PhaseRunning
	e.startTickerLocked()
	e.cfg.Logger.Debug("session resumed",
		"exercise", e.sess.ExerciseID,
		"progress", e.progress,
		"remaining", Remaining(e.sess.DurationSeconds, e.progress))
	return nil
}

// Stop cancels a running or paused session, recording metrics scaled by
// the progress reached. It blocks until the record is handled.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.phase.Terminal() {
		e.mu.Unlock()
		return ErrFinished
	}
	if e.phase == PhaseIdle {
		e.mu.Unlock()
		return ErrNotRunning
	}
	e.stopTickerLocked()
	e.phase = PhaseCancelled
	progress := e.progress
	e.mu.Unlock()

	e.finish(progress)
	return nil
}

// Decide applies the answer to a pause prompt.
func (e *Engine) Decide(d Decision) error {
	if d == DecisionStop {
		if e.Phase() != PhasePaused {
			return ErrNotPaused
		}
		return e.Stop()
	}
	return e.Resume()
}

// Abort ends the engine without recording anything or dispatching. It is
// used when the session was cleared elsewhere. Aborting a finished engine
// is a no-op.
func (e *Engine) Abort() {
	e.mu.Lock()
	if e.phase.Terminal() {
		e.mu.Unlock()
		return
	}
	e.stopTickerLocked()
	e.phase = PhaseAborted
	e.mu.Unlock()

	e.cfg.Logger.Info("session aborted", "exercise", e.sess.ExerciseID)
	close(e.done)
}

func (e *Engine) startTickerLocked() {
	e.gen++
	e.ticker = e.cfg.Clock.NewTicker(TickInterval(e.sess.DurationSeconds))
	e.stopTick = make(chan struct{})
	go e.run(e.gen, e.ticker, e.stopTick)
}

func (e *Engine) stopTickerLocked() {
	if e.ticker == nil {
		return
	}
	e.gen++
	e.ticker.Stop()
	close(e.stopTick)
	e.ticker = nil
	e.stopTick = nil
}

func (e *Engine) run(gen uint64, t Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !e.tick(gen) {
				return
			}
		}
	}
}

// tick advances one step. It returns false once the ticker generation is
// stale or the session completed.
func (e *Engine) tick(gen uint64) bool {
	e.mu.Lock()
	if gen != e.gen || e.phase != PhaseRunning {
		e.mu.Unlock()
		return false
	}
	e.progress++
	if e.progress < Steps {
		e.mu.Unlock()
		return true
	}
	e.progress = Steps
	e.stopTickerLocked()
	e.phase = PhaseCompleted
	e.mu.Unlock()

	e.finish(Steps)
	return false
}

// finish persists the record, then clears the active session. It runs
// exactly once per engine, after the phase became Completed or Cancelled.
func (e *Engine) finish(progress int) {
	rec := BuildRecord(e.sess, progress, e.cfg.Clock.Now())

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.SaveTimeout)
	saved, err := e.cfg.Recorder.AddFinished(ctx, rec)
	cancel()
	if err != nil {
		err = fmt.Errorf("save finished exercise: %w", err)
		e.cfg.Logger.Error("save finished exercise", "exercise", e.sess.ExerciseID, "error", err)
		e.cfg.Notifier.Notify(SaveFailedMessage, "", e.cfg.NotifyDuration)
		saved = rec
	} else {
		e.cfg.Logger.Info("session finished",
			"exercise", e.sess.ExerciseID,
			"state", saved.State,
			"progress", progress,
			"duration_s", saved.Duration,
			"calories", saved.Calories)
	}

	e.mu.Lock()
	e.result = saved
	e.recorded = err == nil
	e.resultErr = err
	e.mu.Unlock()

	e.cfg.Dispatcher.Dispatch(appstate.StopTraining{})
	close(e.done)
}
