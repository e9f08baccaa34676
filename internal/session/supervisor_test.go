package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fitrack/internal/appstate"
)

func startSupervisor(t *testing.T, h *harness) *Supervisor {
	t.Helper()
	return startSupervisorWith(t, h, h.config())
}

func startSupervisorWith(t *testing.T, h *harness, cfg Config) *Supervisor {
	t.Helper()
	sup := NewSupervisor(h.store, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return sup
}

func awaitEngine(t *testing.T, sup *Supervisor) *Engine {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e, err := sup.Await(ctx)
	require.NoError(t, err)
	return e
}

func TestSupervisor_StartsEngineForActiveSession(t *testing.T) {
	h := newHarness()
	sup := startSupervisor(t, h)

	_, err := sup.Current()
	assert.ErrorIs(t, err, ErrNoActiveSession)

	h.store.Dispatch(appstate.StartTraining{ExerciseID: "ten"})
	e := awaitEngine(t, sup)
	assert.Equal(t, "ten", e.Session().ExerciseID)
	assert.Equal(t, PhaseRunning, e.Phase())

	require.Eventually(t, func() bool { return h.clock.last() != nil }, time.Second, time.Millisecond)
	h.clock.last().push(Steps)
	waitDone(t, e)

	require.Eventually(t, func() bool {
		_, err := sup.Current()
		return err == ErrNoActiveSession
	}, time.Second, time.Millisecond)
	assert.Len(t, h.recorder.all(), 1)
}

func TestSupervisor_AbortsWhenSessionCleared(t *testing.T) {
	h := newHarness()
	sup := startSupervisor(t, h)

	h.store.Dispatch(appstate.StartTraining{ExerciseID: "hundred"})
	e := awaitEngine(t, sup)

	h.store.Dispatch(appstate.StopTraining{})
	waitDone(t, e)
	assert.Equal(t, PhaseAborted, e.Phase())
	assert.Empty(t, h.recorder.all())
}

func TestSupervisor_ControlsCurrentEngine(t *testing.T) {
	h := newHarness()
	sup := startSupervisor(t, h)

	_, err := sup.Pause()
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.ErrorIs(t, sup.Resume(), ErrNoActiveSession)
	assert.ErrorIs(t, sup.Stop(), ErrNoActiveSession)

	h.store.Dispatch(appstate.StartTraining{ExerciseID: "hundred"})
	e := awaitEngine(t, sup)
	h.clock.last().push(40)
	waitProgress(t, e, 40)

	p, err := sup.Pause()
	require.NoError(t, err)
	assert.Equal(t, 40, p)
	require.NoError(t, sup.Resume())
	require.NoError(t, sup.Stop())

	recs := h.recorder.all()
	require.Len(t, recs, 1)
	assert.Equal(t, appstate.RecordCancelled, recs[0].State)
	assert.False(t, appstate.IsTraining(h.store.State()))
}

func TestSupervisor_NewSessionGetsFreshEngine(t *testing.T) {
	h := newHarness()
	sup := startSupervisor(t, h)

	h.store.Dispatch(appstate.StartTraining{ExerciseID: "ten"})
	first := awaitEngine(t, sup)
	require.NoError(t, first.Stop())

	h.store.Dispatch(appstate.StartTraining{ExerciseID: "hundred"})
	require.Eventually(t, func() bool {
		e, err := sup.Current()
		return err == nil && e != first
	}, time.Second, time.Millisecond)

	second, err := sup.Current()
	require.NoError(t, err)
	assert.Equal(t, "hundred", second.Session().ExerciseID)
	assert.Equal(t, PhaseRunning, second.Phase())
}

func TestSupervisor_AwaitHonoursContext(t *testing.T) {
	h := newHarness()
	sup := NewSupervisor(h.store, h.config())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := sup.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// gatedRecorder holds every save until release is closed.
type gatedRecorder struct {
	fakeRecorder
	entered chan string
	release chan struct{}
}

func (g *gatedRecorder) AddFinished(ctx context.Context, rec appstate.FinishedRecord) (appstate.FinishedRecord, error) {
	g.entered <- rec.ExerciseID
	<-g.release
	return g.fakeRecorder.AddFinished(ctx, rec)
}

func TestSupervisor_LateFinishKeepsNewerSession(t *testing.T) {
	h := newHarness()
	rec := &gatedRecorder{entered: make(chan string, 2), release: make(chan struct{})}
	cfg := h.config()
	cfg.Recorder = rec
	sup := startSupervisorWith(t, h, cfg)

	h.store.Dispatch(appstate.StartTraining{ExerciseID: "ten"})
	first := awaitEngine(t, sup)
	require.Eventually(t, func() bool { return h.clock.last() != nil }, time.Second, time.Millisecond)
	h.clock.last().push(Steps)

	select {
	case id := <-rec.entered:
		require.Equal(t, "ten", id)
	case <-time.After(2 * time.Second):
		t.Fatal("first session never reached the recorder")
	}

	// The session is cleared elsewhere (logout) and a new one starts while
	// the first engine is still saving.
	h.store.Dispatch(appstate.StopTraining{})
	h.store.Dispatch(appstate.StartTraining{ExerciseID: "hundred"})
	var second *Engine
	require.Eventually(t, func() bool {
		e, err := sup.Current()
		second = e
		return err == nil && e != first
	}, time.Second, time.Millisecond)

	close(rec.release)
	waitDone(t, first)

	active := appstate.ActiveTraining(h.store.State())
	require.NotNil(t, active, "finished engine cleared the newer session")
	assert.Equal(t, "hundred", active.ExerciseID)
	assert.Equal(t, PhaseRunning, second.Phase())
	assert.Len(t, rec.all(), 1)
}
