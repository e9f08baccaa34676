package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/core"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/store"
)

func newTestHandlers(t *testing.T) (*handlers, *core.Core) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "fitrack.db"), store.WithPollInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.PutExercises(context.Background(), []appstate.Exercise{
		{ID: "plank", Name: "Plank", Duration: 600, Calories: 40},
	}))

	c := core.New(core.Options{Backend: st, Notifier: notify.Discard{}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &handlers{core: c, log: slog.New(slog.NewTextHandler(io.Discard, nil))}, c
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestNewRegistersTools(t *testing.T) {
	_, c := newTestHandlers(t)
	s := New(c, "test", nil)
	require.NotNil(t, s)
}

func TestLoginRequiresArguments(t *testing.T) {
	h, _ := newTestHandlers(t)
	res, err := h.login(context.Background(), call(map[string]any{"email": "a@b.c"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestStartTrainingBeforeLogin(t *testing.T) {
	h, _ := newTestHandlers(t)
	res, err := h.startTraining(context.Background(), call(map[string]any{"exercise_id": "plank"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not signed in")
}

func TestTrainingThroughTools(t *testing.T) {
	h, c := newTestHandlers(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := h.login(ctx, call(map[string]any{"email": "a@b.c", "password": "pw"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	require.NoError(t, c.WaitFor(ctx, func(s appstate.State) bool { return len(s.Training.Catalog) == 1 }))

	res, err = h.listExercises(ctx, call(nil))
	require.NoError(t, err)
	var list []appstate.Exercise
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &list))
	assert.Equal(t, "plank", list[0].ID)

	res, err = h.startTraining(ctx, call(map[string]any{"exercise_id": "plank"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.True(t, appstate.IsTraining(c.Store.State()))

	res, err = h.getState(ctx, call(nil))
	require.NoError(t, err)
	var v stateView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &v))
	assert.True(t, v.Authenticated)
	assert.Equal(t, "running", v.Phase)
	require.NotNil(t, v.ActiveSession)
	assert.Equal(t, "plank", v.ActiveSession.ExerciseID)

	res, err = h.pauseTraining(ctx, call(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = h.pauseTraining(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.stopTraining(ctx, call(nil))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.False(t, appstate.IsTraining(c.Store.State()))

	require.NoError(t, c.WaitFor(ctx, func(s appstate.State) bool { return len(s.Training.History) == 1 }))
	res, err = h.getHistory(ctx, call(map[string]any{"query": "cancelled"}))
	require.NoError(t, err)
	var hist []appstate.FinishedRecord
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, appstate.RecordCancelled, hist[0].State)
}

func TestStopWithoutSession(t *testing.T) {
	h, _ := newTestHandlers(t)
	res, err := h.stopTraining(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestStateResource(t *testing.T) {
	h, _ := newTestHandlers(t)
	var req mcp.ReadResourceRequest
	req.Params.URI = "fitrack://state"

	contents, err := h.stateResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)

	var snap appstate.Snapshot
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &snap))
	assert.False(t, snap.State.Auth.IsAuthenticated)
}
