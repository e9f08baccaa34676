package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/auth"
)

// --- Tool definitions ---

var toolLogin = mcp.NewTool("login",
	mcp.WithDescription("Sign in. Starts syncing the exercise catalog and training history."),
	mcp.WithString("email", mcp.Required(), mcp.Description("Account email")),
	mcp.WithString("password", mcp.Required(), mcp.Description("Account password")),
)

var toolLogout = mcp.NewTool("logout",
	mcp.WithDescription("Sign out. Stops syncing and ends any active session without recording it."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List available exercises with duration (seconds) and calories burned at full completion."),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("List finished trainings, newest first. Records are completed or cancelled; cancelled records have duration and calories scaled by progress."),
	mcp.WithString("query", mcp.Description("Case-insensitive filter matched against date, name, duration, calories and state")),
)

var toolGetState = mcp.NewTool("get_state",
	mcp.WithDescription("Summarize the application state: auth, loading flag, catalog and history sizes, and the active session with its progress."),
)

var toolStartTraining = mcp.NewTool("start_training",
	mcp.WithDescription("Start a timed training session for an exercise. Fails if a session is already active."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id from list_exercises")),
)

var toolPauseTraining = mcp.NewTool("pause_training",
	mcp.WithDescription("Pause the active session and return its progress (0-100)."),
)

var toolResumeTraining = mcp.NewTool("resume_training",
	mcp.WithDescription("Resume a paused session from its retained progress."),
)

var toolStopTraining = mcp.NewTool("stop_training",
	mcp.WithDescription("Cancel the active session and record it with metrics scaled by progress."),
)

// --- Tool handlers ---

func (h *handlers) login(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email, err := req.RequireString("email")
	if err != nil {
		return mcp.NewToolResultError("email parameter is required"), nil
	}
	password, err := req.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError("password parameter is required"), nil
	}
	u, err := h.core.Login(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		return mcp.NewToolResultError("login failed: " + err.Error()), nil
	}
	return jsonResult(u)
}

func (h *handlers) logout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.core.Logout(ctx); err != nil {
		return mcp.NewToolResultError("logout failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText("signed out"), nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(appstate.Select(h.core.Store, appstate.AvailableExercises))
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	return jsonResult(appstate.Select(h.core.Store, appstate.FilterHistory(query)))
}

func (h *handlers) getState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := h.core.Store.Snapshot()
	v := stateView{
		Version:       snap.Version,
		Authenticated: appstate.IsAuth(snap.State),
		Loading:       appstate.IsLoading(snap.State),
		Exercises:     len(snap.State.Training.Catalog),
		Finished:      len(snap.State.Training.History),
		ActiveSession: appstate.ActiveTraining(snap.State),
	}
	if e, err := h.core.Sessions.Current(); err == nil {
		st := e.Status()
		v.Phase = st.Phase
		v.Progress = st.Progress
	}
	return jsonResult(v)
}

func (h *handlers) startTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	e, err := h.core.StartTraining(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("start failed: " + err.Error()), nil
	}
	return jsonResult(e.Status())
}

func (h *handlers) pauseTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.core.Sessions.Current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := e.Pause(); err != nil {
		return mcp.NewToolResultError("pause failed: " + err.Error()), nil
	}
	return jsonResult(e.Status())
}

func (h *handlers) resumeTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.core.Sessions.Current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := e.Resume(); err != nil {
		return mcp.NewToolResultError("resume failed: " + err.Error()), nil
	}
	return jsonResult(e.Status())
}

func (h *handlers) stopTraining(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := h.core.Sessions.Current()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := e.Stop(); err != nil {
		return mcp.NewToolResultError("stop failed: " + err.Error()), nil
	}
	rec, _, saveErr := e.Result()
	if saveErr != nil {
		h.log.Error("stop_training: save failed", "error", saveErr)
		return mcp.NewToolResultError("session stopped but saving failed: " + saveErr.Error()), nil
	}
	return jsonResult(rec)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
