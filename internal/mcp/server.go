// Package mcp exposes fitrack as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/core"
)

// New creates an MCP server with all tools and resources registered.
func New(c *core.Core, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("fitrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("fitrack workout tracker. List exercises, run timed training sessions and review training history. Sign in with the login tool before starting a session."),
	)

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handlers{core: c, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolLogin, Handler: h.login},
		server.ServerTool{Tool: toolLogout, Handler: h.logout},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetState, Handler: h.getState},
		server.ServerTool{Tool: toolStartTraining, Handler: h.startTraining},
		server.ServerTool{Tool: toolPauseTraining, Handler: h.pauseTraining},
		server.ServerTool{Tool: toolResumeTraining, Handler: h.resumeTraining},
		server.ServerTool{Tool: toolStopTraining, Handler: h.stopTraining},
	)

	s.AddResources(
		server.ServerResource{Resource: resState, Handler: h.stateResource},
	)

	return s
}

// ServeStdio runs s over stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	core *core.Core
	log  *slog.Logger
}

var resState = mcp.NewResource(
	"fitrack://state",
	"Application State",
	mcp.WithResourceDescription("Current versioned application snapshot: auth, loading flag, catalog, active session and history"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) stateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(h.core.Store.Snapshot())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// stateView is the get_state payload.
type stateView struct {
	Version       uint64            `json:"version"`
	Authenticated bool              `json:"authenticated"`
	Loading       bool              `json:"loading"`
	Exercises     int               `json:"exercises"`
	Finished      int               `json:"finished"`
	ActiveSession *appstate.Session `json:"activeSession"`
	Phase         string            `json:"phase,omitempty"`
	Progress      int               `json:"progress,omitempty"`
}
