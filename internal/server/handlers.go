package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/auth"
	"github.com/abhisek/fitrack/internal/core"
	"github.com/abhisek/fitrack/internal/session"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Store.Snapshot())
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, appstate.Select(s.core.Store, appstate.AvailableExercises))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, appstate.Select(s.core.Store, appstate.FilterHistory(q)))
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (auth.Credentials, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return auth.Credentials{}, false
	}
	return auth.Credentials{Email: req.Email, Password: req.Password}, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := s.core.Login(r.Context(), creds)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := s.core.Register(r.Context(), creds)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.core.Logout(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTrainingStatus(w http.ResponseWriter, r *http.Request) {
	e, err := s.core.Sessions.Current()
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Status())
}

type startRequest struct {
	ExerciseID string `json:"exerciseId"`
}

func (s *Server) handleTrainingStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ExerciseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exerciseId required"})
		return
	}

	e, err := s.core.StartTraining(r.Context(), req.ExerciseID)
	if err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e.Status())
}

func (s *Server) handleTrainingPause(w http.ResponseWriter, r *http.Request) {
	e, err := s.core.Sessions.Current()
	if err != nil {
		writeControlError(w, err)
		return
	}
	if _, err := e.Pause(); err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Status())
}

func (s *Server) handleTrainingResume(w http.ResponseWriter, r *http.Request) {
	e, err := s.core.Sessions.Current()
	if err != nil {
		writeControlError(w, err)
		return
	}
	if err := e.Resume(); err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Status())
}

func (s *Server) handleTrainingStop(w http.ResponseWriter, r *http.Request) {
	e, err := s.core.Sessions.Current()
	if err != nil {
		writeControlError(w, err)
		return
	}
	if err := e.Stop(); err != nil {
		writeControlError(w, err)
		return
	}
	rec, _, saveErr := e.Result()
	if saveErr != nil {
		s.log.Error("training stop", "error", saveErr)
	}
	writeJSON(w, http.StatusOK, rec)
}

// writeControlError maps session and start errors to status codes.
func writeControlError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrUnknownExercise), errors.Is(err, session.ErrNoActiveSession):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyTraining),
		errors.Is(err, session.ErrNotRunning),
		errors.Is(err, session.ErrNotPaused),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrFinished):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
