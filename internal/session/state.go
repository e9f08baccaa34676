package session

import "errors"

// Phase is the engine lifecycle phase.
type Phase int

const (
	PhaseIdle      Phase = iota // Created, not started
	PhaseRunning                // Ticking
	PhasePaused                 // Stop requested, awaiting a Decision
	PhaseCompleted              // Reached full progress
	PhaseCancelled              // Stopped early by the user
	PhaseAborted                // Session vanished from the store; nothing recorded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	case PhaseCancelled:
		return "cancelled"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled || p == PhaseAborted
}

// Decision is the answer to a pause prompt.
type Decision int

const (
	DecisionResume Decision = iota
	DecisionStop
)

func (d Decision) String() string {
	if d == DecisionStop {
		return "stop"
	}
	return "resume"
}

// Control errors returned by Engine and Supervisor methods.
var (
	ErrNotRunning      = errors.New("session is not running")
	ErrNotPaused       = errors.New("session is not paused")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrFinished        = errors.New("session already finished")
	ErrNoActiveSession = errors.New("no active session")
)
