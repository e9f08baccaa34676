// Package appstate holds the single authoritative application snapshot and
// the action/reducer machinery that advances it.
package appstate

import "time"

// Exercise is a catalog entry. Identity is ID.
type Exercise struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration int     `json:"duration"` // seconds
	Calories float64 `json:"calories"`
}

// RecordState is the outcome of a finished session.
type RecordState string

const (
	RecordCompleted RecordState = "completed"
	RecordCancelled RecordState = "cancelled"
)

// FinishedRecord is a value snapshot of an exercise at session end. It
// denormalizes the exercise fields so later catalog changes cannot alter it.
type FinishedRecord struct {
	ID         string      `json:"id,omitempty"`
	ExerciseID string      `json:"exerciseId"`
	Name       string      `json:"name"`
	Duration   float64     `json:"duration"` // seconds, scaled on cancel
	Calories   float64     `json:"calories"`
	Date       time.Time   `json:"date"`
	State      RecordState `json:"state"`
}

// Session is the in-progress exercise run. Progress is owned by the timer
// engine, not by the snapshot.
type Session struct {
	ExerciseID      string  `json:"exerciseId"`
	Name            string  `json:"name"`
	DurationSeconds int     `json:"durationSeconds"`
	CaloriesAtFull  float64 `json:"caloriesAtFull"`
}

// Duration returns the nominal session length.
func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// AuthState is the auth slice.
type AuthState struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// UIState is the UI slice.
type UIState struct {
	IsLoading bool `json:"isLoading"`
}

// TrainingState is the training slice. Slices are never mutated in place
// once they belong to a snapshot.
type TrainingState struct {
	Catalog       []Exercise       `json:"catalog"`
	ActiveSession *Session         `json:"activeSession"`
	History       []FinishedRecord `json:"history"`
}

// State is the composed application state.
type State struct {
	Auth     AuthState     `json:"auth"`
	UI       UIState       `json:"ui"`
	Training TrainingState `json:"training"`
}

// Snapshot is one immutable State at a point in the dispatch order.
type Snapshot struct {
	Version uint64 `json:"version"`
	State   State  `json:"state"`
}

// InitialState returns the state before any action: unauthenticated, not
// loading, empty catalog and history, no active session.
func InitialState() State {
	return State{
		Training: TrainingState{
			Catalog: []Exercise{},
			History: []FinishedRecord{},
		},
	}
}
