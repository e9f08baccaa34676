package appstate

// Action is a closed set of state-changing intents. Only the types in this
// file implement it.
type Action interface {
	actionType() string
}

// SetAuthenticated marks the user as signed in.
type SetAuthenticated struct{}

// SetUnauthenticated marks the user as signed out.
type SetUnauthenticated struct{}

// StartLoading raises the loading flag.
type StartLoading struct{}

// StopLoading clears the loading flag.
type StopLoading struct{}

// SetAvailableTrainings replaces the catalog wholesale.
type SetAvailableTrainings struct {
	Exercises []Exercise
}

// SetFinishedTrainings replaces the history wholesale.
type SetFinishedTrainings struct {
	Records []FinishedRecord
}

// StartTraining starts a session for a catalog entry. It is rejected when a
// session is already active or the id is not in the catalog.
type StartTraining struct {
	ExerciseID string
}

// StopTraining clears the active session.
type StopTraining struct{}

func (SetAuthenticated) actionType() string      { return "[Auth] Set Authenticated" }
func (SetUnauthenticated) actionType() string    { return "[Auth] Set Unauthenticated" }
func (StartLoading) actionType() string          { return "[UI] Start Loading" }
func (StopLoading) actionType() string           { return "[UI] Stop Loading" }
func (SetAvailableTrainings) actionType() string { return "[Training] Set Available Trainings" }
func (SetFinishedTrainings) actionType() string  { return "[Training] Set Finished Trainings" }
func (StartTraining) actionType() string         { return "[Training] Start Training" }
func (StopTraining) actionType() string          { return "[Training] Stop Training" }

// TypeOf returns the display name of an action, e.g. "[UI] Start Loading".
func TypeOf(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionType()
}
