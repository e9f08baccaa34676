package appstate

import "slices"

// Reduce applies one action to s and returns the next state. It never
// modifies s; unchanged slices are shared with the previous state.
func Reduce(s State, a Action) State {
	return State{
		Auth:     reduceAuth(s.Auth, a),
		UI:       reduceUI(s.UI, a),
		Training: reduceTraining(s.Training, a),
	}
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a.(type) {
	case SetAuthenticated:
		return AuthState{IsAuthenticated: true}
	case SetUnauthenticated:
		return AuthState{IsAuthenticated: false}
	}
	return s
}

// reduceUI keeps a single last-writer-wins flag; overlapping fetches are
// not counted.
func reduceUI(s UIState, a Action) UIState {
	switch a.(type) {
	case StartLoading:
		return UIState{IsLoading: true}
	case StopLoading:
		return UIState{IsLoading: false}
	}
	return s
}

func reduceTraining(s TrainingState, a Action) TrainingState {
	switch a := a.(type) {
	case SetAvailableTrainings:
		s.Catalog = cloneOrEmpty(a.Exercises)
	case SetFinishedTrainings:
		s.History = cloneOrEmpty(a.Records)
	case StartTraining:
		if s.ActiveSession != nil {
			return s
		}
		i := slices.IndexFunc(s.Catalog, func(ex Exercise) bool { return ex.ID == a.ExerciseID })
		if i < 0 {
			return s
		}
		ex := s.Catalog[i]
		s.ActiveSession = &Session{
			ExerciseID:      ex.ID,
			Name:            ex.Name,
			DurationSeconds: ex.Duration,
			CaloriesAtFull:  ex.Calories,
		}
	case StopTraining:
		s.ActiveSession = nil
	}
	return s
}

// cloneOrEmpty copies in so the caller cannot mutate a snapshot through its
// own slice. A nil input becomes an empty slice.
func cloneOrEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
