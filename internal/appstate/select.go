package appstate

import (
	"context"
	"slices"
	"strconv"
	"strings"
)

// Select returns project applied to the current state.
func Select[T any](s *Store, project func(State) T) T {
	return project(s.State())
}

// Watch emits project(state) now and again whenever it changes according
// to equal. The channel is closed when ctx is done. Intermediate values may
// be skipped if the reader is slow; older values never follow newer ones.
func Watch[T any](ctx context.Context, s *Store, project func(State) T, equal func(a, b T) bool) <-chan T {
	out := make(chan T)
	sub := s.Subscribe()

	go func() {
		defer close(out)
		defer sub.Cancel()

		var (
			last T
			sent bool
		)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-sub.C():
				if !ok {
					return
				}
				v := project(snap.State)
				if sent && equal(last, v) {
					continue
				}
				select {
				case out <- v:
					last, sent = v, true
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Selectors.

func IsAuth(s State) bool { return s.Auth.IsAuthenticated }

func IsLoading(s State) bool { return s.UI.IsLoading }

func AvailableExercises(s State) []Exercise { return s.Training.Catalog }

func FinishedExercises(s State) []FinishedRecord { return s.Training.History }

func ActiveTraining(s State) *Session { return s.Training.ActiveSession }

func IsTraining(s State) bool { return s.Training.ActiveSession != nil }

// FindExercise looks up a catalog entry by id.
func FindExercise(s State, id string) (Exercise, bool) {
	i := slices.IndexFunc(s.Training.Catalog, func(ex Exercise) bool { return ex.ID == id })
	if i < 0 {
		return Exercise{}, false
	}
	return s.Training.Catalog[i], true
}

// FilterHistory returns a selector over history records, newest first,
// keeping records where any column contains query (case-insensitive). An
// empty query keeps everything.
func FilterHistory(query string) func(State) []FinishedRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(s State) []FinishedRecord {
		out := make([]FinishedRecord, 0, len(s.Training.History))
		for _, r := range s.Training.History {
			if q == "" || strings.Contains(recordText(r), q) {
				out = append(out, r)
			}
		}
		slices.SortStableFunc(out, func(a, b FinishedRecord) int {
			return b.Date.Compare(a.Date)
		})
		return out
	}
}

// recordText concatenates the searchable columns of r in lower case.
func recordText(r FinishedRecord) string {
	return strings.ToLower(strings.Join([]string{
		r.Date.Format("Jan 02, 2006"),
		r.Name,
		strconv.FormatFloat(r.Duration, 'f', -1, 64),
		strconv.FormatFloat(r.Calories, 'f', -1, 64),
		string(r.State),
	}, " "))
}
