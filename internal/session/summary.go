package session

import (
	"time"

	"github.com/abhisek/fitrack/internal/appstate"
)

// BuildRecord creates the history entry for a session that ended at
// progress. Full progress yields a completed record with nominal metrics;
// anything less is cancelled with metrics scaled by progress.
func BuildRecord(sess appstate.Session, progress int, now time.Time) appstate.FinishedRecord {
	rec := appstate.FinishedRecord{
		ExerciseID: sess.ExerciseID,
		Name:       sess.Name,
		Date:       now,
	}
	if progress >= Steps {
		rec.Duration = float64(sess.DurationSeconds)
		rec.Calories = sess.CaloriesAtFull
		rec.State = appstate.RecordCompleted
		return rec
	}
	rec.Duration = Scale(float64(sess.DurationSeconds), progress)
	rec.Calories = Scale(sess.CaloriesAtFull, progress)
	rec.State = appstate.RecordCancelled
	return rec
}
