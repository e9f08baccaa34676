package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/fitrack/internal/appstate"
)

// AddFinished appends rec to the history. An empty ID is replaced with a
// new UUID; a zero Date with the current time. The stored record is
// returned.
func (s *Store) AddFinished(ctx context.Context, rec appstate.FinishedRecord) (appstate.FinishedRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}

	query, args := builder().
		Insert(finishedTable).
		Columns("id", "exercise_id", "name", "duration", "calories", "date_ms", "state").
		Values(rec.ID, rec.ExerciseID, rec.Name, rec.Duration, rec.Calories, rec.Date.UnixMilli(), string(rec.State)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return appstate.FinishedRecord{}, fmt.Errorf("insert finished exercise: %w", err)
	}

	s.hub.Nudge(CollectionFinished)
	return rec, nil
}

// ListFinished returns the history oldest first.
func (s *Store) ListFinished(ctx context.Context) ([]appstate.FinishedRecord, error) {
	query, args := builder().
		Select("id", "exercise_id", "name", "duration", "calories", "date_ms", "state").
		From(entsql.Table(finishedTable)).
		OrderBy(entsql.Asc("date_ms"), entsql.Asc("id")).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query finished exercises: %w", err)
	}
	defer rows.Close()

	out := make([]appstate.FinishedRecord, 0)
	for rows.Next() {
		var (
			r      appstate.FinishedRecord
			dateMS int64
			state  string
		)
		if err := rows.Scan(&r.ID, &r.ExerciseID, &r.Name, &r.Duration, &r.Calories, &dateMS, &state); err != nil {
			return nil, fmt.Errorf("scan finished exercise: %w", err)
		}
		r.Date = time.UnixMilli(dateMS)
		r.State = appstate.RecordState(state)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate finished exercises: %w", err)
	}
	return out, nil
}

// WatchFinished delivers the history now and after every append.
func (s *Store) WatchFinished(ctx context.Context, fn func([]appstate.FinishedRecord, error)) (Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("watch finished exercises: nil callback")
	}
	w := s.hub.Watch(ctx, CollectionFinished, func(ctx context.Context) {
		list, err := s.ListFinished(ctx)
		if ctx.Err() != nil {
			return
		}
		fn(list, err)
	})
	return w, nil
}
