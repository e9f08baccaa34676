package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/fitrack/internal/appstate"
)

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// ListExercises returns the catalog in stored order.
func (s *Store) ListExercises(ctx context.Context) ([]appstate.Exercise, error) {
	query, args := builder().
		Select("id", "name", "duration", "calories").
		From(entsql.Table(exercisesTable)).
		OrderBy(entsql.Asc("position")).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	out := make([]appstate.Exercise, 0)
	for rows.Next() {
		var e appstate.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Duration, &e.Calories); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercises: %w", err)
	}
	return out, nil
}

// PutExercises replaces the whole catalog in one transaction.
func (s *Store) PutExercises(ctx context.Context, exercises []appstate.Exercise) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query, args := builder().Delete(exercisesTable).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear exercises: %w", err)
		}
		if len(exercises) == 0 {
			return nil
		}

		ins := builder().Insert(exercisesTable).Columns("id", "position", "name", "duration", "calories")
		for i, e := range exercises {
			ins.Values(e.ID, i, e.Name, e.Duration, e.Calories)
		}
		query, args = ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert exercises: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Nudge(CollectionExercises)
	return nil
}

// WatchExercises delivers the catalog now and after every change.
func (s *Store) WatchExercises(ctx context.Context, fn func([]appstate.Exercise, error)) (Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("watch exercises: nil callback")
	}
	w := s.hub.Watch(ctx, CollectionExercises, func(ctx context.Context) {
		list, err := s.ListExercises(ctx)
		if ctx.Err() != nil {
			return
		}
		fn(list, err)
	})
	return w, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
