// Package pgstore is the PostgreSQL backend. Change feeds ride on
// LISTEN/NOTIFY; the schema installs a trigger per collection table.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/store"
)

// Channel is the NOTIFY channel the triggers publish on.
const Channel = "fitrack_changes"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a pgxpool.Pool and implements store.Backend.
type DB struct {
	Pool *pgxpool.Pool

	hub    *store.Hub
	log    *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var _ store.Backend = (*DB)(nil)

// New creates a DB with a connection pool and starts the change listener.
// Migrations are not applied; call RunMigrations first.
func New(ctx context.Context, dsn string, log *slog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	lctx, cancel := context.WithCancel(context.Background())
	db := &DB{Pool: pool, hub: store.NewHub(), log: log, cancel: cancel}
	db.wg.Add(1)
	go db.listen(lctx)
	return db, nil
}

// Close stops the listener and watches and closes the pool.
func (db *DB) Close() error {
	db.once.Do(func() {
		db.cancel()
		db.wg.Wait()
		db.hub.CancelAll()
		db.Pool.Close()
	})
	return nil
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

const (
	listenBackoffMin = 250 * time.Millisecond
	listenBackoffMax = 30 * time.Second
)

// listen holds one pool connection in LISTEN and reconnects with
// exponential backoff. Every reconnect nudges all collections since
// notifications sent while disconnected are lost.
func (db *DB) listen(ctx context.Context) {
	defer db.wg.Done()
	reconnect(ctx, listenBackoffMin, listenBackoffMax, db.listenOnce, func(err error, retryIn time.Duration) {
		db.log.Warn("change listener disconnected", "error", err, "retry_in", retryIn)
	})
}

// reconnect runs attempt until ctx ends. The wait between attempts doubles
// up to maxWait and drops back to minWait once an attempt calls ready.
func reconnect(ctx context.Context, minWait, maxWait time.Duration,
	attempt func(ctx context.Context, resync bool, ready func()) error,
	dropped func(err error, retryIn time.Duration),
) {
	backoff := minWait
	first := true
	for ctx.Err() == nil {
		err := attempt(ctx, !first, func() { backoff = minWait })
		first = false
		if ctx.Err() != nil {
			return
		}
		dropped(err, backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxWait)
	}
}

func (db *DB) listenOnce(ctx context.Context, resync bool, ready func()) error {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	ready()
	if resync {
		db.hub.Nudge(store.CollectionExercises)
		db.hub.Nudge(store.CollectionFinished)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		switch n.Payload {
		case store.CollectionExercises, store.CollectionFinished:
			db.hub.Nudge(n.Payload)
		default:
			db.log.Debug("ignoring notification", "payload", n.Payload)
		}
	}
}

// ListExercises returns the catalog in stored order.
func (db *DB) ListExercises(ctx context.Context) ([]appstate.Exercise, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, name, duration, calories
		FROM available_exercises
		ORDER BY position
	`)
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
	return out, rows.Err()
}

// PutExercises replaces the whole catalog in one transaction.
func (db *DB) PutExercises(ctx context.Context, exercises []appstate.Exercise) error {
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM available_exercises`); err != nil {
			return fmt.Errorf("clear exercises: %w", err)
		}
		batch := &pgx.Batch{}
		for i, e := range exercises {
			batch.Queue(`
				INSERT INTO available_exercises (id, position, name, duration, calories)
				VALUES ($1, $2, $3, $4, $5)
			`, e.ID, i, e.Name, e.Duration, e.Calories)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert exercises: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.hub.Nudge(store.CollectionExercises)
	return nil
}

// WatchExercises delivers the catalog now and after every change.
func (db *DB) WatchExercises(ctx context.Context, fn func([]appstate.Exercise, error)) (store.Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("watch exercises: nil callback")
	}
	return db.hub.Watch(ctx, store.CollectionExercises, func(ctx context.Context) {
		list, err := db.ListExercises(ctx)
		if ctx.Err() != nil {
			return
		}
		fn(list, err)
	}), nil
}

// AddFinished appends rec to the history and returns the stored record.
func (db *DB) AddFinished(ctx context.Context, rec appstate.FinishedRecord) (appstate.FinishedRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO finished_exercises (id, exercise_id, name, duration, calories, date_ms, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.ExerciseID, rec.Name, rec.Duration, rec.Calories, rec.Date.UnixMilli(), string(rec.State))
	if err != nil {
		return appstate.FinishedRecord{}, fmt.Errorf("insert finished exercise: %w", err)
	}
	db.hub.Nudge(store.CollectionFinished)
	return rec, nil
}

// ListFinished returns the history oldest first.
func (db *DB) ListFinished(ctx context.Context) ([]appstate.FinishedRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, exercise_id, name, duration, calories, date_ms, state
		FROM finished_exercises
		ORDER BY date_ms, id
	`)
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
	return out, rows.Err()
}

// WatchFinished delivers the history now and after every append.
func (db *DB) WatchFinished(ctx context.Context, fn func([]appstate.FinishedRecord, error)) (store.Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("watch finished exercises: nil callback")
	}
	return db.hub.Watch(ctx, store.CollectionFinished, func(ctx context.Context) {
		list, err := db.ListFinished(ctx)
		if ctx.Err() != nil {
			return
		}
		fn(list, err)
	}), nil
}
