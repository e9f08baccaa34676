package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// DefaultPollInterval is how often the store checks for commits made by
// other processes.
const DefaultPollInterval = 2 * time.Second

// Store is the SQLite document store.
type Store struct {
	db     *sql.DB
	drv    *entsql.Driver
	hub    *Hub
	log    *slog.Logger
	poll   time.Duration
	stop   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

var _ Backend = (*Store)(nil)

// Option configures Open.
type Option func(*Store)

// WithPollInterval sets the cross-process change detection interval. Zero
// disables polling; in-process writes still notify watchers.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) { s.poll = d }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs auto-migration.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps pragmas and data_version consistent.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	s := &Store{
		db:   db,
		drv:  drv,
		hub:  NewHub(),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		poll: DefaultPollInterval,
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.poll > 0 {
		s.wg.Add(1)
		go s.pollLoop()
	}
	return s, nil
}

func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close stops all watches and closes the database connection.
func (s *Store) Close() error {
	var err error
	s.closed.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.hub.CancelAll()
		err = s.drv.Close()
	})
	return err
}

// pollLoop nudges every watcher when PRAGMA data_version changes, which
// happens when another connection commits.
func (s *Store) pollLoop() {
	defer s.wg.Done()

	t := time.NewTicker(s.poll)
	defer t.Stop()

	last, err := s.dataVersion()
	if err != nil {
		s.log.Warn("read data_version", "error", err)
	}
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			v, err := s.dataVersion()
			if err != nil {
				s.log.Warn("read data_version", "error", err)
				continue
			}
			if v != last {
				last = v
				s.hub.Nudge(CollectionExercises)
				s.hub.Nudge(CollectionFinished)
			}
		}
	}
}

func (s *Store) dataVersion() (int64, error) {
	var v int64
	err := s.db.QueryRow("PRAGMA data_version").Scan(&v)
	return v, err
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. FITRACK_DB environment variable
// 2. $XDG_DATA_HOME/fitrack/fitrack.db
// 3. ~/.local/share/fitrack/fitrack.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("FITRACK_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "fitrack.db")
	return p, EnsureDir(p)
}

// DataDir returns the fitrack data directory without creating it.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "fitrack"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
