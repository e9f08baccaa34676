package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/fitrack/internal/config"
	"github.com/abhisek/fitrack/internal/core"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/store"
	"github.com/abhisek/fitrack/internal/store/pgstore"
)

var rootCmd = &cobra.Command{
	Use:   "fitrack",
	Short: "Timed workout tracker",
	Long:  "Fitrack: pick an exercise, follow the timer, and keep a history of finished trainings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/fitrack/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides FITRACK_DB env var)")
	rootCmd.PersistentFlags().String("backend", "", "Store backend: sqlite or postgres")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// loadConfig reads the config file and applies flag overrides, which take
// precedence over the file and FITRACK_* env vars.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if b, _ := cmd.Flags().GetString("backend"); b != "" {
		switch b {
		case config.BackendSQLite, config.BackendPostgres:
			cfg.Store.Backend = b
		default:
			return nil, fmt.Errorf("unknown backend %q", b)
		}
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		if _, err := config.ParseLevel(l); err != nil {
			return nil, err
		}
		cfg.Log.Level = l
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.SQLite.Path = p
	}
	return cfg, nil
}

// newLogger builds a text logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// resolveDBPath returns the SQLite path using --db / config (highest
// priority), then FITRACK_DB env var, then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Store.SQLite.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openBackend opens the configured document store.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		dsn := cfg.Store.Postgres.DSN()
		if err := pgstore.RunMigrations(dsn); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		db, err := pgstore.New(ctx, dsn, log.With("component", "pgstore"))
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	default:
		dbPath, err := resolveDBPath(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath,
			store.WithPollInterval(cfg.Store.SQLite.PollInterval),
			store.WithLogger(log.With("component", "store")))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	}
}

// startCore builds a Core on backend and runs it in the background. stop
// ends the runtime and waits for it; it does not close the backend.
func startCore(ctx context.Context, cfg *config.Config, backend store.Backend, n notify.Notifier, log *slog.Logger) (c *core.Core, stop func()) {
	c = core.New(core.Options{
		Backend:        backend,
		Notifier:       n,
		Logger:         log,
		NotifyDuration: cfg.Notify.Duration,
	})

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Run(ctx); err != nil {
			log.Error("runtime stopped", "error", err)
		}
	}()
	return c, func() {
		cancel()
		<-done
	}
}
