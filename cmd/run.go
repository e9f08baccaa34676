package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/fitrack/internal/app"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the terminal app (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// runApp opens the store, starts the runtime, and launches the TUI. Logs go
// to a file in the data directory so they don't draw over the UI.
func runApp(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()
	log, err := newLogger(logFile, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer cancel()

	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	queue := notify.NewQueue(8)
	c, stop := startCore(ctx, cfg, backend, notify.Multi{queue, notify.NewLog(log)}, log)
	defer stop()

	if err := app.Run(ctx, c, queue.C()); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

func openLogFile() (*os.File, error) {
	dir, err := store.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "fitrack.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
