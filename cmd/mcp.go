package cmd

import (
	"os"

	"github.com/spf13/cobra"

	fitmcp "github.com/abhisek/fitrack/internal/mcp"
	"github.com/abhisek/fitrack/internal/notify"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve Model Context Protocol tools over stdio",
	Long:  "Speaks MCP on stdin/stdout; logs go to stderr.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(os.Stderr, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		backend, err := openBackend(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer backend.Close()

		c, stop := startCore(ctx, cfg, backend, notify.NewLog(log), log)
		defer stop()

		return fitmcp.ServeStdio(fitmcp.New(c, buildVersion(), log.With("component", "mcp")))
	},
}
