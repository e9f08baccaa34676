package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/fitrack/internal/appstate"
	"github.com/abhisek/fitrack/internal/auth"
	"github.com/abhisek/fitrack/internal/notify"
	"github.com/abhisek/fitrack/internal/session"
)

const catalogWait = 10 * time.Second

var trainCmd = &cobra.Command{
	Use:   "train <exercise-id>",
	Short: "Run a training session in the terminal without the UI",
	Long: "Runs one exercise with a progress line. Ctrl+C pauses the timer and asks\n" +
		"whether to resume or stop; stopping records the progress reached.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(os.Stderr, cfg)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")

		ctx := cmd.Context()
		backend, err := openBackend(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer backend.Close()

		c, stop := startCore(ctx, cfg, backend, notify.NewLog(log), log)
		defer stop()

		if _, err := c.Login(ctx, auth.Credentials{Email: email, Password: "local"}); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		wctx, cancel := context.WithTimeout(ctx, catalogWait)
		err = c.WaitFor(wctx, func(s appstate.State) bool {
			return !appstate.IsLoading(s) && len(appstate.AvailableExercises(s)) > 0
		})
		cancel()
		if err != nil {
			return fmt.Errorf("load exercises: %w", err)
		}

		e, err := c.StartTraining(ctx, args[0])
		if err != nil {
			return err
		}
		return follow(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), e)
	},
}

func init() {
	trainCmd.Flags().String("email", "local@fitrack", "Email to sign in with")
}

// follow prints progress until e finishes. SIGINT pauses e and prompts for
// a decision on in.
func follow(out io.Writer, in *bufio.Reader, e *session.Engine) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-e.Done():
			fmt.Fprintln(out)
			return printResult(out, e)
		case <-ticker.C:
			printProgress(out, e.Status())
		case <-sig:
			progress, err := e.Pause()
			if err != nil {
				// Finished between the signal and the pause.
				continue
			}
			d := prompt(out, in, progress)
			drain(sig)
			if err := e.Decide(d); err != nil {
				return err
			}
		}
	}
}

// drain drops interrupts that arrived while the prompt was open.
func drain(sig <-chan os.Signal) {
	for {
		select {
		case <-sig:
		default:
			return
		}
	}
}

func printProgress(out io.Writer, st session.Status) {
	const width = 30
	filled := st.Progress * width / session.Steps
	fmt.Fprintf(out, "\r%s [%s%s] %3d%%  %s left ",
		st.Session.Name,
		strings.Repeat("█", filled), strings.Repeat("░", width-filled),
		st.Progress,
		session.Remaining(st.Session.DurationSeconds, st.Progress).Round(time.Second))
}

// prompt asks until it reads r/resume or s/stop. EOF means stop.
func prompt(out io.Writer, in *bufio.Reader, progress int) session.Decision {
	for {
		fmt.Fprintf(out, "\nPaused at %d%%. [r]esume or [s]top? ", progress)
		line, err := in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r", "resume":
			return session.DecisionResume
		case "s", "stop":
			return session.DecisionStop
		}
		if err != nil {
			return session.DecisionStop
		}
	}
}

func printResult(out io.Writer, e *session.Engine) error {
	rec, saved, err := e.Result()
	if err != nil {
		return fmt.Errorf("%s: %w", session.SaveFailedMessage, err)
	}
	if !saved {
		fmt.Fprintln(out, "Session ended without a record.")
		return nil
	}
	fmt.Fprintf(out, "%s %s: %.0fs, %.1f kcal\n", rec.Name, rec.State, rec.Duration, rec.Calories)
	return nil
}
