package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/mj1618/desktop-pilot/internal/planner"
	"github.com/mj1618/desktop-pilot/internal/telemetry"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [intent...]",
	Short: "Plan and execute a natural-language intent",
	Long: `Capture the screen, ask the planner for a sequence of actions that
accomplishes the intent, and execute them in order.

Without an intent, run reads intents line by line from stdin until "exit",
"quit" or end of input.

Press Ctrl+C once to stop after the current action, twice to stop now.

Examples:
  desktop-pilot run "open TextEdit and type hello"
  desktop-pilot run --dry-run "open a new Safari tab"
  desktop-pilot run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Drive a simulated desktop instead of the real one")
	runCmd.Flags().String("provider", "", "Planner provider: anthropic, openai (default from config)")
	runCmd.Flags().String("model", "", "Planner model (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer shutdown(context.Background())

	pc := cfg.Planner
	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		pc.Provider = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		pc.Anthropic.Model = v
		pc.OpenAI.Model = v
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	c, err := connectBackend(ctx, cfg.Backend, dryRun, logger)
	if err != nil {
		return err
	}
	s := newSession(c, cfg.Engine, cfg.Coordinates, logger, os.Stderr)
	defer s.close()

	s.planner, err = planner.New(pc, c.Tools(), logger.With("component", "planner"))
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return s.interactive(ctx, os.Stdin, os.Stderr)
	}
	summary, err := s.runIntent(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := output.Print(summary); err != nil {
		return err
	}
	if !summary.OK() {
		return errRunFailed
	}
	return nil
}
