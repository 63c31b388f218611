package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/logging"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/mj1618/desktop-pilot/internal/version"
	"github.com/spf13/cobra"
)

var (
	// cfg and logger are populated by the root command before any
	// subcommand runs.
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "desktop-pilot",
	Short: "Turn natural-language intents into desktop input actions",
	Long: `desktop-pilot plans desktop actions from a screenshot and an intent, then
executes them in order against an MCP automation endpoint, mapping screenshot
coordinates to screen coordinates on the way.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", "", "Config file (default: $XDG_CONFIG_HOME/desktop-pilot/config.yaml)")
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json (overrides LOG_FORMAT)")
	rootCmd.PersistentPreRunE = setup
}

// setup loads configuration, applies root flag overrides and builds the
// logger. Logs always go to stderr; stdout carries results and, for
// serve, the stdio transport.
func setup(cmd *cobra.Command, args []string) error {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := rootCmd.PersistentFlags().GetString("log-level"); lvl != "" {
		loaded.Log.Level = lvl
	}
	if f, _ := rootCmd.PersistentFlags().GetString("log-format"); f != "" {
		loaded.Log.Format = f
	}
	cfg = loaded

	logger, err = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	// Use the root persistent flag directly to avoid conflicts with
	// subcommand local flags (e.g. coords --format png).
	format, _ := rootCmd.PersistentFlags().GetString("format")
	output.OutputFormat, err = output.ParseFormat(format)
	if err != nil {
		return err
	}
	output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
	return nil
}
