package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/desktop-pilot/internal/platform"
	_ "github.com/mj1618/desktop-pilot/internal/platform/darwin"
	"github.com/mj1618/desktop-pilot/internal/platform/dryrun"
	"github.com/mj1618/desktop-pilot/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP automation endpoint",
	Long: `Start a Model Context Protocol (MCP) server that exposes desktop input
primitives (clicks, typing, shortcuts, window focus, screenshots) as tools.
The run and exec commands start this automatically over stdio.

Supported transports:
  stdio             Standard I/O (default)
  streamable-http   Streamable HTTP transport (for remote machines)

Examples:
  desktop-pilot serve
  desktop-pilot serve --transport streamable-http --port 8080
  desktop-pilot serve --dry-run --screen 1440x900@2`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (default from config)")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport (default from config)")
	serveCmd.Flags().Int("cache-ttl", -1, "Window list cache TTL in milliseconds (0 to disable)")
	serveCmd.Flags().Bool("dry-run", false, "Simulate a desktop instead of driving the real one")
	serveCmd.Flags().String("screen", "1440x900@2", "Simulated screen for --dry-run: WIDTHxHEIGHT@SCALE")
}

func runServe(cmd *cobra.Command, args []string) error {
	sc := cfg.Server
	if v, _ := cmd.Flags().GetString("transport"); v != "" {
		sc.Transport = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		sc.Port = v
	}
	if v, _ := cmd.Flags().GetInt("cache-ttl"); v >= 0 {
		sc.CacheTTL = time.Duration(v) * time.Millisecond
	}
	if v, _ := cmd.Flags().GetBool("dry-run"); v {
		sc.DryRun = true
	}

	var provider *platform.Provider
	if sc.DryRun {
		screen, _ := cmd.Flags().GetString("screen")
		w, h, scale, err := parseScreen(screen)
		if err != nil {
			return err
		}
		provider = dryrun.New(w, h, scale).Provider()
		logger.Info("serving simulated desktop", "width", w, "height", h, "scale", scale)
	} else {
		p, err := platform.NewProvider()
		if err != nil {
			return err
		}
		provider = p
	}

	srvCfg := server.Config{
		Transport: sc.Transport,
		Port:      sc.Port,
		CacheTTL:  sc.CacheTTL,
		DryRun:    sc.DryRun,
	}
	srv := server.New(provider, srvCfg, logger.With("component", "server"))
	if err := srv.Serve(srvCfg); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// parseScreen parses WIDTHxHEIGHT or WIDTHxHEIGHT@SCALE.
func parseScreen(s string) (int, int, float64, error) {
	var w, h int
	scale := 1.0
	var err error
	if _, err = fmt.Sscanf(s, "%dx%d@%g", &w, &h, &scale); err != nil {
		scale = 1.0
		if _, err = fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid screen %q (use WIDTHxHEIGHT@SCALE, e.g. 1440x900@2)", s)
		}
	}
	if w <= 0 || h <= 0 || scale <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid screen %q: dimensions and scale must be positive", s)
	}
	return w, h, scale, nil
}
