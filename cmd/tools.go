package cmd

import (
	"context"

	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the automation endpoint offers",
	Long: `Connect to the automation endpoint and list its tool catalog. These are the
action names a plan may use.`,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().Bool("dry-run", false, "List the tools of a simulated desktop")
}

func runTools(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	c, err := connectBackend(ctx, cfg.Backend, dryRun, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	return output.Print(c.Tools())
}
