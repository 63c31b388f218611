package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/mj1618/desktop-pilot/internal/telemetry"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errRunFailed makes the process exit non-zero after the summary has
// been printed.
var errRunFailed = errors.New("run did not complete successfully")

var execCmd = &cobra.Command{
	Use:   "exec [plan-file]",
	Short: "Execute a plan from a YAML or JSON file",
	Long: `Execute a prepared plan without the planner. The plan is read from the
file argument, or from stdin when no file (or "-") is given.

Each step is either a full action or a one-key shorthand:

  - name: openApplication
    args: { appName: TextEdit }
    description: Open TextEdit
  - wait: { ms: 2000 }
  - typeText: { text: "hello" }
  - executeShortcut: { action: save }

Coordinates are in screenshot pixels and are mapped to the screen.

Example:
  desktop-pilot exec --dry-run plan.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().Bool("dry-run", false, "Drive a simulated desktop instead of the real one")
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read plan: %w", err)
	}
	plan, err := parsePlanDocument(data)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer shutdown(context.Background())

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	c, err := connectBackend(ctx, cfg.Backend, dryRun, logger)
	if err != nil {
		return err
	}
	s := newSession(c, cfg.Engine, cfg.Coordinates, logger, os.Stderr)
	defer s.close()

	summary, err := s.executePlan(ctx, plan)
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

// parsePlanDocument reads a YAML (or JSON) list of steps. A step with a
// name or tool key is a full action; any other single-key map is the
// shorthand "tool: args".
func parsePlanDocument(data []byte) (model.Plan, error) {
	var steps []map[string]interface{}
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}

	plan := make(model.Plan, 0, len(steps))
	for i, step := range steps {
		action, err := stepToAction(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		plan = append(plan, action)
	}
	return plan, nil
}

func stepToAction(step map[string]interface{}) (model.Action, error) {
	_, hasName := step["name"]
	_, hasTool := step["tool"]
	if hasName || hasTool {
		a := model.Action{
			Name:        stringParam(step, "name", stringParam(step, "tool", "")),
			Description: stringParam(step, "description", ""),
		}
		args, err := argsParam(step, "args")
		if err != nil {
			return model.Action{}, err
		}
		if args == nil {
			if args, err = argsParam(step, "arguments"); err != nil {
				return model.Action{}, err
			}
		}
		a.Arguments = args
		return a, nil
	}

	if len(step) != 1 {
		return model.Action{}, fmt.Errorf("expected a name key or exactly one tool key, got %d keys", len(step))
	}
	for name, v := range step {
		if v == nil {
			return model.Action{Name: name}, nil
		}
		args, ok := v.(map[string]interface{})
		if !ok {
			return model.Action{}, fmt.Errorf("%s: arguments must be a map, got %T", name, v)
		}
		return model.Action{Name: name, Arguments: args}, nil
	}
	return model.Action{}, nil
}

func argsParam(step map[string]interface{}, key string) (map[string]interface{}, error) {
	v, ok := step[key]
	if !ok || v == nil {
		return nil, nil
	}
	args, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be a map, got %T", key, v)
	}
	return args, nil
}
