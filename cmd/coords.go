package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/coords"
	"github.com/mj1618/desktop-pilot/internal/output"
	"github.com/spf13/cobra"
)

// coordsReport is the output of the coords command.
type coordsReport struct {
	System    *coords.System `yaml:"system"              json:"system"`
	Points    []pointMapping `yaml:"points,omitempty"    json:"points,omitempty"`
	Annotated string         `yaml:"annotated,omitempty" json:"annotated,omitempty"`
}

type pointMapping struct {
	Snapshot [2]float64   `yaml:"snapshot,flow" json:"snapshot"`
	Device   coords.Point `yaml:"device"        json:"device"`
}

var coordsCmd = &cobra.Command{
	Use:   "coords [x,y ...]",
	Short: "Show how screenshot coordinates map to the screen",
	Long: `Measure the coordinate system (screen size versus screenshot size) and
optionally map screenshot points to screen points.

With --mark and --output, a fresh screenshot is saved with a crosshair at the
marked point and a label showing where it lands on the screen.

Examples:
  desktop-pilot coords
  desktop-pilot coords 100,200 640,400
  desktop-pilot coords --mark 320,240 --output /tmp/mark.png`,
	RunE: runCoords,
}

func init() {
	rootCmd.AddCommand(coordsCmd)
	coordsCmd.Flags().String("mark", "", "Screenshot point to mark, as x,y")
	coordsCmd.Flags().String("output", "", "Write the marked screenshot to this PNG file (requires --mark)")
	coordsCmd.Flags().Bool("dry-run", false, "Measure a simulated desktop")
}

func runCoords(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	mark, _ := cmd.Flags().GetString("mark")
	outPath, _ := cmd.Flags().GetString("output")
	if (mark == "") != (outPath == "") {
		return fmt.Errorf("--mark and --output must be used together")
	}

	points := make([][2]float64, 0, len(args))
	for _, a := range args {
		x, y, err := parsePoint(a)
		if err != nil {
			return err
		}
		points = append(points, [2]float64{x, y})
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	c, err := connectBackend(ctx, cfg.Backend, dryRun, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	mapper := coords.NewMapper(c, coords.WithLogger(logger.With("component", "coords")))
	sys, err := mapper.System(ctx)
	if err != nil {
		return err
	}
	report := coordsReport{System: sys}
	for _, p := range points {
		report.Points = append(report.Points, pointMapping{Snapshot: p, Device: sys.Normalize(p[0], p[1])})
	}

	if mark != "" {
		x, y, err := parsePoint(mark)
		if err != nil {
			return err
		}
		snapshot, err := c.CaptureSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("capture screen: %w", err)
		}
		if err := writeMarked(snapshot, sys, int(x), int(y), outPath); err != nil {
			return err
		}
		report.Annotated = outPath
	}
	return output.Print(report)
}

func writeMarked(snapshot []byte, sys *coords.System, x, y int, path string) error {
	img, _, err := image.Decode(bytes.NewReader(snapshot))
	if err != nil {
		return fmt.Errorf("decode screenshot: %w", err)
	}
	marked := coords.Annotate(img, sys, x, y)
	var buf bytes.Buffer
	if err := png.Encode(&buf, marked); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q (use x,y)", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("invalid point %q (use x,y)", s)
	}
	return x, y, nil
}
