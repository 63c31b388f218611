// Package output prints command results as YAML or JSON and renders
// per-action progress lines for interactive runs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/model"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use yaml or json)", s)
	}
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	return Fprint(os.Stdout, v)
}

// Fprint serializes v to w in the current output format.
func Fprint(w io.Writer, v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return writeJSON(w, v, PrettyOutput)
	case FormatYAML:
		return writeYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	return writeJSON(os.Stdout, v, false)
}

// PrintPrettyJSON serializes v to stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	return writeJSON(os.Stdout, v, true)
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	return writeYAML(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// OutcomeLine renders one action outcome as a single progress line, e.g.
// "[2/5] ok    Type the URL (140ms)".
func OutcomeLine(o model.ActionOutcome, total int) string {
	mark := "ok"
	switch o.Status {
	case model.StatusFailure:
		mark = "FAIL"
	case model.StatusSkipped:
		mark = "skip"
	}
	line := fmt.Sprintf("[%d/%d] %-5s %s", o.Index+1, total, mark, o.Action.Label())
	if o.Status != model.StatusSkipped {
		line += fmt.Sprintf(" (%dms)", o.ElapsedMs)
	}
	if o.Status == model.StatusFailure {
		line += fmt.Sprintf(": %s: %s", o.ErrorKind, o.Error)
	}
	return line
}

// SummaryLine renders the totals of a run.
func SummaryLine(s *model.RunSummary) string {
	line := fmt.Sprintf("%d/%d succeeded, %d failed, %d skipped in %dms",
		s.Succeeded, s.Total, s.Failed, s.Skipped, s.ElapsedMs)
	if s.Aborted {
		line += fmt.Sprintf(" (aborted: %s)", s.AbortReason)
	}
	return line
}
