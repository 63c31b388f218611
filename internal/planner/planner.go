// Package planner turns a screenshot and a natural-language intent into a
// plan of backend actions by asking a language model.
package planner

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/coords"
	"github.com/mj1618/desktop-pilot/internal/model"
)

// Planner produces a plan for an intent given the current screen.
type Planner interface {
	Plan(ctx context.Context, snapshot []byte, intent string) (model.Plan, error)
}

// New creates the planner named by cfg.Provider. The tool catalog is
// described to the model so it only proposes tools the endpoint offers.
func New(cfg config.PlannerConfig, tools []backend.ToolInfo, logger *slog.Logger) (Planner, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch cfg.Provider {
	case "", "anthropic", "claude":
		return NewClaude(cfg.Anthropic, tools, logger)
	case "openai", "gpt":
		return NewOpenAI(cfg.OpenAI, tools, logger)
	default:
		return nil, fmt.Errorf("unknown planner provider: %s (supported: anthropic, openai)", cfg.Provider)
	}
}

// snapshotImage returns the media type and base64 payload of a snapshot.
func snapshotImage(snapshot []byte) (mediaType, data string, err error) {
	_, _, format, err := coords.SnapshotSize(snapshot)
	if err != nil {
		return "", "", fmt.Errorf("snapshot: %w", err)
	}
	return "image/" + format, base64.StdEncoding.EncodeToString(snapshot), nil
}

func userText(intent string) string {
	return "User intent: " + intent
}
