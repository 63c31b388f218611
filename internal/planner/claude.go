package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/model"
)

// Claude plans with Anthropic's Messages API.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	system    string
	logger    *slog.Logger
}

// NewClaude creates a Claude planner. The API key is required.
func NewClaude(cfg config.AnthropicConfig, tools []backend.ToolInfo, logger *slog.Logger) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is required for the anthropic planner")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	m := cfg.Model
	if m == "" {
		m = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Claude{
		client:    anthropic.NewClient(opts...),
		model:     m,
		maxTokens: int64(maxTokens),
		system:    SystemPrompt(tools),
		logger:    logger,
	}, nil
}

// Plan sends the snapshot and intent to Claude and parses the reply.
func (p *Claude) Plan(ctx context.Context, snapshot []byte, intent string) (model.Plan, error) {
	var content []anthropic.ContentBlockParamUnion
	if len(snapshot) > 0 {
		mediaType, data, err := snapshotImage(snapshot)
		if err != nil {
			return nil, err
		}
		content = append(content, anthropic.NewImageBlockBase64(mediaType, data))
	}
	content = append(content, anthropic.NewTextBlock(userText(intent)))

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: p.system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(content...),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}

	var reply string
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply = block.Text
			break
		}
	}
	if reply == "" {
		return nil, errors.New("claude: empty response")
	}
	p.logger.Debug("planner reply", "provider", "anthropic", "model", p.model, "reply", reply)

	plan, err := ParsePlan(reply)
	if err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}
	return plan, nil
}
