package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/mj1618/desktop-pilot/internal/model"
)

// OpenAI plans with the chat completions API.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	system    string
	logger    *slog.Logger
}

// NewOpenAI creates an OpenAI planner. The API key is required.
func NewOpenAI(cfg config.OpenAIConfig, tools []backend.ToolInfo, logger *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required for the openai planner")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = "gpt-4o"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     m,
		maxTokens: maxTokens,
		system:    SystemPrompt(tools),
		logger:    logger,
	}, nil
}

// Plan sends the snapshot and intent to the model and parses the reply.
func (p *OpenAI) Plan(ctx context.Context, snapshot []byte, intent string) (model.Plan, error) {
	var parts []openai.ChatMessagePart
	if len(snapshot) > 0 {
		mediaType, data, err := snapshotImage(snapshot)
		if err != nil {
			return nil, err
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + mediaType + ";base64," + data,
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: userText(intent),
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: p.system,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty response")
	}

	reply := resp.Choices[0].Message.Content
	p.logger.Debug("planner reply", "provider", "openai", "model", p.model, "reply", reply)

	plan, err := ParsePlan(reply)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return plan, nil
}
