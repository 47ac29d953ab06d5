package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	anthropicBaseURL      = "https://api.anthropic.com"
)

// AnthropicTranslator uses the Anthropic Messages API.
type AnthropicTranslator struct {
	cfg    Config
	client anthropic.Client
}

func NewAnthropicTranslator(cfg Config) *AnthropicTranslator {
	if cfg.Model == "" || cfg.Model == DefaultModel {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, anthropicopt.WithRequestTimeout(cfg.Timeout))
	}
	return &AnthropicTranslator{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
	}
}

func (s *AnthropicTranslator) Name() string {
	return "anthropic"
}

// BaseURL is the configured endpoint, or the SDK's default.
func (s *AnthropicTranslator) BaseURL() string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	return anthropicBaseURL
}

func (s *AnthropicTranslator) Model() string { return s.cfg.Model }

func (s *AnthropicTranslator) TranslateChunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	if len(req.Texts) == 0 {
		return &ChunkResult{}, nil
	}
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key required")
	}
	start := time.Now()

	user := BuildUserPrompt(req.Texts)
	messages := make([]anthropic.MessageParam, 0, 1+2*len(req.History))
	for _, h := range req.History {
		messages = append(messages,
			anthropic.NewUserMessage(anthropic.NewTextBlock(h.Request)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(h.Response)))
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(user)))

	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(s.cfg.Model),
		MaxTokens:   int64(s.cfg.MaxTokens),
		System:      []anthropic.TextBlockParam{{Text: BuildSystemPrompt(s.cfg)}},
		Messages:    messages,
		Temperature: anthropic.Float(s.cfg.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("messages api call: %w", err)
	}
	if len(msg.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}
	content := sb.String()

	return &ChunkResult{
		Translations: ParseResponse(content, req.Texts),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Exchange: &Exchange{Request: user, Response: content},
		Latency:  time.Since(start),
	}, nil
}

func (s *AnthropicTranslator) IsAvailable(ctx context.Context) error {
	if s.cfg.APIKey == "" {
		return fmt.Errorf("anthropic API key not configured")
	}
	return nil
}
