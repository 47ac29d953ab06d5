package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default endpoints of OpenAI-compatible providers.
var openAIBaseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"moonshot":   "https://api.moonshot.cn/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"deepseek":   "https://api.deepseek.com/v1",
}

const DefaultModel = "moonshot-v1-auto"

// Default models of OpenAI-compatible providers. DefaultModel is only sent
// to Moonshot.
var openAIModels = map[string]string{
	"openai":     "gpt-4o-mini",
	"moonshot":   DefaultModel,
	"openrouter": "openai/gpt-4o-mini",
	"deepseek":   "deepseek-chat",
}

// OpenAIChat talks to any /chat/completions endpoint (OpenAI, Moonshot,
// OpenRouter, DeepSeek).
type OpenAIChat struct {
	name    string
	cfg     Config
	baseURL string
	client  *http.Client
}

func NewOpenAIChat(cfg Config) *OpenAIChat {
	name := cfg.Provider
	if name == "" {
		name = "moonshot"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURLs[name]
	}
	if baseURL == "" {
		baseURL = openAIBaseURLs["moonshot"]
	}
	if cfg.Model == "" || (cfg.Model == DefaultModel && name != "moonshot") {
		if m, ok := openAIModels[name]; ok {
			cfg.Model = m
		} else {
			cfg.Model = DefaultModel
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIChat{
		name:    name,
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *OpenAIChat) Name() string {
	return s.name
}

func (s *OpenAIChat) BaseURL() string { return s.baseURL }

func (s *OpenAIChat) Model() string { return s.cfg.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildMessages lays out the system prompt, the replayed history and the
// current request.
func buildMessages(system string, history []Exchange, user string) []chatMessage {
	msgs := make([]chatMessage, 0, 2+2*len(history))
	msgs = append(msgs, chatMessage{Role: "system", Content: system})
	for _, h := range history {
		msgs = append(msgs,
			chatMessage{Role: "user", Content: h.Request},
			chatMessage{Role: "assistant", Content: h.Response})
	}
	return append(msgs, chatMessage{Role: "user", Content: user})
}

func (s *OpenAIChat) TranslateChunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	if len(req.Texts) == 0 {
		return &ChunkResult{}, nil
	}
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required", s.name)
	}
	start := time.Now()

	user := BuildUserPrompt(req.Texts)
	body := chatRequest{
		Model:       s.cfg.Model,
		Messages:    buildMessages(BuildSystemPrompt(s.cfg), req.History, user),
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	if s.name == "openrouter" {
		httpReq.Header.Set("X-Title", "potrans")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	content := chatResp.Choices[0].Message.Content
	return &ChunkResult{
		Translations: ParseResponse(content, req.Texts),
		Usage: Usage{
			InputTokens:  chatResp.Usage.PromptTokens,
			OutputTokens: chatResp.Usage.CompletionTokens,
		},
		Exchange: &Exchange{Request: user, Response: content},
		Latency:  time.Since(start),
	}, nil
}

func (s *OpenAIChat) IsAvailable(ctx context.Context) error {
	if s.cfg.APIKey == "" {
		return fmt.Errorf("%s API key not configured", s.name)
	}
	return nil
}
