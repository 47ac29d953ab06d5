package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultOllamaModel = "qwen2.5:7b"

// OllamaTranslator uses a local Ollama server's /api/chat endpoint.
type OllamaTranslator struct {
	cfg     Config
	baseURL string
	client  *http.Client
}

func NewOllamaTranslator(cfg Config) *OllamaTranslator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if cfg.Model == "" || cfg.Model == DefaultModel {
		cfg.Model = DefaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &OllamaTranslator{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *OllamaTranslator) Name() string {
	return "ollama"
}

func (s *OllamaTranslator) BaseURL() string { return s.baseURL }

func (s *OllamaTranslator) Model() string { return s.cfg.Model }

func (s *OllamaTranslator) TranslateChunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	if len(req.Texts) == 0 {
		return &ChunkResult{}, nil
	}
	start := time.Now()

	user := BuildUserPrompt(req.Texts)
	ollamaReq := map[string]interface{}{
		"model":    s.cfg.Model,
		"messages": buildMessages(BuildSystemPrompt(s.cfg), req.History, user),
		"stream":   false,
		"options":  map[string]interface{}{"temperature": s.cfg.Temperature},
	}

	jsonData, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var ollamaResp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		PromptEvalCount int `json:"prompt_eval_count"`
		EvalCount       int `json:"eval_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	content := ollamaResp.Message.Content
	return &ChunkResult{
		Translations: ParseResponse(content, req.Texts),
		Usage:        Usage{InputTokens: ollamaResp.PromptEvalCount, OutputTokens: ollamaResp.EvalCount},
		CostKnown:    true,
		Exchange:     &Exchange{Request: user, Response: content},
		Latency:      time.Since(start),
	}, nil
}

func (s *OllamaTranslator) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("Ollama not available: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}
