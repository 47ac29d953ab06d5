package translator

import (
	"context"
	"time"
)

// Config selects and parameterises a translation backend.
type Config struct {
	Provider    string        `mapstructure:"provider" json:"provider"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Model       string        `mapstructure:"model" json:"model"`
	Temperature float64       `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" json:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	SourceLang  string        `mapstructure:"source_lang" json:"source_lang"`
	TargetLang  string        `mapstructure:"target_lang" json:"target_lang"`
	// SystemPrompt replaces the built-in instructions when set.
	SystemPrompt string `mapstructure:"system_prompt" json:"system_prompt"`
	// Credentials is a service-account file for Google Cloud Translation.
	Credentials string `mapstructure:"credentials" json:"credentials"`
	// PricePerMillionChars is used by character-billed backends.
	PricePerMillionChars float64 `mapstructure:"price_per_million_chars" json:"price_per_million_chars"`
}

// Usage is the token consumption of one request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Exchange is one earlier request/response pair of the same catalog,
// replayed to keep terminology consistent across chunks.
type Exchange struct {
	Request  string `json:"request"`
	Response string `json:"response"`
}

// ChunkRequest is an ordered batch of unique raw source strings.
type ChunkRequest struct {
	Texts   []string
	History []Exchange
}

// ChunkResult holds one translation per input text, aligned by position.
// An empty string marks an item the backend could not translate. Backends
// may return a different count; callers align the result.
type ChunkResult struct {
	Translations []string
	Usage        Usage
	// Cost is set by backends that know their own price, with CostKnown.
	// Otherwise the caller prices Usage.
	Cost      float64
	CostKnown bool
	// Exchange is the request/response pair to append to the history, nil
	// for backends without conversational context.
	Exchange *Exchange
	Latency  time.Duration
}

// Resolved is implemented by backends that fill in a default endpoint and
// model when Config leaves them empty.
type Resolved interface {
	BaseURL() string
	Model() string
}

// ChunkTranslator translates batches of strings.
type ChunkTranslator interface {
	Name() string
	TranslateChunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error)
	IsAvailable(ctx context.Context) error
}
