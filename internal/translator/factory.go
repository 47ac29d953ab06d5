package translator

import (
	"fmt"
	"sort"
	"strings"
)

// Providers lists the accepted Config.Provider values.
func Providers() []string {
	names := []string{"anthropic", "google", "ollama"}
	for name := range openAIBaseURLs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the backend named by cfg.Provider.
func New(cfg Config) (ChunkTranslator, error) {
	cfg.Provider = strings.ToLower(cfg.Provider)
	switch cfg.Provider {
	case "", "openai", "moonshot", "openrouter", "deepseek":
		return NewOpenAIChat(cfg), nil
	case "ollama":
		return NewOllamaTranslator(cfg), nil
	case "anthropic":
		return NewAnthropicTranslator(cfg), nil
	case "google":
		return NewGoogleService(cfg), nil
	}
	return nil, fmt.Errorf("unknown provider %q (want one of %s)", cfg.Provider, strings.Join(Providers(), ", "))
}
