package translator

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// DefaultGooglePrice is the Cloud Translation list price per million characters.
const DefaultGooglePrice = 20.0

// GoogleService batches a chunk into one Cloud Translation request. It is
// billed per source character and keeps no conversational context.
type GoogleService struct {
	cfg  Config
	opts []option.ClientOption
}

func NewGoogleService(cfg Config, opts ...option.ClientOption) *GoogleService {
	if cfg.PricePerMillionChars <= 0 {
		cfg.PricePerMillionChars = DefaultGooglePrice
	}
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return &GoogleService{cfg: cfg, opts: opts}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) TranslateChunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	if len(req.Texts) == 0 {
		return &ChunkResult{}, nil
	}
	start := time.Now()

	targetLangTag, err := language.Parse(s.cfg.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid target language: %w", err)
	}

	client, err := translate.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	topts := &translate.Options{Format: translate.Text}
	if s.cfg.SourceLang != "" && s.cfg.SourceLang != "auto" {
		if src, err := language.Parse(s.cfg.SourceLang); err == nil {
			topts.Source = src
		}
	}

	translations, err := client.Translate(ctx, req.Texts, targetLangTag, topts)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}

	out := make([]string, len(translations))
	for i, t := range translations {
		out[i] = t.Text
	}

	chars := 0
	for _, t := range req.Texts {
		chars += utf8.RuneCountInString(t)
	}

	return &ChunkResult{
		Translations: out,
		Cost:         float64(chars) / 1e6 * s.cfg.PricePerMillionChars,
		CostKnown:    true,
		Latency:      time.Since(start),
	}, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	if _, err := language.Parse(s.cfg.TargetLang); err != nil {
		return fmt.Errorf("invalid target language %q: %w", s.cfg.TargetLang, err)
	}
	return nil
}
