// Package config loads potrans settings from an optional config file, a .env
// file and POTRANS_* environment variables, in increasing precedence.
//
// Environment variables use the key path with dots replaced by underscores,
// for example POTRANS_TRANSLATOR_MODEL or POTRANS_PIPELINE_BATCH_SIZE. The
// API key is also read from MOONSHOT_API_KEY.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/potrans/internal/report"
	"github.com/valpere/potrans/internal/translator"
)

const envPrefix = "POTRANS"

type Config struct {
	Translator translator.Config `mapstructure:"translator"`
	Pipeline   PipelineConfig    `mapstructure:"pipeline"`
	Memory     MemoryConfig      `mapstructure:"memory"`
	Report     ReportConfig      `mapstructure:"report"`
}

type PipelineConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	HistoryLimit int           `mapstructure:"history_limit"`
	ChunkTimeout time.Duration `mapstructure:"chunk_timeout"`
	// PricePer1K is the cost of 1000 tokens, input and output alike.
	PricePer1K       float64 `mapstructure:"price_per_1k"`
	MaxLearnedLength int     `mapstructure:"max_learned_length"`
	Concurrency      int     `mapstructure:"concurrency"`
	Backup           bool    `mapstructure:"backup"`
	LanguageCheck    bool    `mapstructure:"language_check"`
}

type MemoryConfig struct {
	// Backend is "json" or "sqlite".
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	// DBPath is the SQLite database, also used for run history.
	DBPath string `mapstructure:"db_path"`
}

type ReportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("translator.provider", "moonshot")
	v.SetDefault("translator.api_key", "")
	// Empty lets each backend pick its own endpoint.
	v.SetDefault("translator.base_url", "")
	v.SetDefault("translator.model", translator.DefaultModel)
	v.SetDefault("translator.temperature", 0.3)
	v.SetDefault("translator.max_tokens", 0)
	v.SetDefault("translator.timeout", 60*time.Second)
	v.SetDefault("translator.source_lang", "en")
	v.SetDefault("translator.target_lang", "zh-Hans")
	v.SetDefault("translator.system_prompt", "")
	v.SetDefault("translator.credentials", "")
	v.SetDefault("translator.price_per_million_chars", translator.DefaultGooglePrice)

	v.SetDefault("pipeline.batch_size", 10)
	v.SetDefault("pipeline.history_limit", 10)
	v.SetDefault("pipeline.chunk_timeout", 2*time.Minute)
	v.SetDefault("pipeline.price_per_1k", 0.012)
	v.SetDefault("pipeline.max_learned_length", 50)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.backup", true)
	v.SetDefault("pipeline.language_check", false)

	v.SetDefault("memory.backend", "json")
	v.SetDefault("memory.path", "data/translation_memory.json")
	v.SetDefault("memory.db_path", "data/potrans.db")

	v.SetDefault("report.dir", "log")
	v.SetDefault("report.format", string(report.Text))
}

// Load builds a Config. path names a YAML, TOML or JSON file and may be empty,
// in which case ./potrans.* is used when present. A missing .env is ignored.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("translator.api_key", envPrefix+"_TRANSLATOR_API_KEY", "MOONSHOT_API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("potrans")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a translation run depends on.
func (c *Config) Validate() error {
	var errs []error

	t := c.Translator
	switch strings.ToLower(t.Provider) {
	case "ollama", "google":
	default:
		if t.APIKey == "" {
			errs = append(errs, fmt.Errorf("provider %s requires an API key (set %s_TRANSLATOR_API_KEY or MOONSHOT_API_KEY)", t.Provider, envPrefix))
		}
	}
	if _, err := language.Parse(t.TargetLang); err != nil {
		errs = append(errs, fmt.Errorf("invalid target language %q: %w", t.TargetLang, err))
	}
	if t.SourceLang != "" && t.SourceLang != "auto" {
		if _, err := language.Parse(t.SourceLang); err != nil {
			errs = append(errs, fmt.Errorf("invalid source language %q: %w", t.SourceLang, err))
		}
	}

	if c.Pipeline.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", c.Pipeline.BatchSize))
	}
	if c.Pipeline.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Pipeline.Concurrency))
	}
	if c.Pipeline.PricePer1K < 0 {
		errs = append(errs, fmt.Errorf("price per 1K tokens cannot be negative"))
	}

	switch c.Memory.Backend {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown memory backend %q (want json or sqlite)", c.Memory.Backend))
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
