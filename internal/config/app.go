package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/chronicle/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"CHRONICLE_RUNTIME_PATH" envDefault:".chronicle"`
	// Allow selecting the provider
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"openrouter"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"true"`

	// Generation worker pool
	WorkerCap          int     `env:"GENERATION_WORKERS" envDefault:"3"`
	MemoryThresholdPct float64 `env:"MEMORY_THRESHOLD_PCT" envDefault:"85"`

	// Session batching
	BatchDeadline      time.Duration `env:"BATCH_DEADLINE" envDefault:"30m"`
	ContextTokenBudget int           `env:"CONTEXT_TOKEN_BUDGET" envDefault:"1500"`

	// Persist sessions to sqlite; without it an in-memory store with
	// the batch-deadline TTL is used.
	PersistSessions bool `env:"PERSIST_SESSIONS" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "chronicle.db")
}

func (c AppConfig) GetVocabularyPath() string {
	return filepath.Join(c.RuntimePath, "vocabulary.yaml")
}
