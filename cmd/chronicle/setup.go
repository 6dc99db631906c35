package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/chronicle/internal/analysis"
	"github.com/sandevgo/chronicle/internal/config"
	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/providers/llm"
	"github.com/sandevgo/chronicle/internal/relevance"
	"github.com/sandevgo/chronicle/internal/service/command"
	"github.com/sandevgo/chronicle/internal/service/publisher"
	"github.com/sandevgo/chronicle/internal/storage/memstore"
	"github.com/sandevgo/chronicle/internal/storage/sqlite"
	"github.com/sandevgo/chronicle/internal/strategy"
	"github.com/sandevgo/chronicle/internal/transport/telegram"
	"github.com/sandevgo/chronicle/pkg/log"
	"github.com/sandevgo/chronicle/pkg/srv"
	"github.com/sandevgo/chronicle/pkg/tokens"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	appCfg := config.NewAppConfig(ctx)
	if err := initEnv(ctx, appCfg.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Storage
	store, cleanup, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	if cleanup != nil {
		services = append(services, srv.NewCleanup(cleanup))
	}

	// 2. LLM Provider
	generator, err := llm.NewProvider(ctx, config.NewProviderConfig(ctx))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 3. Pattern library, with optional user vocabulary on top
	lib := analysis.NewPatternLibrary()
	if err := lib.LoadOverrides(appCfg.GetVocabularyPath()); err != nil {
		logger.Warn().Err(err).Str("path", appCfg.GetVocabularyPath()).Msg("failed to load vocabulary overrides")
	}

	// 4. Analysis and strategy pipeline
	classifier := analysis.NewClassifier(lib, generator)
	aggregator := analysis.NewAggregator(lib, generator)
	strategist := strategy.NewGenerator(lib)
	selector := relevance.NewSelector(tokens.Estimate)

	pub := publisher.New(store, generator, classifier, aggregator, strategist, selector, publisher.Config{
		WorkerCap:          appCfg.WorkerCap,
		MemoryThresholdPct: appCfg.MemoryThresholdPct,
		BatchDeadline:      appCfg.BatchDeadline,
		ContextTokenBudget: appCfg.ContextTokenBudget,
	})

	router := command.New(command.NewCommands(pub))

	// 5. Transports
	transports, err := initTransports(ctx, appCfg, pub, router)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (core.SessionStore, func() error, error) {
	if !cfg.PersistSessions {
		return memstore.New(cfg.BatchDeadline), nil, nil
	}
	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewStore(db), db.Close, nil
}

func initTransports(ctx context.Context, cfg *config.AppConfig, pub *publisher.Publisher, router core.CmdRouter) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, pub, router)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
