package cmd

import (
	"context"
	"fmt"

	"github.com/abhisek/examgen/internal/config"
	"github.com/abhisek/examgen/internal/fallback"
	"github.com/abhisek/examgen/internal/generation"
	"github.com/abhisek/examgen/internal/guard"
	"github.com/abhisek/examgen/internal/history"
	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/logging"
	"github.com/abhisek/examgen/internal/problemgen"
	"github.com/abhisek/examgen/internal/ratelimit"
	"github.com/abhisek/examgen/internal/syllabus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadConfig resolves configuration from --config, .env and the
// environment. When the configured chain is unusable but standard provider
// API keys are set, the chain is rebuilt from those keys.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if cfg.LLM.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			discovered.Retry = cfg.LLM.Retry
			cfg.LLM = discovered
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

type application struct {
	cfg          config.Config
	logger       *zap.Logger
	catalog      *syllabus.Catalog
	orchestrator *generation.Orchestrator
}

// newApplication builds every component from cfg.
func newApplication(ctx context.Context, cfg config.Config) (*application, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	chain, err := llm.NewChain(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("build provider chain: %w", err)
	}
	catalog, err := syllabus.Default()
	if err != nil {
		return nil, fmt.Errorf("load syllabus: %w", err)
	}
	bank, err := fallback.Load(cfg.Generation.MinSolutionLen)
	if err != nil {
		return nil, fmt.Errorf("load fallback bank: %w", err)
	}

	orch, err := generation.New(generation.Deps{
		Limiter:   ratelimit.New(cfg.RateLimit.Cooldown),
		Guard:     guard.New(cfg.GuardTTL()),
		History:   history.New(cfg.History),
		Chain:     chain,
		Validator: problemgen.NewResponseValidator(cfg.ProblemGen()),
		Bank:      bank,
		Syllabus:  catalog,
		Logger:    logger,
	}, generation.Config{DefaultBudget: cfg.Generation.DefaultBudget})
	if err != nil {
		return nil, err
	}

	return &application{
		cfg:          cfg,
		logger:       logger,
		catalog:      catalog,
		orchestrator: orch,
	}, nil
}

func (a *application) close() {
	_ = a.logger.Sync()
}
