// Package app assembles a Steward from configuration.
package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/agenthands/steward/internal/config"
	"github.com/agenthands/steward/internal/core"
	"github.com/agenthands/steward/internal/core/insight"
	"github.com/agenthands/steward/internal/driver"
	"github.com/agenthands/steward/internal/history"
	"github.com/agenthands/steward/internal/llm"
	"github.com/agenthands/steward/internal/logging"
)

type App struct {
	Steward *core.Steward
	History *history.Store
	closers []func(context.Context) error
}

// Build wires the optional collaborators named by cfg. Any of them that
// cannot be reached is logged and left out.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) *App {
	logger = logging.OrNop(logger)
	a := &App{}
	opts := []core.Option{core.WithLogger(logger)}

	if cfg.LLM.Provider != "" {
		client, err := llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			logger.Warn("language model disabled", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		} else {
			opts = append(opts, core.WithAnnotator(insight.NewAnnotator(client, cfg.Prompts.Insight)))
			if c, ok := client.(*llm.GeminiClient); ok {
				a.closers = append(a.closers, func(context.Context) error { return c.Close() })
			}
		}
	}

	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			logger.Warn("graph export disabled", zap.Error(err))
		} else {
			if err := d.BuildIndices(ctx); err != nil {
				logger.Warn("failed to build graph indices", zap.Error(err))
			}
			opts = append(opts, core.WithGraph(d))
			a.closers = append(a.closers, d.Close)
		}
	}

	if cfg.History.Path != "" {
		store, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			logger.Warn("run history disabled", zap.String("path", cfg.History.Path), zap.Error(err))
		} else {
			a.History = store
			opts = append(opts, core.WithHistory(store))
			a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		}
	}

	a.Steward = core.NewSteward(cfg, opts...)
	return a
}

// Close releases every collaborator Build opened.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}
