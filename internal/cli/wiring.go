package cli

import (
	"context"
	"fmt"
	"time"

	"skilllink/internal/analysis"
	"skilllink/internal/config"
	"skilllink/internal/credentials"
	"skilllink/internal/errors"
	"skilllink/internal/observability"
	"skilllink/internal/parser"
	"skilllink/internal/pipeline"
	"skilllink/internal/recommend"
	"skilllink/internal/skills"
)

// appServices bundles the wired stage clients behind one lifecycle.
// Both the analyze command and serve mode build the same graph.
type appServices struct {
	store       credentials.Store
	storeClose  func()
	assessor    analysis.Provider
	recommender *recommend.Client
	runner      *pipeline.Runner
	obs         *observability.Manager
	logger      *errors.Logger
}

func buildServices(cfg *config.Config, logger *errors.Logger) (*appServices, error) {
	obs, err := observability.NewManager(cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	vaultClient, err := config.NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vault client: %w", err)
	}

	store, storeClose, err := credentials.NewStore(cfg, vaultClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential store: %w", err)
	}

	assessor, err := analysis.NewProvider(cfg.GetAnalysisConfig(), logger)
	if err != nil {
		storeClose()
		return nil, fmt.Errorf("failed to create analysis provider: %w", err)
	}

	parserClient := parser.NewClient(cfg.GetParserConfig(), logger)
	recommender := recommend.NewClient(cfg.GetRecommendConfig(), cfg.Pipeline, logger)
	enhancer := skills.NewEnhancer(cfg.GetEmbedConfig(), logger)

	runner := pipeline.NewRunner(
		parserClient,
		assessor,
		recommender,
		enhancer,
		store,
		pipeline.Options{OptionalRecommendations: cfg.Pipeline.OptionalRecommendations},
		obs.Metrics(),
		logger,
	)

	return &appServices{
		store:       store,
		storeClose:  storeClose,
		assessor:    assessor,
		recommender: recommender,
		runner:      runner,
		obs:         obs,
		logger:      logger,
	}, nil
}

// Close releases watchers, provider connections and observability
// exporters. Safe to call once after the command finishes.
func (s *appServices) Close() {
	s.storeClose()

	if err := s.assessor.Close(); err != nil {
		s.logger.Warn("Failed to close analysis provider", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.obs.Shutdown(ctx); err != nil {
		s.logger.LogError(err, "Failed to shutdown observability")
	}
}
