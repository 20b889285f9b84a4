package agent

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// New returns the agent selected by cfg.Provider.
func New(ctx context.Context, cfg domain.AgentConfig, logger *zap.Logger) (domain.Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case domain.ProviderGemini:
		return NewGemini(ctx, cfg, httpClient, logger)
	default:
		return NewOpenAI(cfg, httpClient, logger), nil
	}
}
