package cloud

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/config"
)

// NewClient builds the remote client selected by configuration.
func NewClient(cfg *config.CloudConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.Endpoint, cfg.Model, cfg.APIKey, logger)
	case "anthropic":
		return NewAnthropicClient(cfg.Model, cfg.APIKey, logger)
	default:
		return nil, fmt.Errorf("unknown cloud provider %q", cfg.Provider)
	}
}
