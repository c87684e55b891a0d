package analysis

import (
	"fmt"

	"skilllink/internal/config"
	skilllinkErrors "skilllink/internal/errors"
)

// NewProvider creates the assessment backend selected by configuration
func NewProvider(cfg config.ServiceConfig, logger *skilllinkErrors.Logger) (Provider, error) {
	logger.Debug("Initializing assessment provider",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries)

	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg, logger), nil
	case "gemini":
		return NewGeminiProvider(cfg, logger), nil
	default:
		return nil, skilllinkErrors.NewConfigError(skilllinkErrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported assessment provider: %s", cfg.Provider), nil)
	}
}
