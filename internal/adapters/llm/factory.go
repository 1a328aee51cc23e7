package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/chatpro/internal/config"
	"github.com/PabloGalante/chatpro/internal/domain"
)

// New builds the LLM client selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (domain.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderMock:
		return NewMockLLM(), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.SystemPrompt, cfg.MaxTokens), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.SystemPrompt, cfg.MaxTokens), nil
	case config.ProviderGemini, config.ProviderVertex:
		opts := GenAIOptions{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			System:    cfg.SystemPrompt,
			MaxTokens: cfg.MaxTokens,
		}
		if cfg.Provider == config.ProviderGemini {
			opts.APIKey = cfg.APIKey
		} else {
			opts.Project = cfg.GCPProjectID
			opts.Location = cfg.GCPLocation
		}
		c, err := NewGenAIClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
