package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider creates a single Provider by name, wrapped with the logging
// middleware.
func NewProvider(ctx context.Context, name string, cfg Config, logger *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch name {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewNamedMockProvider("mock")
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", name, err)
	}

	return WithLogging(base, logger), nil
}

// NewChain builds the ordered provider chain described by cfg.
func NewChain(ctx context.Context, cfg Config, logger *zap.Logger) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := make([]Provider, 0, len(cfg.Chain))
	for _, name := range cfg.Chain {
		p, err := NewProvider(ctx, name, cfg, logger)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewChainOf(cfg.Retry, providers...), nil
}
