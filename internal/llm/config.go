package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the provider chain configuration.
type Config struct {
	// Chain lists provider names in priority order. The first entry is the
	// primary provider, the rest are fallbacks.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Chain []string `yaml:"chain"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryPolicy      `yaml:"retry"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"` // Default: "claude-haiku"
	BaseURL string `yaml:"base_url"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"` // Default: "gemini-flash"
	BaseURL string `yaml:"base_url"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "google/gemini-2.0-flash-exp"
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// DefaultConfig returns a Config with sensible defaults: OpenRouter first,
// Gemini as the fallback.
func DefaultConfig() Config {
	return Config{
		Chain: []string{"openrouter", "gemini"},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: DefaultRetryPolicy(),
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from EXAMGEN_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("EXAMGEN_LLM_CHAIN"); v != "" {
		c.Chain = splitList(v)
	}

	setString(&c.Anthropic.APIKey, "EXAMGEN_ANTHROPIC_API_KEY")
	setString(&c.Anthropic.Model, "EXAMGEN_ANTHROPIC_MODEL")
	setString(&c.Anthropic.BaseURL, "EXAMGEN_ANTHROPIC_BASE_URL")

	setString(&c.OpenAI.APIKey, "EXAMGEN_OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "EXAMGEN_OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "EXAMGEN_OPENAI_BASE_URL")

	setString(&c.Gemini.APIKey, "EXAMGEN_GEMINI_API_KEY")
	setString(&c.Gemini.Model, "EXAMGEN_GEMINI_MODEL")
	setString(&c.Gemini.BaseURL, "EXAMGEN_GEMINI_BASE_URL")

	setString(&c.OpenRouter.APIKey, "EXAMGEN_OPENROUTER_API_KEY")
	setString(&c.OpenRouter.Model, "EXAMGEN_OPENROUTER_MODEL")
	setString(&c.OpenRouter.BaseURL, "EXAMGEN_OPENROUTER_BASE_URL")

	if v := os.Getenv("EXAMGEN_RETRY_MAX_ATTEMPTS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("EXAMGEN_RETRY_BASE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Retry.BaseTimeout = d
		}
	}
	if v := os.Getenv("EXAMGEN_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.Retry.Delay = d
		}
	}
	if v := os.Getenv("EXAMGEN_RETRY_MAX_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.Retry.MaxWait = d
		}
	}
}

// MaxDuration is the longest a full walk of the chain can take when every
// provider fails every attempt.
func (c Config) MaxDuration() time.Duration {
	return time.Duration(len(c.Chain)) * c.Retry.MaxDuration()
}

// DiscoverConfig probes the standard API key env vars and returns a Config
// whose chain holds every provider with a key, in the order
// OpenRouter → Gemini → OpenAI → Anthropic. Returns (Config{}, false) if
// none is found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	cfg.Chain = nil

	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Chain = append(cfg.Chain, "openrouter")
		cfg.OpenRouter.APIKey = k
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Chain = append(cfg.Chain, "gemini")
		cfg.Gemini.APIKey = k
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Chain = append(cfg.Chain, "openai")
		cfg.OpenAI.APIKey = k
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Chain = append(cfg.Chain, "anthropic")
		cfg.Anthropic.APIKey = k
	}

	if len(cfg.Chain) == 0 {
		return Config{}, false
	}
	return cfg, true
}

// Validate checks that the chain is non-empty and that every provider in it
// has its required API key set.
func (c Config) Validate() error {
	if len(c.Chain) == 0 {
		return fmt.Errorf("provider chain is empty")
	}

	seen := make(map[string]bool, len(c.Chain))
	for _, name := range c.Chain {
		if seen[name] {
			return fmt.Errorf("provider %q listed twice in chain", name)
		}
		seen[name] = true

		switch name {
		case "anthropic":
			if c.Anthropic.APIKey == "" {
				return fmt.Errorf("EXAMGEN_ANTHROPIC_API_KEY is required for the anthropic provider")
			}
		case "openai":
			if c.OpenAI.APIKey == "" {
				return fmt.Errorf("EXAMGEN_OPENAI_API_KEY is required for the openai provider")
			}
		case "gemini":
			if c.Gemini.APIKey == "" {
				return fmt.Errorf("EXAMGEN_GEMINI_API_KEY is required for the gemini provider")
			}
		case "openrouter":
			if c.OpenRouter.APIKey == "" {
				return fmt.Errorf("EXAMGEN_OPENROUTER_API_KEY is required for the openrouter provider")
			}
		case "mock":
			// No API key needed.
		default:
			return fmt.Errorf("unknown LLM provider: %q", name)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
