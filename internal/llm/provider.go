package llm

import "context"

// Provider is the core abstraction around one external content provider.
// Consumers submit a prompt and receive the provider's raw text; parsing and
// validation of that text happen elsewhere.
type Provider interface {
	// Generate sends the prompt to the provider and returns its raw text.
	// Failures are returned as one of the typed errors in errors.go so
	// Classify can map them onto an Outcome.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string

	// Name returns the provider identifier used in logs and provenance,
	// e.g. "openai" or "gemini".
	Name() string
}

// Request describes what to send to the provider.
type Request struct {
	// System is the system prompt. Sets the model's role and constraints.
	System string

	// Prompt is the opaque user prompt built from the
	// topic/difficulty/subtopic triple.
	Prompt string

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Response holds the provider's output.
type Response struct {
	// Text is the raw generated text. Providers are not trusted to return
	// only JSON, so this is passed to the response validator untouched.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
