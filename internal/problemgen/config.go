package problemgen

// Config controls prompt construction and response validation.
type Config struct {
	// Validators is the ordered list of validators run on every candidate.
	// They execute in order; the first failure stops the pipeline.
	Validators []Validator

	// MinSolutionLen is the minimum solution length in characters.
	MinSolutionLen int

	// MaxTokens is the token budget for the provider response.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64

	// MaxRecentSubtopics is the maximum number of recently used subtopics
	// listed in the prompt as ones to avoid.
	MaxRecentSubtopics int
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return WithMinSolutionLen(Config{
		MaxTokens:          1024,
		Temperature:        0.7,
		MaxRecentSubtopics: 5,
	}, 20)
}

// WithMinSolutionLen returns cfg with the minimum solution length set and
// the standard validator chain rebuilt around it.
func WithMinSolutionLen(cfg Config, n int) Config {
	cfg.MinSolutionLen = n
	cfg.Validators = []Validator{
		&StructuralValidator{
			MinSolutionLen: n,
			MaxQuestionLen: 1000,
			MaxSolutionLen: 6000,
		},
		&PointsValidator{Max: 100},
	}
	return cfg
}
