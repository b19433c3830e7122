package problemgen

import (
	"time"

	"github.com/abhisek/examgen/internal/history"
	"github.com/google/uuid"
)

// ResponseValidator turns raw provider text into a ValidatedQuestion.
type ResponseValidator struct {
	config Config
	schema *SchemaValidator
	now    func() time.Time
}

// NewResponseValidator creates a validator. A zero MinSolutionLen or an
// empty validator chain falls back to the defaults.
func NewResponseValidator(cfg Config) *ResponseValidator {
	if cfg.MinSolutionLen <= 0 {
		cfg.MinSolutionLen = DefaultConfig().MinSolutionLen
	}
	if len(cfg.Validators) == 0 {
		cfg = WithMinSolutionLen(cfg, cfg.MinSolutionLen)
	}
	return &ResponseValidator{
		config: cfg,
		schema: &SchemaValidator{},
		now:    time.Now,
	}
}

// Config returns the validator's configuration.
func (v *ResponseValidator) Config() Config {
	return v.config
}

// Validate extracts, checks and normalizes raw provider text. Failures are
// returned as *ValidationError.
func (v *ResponseValidator) Validate(raw string, req GenerationRequest, subtopic string, source Source, provider string) (*ValidatedQuestion, error) {
	c, err := v.candidate(raw, req)
	if err != nil {
		return nil, err
	}
	return v.Finalize(*c, req, subtopic, source, provider), nil
}

func (v *ResponseValidator) candidate(raw string, req GenerationRequest) (*CandidateAnswer, error) {
	out := ExtractJSON(raw)
	switch out.Status {
	case NotFound:
		return nil, &ValidationError{
			Validator: "extract",
			Message:   "no JSON object in response",
			Retryable: true,
		}
	case Malformed:
		return nil, &ValidationError{
			Validator: "extract",
			Message:   "malformed JSON object: " + out.Err.Error(),
			Retryable: true,
		}
	}

	if verr := v.schema.ValidateObject(out.Object); verr != nil {
		return nil, verr
	}

	c := out.Candidate
	for _, val := range v.config.Validators {
		if verr := val.Validate(&c, req); verr != nil {
			return nil, verr
		}
	}
	return &c, nil
}

// Finalize normalizes an accepted candidate and attaches provenance.
func (v *ResponseValidator) Finalize(c CandidateAnswer, req GenerationRequest, subtopic string, source Source, provider string) *ValidatedQuestion {
	return Finalize(c, req, subtopic, source, provider, v.now())
}

// Finalize turns a candidate into a ValidatedQuestion generated at the
// given time. Static bank items go through the same path as provider
// output, so only Source tells them apart.
func Finalize(c CandidateAnswer, req GenerationRequest, subtopic string, source Source, provider string, at time.Time) *ValidatedQuestion {
	solution := NormalizeSteps(c.Solution)
	solution = preserveAnswer(c.Question, solution, c.Answer)

	if subtopic == "" {
		subtopic = c.Subtopic
	}

	points := req.Difficulty.DefaultPoints()
	if c.Points != nil {
		points = *c.Points
	}

	if source == SourceStatic {
		provider = ""
	}

	return &ValidatedQuestion{
		ID:          uuid.NewString(),
		Question:    c.Question,
		Solution:    solution,
		Answer:      c.Answer,
		Points:      points,
		Subject:     req.Subject,
		Topic:       req.Topic,
		Subtopic:    subtopic,
		Difficulty:  req.Difficulty,
		FormLevel:   req.FormLevel,
		Source:      source,
		Provider:    provider,
		Fingerprint: history.Fingerprint(c.Question),
		GeneratedAt: at.UTC(),
	}
}
