package problemgen

import (
	"fmt"
	"unicode/utf8"
)

// StructuralValidator checks that required fields are present and within
// length limits.
type StructuralValidator struct {
	MinSolutionLen int
	MaxQuestionLen int
	MaxSolutionLen int
}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(c *CandidateAnswer, _ GenerationRequest) *ValidationError {
	if c.Question == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question is empty",
			Retryable: true,
		}
	}
	if v.MaxQuestionLen > 0 && utf8.RuneCountInString(c.Question) > v.MaxQuestionLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("question exceeds %d characters", v.MaxQuestionLen),
			Retryable: true,
		}
	}
	if c.Solution == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "solution is empty",
			Retryable: true,
		}
	}
	if n := utf8.RuneCountInString(c.Solution); n < v.MinSolutionLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("solution has %d characters, need at least %d", n, v.MinSolutionLen),
			Retryable: true,
		}
	}
	if v.MaxSolutionLen > 0 && utf8.RuneCountInString(c.Solution) > v.MaxSolutionLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("solution exceeds %d characters", v.MaxSolutionLen),
			Retryable: true,
		}
	}
	return nil
}

// PointsValidator rejects point values outside [1, Max].
type PointsValidator struct {
	Max int
}

func (v *PointsValidator) Name() string { return "points" }

func (v *PointsValidator) Validate(c *CandidateAnswer, _ GenerationRequest) *ValidationError {
	if c.Points == nil {
		return nil
	}
	if *c.Points < 1 || (v.Max > 0 && *c.Points > v.Max) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("points must be between 1 and %d, got %d", v.Max, *c.Points),
			Retryable: true,
		}
	}
	return nil
}
