package problemgen

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the requested difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists all difficulties in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty converts a string to a Difficulty, case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
}

// DefaultPoints is the point value used when a candidate carries none.
func (d Difficulty) DefaultPoints() int {
	switch d {
	case DifficultyHard:
		return 3
	case DifficultyMedium:
		return 2
	default:
		return 1
	}
}

// GenerationRequest is one inbound request for a question. It is passed
// by value and never mutated once built.
type GenerationRequest struct {
	ActorID    string     `json:"actor_id" validate:"required"`
	Subject    string     `json:"subject" validate:"required"`
	Topic      string     `json:"topic" validate:"required"`
	Difficulty Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`

	// FormLevel is an optional syllabus level tag, e.g. "Form 3".
	FormLevel string `json:"form_level,omitempty" validate:"max=64"`

	// DisplayName is used only to personalise the prompt.
	DisplayName string `json:"display_name,omitempty" validate:"max=128"`

	// TimeBudget caps the total time spent on provider attempts.
	// Zero means no budget.
	TimeBudget time.Duration `json:"time_budget,omitempty" validate:"gte=0"`

	// Kind is the generation-kind used as the guard key.
	// Defaults to "<subject>_generating".
	Kind string `json:"kind,omitempty"`

	// Action is the rate-limit action key. Defaults to "generate_question".
	Action string `json:"action,omitempty"`
}

// GenerationKind returns the guard key kind for the request.
func (r GenerationRequest) GenerationKind() string {
	if r.Kind != "" {
		return r.Kind
	}
	return SubjectKey(r.Subject) + "_generating"
}

// RateAction returns the rate-limit action key for the request.
func (r GenerationRequest) RateAction() string {
	if r.Action != "" {
		return r.Action
	}
	return "generate_question"
}

// SubjectKey normalises a subject name into the key history is kept under.
func SubjectKey(subject string) string {
	return strings.ToLower(strings.Join(strings.Fields(subject), "_"))
}

// CandidateAnswer holds the unvalidated fields parsed from provider text.
type CandidateAnswer struct {
	Question string
	Solution string
	Answer   string
	Points   *int
	Subtopic string
}

// ParseStatus tags the result of extracting a candidate from raw text.
type ParseStatus int

const (
	// Parsed means a JSON object was found and decoded.
	Parsed ParseStatus = iota
	// NotFound means the text contains no JSON object at all.
	NotFound
	// Malformed means something object-like was found but could not be
	// decoded.
	Malformed
)

func (s ParseStatus) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case NotFound:
		return "not_found"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ParseOutcome is the tagged result of ExtractJSON. Candidate and Object
// are set only when Status is Parsed; Err explains Malformed.
type ParseOutcome struct {
	Status    ParseStatus
	Candidate CandidateAnswer
	Object    map[string]any
	Err       error
}

// Source records where a question came from.
type Source string

const (
	SourcePrimary  Source = "primary-provider"
	SourceFallback Source = "fallback-provider"
	SourceStatic   Source = "static-bank"
)

// SourceForProvider returns the source for content produced by the
// provider at the given chain index.
func SourceForProvider(index int) Source {
	if index == 0 {
		return SourcePrimary
	}
	return SourceFallback
}

// ValidatedQuestion is the unit returned to callers. Treat it as
// immutable once returned.
type ValidatedQuestion struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Solution    string     `json:"solution"`
	Answer      string     `json:"answer,omitempty"`
	Points      int        `json:"points"`
	Subject     string     `json:"subject"`
	Topic       string     `json:"topic"`
	Subtopic    string     `json:"subtopic,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	FormLevel   string     `json:"form_level,omitempty"`
	Source      Source     `json:"source"`
	Provider    string     `json:"provider,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	GeneratedAt time.Time  `json:"generated_at"`
}
