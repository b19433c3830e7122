package api

import "github.com/abhisek/examgen/internal/problemgen"

// CreditCoster prices an action for the caller's account. The API only
// reports the cost; charging is the caller's concern.
type CreditCoster interface {
	CreditCost(action string, difficulty problemgen.Difficulty) int
}

// StaticCosts is a fixed price table keyed by action and difficulty.
// Unknown actions or difficulties cost nothing.
type StaticCosts map[string]map[problemgen.Difficulty]int

// DefaultCosts prices a question at its default point value.
func DefaultCosts() StaticCosts {
	perDifficulty := make(map[problemgen.Difficulty]int, len(problemgen.Difficulties))
	for _, d := range problemgen.Difficulties {
		perDifficulty[d] = d.DefaultPoints()
	}
	return StaticCosts{"generate_question": perDifficulty}
}

func (s StaticCosts) CreditCost(action string, difficulty problemgen.Difficulty) int {
	return s[action][difficulty]
}
