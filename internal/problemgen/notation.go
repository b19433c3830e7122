package problemgen

import (
	"regexp"
	"strings"
)

var mathMarkers = []string{
	"$", `\(`, `\[`, `\frac`, `\sqrt`, "^", "=", "√", "×", "÷", "π", "≤", "≥", "≠",
}

var arithmeticExpr = regexp.MustCompile(`\d\s*[-+*/<>]\s*\d`)

// HasMathNotation reports whether s contains a recognisable mathematical
// notation marker.
func HasMathNotation(s string) bool {
	for _, m := range mathMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return arithmeticExpr.MatchString(s)
}

const finalAnswerLabel = "Final answer: "

// preserveAnswer appends the answer to the solution when none of the
// texts carries math notation, so a prose-only solution still states the
// final answer.
func preserveAnswer(question, solution, answer string) string {
	if answer == "" {
		return solution
	}
	if HasMathNotation(question) || HasMathNotation(solution) || HasMathNotation(answer) {
		return solution
	}
	if strings.Contains(solution, finalAnswerLabel) {
		return solution
	}
	return solution + "\n" + finalAnswerLabel + answer
}
