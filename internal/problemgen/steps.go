package problemgen

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// stepMarker matches lines that already carry an enumeration label such
// as "Step 2:", "2." or "2)".
var stepMarker = regexp.MustCompile(`(?i)^\s*(step\s*\d+\b|\d+\s*[.)]\s)`)

var conclusionPrefixes = []string{
	"therefore",
	"hence",
	"thus",
	"so the answer",
	"the answer is",
	"final answer",
	"answer:",
	"∴",
}

// NormalizeSteps labels the segments of a free-text solution as
// "Step 1: ", "Step 2: ", ... unless some line is already labelled.
// Multi-line text is split on newlines, single-line text on sentence
// boundaries. Trailing conclusion segments stay unlabelled.
//
// NormalizeSteps is idempotent.
func NormalizeSteps(solution string) string {
	solution = strings.TrimSpace(solution)
	if solution == "" {
		return ""
	}

	lines := nonEmptyLines(solution)
	for _, l := range lines {
		if stepMarker.MatchString(l) {
			return solution
		}
	}

	segments := lines
	if len(lines) == 1 {
		segments = splitSentences(lines[0])
	}

	end := len(segments)
	for end > 0 && isConclusion(segments[end-1]) {
		end--
	}

	out := make([]string, 0, len(segments))
	for i, s := range segments {
		if i < end {
			s = fmt.Sprintf("Step %d: %s", i+1, s)
		}
		out = append(out, s)
	}
	return strings.Join(out, "\n")
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// splitSentences splits after '.', '!' or '?' when followed by whitespace.
// Decimals such as "3.5" are not split.
func splitSentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if unicode.IsSpace(runes[i+1]) {
				if seg := strings.TrimSpace(string(runes[start : i+1])); seg != "" {
					out = append(out, seg)
				}
				start = i + 1
			}
		}
	}
	if seg := strings.TrimSpace(string(runes[start:])); seg != "" {
		out = append(out, seg)
	}
	return out
}

func isConclusion(segment string) bool {
	s := strings.ToLower(strings.TrimSpace(segment))
	for _, p := range conclusionPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
