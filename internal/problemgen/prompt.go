package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/examgen/internal/llm"
)

const systemPrompt = `You write exam-style practice questions for secondary school students.

Rules:
- Generate exactly one question for the given subject, topic, subtopic and difficulty.
- Reply with a single JSON object and nothing else, using the keys:
  "question" (string), "solution" (string, a worked solution), "answer" (string or number),
  "points" (integer), "subtopic" (string).
- The solution must show the working step by step, one step per line.
- Do not reuse any of the listed recent subtopics unless no other subtopic fits.`

// BuildRequest constructs the provider request for a generation request
// and the chosen subtopic.
func BuildRequest(req GenerationRequest, subtopic string, recentSubtopics []string, cfg Config) llm.Request {
	return llm.Request{
		System:      systemPrompt,
		Prompt:      buildUserMessage(req, subtopic, recentSubtopics, cfg),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

func buildUserMessage(req GenerationRequest, subtopic string, recentSubtopics []string, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if subtopic != "" {
		fmt.Fprintf(&b, "Subtopic: %s\n", subtopic)
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	if req.FormLevel != "" {
		fmt.Fprintf(&b, "Level: %s\n", req.FormLevel)
	}
	if req.DisplayName != "" {
		fmt.Fprintf(&b, "Student name: %s\n", req.DisplayName)
	}

	b.WriteString("\nRecently covered subtopics:\n")
	b.WriteString(buildRecent(recentSubtopics, cfg.MaxRecentSubtopics))

	return b.String()
}

// buildRecent formats recent subtopics for the prompt, respecting the max
// limit. Returns "None" if there are none.
func buildRecent(recent []string, max int) string {
	if len(recent) == 0 {
		return "None"
	}

	// Keep only the most recent N.
	if max > 0 && len(recent) > max {
		recent = recent[len(recent)-max:]
	}

	var b strings.Builder
	for i, s := range recent {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
