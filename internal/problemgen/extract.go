package problemgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ExtractJSON locates the first balanced JSON object embedded in raw and
// decodes it. Surrounding prose and code fences are ignored. Braces inside
// string literals do not count towards balance.
func ExtractJSON(raw string) ParseOutcome {
	var firstErr error
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		end := matchBrace(raw, start)
		if end < 0 {
			if firstErr == nil {
				firstErr = errors.New("unbalanced braces")
			}
			break
		}

		obj, err := decodeObject(raw[start : end+1])
		if err == nil {
			return ParseOutcome{
				Status:    Parsed,
				Object:    obj,
				Candidate: candidateFromObject(obj),
			}
		}
		if firstErr == nil {
			firstErr = err
		}

		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	if firstErr == nil {
		return ParseOutcome{Status: NotFound}
	}
	return ParseOutcome{Status: Malformed, Err: firstErr}
}

// matchBrace returns the index of the brace closing the one at start, or
// -1 if the text ends first.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decodeObject(s string) (map[string]any, error) {
	v, err := jsonschema.UnmarshalJSON(strings.NewReader(s))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("JSON value is not an object")
	}
	return obj, nil
}

// candidateFromObject reads the known fields leniently; type enforcement
// is left to the schema check.
func candidateFromObject(obj map[string]any) CandidateAnswer {
	c := CandidateAnswer{
		Question: stringField(obj, "question"),
		Solution: stringField(obj, "solution"),
		Answer:   stringField(obj, "answer"),
		Subtopic: stringField(obj, "subtopic"),
	}
	if n, ok := obj["points"].(json.Number); ok {
		if i, err := strconv.Atoi(n.String()); err == nil {
			c.Points = &i
		}
	}
	return c
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
