package fallback

import (
	"strings"
	"testing"

	"github.com/abhisek/examgen/internal/problemgen"
)

func TestLoad_EmbeddedBankPasses(t *testing.T) {
	if _, err := Load(0); err != nil {
		t.Fatalf("embedded bank validation failed: %v", err)
	}
}

func TestCandidates_Resolution(t *testing.T) {
	b, err := Load(0)
	if err != nil {
		t.Fatal(err)
	}

	exact := b.Candidates("algebra", problemgen.DifficultyEasy)
	if len(exact) < 2 {
		t.Fatalf("expected several algebra/easy items, got %d", len(exact))
	}

	// Geometry has no hard entry: fall back to any Geometry item.
	topicOnly := b.Candidates("Geometry", problemgen.DifficultyHard)
	if len(topicOnly) == 0 || !strings.Contains(topicOnly[0].Question, "hypotenuse") {
		t.Fatalf("expected topic fallback, got %+v", topicOnly)
	}

	// Unknown topic: generic defaults.
	generic := b.Candidates("Astrophysics", problemgen.DifficultyMedium)
	if len(generic) == 0 {
		t.Fatal("generic defaults must never be empty")
	}
	if generic[0].Question != b.defaults[0].Question {
		t.Fatal("expected default list for unknown topic")
	}
}

func TestLookup_TagsStaticProvenance(t *testing.T) {
	b, err := Load(0)
	if err != nil {
		t.Fatal(err)
	}

	req := problemgen.GenerationRequest{
		ActorID:    "u1",
		Subject:    "Mathematics",
		Topic:      "Algebra",
		Difficulty: problemgen.DifficultyEasy,
	}
	q := b.Lookup(req, "Linear equations")

	if q.Source != problemgen.SourceStatic {
		t.Fatalf("expected static-bank source, got %s", q.Source)
	}
	if q.Provider != "" {
		t.Fatalf("static items must not name a provider, got %q", q.Provider)
	}
	if q.Question == "" || len(q.Solution) < 20 {
		t.Fatalf("static question must be complete: %+v", q)
	}
	if q.Topic != "Algebra" || q.Subject != "Mathematics" || q.Difficulty != problemgen.DifficultyEasy {
		t.Fatalf("request fields not attached: %+v", q)
	}
	if q.Fingerprint == "" || q.ID == "" {
		t.Fatal("expected fingerprint and ID")
	}
}

func TestParse_EmptyDefaultsUseGeneric(t *testing.T) {
	b, err := Parse([]byte("entries: []\n"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := b.Candidates("anything", problemgen.DifficultyEasy)
	if len(items) != 1 || items[0].Question != genericItem.Question {
		t.Fatalf("expected built-in generic item, got %+v", items)
	}
}

func TestParse_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "short solution",
			doc:  "default:\n  - question: q\n    solution: ok\n",
			want: "solution has",
		},
		{
			name: "bad difficulty",
			doc:  "entries:\n  - topic: Algebra\n    difficulty: trivial\n    items:\n      - question: q\n        solution: a solution that is long enough\n",
			want: "unknown difficulty",
		},
		{
			name: "no items",
			doc:  "entries:\n  - topic: Algebra\n    difficulty: easy\n",
			want: "no items",
		},
		{
			name: "bad yaml",
			doc:  "entries: [",
			want: "decode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error should mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestParse_HonoursConfiguredMinSolutionLen(t *testing.T) {
	doc := []byte("entries:\n  - topic: Algebra\n    difficulty: easy\n    items:\n      - question: q\n        solution: a solution of about forty characters.\n")

	if _, err := Parse(doc, 20); err != nil {
		t.Fatalf("solution above the minimum rejected: %v", err)
	}
	_, err := Parse(doc, 60)
	if err == nil {
		t.Fatal("expected a solution below the configured minimum to be rejected")
	}
	if !strings.Contains(err.Error(), "Algebra/easy item 0") {
		t.Fatalf("error should name the item, got: %v", err)
	}
}

func TestLoad_EmbeddedBankBelowConfiguredMinimum(t *testing.T) {
	if _, err := Load(80); err != nil {
		t.Fatalf("embedded bank should satisfy a minimum of 80: %v", err)
	}
	if _, err := Load(500); err == nil {
		t.Fatal("expected the embedded bank to fail a minimum of 500")
	}
}
