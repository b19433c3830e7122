package problemgen

import (
	"strings"
	"testing"
)

func TestHasMathNotation(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Solve 2x + 3 = 7", true},
		{"$x^2$", true},
		{`\frac{1}{2}`, true},
		{"√16", true},
		{"4 × 5", true},
		{"12 / 4", true},
		{"3-2", true},
		{"Name the gas produced when zinc reacts with acid.", false},
		{"Hydrogen", false},
		{"Form 3", false},
	}
	for _, tt := range tests {
		if got := HasMathNotation(tt.in); got != tt.want {
			t.Errorf("HasMathNotation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPreserveAnswer(t *testing.T) {
	got := preserveAnswer("Name the gas produced.", "Step 1: Zinc displaces hydrogen from the acid.", "Hydrogen")
	if !strings.HasSuffix(got, "\nFinal answer: Hydrogen") {
		t.Fatalf("expected answer appended, got %q", got)
	}

	// Idempotent once appended.
	if again := preserveAnswer("Name the gas produced.", got, "Hydrogen"); again != got {
		t.Fatalf("answer appended twice: %q", again)
	}

	withMath := "Step 1: 2x = 4\nTherefore x = 2."
	if got := preserveAnswer("Solve 2x = 4", withMath, "2"); got != withMath {
		t.Fatalf("math solution must be left alone, got %q", got)
	}

	if got := preserveAnswer("Q", "solution text", ""); got != "solution text" {
		t.Fatalf("missing answer must be left alone, got %q", got)
	}
}
