package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("EXAMGEN_LLM_CHAIN", "mock")
	t.Setenv("EXAMGEN_RETRY_MAX_ATTEMPTS", "1")
	t.Setenv("EXAMGEN_LOG_LEVEL", "error")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("examgen %s: %v\n%s", strings.Join(args, " "), err, buf.String())
	}
	return buf.String()
}

func TestTopicsCommand(t *testing.T) {
	out := execute(t, "topics")
	if !strings.Contains(out, "Mathematics") {
		t.Fatalf("expected subject list, got:\n%s", out)
	}

	out = execute(t, "topics", "Physics")
	if !strings.Contains(out, "Mechanics") {
		t.Fatalf("expected physics topics, got:\n%s", out)
	}
}

func TestProvidersCommand(t *testing.T) {
	out := execute(t, "providers")
	if !strings.Contains(out, "mock") || !strings.Contains(out, "primary") {
		t.Fatalf("expected chain listing, got:\n%s", out)
	}
	if !strings.Contains(out, "Timeouts: 20s") {
		t.Fatalf("expected timeout schedule, got:\n%s", out)
	}
}

func TestGenerateCommand_FallsBackToStatic(t *testing.T) {
	out := execute(t, "generate", "--subject", "Mathematics", "--topic", "Algebra", "--difficulty", "easy", "--count", "2")
	if strings.Count(out, "static-bank") != 2 {
		t.Fatalf("expected two static questions, got:\n%s", out)
	}
	if !strings.Contains(out, "Solution:") {
		t.Fatalf("expected worked solution, got:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	if !strings.HasPrefix(out, "examgen ") {
		t.Fatalf("unexpected version output: %q", out)
	}
}
