package llm

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingProvider_LogsCalls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	inner := NewNamedMockProvider("primary",
		MockResponse{Text: "hi", Usage: Usage{InputTokens: 1000, OutputTokens: 500}},
		MockResponse{Err: &ErrConnection{}},
	)
	p := WithLogging(inner, zap.New(core))

	ctx := WithRequestID(WithPurpose(context.Background(), "question"), "req-42")
	if _, err := p.Generate(ctx, Request{Prompt: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, Request{Prompt: "y"}); err == nil {
		t.Fatal("expected error from second call")
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}

	first := entries[0].ContextMap()
	if first["provider"] != "primary" || first["purpose"] != "question" || first["request_id"] != "req-42" {
		t.Fatalf("unexpected fields: %v", first)
	}
	if first["input_tokens"] != int64(1000) {
		t.Fatalf("expected input tokens logged, got %v", first["input_tokens"])
	}

	second := entries[1].ContextMap()
	if second["outcome"] != "connection_error" {
		t.Fatalf("expected outcome logged on failure, got %v", second["outcome"])
	}
	if p.Name() != "primary" {
		t.Fatalf("expected name passthrough, got %q", p.Name())
	}
}

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gpt-4o-mini"); c == nil || c.InputPerMTok != 0.15 {
		t.Fatalf("unexpected cost: %+v", c)
	}
	if c := LookupCost("openai/gpt-4o"); c == nil || c.OutputPerMTok != 10 {
		t.Fatalf("expected prefix-stripped lookup, got %+v", c)
	}
	if c := LookupCost("nonexistent"); c != nil {
		t.Fatalf("expected nil, got %+v", c)
	}

	cost := ModelCost{InputPerMTok: 1, OutputPerMTok: 2}.Cost(1_000_000, 500_000)
	if cost != 2 {
		t.Fatalf("expected 2, got %v", cost)
	}
}
