package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Text: "first", Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Text: "second"},
	)

	resp1, err := mock.Generate(context.Background(), Request{Prompt: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Text != "first" {
		t.Fatalf("expected 'first', got %q", resp1.Text)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Prompt: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text != "second" {
		t.Fatalf("expected 'second', got %q", resp2.Text)
	}
}

func TestMockProvider_EmptyQueueReturnsConnectionError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var conn *ErrConnection
	if !errors.As(err, &conn) {
		t.Fatalf("expected ErrConnection, got: %T", err)
	}
}

func TestMockProvider_Repeat(t *testing.T) {
	mock := NewNamedMockProvider("primary", MockResponse{Text: "once"})
	mock.Repeat(MockResponse{Text: "again"})

	for i, want := range []string{"once", "again", "again"} {
		resp, err := mock.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if resp.Text != want {
			t.Fatalf("call %d: expected %q, got %q", i, want, resp.Text)
		}
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
	if mock.Name() != "primary" {
		t.Fatalf("expected name 'primary', got %q", mock.Name())
	}
}

func TestMockProvider_DelayHonorsDeadline(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "late", Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Generate(ctx, Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if len(mock.Deadlines) != 1 || mock.Deadlines[0] <= 0 || mock.Deadlines[0] > 10*time.Millisecond {
		t.Fatalf("unexpected recorded deadline: %v", mock.Deadlines)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "{}"})

	req := Request{System: "sys", Prompt: "hello"}
	_, _ = mock.Generate(context.Background(), req)

	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.Calls))
	}
	if mock.Calls[0].System != "sys" || mock.Calls[0].Prompt != "hello" {
		t.Fatalf("unexpected recorded request: %+v", mock.Calls[0])
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "question-gen")
	if p := PurposeFrom(ctx); p != "question-gen" {
		t.Fatalf("expected 'question-gen', got %q", p)
	}

	ctx = WithRequestID(ctx, "req-1")
	if id := RequestIDFrom(ctx); id != "req-1" {
		t.Fatalf("expected 'req-1', got %q", id)
	}
}
