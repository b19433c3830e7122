package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/examgen/internal/guard"
	"github.com/abhisek/examgen/internal/history"
	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/problemgen"
	"github.com/abhisek/examgen/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const validJSON = `{"question": "Solve for x: 3x = 12", "solution": "Divide both sides by 3 to get x = 4. Therefore x = 4.", "answer": "4", "points": 1}`

func testPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts:    2,
		BaseTimeout:    40 * time.Millisecond,
		TimeoutFactors: []float64{1, 1.5},
	}
}

func algebraEasy() problemgen.GenerationRequest {
	return problemgen.GenerationRequest{
		ActorID:    "student-1",
		Subject:    "Mathematics",
		Topic:      "Algebra",
		Difficulty: problemgen.DifficultyEasy,
	}
}

type fixture struct {
	orch    *Orchestrator
	history *history.Tracker
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, cooldown time.Duration, policy llm.RetryPolicy, providers ...llm.Provider) fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	h := history.New(history.DefaultConfig())
	orch, err := New(Deps{
		Limiter: ratelimit.New(cooldown),
		Guard:   guard.New(guard.DefaultTTL),
		History: h,
		Chain:   llm.NewChainOf(policy, providers...),
		Logger:  zap.New(core),
	}, Config{})
	require.NoError(t, err)
	return fixture{orch: orch, history: h, logs: logs}
}

func TestGenerateQuestion_PrimarySuccess(t *testing.T) {
	primary := llm.NewNamedMockProvider("primary", llm.MockResponse{Text: validJSON})
	secondary := llm.NewNamedMockProvider("secondary")
	f := newFixture(t, 0, testPolicy(), primary, secondary)

	q, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
	require.NoError(t, err)

	assert.Equal(t, problemgen.SourcePrimary, q.Source)
	assert.Equal(t, "primary", q.Provider)
	assert.Equal(t, "Solve for x: 3x = 12", q.Question)
	assert.Contains(t, q.Solution, "Step 1:")
	assert.Equal(t, 0, secondary.CallCount())

	// The prompt names a syllabus subtopic for the topic.
	require.Len(t, primary.Calls, 1)
	assert.Contains(t, primary.Calls[0].Prompt, q.Subtopic)
	assert.NotEmpty(t, q.Subtopic)
}

func TestGenerateQuestion_StrictFallbackOrder(t *testing.T) {
	primary := llm.NewNamedMockProvider("primary")
	primary.Repeat(llm.MockResponse{Text: "Sure! Here is a question about algebra."})
	secondary := llm.NewNamedMockProvider("secondary", llm.MockResponse{Text: validJSON})
	f := newFixture(t, 0, testPolicy(), primary, secondary)

	q, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
	require.NoError(t, err)

	assert.Equal(t, problemgen.SourceFallback, q.Source)
	assert.Equal(t, "secondary", q.Provider)
	assert.Equal(t, 2, primary.CallCount(), "primary gets its full attempt budget first")
	assert.Equal(t, 1, secondary.CallCount())

	warns := f.logs.FilterMessage("provider attempt").FilterField(zap.String("failure_class", "validation"))
	assert.Equal(t, 2, warns.Len())
}

func TestGenerateQuestion_AlgebraEasyStaticScenario(t *testing.T) {
	slow := llm.MockResponse{Text: validJSON, Delay: time.Second}
	primary := llm.NewNamedMockProvider("primary")
	primary.Repeat(slow)
	secondary := llm.NewNamedMockProvider("secondary")
	secondary.Repeat(slow)
	f := newFixture(t, 0, testPolicy(), primary, secondary)

	req := algebraEasy()
	q, err := f.orch.GenerateQuestion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, problemgen.SourceStatic, q.Source)
	assert.Empty(t, q.Provider)
	assert.NotEmpty(t, q.Question)
	assert.NotEmpty(t, q.Solution)
	assert.NotEmpty(t, q.Answer)
	assert.Equal(t, 2, primary.CallCount())
	assert.Equal(t, 2, secondary.CallCount())

	fps := f.history.RecentFingerprints(req.ActorID, problemgen.SubjectKey(req.Subject))
	assert.Contains(t, fps, q.Fingerprint)
	assert.Contains(t, f.history.RecentSubtopics(req.ActorID, req.Topic), q.Subtopic)

	timeouts := f.logs.FilterMessage("provider attempt").FilterField(zap.Stringer("outcome", llm.OutcomeTimeout))
	assert.Equal(t, 4, timeouts.Len())
}

func TestGenerateQuestion_StaticRotation(t *testing.T) {
	f := newFixture(t, 0, testPolicy(), llm.NewNamedMockProvider("down"))

	first, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
	require.NoError(t, err)
	second, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
	require.NoError(t, err)

	assert.Equal(t, problemgen.SourceStatic, first.Source)
	assert.Equal(t, problemgen.SourceStatic, second.Source)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
}

func TestGenerateQuestion_StaticFallbackRecordsRotatedSubtopic(t *testing.T) {
	f := newFixture(t, 0, testPolicy(), llm.NewNamedMockProvider("down"))
	req := algebraEasy()

	var served []string
	for range 3 {
		q, err := f.orch.GenerateQuestion(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, problemgen.SourceStatic, q.Source)
		served = append(served, q.Subtopic)
	}

	var picks []string
	for _, e := range f.logs.FilterMessage("serving static question").All() {
		picks = append(picks, e.ContextMap()["subtopic"].(string))
	}
	require.Len(t, picks, 3)

	recent := f.history.RecentSubtopics(req.ActorID, req.Topic)
	for _, s := range append(picks, served...) {
		assert.Contains(t, recent, s)
	}
	assert.NotEqual(t, picks[0], picks[1], "rotation advances past a pick served from the bank")
	assert.NotEqual(t, picks[1], picks[2])
	assert.NotEqual(t, picks[0], picks[2])
	assert.Equal(t, served[2], recent[len(recent)-1], "the served subtopic is the most recent")
}

func TestGenerateQuestion_Totality(t *testing.T) {
	failures := []llm.MockResponse{
		{Err: &llm.ErrConnection{}},
		{Err: &llm.ErrProtocol{StatusCode: 500}},
		{Err: &llm.ErrRateLimit{}},
		{Err: llm.ErrEmptyResponse},
		{Text: "{not json"},
		{Text: `{"question": "x?"}`},
		{Text: `{"question": "What is 2 + 2?", "solution": "ok"}`},
	}
	for _, fail := range failures {
		p := llm.NewNamedMockProvider("flaky")
		p.Repeat(fail)
		f := newFixture(t, 0, testPolicy(), p)

		q, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
		require.NoError(t, err)
		assert.Equal(t, problemgen.SourceStatic, q.Source)
		assert.NotEmpty(t, q.Question)
	}
}

func TestGenerateQuestion_RateLimited(t *testing.T) {
	primary := llm.NewNamedMockProvider("primary")
	primary.Repeat(llm.MockResponse{Text: validJSON})
	f := newFixture(t, time.Minute, testPolicy(), primary)

	_, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
	require.NoError(t, err)
	require.Equal(t, 1, primary.CallCount())

	_, err = f.orch.GenerateQuestion(context.Background(), algebraEasy())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, primary.CallCount(), "no provider call when rate limited")

	// A different action is limited independently.
	req := algebraEasy()
	req.Action = "hint"
	_, err = f.orch.GenerateQuestion(context.Background(), req)
	assert.NoError(t, err)
}

// blockingProvider holds every call until release is closed.
type blockingProvider struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return &llm.Response{Text: validJSON}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *blockingProvider) ModelID() string { return "blocking" }
func (p *blockingProvider) Name() string    { return "blocking" }

func TestGenerateQuestion_GuardExclusivity(t *testing.T) {
	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	policy := llm.RetryPolicy{MaxAttempts: 1, BaseTimeout: 5 * time.Second}
	f := newFixture(t, 0, policy, p)

	type result struct {
		q   *problemgen.ValidatedQuestion
		err error
	}
	done := make(chan result, 1)
	go func() {
		q, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
		done <- result{q, err}
	}()
	<-p.started

	_, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
	assert.ErrorIs(t, err, ErrAlreadyGenerating)

	// Another actor is not blocked by the first one's generation.
	other := algebraEasy()
	other.ActorID = "student-2"
	otherDone := make(chan error, 1)
	go func() {
		_, err := f.orch.GenerateQuestion(context.Background(), other)
		otherDone <- err
	}()

	close(p.release)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, problemgen.SourcePrimary, first.q.Source)
	require.NoError(t, <-otherDone)

	// Released on completion.
	_, err = f.orch.GenerateQuestion(context.Background(), algebraEasy())
	assert.NoError(t, err)
}

// gatedProvider holds each call on its own gate, handed out on entered.
type gatedProvider struct {
	entered chan chan struct{}
}

func (p *gatedProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	gate := make(chan struct{})
	p.entered <- gate
	select {
	case <-gate:
		return &llm.Response{Text: validJSON}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *gatedProvider) ModelID() string { return "gated" }
func (p *gatedProvider) Name() string    { return "gated" }

func TestGenerateQuestion_ExpiredHolderDoesNotFreeNewHolder(t *testing.T) {
	p := &gatedProvider{entered: make(chan chan struct{}, 2)}
	core, logs := observer.New(zapcore.DebugLevel)
	orch, err := New(Deps{
		Limiter: ratelimit.New(0),
		Guard:   guard.New(200 * time.Millisecond),
		Chain:   llm.NewChainOf(llm.RetryPolicy{MaxAttempts: 1, BaseTimeout: 5 * time.Second}, p),
		Logger:  zap.New(core),
	}, Config{})
	require.NoError(t, err)

	generate := func() <-chan error {
		done := make(chan error, 1)
		go func() {
			_, err := orch.GenerateQuestion(context.Background(), algebraEasy())
			done <- err
		}()
		return done
	}

	firstDone := generate()
	firstGate := <-p.entered

	// The first holder outlives its TTL, so a second caller takes the key.
	time.Sleep(300 * time.Millisecond)
	secondDone := generate()
	secondGate := <-p.entered

	close(firstGate)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, logs.FilterMessage("guard expired before release").Len())

	_, err = orch.GenerateQuestion(context.Background(), algebraEasy())
	assert.ErrorIs(t, err, ErrAlreadyGenerating, "the second holder still owns the key")

	close(secondGate)
	require.NoError(t, <-secondDone)
	assert.False(t, orch.guard.Held("student-1", "mathematics_generating"))
}

func TestGenerateQuestion_ReleasesGuardOnFallback(t *testing.T) {
	f := newFixture(t, 0, testPolicy(), llm.NewNamedMockProvider("down"))

	_, err := f.orch.GenerateQuestion(context.Background(), algebraEasy())
	require.NoError(t, err)
	assert.False(t, f.orch.guard.Held("student-1", "mathematics_generating"))
}

func TestGenerateQuestion_BudgetShortCircuit(t *testing.T) {
	primary := llm.NewNamedMockProvider("primary")
	primary.Repeat(llm.MockResponse{Text: validJSON, Delay: time.Second})
	secondary := llm.NewNamedMockProvider("secondary")
	secondary.Repeat(llm.MockResponse{Text: validJSON, Delay: time.Second})
	policy := llm.RetryPolicy{MaxAttempts: 3, BaseTimeout: time.Second, TimeoutFactors: []float64{1, 2}}
	f := newFixture(t, 0, policy, primary, secondary)

	req := algebraEasy()
	req.TimeBudget = 50 * time.Millisecond

	start := time.Now()
	q, err := f.orch.GenerateQuestion(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, problemgen.SourceStatic, q.Source)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, secondary.CallCount())
}

func TestGenerateQuestion_CancelledContextFallsBack(t *testing.T) {
	primary := llm.NewNamedMockProvider("primary")
	primary.Repeat(llm.MockResponse{Text: validJSON, Delay: time.Second})
	f := newFixture(t, 0, testPolicy(), primary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q, err := f.orch.GenerateQuestion(ctx, algebraEasy())
	require.NoError(t, err)
	assert.Equal(t, problemgen.SourceStatic, q.Source)
}

func TestGenerateQuestion_InvalidRequest(t *testing.T) {
	primary := llm.NewNamedMockProvider("primary")
	f := newFixture(t, time.Minute, testPolicy(), primary)

	tests := []struct {
		name   string
		mutate func(*problemgen.GenerationRequest)
	}{
		{"missing actor", func(r *problemgen.GenerationRequest) { r.ActorID = "" }},
		{"missing topic", func(r *problemgen.GenerationRequest) { r.Topic = "" }},
		{"bad difficulty", func(r *problemgen.GenerationRequest) { r.Difficulty = "trivial" }},
		{"negative budget", func(r *problemgen.GenerationRequest) { r.TimeBudget = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := algebraEasy()
			tt.mutate(&req)
			_, err := f.orch.GenerateQuestion(context.Background(), req)
			assert.True(t, errors.Is(err, ErrInvalidRequest), "got %v", err)
		})
	}
	assert.Equal(t, 0, primary.CallCount())
	assert.Equal(t, 0, f.orch.limiter.Len(), "invalid requests never reach the limiter")
}

func TestNew_RequiresChain(t *testing.T) {
	_, err := New(Deps{}, Config{})
	assert.Error(t, err)
}
