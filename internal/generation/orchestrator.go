// Package generation produces exam questions. It gates each request on the
// rate limiter and the in-flight guard, walks the provider chain with
// validation, and falls back to the static bank so that an admitted
// request always yields a question.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/examgen/internal/fallback"
	"github.com/abhisek/examgen/internal/guard"
	"github.com/abhisek/examgen/internal/history"
	"github.com/abhisek/examgen/internal/llm"
	"github.com/abhisek/examgen/internal/problemgen"
	"github.com/abhisek/examgen/internal/ratelimit"
	"github.com/abhisek/examgen/internal/syllabus"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/abhisek/examgen/internal/generation"

// Deps are the collaborators of an Orchestrator. Chain is required; the
// rest fall back to defaults when nil.
type Deps struct {
	Limiter   *ratelimit.Limiter
	Guard     *guard.Guard
	History   *history.Tracker
	Chain     *llm.Chain
	Validator *problemgen.ResponseValidator
	Bank      *fallback.Bank
	Syllabus  *syllabus.Catalog
	Logger    *zap.Logger
	Tracer    trace.Tracer
}

// Config tunes the orchestrator.
type Config struct {
	// DefaultBudget applies to requests that carry no TimeBudget.
	// Zero leaves such requests unbounded.
	DefaultBudget time.Duration `yaml:"default_budget"`

	// RateCooldown is used to build a limiter when Deps has none.
	RateCooldown time.Duration `yaml:"-"`
}

// Orchestrator runs the generation pipeline. It is safe for concurrent
// use.
type Orchestrator struct {
	limiter   *ratelimit.Limiter
	guard     *guard.Guard
	history   *history.Tracker
	chain     *llm.Chain
	validator *problemgen.ResponseValidator
	bank      *fallback.Bank
	syllabus  *syllabus.Catalog
	logger    *zap.Logger
	tracer    trace.Tracer
	validate  *validator.Validate
	cfg       Config
	now       func() time.Time
}

// New wires an Orchestrator.
func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Chain == nil {
		return nil, errors.New("generation: provider chain is required")
	}

	o := &Orchestrator{
		limiter:   deps.Limiter,
		guard:     deps.Guard,
		history:   deps.History,
		chain:     deps.Chain,
		validator: deps.Validator,
		bank:      deps.Bank,
		syllabus:  deps.Syllabus,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		cfg:       cfg,
		now:       time.Now,
	}
	if o.limiter == nil {
		o.limiter = ratelimit.New(cfg.RateCooldown)
	}
	if o.guard == nil {
		o.guard = guard.New(max(guard.DefaultTTL, deps.Chain.MaxDuration()))
	}
	if o.history == nil {
		o.history = history.New(history.DefaultConfig())
	}
	if o.validator == nil {
		o.validator = problemgen.NewResponseValidator(problemgen.DefaultConfig())
	}
	if o.bank == nil {
		bank, err := fallback.Load(o.validator.Config().MinSolutionLen)
		if err != nil {
			return nil, fmt.Errorf("load fallback bank: %w", err)
		}
		o.bank = bank
	}
	if o.syllabus == nil {
		cat, err := syllabus.Default()
		if err != nil {
			return nil, fmt.Errorf("load syllabus: %w", err)
		}
		o.syllabus = cat
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	o.logger = o.logger.Named("generation")
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o, nil
}

// GenerateQuestion produces one question for req.
//
// Only ErrInvalidRequest, ErrRateLimited and ErrAlreadyGenerating are
// returned; every other failure is absorbed by the static bank.
func (o *Orchestrator) GenerateQuestion(ctx context.Context, req problemgen.GenerationRequest) (q *problemgen.ValidatedQuestion, err error) {
	requestID := uuid.NewString()
	ctx, span := o.tracer.Start(ctx, "generation.GenerateQuestion",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("actor.id", req.ActorID),
			attribute.String("subject", req.Subject),
			attribute.String("topic", req.Topic),
			attribute.String("difficulty", string(req.Difficulty)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.String("source", string(q.Source)),
				attribute.String("provider", q.Provider),
			)
		}
		span.End()
	}()

	ctx = llm.WithRequestID(llm.WithPurpose(ctx, "question"), requestID)

	log := o.logger.With(
		zap.String("request_id", requestID),
		zap.String("actor", req.ActorID),
		zap.String("subject", req.Subject),
		zap.String("topic", req.Topic),
		zap.String("difficulty", string(req.Difficulty)),
	)
	enter := func(s state) {
		log.Debug("generation state", zap.String("state", string(s)))
		span.AddEvent(string(s))
	}

	enter(stateInit)
	if verr := o.validate.Struct(req); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, verr)
	}

	enter(stateRateCheck)
	if o.limiter.IsLimited(req.ActorID, req.RateAction()) {
		enter(stateBlocked)
		log.Info("request rate limited", zap.String("action", req.RateAction()))
		return nil, ErrRateLimited
	}

	enter(stateGuardAcquire)
	kind := req.GenerationKind()
	token, acquired := o.guard.TryAcquire(req.ActorID, kind)
	if !acquired {
		enter(stateBlocked)
		log.Info("generation already in flight", zap.String("kind", kind))
		return nil, ErrAlreadyGenerating
	}
	defer func() {
		if !o.guard.Release(req.ActorID, kind, token) {
			log.Warn("guard expired before release", zap.String("kind", kind))
		}
	}()

	enter(stateSubtopicSelect)
	subtopic := o.history.ChooseSubtopic(req.ActorID, req.Topic, o.syllabus.Subtopics(req.Subject, req.Topic))
	log = log.With(zap.String("subtopic", subtopic))

	enter(stateProviderLoop)
	q, cause := o.fromProviders(ctx, req, subtopic, log, span)
	if q == nil {
		enter(stateStaticFallback)
		log.Warn("serving static question", zap.Error(cause))
		q = o.fromBank(req, subtopic)
	}

	enter(stateRecord)
	o.history.RecordFingerprint(req.ActorID, problemgen.SubjectKey(req.Subject), q.Fingerprint)
	// A bank item may carry its own subtopic. The rotated pick is recorded
	// as well so rotation keeps advancing while providers are down.
	if q.Subtopic != subtopic {
		o.history.RecordSubtopic(req.ActorID, req.Topic, subtopic)
	}
	o.history.RecordSubtopic(req.ActorID, req.Topic, q.Subtopic)

	enter(stateDone)
	log.Info("question generated",
		zap.String("id", q.ID),
		zap.String("source", string(q.Source)),
		zap.String("provider", q.Provider),
	)
	return q, nil
}

// fromProviders walks the chain. It returns nil and the reason when no
// provider produced a valid question.
func (o *Orchestrator) fromProviders(ctx context.Context, req problemgen.GenerationRequest, subtopic string, log *zap.Logger, span trace.Span) (*problemgen.ValidatedQuestion, error) {
	recent := o.history.RecentSubtopics(req.ActorID, req.Topic)
	llmReq := problemgen.BuildRequest(req, subtopic, recent, o.validator.Config())

	budget := req.TimeBudget
	if budget <= 0 {
		budget = o.cfg.DefaultBudget
	}

	var accepted *problemgen.ValidatedQuestion
	accept := func(providerIndex int, provider, text string) error {
		q, err := o.validator.Validate(text, req, subtopic, problemgen.SourceForProvider(providerIndex), provider)
		if err != nil {
			return err
		}
		accepted = q
		return nil
	}
	observe := func(a llm.Attempt) {
		fields := []zap.Field{
			zap.String("provider", a.Provider),
			zap.String("model", a.Model),
			zap.Int("provider_index", a.ProviderIndex),
			zap.Int("attempt", a.Index+1),
			zap.Duration("timeout", a.Timeout),
			zap.Duration("latency", a.Latency),
			zap.Stringer("outcome", a.Outcome),
		}
		switch a.Outcome {
		case llm.OutcomeSuccess:
			log.Debug("provider attempt", fields...)
		case llm.OutcomeInvalidPayload:
			log.Warn("provider attempt", append(fields, zap.String("failure_class", "validation"), zap.Error(a.Err))...)
		case llm.OutcomeProtocolError:
			log.Warn("provider attempt", append(fields, zap.String("failure_class", "protocol"), zap.Error(a.Err))...)
		default:
			log.Info("provider attempt", append(fields, zap.Error(a.Err))...)
		}
		span.AddEvent("provider.attempt", trace.WithAttributes(
			attribute.String("provider", a.Provider),
			attribute.Int("attempt", a.Index+1),
			attribute.Int64("timeout_ms", a.Timeout.Milliseconds()),
			attribute.Int64("latency_ms", a.Latency.Milliseconds()),
			attribute.String("outcome", a.Outcome.String()),
		))
	}

	res, err := o.chain.Run(ctx, llmReq, budget, accept, observe)
	if err != nil {
		return nil, err
	}
	log.Debug("provider accepted",
		zap.String("provider", res.Provider),
		zap.Int("attempts", res.Attempts),
	)
	return accepted, nil
}

// fromBank picks the first static candidate the actor has not seen
// recently. The item's own subtopic wins over the rotated one.
func (o *Orchestrator) fromBank(req problemgen.GenerationRequest, subtopic string) *problemgen.ValidatedQuestion {
	items := o.bank.Candidates(req.Topic, req.Difficulty)
	items = history.Filter(o.history, req.ActorID, problemgen.SubjectKey(req.Subject), items, func(it fallback.Item) string {
		return history.Fingerprint(it.Question)
	})

	it := items[0]
	if it.Subtopic != "" {
		subtopic = it.Subtopic
	}
	return problemgen.Finalize(it.Candidate(), req, subtopic, problemgen.SourceStatic, "", o.now())
}
