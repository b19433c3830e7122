package llm

import (
	"context"
	"time"
)

// RetryPolicy configures the per-provider attempt budget and the progressive
// timeout schedule.
type RetryPolicy struct {
	// MaxAttempts is the number of attempts made against one provider
	// before the chain moves on to the next one.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseTimeout is the timeout of the first attempt.
	BaseTimeout time.Duration `yaml:"base_timeout"`

	// TimeoutFactors scales BaseTimeout per attempt index. Attempts beyond
	// the end of the list reuse the last factor. Factors are expected to
	// be non-decreasing; TimeoutFor enforces it regardless.
	TimeoutFactors []float64 `yaml:"timeout_factors"`

	// Delay is the fixed pause between two attempts against the same
	// provider.
	Delay time.Duration `yaml:"delay"`

	// MaxWait caps a provider's Retry-After hint. A hint longer than this
	// abandons the provider instead of waiting. Zero leaves hints
	// uncapped.
	MaxWait time.Duration `yaml:"max_wait"`
}

// DefaultRetryPolicy returns the base, 1.5x, 2x, 2.5x schedule with three
// attempts per provider.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseTimeout:    20 * time.Second,
		TimeoutFactors: []float64{1, 1.5, 2, 2.5},
		Delay:          1 * time.Second,
		MaxWait:        5 * time.Second,
	}
}

// Schedule returns the timeouts used for attempts 0..MaxAttempts-1.
func (p RetryPolicy) Schedule() []time.Duration {
	out := make([]time.Duration, 0, p.attempts())
	for i := range p.attempts() {
		out = append(out, p.TimeoutFor(i))
	}
	return out
}

// TimeoutFor returns the timeout for the given zero-based attempt index.
// The result is never smaller than the timeout of any earlier attempt.
func (p RetryPolicy) TimeoutFor(attempt int) time.Duration {
	if len(p.TimeoutFactors) == 0 {
		return p.BaseTimeout
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(p.TimeoutFactors) {
		attempt = len(p.TimeoutFactors) - 1
	}

	factor := 0.0
	for _, f := range p.TimeoutFactors[:attempt+1] {
		factor = max(factor, f)
	}
	return time.Duration(float64(p.BaseTimeout) * factor)
}

// WaitBefore returns how long to pause before retrying the same provider
// after err. A 429 retry-after hint wins when it is longer than the fixed
// delay. It returns false when the hint exceeds MaxWait and the provider
// should be abandoned.
func (p RetryPolicy) WaitBefore(err error) (time.Duration, bool) {
	wait := p.Delay
	if hint := RetryAfterHint(err); hint > wait {
		if p.MaxWait > 0 && hint > p.MaxWait {
			return 0, false
		}
		wait = hint
	}
	return wait, true
}

// MaxDuration is the longest one provider can occupy the chain: every
// attempt running to its timeout with the longest allowed wait between
// attempts.
func (p RetryPolicy) MaxDuration() time.Duration {
	var total time.Duration
	for _, d := range p.Schedule() {
		total += d
	}
	return total + time.Duration(p.attempts()-1)*max(p.Delay, p.MaxWait)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
