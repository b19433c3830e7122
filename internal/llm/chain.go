package llm

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Attempt records a single call to one provider. Attempts are reported to
// the chain's observer and then discarded.
type Attempt struct {
	Provider      string
	Model         string
	ProviderIndex int
	Index         int
	Timeout       time.Duration
	Outcome       Outcome
	Latency       time.Duration
	Raw           string
	Err           error
}

// AcceptFunc inspects the raw text of a successful call. A non-nil error
// rejects the text and the attempt counts as an invalid payload.
type AcceptFunc func(providerIndex int, provider, text string) error

// Observer receives every attempt the chain makes, in order.
type Observer func(Attempt)

// Result identifies the provider whose response was accepted.
type Result struct {
	Text          string
	Provider      string
	ProviderIndex int
	Attempts      int
}

// Chain walks an ordered list of providers. Each provider gets the full
// retry budget of the policy before the next one is tried; providers are
// never raced.
type Chain struct {
	providers []Provider
	policy    RetryPolicy
}

// NewChainOf builds a chain from providers in priority order.
func NewChainOf(policy RetryPolicy, providers ...Provider) *Chain {
	return &Chain{providers: providers, policy: policy}
}

// Providers returns the providers in priority order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// Policy returns the retry policy applied to every provider.
func (c *Chain) Policy() RetryPolicy {
	return c.policy
}

// MaxDuration is the longest a full unbudgeted Run can take.
func (c *Chain) MaxDuration() time.Duration {
	return time.Duration(len(c.providers)) * c.policy.MaxDuration()
}

// Run sends req through the chain until accept approves a response.
//
// When budget is positive, the timeouts of all attempts together never
// exceed it: each attempt's timeout is clamped to what is left, and once
// nothing is left Run returns ErrBudgetExhausted without starting another
// attempt. A retry wait that would not fit the remaining budget, or a
// retry-after hint beyond the policy's MaxWait, moves on to the next
// provider. When every provider is exhausted Run returns ErrChainExhausted.
// If ctx itself is cancelled, ctx.Err() is returned.
func (c *Chain) Run(ctx context.Context, req Request, budget time.Duration, accept AcceptFunc, observe Observer) (*Result, error) {
	bounded := budget > 0
	deadline := time.Now().Add(budget)

	total := 0
	for pi, p := range c.providers {
		for i := range c.policy.attempts() {
			timeout := c.policy.TimeoutFor(i)
			if bounded {
				left := time.Until(deadline)
				if left <= 0 {
					return nil, ErrBudgetExhausted
				}
				timeout = min(timeout, left)
			}

			total++
			att := c.attempt(ctx, p, pi, i, timeout, req, accept)
			if observe != nil {
				observe(att)
			}
			if att.Outcome == OutcomeSuccess {
				return &Result{
					Text:          att.Raw,
					Provider:      p.Name(),
					ProviderIndex: pi,
					Attempts:      total,
				}, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if i == c.policy.attempts()-1 {
				break
			}
			// A wait that is too long gives up on this provider only.
			wait, ok := c.policy.WaitBefore(att.Err)
			if !ok || (bounded && wait >= time.Until(deadline)) {
				break
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	if bounded && time.Until(deadline) <= 0 {
		return nil, ErrBudgetExhausted
	}
	return nil, ErrChainExhausted
}

func (c *Chain) attempt(ctx context.Context, p Provider, providerIndex, index int, timeout time.Duration, req Request, accept AcceptFunc) Attempt {
	att := Attempt{
		Provider:      p.Name(),
		Model:         p.ModelID(),
		ProviderIndex: providerIndex,
		Index:         index,
		Timeout:       timeout,
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.Generate(attemptCtx, req)
	att.Latency = time.Since(start)

	switch {
	case err != nil:
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			var to *ErrTimeout
			if !errors.As(err, &to) {
				err = &ErrTimeout{Timeout: timeout, Err: err}
			}
		}
	case resp == nil || strings.TrimSpace(resp.Text) == "":
		err = ErrEmptyResponse
	default:
		att.Raw = resp.Text
		if resp.Model != "" {
			att.Model = resp.Model
		}
		if accept != nil {
			if aerr := accept(providerIndex, p.Name(), resp.Text); aerr != nil {
				err = &ErrInvalidResponse{Content: resp.Text, Err: aerr}
			}
		}
	}

	att.Err = err
	att.Outcome = Classify(err)
	return att
}
