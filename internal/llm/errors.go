package llm

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrTimeout indicates the attempt did not complete within its timeout.
type ErrTimeout struct {
	Timeout time.Duration
	Err     error
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("provider timed out after %s: %v", e.Timeout, e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

// ErrConnection indicates the provider could not be reached.
type ErrConnection struct {
	Err error
}

func (e *ErrConnection) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unreachable: %v", e.Err)
	}
	return "provider unreachable"
}

func (e *ErrConnection) Unwrap() error { return e.Err }

// ErrProtocol indicates a non-2xx or malformed transport response.
type ErrProtocol struct {
	StatusCode int
	Err        error
}

func (e *ErrProtocol) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider protocol error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider protocol error: %v", e.Err)
}

func (e *ErrProtocol) Unwrap() error { return e.Err }

// ErrEmptyResponse indicates the provider answered but produced no text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// ErrInvalidResponse indicates the provider returned text that the
// response validator rejected.
type ErrInvalidResponse struct {
	Content string
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid provider response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrChainExhausted is returned by Chain.Run when every provider used up
// its retry budget without producing an accepted response.
var ErrChainExhausted = errors.New("all providers exhausted")

// ErrBudgetExhausted is returned by Chain.Run when the caller's time budget
// ran out before a provider produced an accepted response.
var ErrBudgetExhausted = errors.New("time budget exhausted")
