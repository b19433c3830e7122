package llm

import (
	"context"
	"errors"
	"net"
	"time"
)

// Outcome is the closed set of results of a single provider attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimeout
	OutcomeConnectionError
	OutcomeProtocolError
	OutcomeEmptyResponse
	OutcomeInvalidPayload
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeConnectionError:
		return "connection_error"
	case OutcomeProtocolError:
		return "protocol_error"
	case OutcomeEmptyResponse:
		return "empty_response"
	case OutcomeInvalidPayload:
		return "invalid_payload"
	default:
		return "unknown"
	}
}

// Transient reports whether the outcome is network flakiness rather than a
// possible prompt/schema mismatch. Both kinds advance the chain the same
// way; the distinction only matters for logging.
func (o Outcome) Transient() bool {
	return o == OutcomeTimeout || o == OutcomeConnectionError
}

// Classify maps an error returned by Provider.Generate (or by the
// validator hook) onto an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}

	var to *ErrTimeout
	if errors.As(err, &to) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}

	if errors.Is(err, ErrEmptyResponse) {
		return OutcomeEmptyResponse
	}

	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return OutcomeInvalidPayload
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return OutcomeProtocolError
	}
	var proto *ErrProtocol
	if errors.As(err, &proto) {
		return OutcomeProtocolError
	}

	// Connection failures and anything unrecognised are treated as
	// transient transport errors.
	return OutcomeConnectionError
}

// RetryAfterHint returns the provider-suggested wait carried by a 429
// error, or zero.
func RetryAfterHint(err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}
