package generation

import "errors"

var (
	// ErrRateLimited is returned when the actor asked again inside the
	// cooldown window. No provider was contacted.
	ErrRateLimited = errors.New("rate limited: try again later")

	// ErrAlreadyGenerating is returned when a generation of the same kind
	// is already in flight for the actor.
	ErrAlreadyGenerating = errors.New("a question is already being generated")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid generation request")
)
