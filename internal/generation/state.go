package generation

// state names the stages a generation passes through. Only used for
// logging and span events.
type state string

const (
	stateInit           state = "init"
	stateRateCheck      state = "rate_check"
	stateGuardAcquire   state = "guard_acquire"
	stateSubtopicSelect state = "subtopic_select"
	stateProviderLoop   state = "provider_loop"
	stateStaticFallback state = "static_fallback"
	stateRecord         state = "record"
	stateDone           state = "done"
	stateBlocked        state = "blocked"
)
