package agent

import "errors"

// SignalKind identifies a flow-control condition. The kind doubles as the
// exit status recorded in the trajectory when the signal is terminal.
type SignalKind string

const (
	// Submitted: the task is complete; the signal payload carries the
	// submission text.
	Submitted SignalKind = "Submitted"
	// LimitsExceeded: a step, cost or retry ceiling was reached.
	LimitsExceeded SignalKind = "LimitsExceeded"
	// FormatError: the model output could not be parsed into an action.
	// Recoverable; escalates to LimitsExceeded after repeated occurrences.
	FormatError SignalKind = "FormatError"
	// TimeoutError: action execution exceeded its allotted time.
	// Recoverable; escalates after repeated consecutive occurrences.
	TimeoutError SignalKind = "TimeoutError"
	// UserInterruption: external cancellation. Always terminal.
	UserInterruption SignalKind = "UserInterruption"
)

// Signal is a tagged flow-control value carrying a human-readable message
// and, for Submitted, the submission payload. It implements error so it can
// unwind the step loop through ordinary return paths and be recovered with
// errors.As.
type Signal struct {
	Kind    SignalKind
	Message string
	Payload string
}

// Error implements the error interface.
func (s *Signal) Error() string { return s.Message }

// Terminal reports whether the signal ends the run.
func (s *Signal) Terminal() bool {
	switch s.Kind {
	case Submitted, LimitsExceeded, UserInterruption:
		return true
	}
	return false
}

// NewSubmitted builds the success terminal signal. The payload is the
// submission text; the message is what gets appended to history.
func NewSubmitted(payload string) *Signal {
	return &Signal{Kind: Submitted, Message: "Task completed, submission received.", Payload: payload}
}

// NewLimitsExceeded builds the resource-exhaustion terminal signal.
func NewLimitsExceeded(message string) *Signal {
	return &Signal{Kind: LimitsExceeded, Message: message}
}

// NewFormatError builds the recoverable parse-failure signal.
func NewFormatError(message string) *Signal {
	return &Signal{Kind: FormatError, Message: message}
}

// NewTimeoutError builds the recoverable execution-timeout signal.
func NewTimeoutError(message string) *Signal {
	return &Signal{Kind: TimeoutError, Message: message}
}

// NewUserInterruption builds the immediate terminal cancellation signal.
func NewUserInterruption(message string) *Signal {
	return &Signal{Kind: UserInterruption, Message: message}
}

// AsSignal extracts a Signal from an error chain.
func AsSignal(err error) (*Signal, bool) {
	var sig *Signal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}
