package environment

import (
	"context"
	"errors"

	"github.com/SWE-agent/mini-swe-agent/core"
)

// ErrTimeout is returned (wrapped) by Execute when a command exceeds its
// allotted time. The returned Output still carries whatever the command
// produced before it was killed.
var ErrTimeout = errors.New("command timed out")

// Environment executes actions and reports their raw output. Execute must
// enforce a per-action timeout and return ErrTimeout rather than hanging;
// it must never return an error for a command that merely exits non-zero.
type Environment interface {
	Execute(ctx context.Context, command string) (core.Output, error)

	// TemplateVars exposes environment state (working directory, platform)
	// to prompt template rendering.
	TemplateVars() map[string]any
}
