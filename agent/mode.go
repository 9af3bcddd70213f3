package agent

import (
	"sync"

	"github.com/SWE-agent/mini-swe-agent/core"
)

// Mode is the execution policy governing whether actions require
// confirmation before the environment runs them.
type Mode string

const (
	// ModeHuman routes every proposed action through the approver.
	ModeHuman Mode = "human"
	// ModeConfirm asks the approver for actions not covered by the
	// configured whitelist.
	ModeConfirm Mode = "confirm"
	// ModeYolo executes actions without asking.
	ModeYolo Mode = "yolo"
)

// modeCell is the root-owned single source of truth for the hierarchy's
// mode. Every agent holds a reference to its root's cell and reads through
// it on each check, so a change at any depth is visible everywhere
// immediately. It is a per-hierarchy cell, never a process global: multiple
// independent hierarchies can coexist in one process.
type modeCell struct {
	mu   sync.Mutex
	mode Mode
}

func (c *modeCell) get() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *modeCell) set(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

// Decision is the approver's verdict on a proposed action.
type Decision int

const (
	// Approved: execute the action.
	Approved Decision = iota
	// Rejected: skip execution; the comment is fed back to the model as a
	// corrective observation.
	Rejected
	// Interrupted: stop the whole run.
	Interrupted
)

// Approver decides whether a proposed action may run. Implementations range
// from an interactive terminal prompt to an always-approve policy. The
// agentID identifies which agent in the hierarchy is asking. An approver
// may also flip the hierarchy's mode via SetMode on the asking agent before
// returning.
type Approver interface {
	Approve(agentID string, action core.Action) (Decision, string)
}

// AutoApprover approves every action. It is the default when no approver is
// configured, which makes yolo the effective policy regardless of mode.
type AutoApprover struct{}

// Approve implements Approver.
func (AutoApprover) Approve(string, core.Action) (Decision, string) { return Approved, "" }
