package model

import (
	"context"
	"sync"

	"github.com/SWE-agent/mini-swe-agent/core"
)

// Turn is the result of one model call: the assistant message to append to
// history, the actions extracted from it (zero or more, in order of
// appearance) and the cost of the call in provider currency.
type Turn struct {
	Message core.Message
	Actions []core.Action
	Cost    float64
}

// Stats is the cumulative call/cost ledger of a model instance. A hierarchy
// of agents shares one model instance, so these totals are root-anchored by
// construction: a subagent's calls count against the same ledger as its
// parent's.
type Stats struct {
	Calls int     `json:"api_calls"`
	Cost  float64 `json:"instance_cost"`
}

// Model is the interface the agent coordinator drives. Implementations must
// be stateless across calls apart from the Stats ledger: everything the
// model needs is in the history it is handed.
//
// vars carries the template-variable bundle (task, step, cost, environment
// state); adapters may consult it but most ignore it.
type Model interface {
	GetTurn(ctx context.Context, history []core.Message, vars map[string]any) (Turn, error)

	// Stats returns the cumulative call count and cost for this instance.
	Stats() Stats

	// Name returns the provider-qualified model name for logging and
	// trajectory metadata.
	Name() string
}

// Ledger is a small embeddable cost/call accumulator for adapters. It is
// safe for sequential reuse across a parent/child hierarchy and guarded for
// the case of independent hierarchies sharing one adapter by mistake.
type Ledger struct {
	mu    sync.Mutex
	stats Stats
}

// Add records one completed call with the given cost.
func (l *Ledger) Add(cost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.Calls++
	l.stats.Cost += cost
}

// Stats returns a snapshot of the ledger.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
