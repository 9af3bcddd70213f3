// Package agent implements the run coordinator: it owns the message
// history, drives the model/environment step loop, enforces step and cost
// limits, and handles hierarchical delegation to subagents loaded from a
// registry.
//
// Termination is expressed through flow-control signals: typed errors that
// unwind the step and are caught exactly once at the top of the run loop,
// where the signal's message is appended to history before the loop either
// continues (recoverable signals) or exits to a terminal state.
package agent
