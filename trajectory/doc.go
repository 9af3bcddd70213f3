// Package trajectory defines the persisted record of one agent run: the
// ordered message history, the terminal status with its submission, and the
// cost/step totals. The on-disk shape is versioned via the format tag and
// must stay stable for downstream tooling; the tag increments whenever any
// field's meaning changes.
package trajectory
