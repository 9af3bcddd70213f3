package trajectory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SWE-agent/mini-swe-agent/core"
)

// Format is the current trajectory format tag.
const Format = "mini-swe-agent-1"

// ModelStats carries the cost/step totals of a run.
type ModelStats struct {
	InstanceCost float64 `json:"instance_cost"`
	APICalls     int     `json:"api_calls"`
}

// Info is the run-level metadata block.
type Info struct {
	ExitStatus string         `json:"exit_status"`
	Submission string         `json:"submission"`
	ModelStats ModelStats     `json:"model_stats"`
	Config     map[string]any `json:"config,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Trajectory is the serialized form of a completed or terminated run. It is
// pure data: no references to model or environment instances.
type Trajectory struct {
	Info     Info           `json:"info"`
	Messages []core.Message `json:"messages"`
	Format   string         `json:"trajectory_format"`
}

// New builds a trajectory from a run's history and terminal state.
func New(messages []core.Message, exitStatus, submission string, stats ModelStats) Trajectory {
	if messages == nil {
		messages = []core.Message{}
	}
	return Trajectory{
		Info: Info{
			ExitStatus: exitStatus,
			Submission: submission,
			ModelStats: stats,
		},
		Messages: messages,
		Format:   Format,
	}
}

// Marshal renders the trajectory as indented JSON. encoding/json emits map
// keys in sorted order, so marshalling is deterministic: unmarshalling and
// re-marshalling yields byte-identical output.
func (t Trajectory) Marshal() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Save writes the trajectory to path, creating parent directories as needed.
func Save(path string, t Trajectory) error {
	data, err := t.Marshal()
	if err != nil {
		return fmt.Errorf("marshal trajectory: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create trajectory directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trajectory: %w", err)
	}
	return nil
}

// Load reads a trajectory back from disk.
func Load(path string) (Trajectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Trajectory{}, fmt.Errorf("read trajectory: %w", err)
	}
	var t Trajectory
	if err := json.Unmarshal(data, &t); err != nil {
		return Trajectory{}, fmt.Errorf("parse trajectory: %w", err)
	}
	return t, nil
}
