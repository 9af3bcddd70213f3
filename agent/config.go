package agent

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// CompletionMarkers are the strings that, as the first non-blank line of a
// command's output, signal task completion. Everything after the marker
// line is the submission.
var CompletionMarkers = []string{
	"COMPLETE_TASK_AND_SUBMIT_FINAL_OUTPUT",
	"MINI_SWE_AGENT_FINAL_OUTPUT",
}

// Config holds the per-agent templates, limits and mode. Templates are
// rendered with text/template against the merged variable bundle (task,
// step, cost, environment state, registry listing).
type Config struct {
	SystemTemplate   string `yaml:"system_template" json:"system_template"`
	InstanceTemplate string `yaml:"instance_template" json:"instance_template"`
	// TimeoutTemplate renders the observation for a timed-out command;
	// it sees {{.action}} and {{.output}} (the partial output).
	TimeoutTemplate string `yaml:"timeout_template" json:"timeout_template"`
	// FormatErrorTemplate renders the corrective message when a model turn
	// contains no action.
	FormatErrorTemplate string `yaml:"format_error_template" json:"format_error_template"`
	// ActionObservationTemplate renders each execution result; it sees
	// {{.output}} and {{.returncode}}.
	ActionObservationTemplate string `yaml:"action_observation_template" json:"action_observation_template"`

	// StepLimit bounds the number of completed steps; 0 means unlimited.
	StepLimit int `yaml:"step_limit" json:"step_limit"`
	// CostLimit bounds the hierarchy-wide model spend; 0 means unlimited.
	CostLimit float64 `yaml:"cost_limit" json:"cost_limit"`
	// FormatErrorLimit is the number of consecutive format errors tolerated
	// before the run escalates to LimitsExceeded.
	FormatErrorLimit int `yaml:"format_error_limit" json:"format_error_limit"`
	// TimeoutLimit is the number of consecutive execution timeouts
	// tolerated before the run escalates to LimitsExceeded.
	TimeoutLimit int `yaml:"timeout_limit" json:"timeout_limit"`

	// Mode is the initial execution policy of the hierarchy; subagents
	// always inherit the root's current mode.
	Mode Mode `yaml:"mode" json:"mode"`
	// WhitelistActions are regular expressions for actions that never need
	// confirmation in confirm mode.
	WhitelistActions []string `yaml:"whitelist_actions" json:"whitelist_actions,omitempty"`
}

// DefaultConfig returns the bare-minimum settings to run the agent. Real
// deployments override the templates from a config file.
func DefaultConfig() Config {
	return Config{
		SystemTemplate: "You are a helpful assistant that can interact with a computer to solve tasks.",
		InstanceTemplate: "Your task: {{.task}}. Please reply with a single shell command in triple backticks. " +
			"To finish, the first line of the output of the shell command must be " +
			"'COMPLETE_TASK_AND_SUBMIT_FINAL_OUTPUT'.",
		TimeoutTemplate: "The last command <command>{{.action}}</command> timed out and has been killed.\n" +
			"The output of the command was:\n<output>\n{{.output}}\n</output>\n" +
			"Please try another command and make sure to avoid those requiring interactive input.",
		FormatErrorTemplate:       "No valid shell command found. Please provide your action in triple backticks (```bash ... ```).",
		ActionObservationTemplate: "<returncode>{{.returncode}}</returncode>\n<output>\n{{.output}}</output>",
		StepLimit:                 0,
		CostLimit:                 3.0,
		FormatErrorLimit:          3,
		TimeoutLimit:              3,
		Mode:                      ModeConfirm,
	}
}

// withOverrides applies a descriptor's metadata as configuration overrides,
// returning a new config. Keys follow the yaml field names; unknown keys
// are rejected so a typo in a descriptor fails loudly at spawn time.
func (c Config) withOverrides(meta map[string]any) (Config, error) {
	if len(meta) == 0 {
		return c, nil
	}
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return c, fmt.Errorf("marshal overrides: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("apply overrides: %w", err)
	}
	return c, nil
}
