// Package minisweagent provides a small façade for assembling a ready-to-run
// agent from a configuration: it picks the model backend, builds the local
// execution environment, loads the subagent registry and wires everything
// into an agent.Agent. Applications that need finer control construct the
// pieces from the subpackages directly.
package minisweagent

import (
	"encoding/json"
	"fmt"

	"github.com/SWE-agent/mini-swe-agent/agent"
	"github.com/SWE-agent/mini-swe-agent/config"
	"github.com/SWE-agent/mini-swe-agent/environment"
	"github.com/SWE-agent/mini-swe-agent/logging"
	"github.com/SWE-agent/mini-swe-agent/model"
	"github.com/SWE-agent/mini-swe-agent/model/anthropic"
	"github.com/SWE-agent/mini-swe-agent/model/openai"
	"github.com/SWE-agent/mini-swe-agent/registry"
	"github.com/SWE-agent/mini-swe-agent/trajectory"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
)

// Version of the module.
const Version = "0.1.0"

// Options customizes agent assembly beyond what the config file covers.
type Options struct {
	Logger   logging.Logger
	Approver agent.Approver
}

// NewModel builds the model backend selected by the configuration.
func NewModel(cfg config.Model) (model.Model, error) {
	switch cfg.Provider {
	case "anthropic", "":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.InputCostPerMTok = cfg.InputCostPerMTok
			o.OutputCostPerMTok = cfg.OutputCostPerMTok
			o.Extra = cfg.Extra
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.InputCostPerMTok = cfg.InputCostPerMTok
			o.OutputCostPerMTok = cfg.OutputCostPerMTok
			o.Extra = cfg.Extra
		}), nil
	case "mock":
		return model.NewMockModel("I cannot act without scripted responses."), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// NewAgent assembles a root agent from the configuration.
func NewAgent(cfg config.Config, optFns ...func(o *Options)) (*agent.Agent, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	m, err := NewModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	env := environment.NewLocalEnvironment(cfg.Environment)
	reg, err := registry.Load(cfg.AgentsDir)
	if err != nil {
		return nil, err
	}

	return agent.New(m, env, func(o *agent.Options) {
		o.Config = cfg.Agent
		o.Registry = reg
		if opts.Logger != nil {
			o.Logger = opts.Logger
		}
		if opts.Approver != nil {
			o.Approver = opts.Approver
		}
	})
}

// SaveTrajectory persists a finished run to path, including the agent
// configuration so a saved run is reproducible from its trajectory alone.
func SaveTrajectory(path string, a *agent.Agent, res agent.Result) error {
	stats := a.Model().Stats()
	tr := trajectory.New(
		a.Messages(),
		res.ExitStatus,
		res.Submission,
		trajectory.ModelStats{InstanceCost: stats.Cost, APICalls: stats.Calls},
	)

	raw, err := json.Marshal(a.Config())
	if err != nil {
		return fmt.Errorf("marshal agent config: %w", err)
	}
	var cfgMap map[string]any
	if err := json.Unmarshal(raw, &cfgMap); err != nil {
		return fmt.Errorf("marshal agent config: %w", err)
	}
	tr.Info.Config = map[string]any{"agent": cfgMap, "model": a.Model().Name()}
	tr.Info.Extra = map[string]any{"mini_version": Version}

	return trajectory.Save(path, tr)
}
