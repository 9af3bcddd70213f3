// Package config loads run configuration from YAML. A config file is
// overlaid onto the defaults, so partial files are fine.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SWE-agent/mini-swe-agent/agent"
	"github.com/SWE-agent/mini-swe-agent/environment"
)

// Model selects and parameterizes the model backend.
type Model struct {
	// Provider is one of "anthropic", "openai" or "mock".
	Provider string `yaml:"provider"`
	// Name is the provider model id (e.g. claude-3-5-sonnet-20241022).
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	// Cost overrides in USD per million tokens; zero uses the built-in
	// price table.
	InputCostPerMTok  float64 `yaml:"input_cost_per_mtok"`
	OutputCostPerMTok float64 `yaml:"output_cost_per_mtok"`
	// Extra is passed through opaquely to the provider request.
	Extra map[string]any `yaml:"extra"`
}

// Config is the full run configuration.
type Config struct {
	Agent       agent.Config            `yaml:"agent"`
	Model       Model                   `yaml:"model"`
	Environment environment.LocalConfig `yaml:"environment"`
	// AgentsDir is the subagent descriptor directory scanned at startup.
	AgentsDir string `yaml:"agents_dir"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Agent:       agent.DefaultConfig(),
		Model:       Model{Provider: "anthropic"},
		Environment: environment.DefaultLocalConfig(),
		AgentsDir:   ".mini-swe-agent/agents",
	}
}

// Load reads a YAML config file and overlays it onto the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
