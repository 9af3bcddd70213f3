package environment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/SWE-agent/mini-swe-agent/core"
)

// LocalConfig configures a LocalEnvironment.
type LocalConfig struct {
	// Cwd is the working directory for commands. Empty means the process
	// working directory.
	Cwd string `yaml:"cwd" json:"cwd"`
	// Env variables are appended to the inherited environment.
	Env map[string]string `yaml:"env" json:"env,omitempty"`
	// TimeoutSeconds bounds each command. Zero means the default (30s).
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// Shell is the interpreter used to run commands ("sh" by default).
	Shell string `yaml:"shell" json:"shell"`

	Truncate TruncateConfig `yaml:"truncate" json:"truncate"`
}

// DefaultLocalConfig returns the baseline local execution settings.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		TimeoutSeconds: 30,
		Shell:          "sh",
		Truncate:       DefaultTruncateConfig(),
	}
}

// LocalEnvironment executes shell commands directly on the local machine.
// Working-directory and process state persist across calls only insofar as
// commands mutate the filesystem: each command runs in a fresh shell rooted
// at Cwd, matching the single-shot execution contract.
type LocalEnvironment struct {
	cfg LocalConfig
}

// NewLocalEnvironment creates a local environment from the given config,
// filling unset fields from the defaults.
func NewLocalEnvironment(cfg LocalConfig) *LocalEnvironment {
	def := DefaultLocalConfig()
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = def.TimeoutSeconds
	}
	if cfg.Shell == "" {
		cfg.Shell = def.Shell
	}
	if cfg.Truncate == (TruncateConfig{}) {
		cfg.Truncate = def.Truncate
	}
	return &LocalEnvironment{cfg: cfg}
}

// Config returns the environment configuration.
func (e *LocalEnvironment) Config() LocalConfig { return e.cfg }

// Execute runs one command through the shell with stdout and stderr merged.
// A non-zero exit is not an error; it is reported through ReturnCode. On
// timeout the partial output collected so far is returned together with a
// wrapped ErrTimeout.
func (e *LocalEnvironment) Execute(ctx context.Context, command string) (core.Output, error) {
	timeout := time.Duration(e.cfg.TimeoutSeconds) * time.Second
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, e.cfg.Shell, "-c", command)
	cmd.Dir = e.cfg.Cwd
	cmd.Env = os.Environ()
	for k, v := range e.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	start := time.Now()
	raw, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	text, truncated := e.cfg.Truncate.Truncate(string(raw))
	out := core.Output{Text: text, Duration: elapsed, Truncated: truncated}

	if execCtx.Err() == context.DeadlineExceeded {
		out.ReturnCode = -1
		return out, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		out.ReturnCode = 0
	case errors.As(err, &exitErr):
		out.ReturnCode = exitErr.ExitCode()
	default:
		// The command could not be started at all; surface the reason as
		// output so the model can react to it.
		out.Text = err.Error()
		out.ReturnCode = 127
	}
	return out, nil
}

// TemplateVars implements Environment.
func (e *LocalEnvironment) TemplateVars() map[string]any {
	cwd := e.cfg.Cwd
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	hostname, _ := os.Hostname()
	return map[string]any{
		"cwd":      cwd,
		"os":       runtime.GOOS,
		"arch":     runtime.GOARCH,
		"hostname": hostname,
		"shell":    e.cfg.Shell,
	}
}
