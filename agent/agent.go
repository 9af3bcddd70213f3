package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/SWE-agent/mini-swe-agent/core"
	"github.com/SWE-agent/mini-swe-agent/environment"
	"github.com/SWE-agent/mini-swe-agent/internal/util"
	"github.com/SWE-agent/mini-swe-agent/logging"
	"github.com/SWE-agent/mini-swe-agent/model"
	"github.com/SWE-agent/mini-swe-agent/registry"
)

// RootID is the hierarchical ID of a top-level agent.
const RootID = "ROOT"

// Options configures agent construction.
type Options struct {
	Config   Config
	Registry *registry.Registry
	Logger   logging.Logger
	Approver Approver
	// ExtraTemplateVars are merged into the template bundle on every
	// render, taking precedence over environment and built-in vars.
	ExtraTemplateVars map[string]any
}

// Result is the terminal outcome of a run.
type Result struct {
	// ExitStatus names the terminal signal kind (Submitted, LimitsExceeded,
	// UserInterruption).
	ExitStatus string
	// Submission is the payload of a Submitted signal, empty otherwise.
	Submission string
	// Steps is the number of completed steps.
	Steps int
	// Cost is the hierarchy-wide model spend at termination.
	Cost float64
}

// Agent coordinates one run: it owns the message history and step counter,
// drives the model and environment, and spawns child agents on delegation
// triggers. An Agent runs synchronously and single-threaded; a parent
// blocks for its child's entire run.
type Agent struct {
	cfg       Config
	model     model.Model
	env       environment.Environment
	registry  *registry.Registry
	logger    logging.Logger
	approver  Approver
	whitelist []*regexp.Regexp

	runID  string
	id     string
	parent *Agent
	mode   *modeCell

	task      string
	extraVars map[string]any

	messages []core.Message
	steps    int
	children int

	// Consecutive recoverable-signal counters; reset on every
	// successfully completed step.
	formatErrors int
	timeouts     int
}

// New constructs a root agent. The model and environment instances are
// shared with any children the agent spawns, which makes cost accounting
// and working-directory state hierarchy-wide.
func New(m model.Model, env environment.Environment, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Config:   DefaultConfig(),
		Logger:   logging.NoOpLogger{},
		Approver: AutoApprover{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	whitelist, err := compileWhitelist(opts.Config.WhitelistActions)
	if err != nil {
		return nil, err
	}

	mode := opts.Config.Mode
	if mode == "" {
		mode = ModeConfirm
	}

	a := &Agent{
		cfg:       opts.Config,
		model:     m,
		env:       env,
		registry:  opts.Registry,
		logger:    opts.Logger,
		approver:  opts.Approver,
		whitelist: whitelist,
		runID:     util.NewID(),
		id:        RootID,
		mode:      &modeCell{mode: mode},
		extraVars: opts.ExtraTemplateVars,
	}
	return a, nil
}

func compileWhitelist(patterns []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("whitelist pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// ID returns the agent's hierarchical ID (e.g. ROOT::S1::S2).
func (a *Agent) ID() string { return a.id }

// RunID returns the unique identifier of this agent instance.
func (a *Agent) RunID() string { return a.runID }

// Steps returns the number of completed steps.
func (a *Agent) Steps() int { return a.steps }

// Config returns the agent's configuration.
func (a *Agent) Config() Config { return a.cfg }

// Model returns the shared model instance.
func (a *Agent) Model() model.Model { return a.model }

// Messages returns a copy of the accumulated message history.
func (a *Agent) Messages() []core.Message {
	out := make([]core.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// Mode reads the hierarchy's current mode through the root.
func (a *Agent) Mode() Mode { return a.root().mode.get() }

// SetMode writes the hierarchy's mode at the root, so every agent in the
// hierarchy observes the change on its next check.
func (a *Agent) SetMode(m Mode) { a.root().mode.set(m) }

func (a *Agent) root() *Agent {
	r := a
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (a *Agent) append(msg core.Message) {
	a.messages = append(a.messages, msg)
}

// Run executes the step loop until a terminal signal is raised. Every
// signal is caught here exactly once and its message appended to history
// before the loop continues (recoverable) or returns (terminal), so the
// trajectory always records why a run stopped. Non-signal errors (template
// mistakes, programming errors) abort the run as ordinary errors.
func (a *Agent) Run(ctx context.Context, task string) (Result, error) {
	a.task = task
	a.messages = nil
	a.steps = 0

	system, err := a.render(a.cfg.SystemTemplate, nil)
	if err != nil {
		return Result{}, err
	}
	instance, err := a.render(a.cfg.InstanceTemplate, nil)
	if err != nil {
		return Result{}, err
	}
	a.append(core.NewMessage(core.RoleSystem, system))
	a.append(core.NewMessage(core.RoleUser, instance))

	a.logger.Info("agent run started", "agent_id", a.id, "run_id", a.runID)

	for {
		err := a.step(ctx)
		if err == nil {
			continue
		}

		sig, ok := AsSignal(err)
		if !ok {
			return Result{}, err
		}
		sig = a.escalate(sig)

		a.append(core.NewMessage(core.RoleUser, sig.Message).
			WithExtra("interrupt_type", string(sig.Kind)))

		if !sig.Terminal() {
			a.logger.Debug("recoverable signal", "agent_id", a.id, "kind", sig.Kind)
			continue
		}

		stats := a.model.Stats()
		a.logger.Info("agent run finished",
			"agent_id", a.id, "exit_status", sig.Kind, "steps", a.steps, "cost", stats.Cost)
		return Result{
			ExitStatus: string(sig.Kind),
			Submission: sig.Payload,
			Steps:      a.steps,
			Cost:       stats.Cost,
		}, nil
	}
}

// escalate converts a recoverable signal into LimitsExceeded once its
// consecutive-occurrence ceiling is reached.
func (a *Agent) escalate(sig *Signal) *Signal {
	switch sig.Kind {
	case FormatError:
		a.formatErrors++
		if a.cfg.FormatErrorLimit > 0 && a.formatErrors >= a.cfg.FormatErrorLimit {
			return NewLimitsExceeded(fmt.Sprintf(
				"Giving up after %d consecutive format errors. Last error: %s",
				a.formatErrors, sig.Message))
		}
	case TimeoutError:
		a.timeouts++
		if a.cfg.TimeoutLimit > 0 && a.timeouts >= a.cfg.TimeoutLimit {
			return NewLimitsExceeded(fmt.Sprintf(
				"Giving up after %d consecutive execution timeouts. Last error: %s",
				a.timeouts, sig.Message))
		}
	}
	return sig
}

// step performs one iteration of the protocol: model turn, action
// execution, observation, limit check. Any flow-control condition is
// returned as a *Signal.
func (a *Agent) step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewUserInterruption("Run interrupted: " + err.Error())
	}
	if err := a.checkLimits(); err != nil {
		return err
	}

	turn, err := a.model.GetTurn(ctx, a.messages, a.templateVars())
	if err != nil {
		if ctx.Err() != nil {
			return NewUserInterruption("Run interrupted: " + ctx.Err().Error())
		}
		// Malformed or failed provider responses are retryable like any
		// other parse failure; the escalation ceiling keeps them bounded.
		return NewFormatError(fmt.Sprintf("The model backend failed: %v. Please try again.", err))
	}

	msg := turn.Message
	if len(turn.Actions) > 0 {
		commands := make([]string, len(turn.Actions))
		for i, act := range turn.Actions {
			commands[i] = act.Command
		}
		msg = msg.WithExtra("actions", commands)
	}
	a.append(msg)

	if len(turn.Actions) == 0 {
		rendered, rerr := a.render(a.cfg.FormatErrorTemplate, nil)
		if rerr != nil {
			return rerr
		}
		return NewFormatError(rendered)
	}

	if err := a.executeActions(ctx, turn.Actions); err != nil {
		return err
	}

	a.formatErrors, a.timeouts = 0, 0
	a.steps++
	return a.checkLimits()
}

// executeActions runs the turn's actions in order. A rejected action ends
// the turn early with the reviewer's comment fed back as an observation.
func (a *Agent) executeActions(ctx context.Context, actions []core.Action) error {
	for _, action := range actions {
		proceed, err := a.gateAction(action)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
		if err := a.runAction(ctx, action); err != nil {
			return err
		}
	}
	return nil
}

// gateAction applies the hierarchy's mode policy to one action. It reports
// whether execution should proceed; a rejection appends the corrective
// observation itself.
func (a *Agent) gateAction(action core.Action) (bool, error) {
	mode := a.Mode()
	ask := mode == ModeHuman || (mode == ModeConfirm && !a.whitelisted(action.Command))
	if !ask {
		return true, nil
	}

	decision, comment := a.approver.Approve(a.id, action)
	switch decision {
	case Approved:
		return true, nil
	case Interrupted:
		return false, NewUserInterruption("Run interrupted by user.")
	default:
		content := "Command not executed."
		if comment != "" {
			content = "Command not executed. The user commented: " + comment
		}
		a.append(core.NewMessage(core.RoleUser, content).
			WithExtra("rejected_command", action.Command))
		return false, nil
	}
}

func (a *Agent) whitelisted(command string) bool {
	for _, re := range a.whitelist {
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// runAction executes one approved action and appends its observation.
func (a *Agent) runAction(ctx context.Context, action core.Action) error {
	isSpawn := strings.Contains(action.Command, SpawnTrigger)

	out, err := a.env.Execute(ctx, action.Command)
	if errors.Is(err, environment.ErrTimeout) {
		rendered, rerr := a.render(a.cfg.TimeoutTemplate, map[string]any{
			"action": action.Command,
			"output": out.Text,
		})
		if rerr != nil {
			return rerr
		}
		return NewTimeoutError(rendered)
	}
	if err != nil {
		if ctx.Err() != nil {
			return NewUserInterruption("Run interrupted: " + ctx.Err().Error())
		}
		return fmt.Errorf("execute action: %w", err)
	}

	if isSpawn {
		out = a.handleSpawn(ctx, out)
	} else if submission, ok := extractSubmission(out.Text); ok {
		return NewSubmitted(submission)
	}

	content, err := a.render(a.cfg.ActionObservationTemplate, map[string]any{
		"output":     out.Text,
		"returncode": out.ReturnCode,
	})
	if err != nil {
		return err
	}

	a.append(core.Message{
		Role:    core.RoleUser,
		Content: content,
		Extra: map[string]any{
			"raw_output":  out.Text,
			"returncode":  out.ReturnCode,
			"duration_ms": out.Duration.Milliseconds(),
			"truncated":   out.Truncated,
		},
	})
	return nil
}

// extractSubmission checks whether output starts with a completion marker
// and, if so, returns everything after the marker line as the submission.
func extractSubmission(output string) (string, bool) {
	lines := strings.SplitAfter(strings.TrimLeft(output, " \t\r\n"), "\n")
	if len(lines) == 0 {
		return "", false
	}
	first := strings.TrimSpace(lines[0])
	for _, marker := range CompletionMarkers {
		if first == marker {
			return strings.Join(lines[1:], ""), true
		}
	}
	return "", false
}

// checkLimits raises LimitsExceeded when the per-agent step ceiling or the
// hierarchy-wide cost ceiling has been reached.
func (a *Agent) checkLimits() error {
	if a.cfg.StepLimit > 0 && a.steps >= a.cfg.StepLimit {
		return NewLimitsExceeded(fmt.Sprintf(
			"Step limit reached: %d steps used (limit %d).", a.steps, a.cfg.StepLimit))
	}
	stats := a.model.Stats()
	if a.cfg.CostLimit > 0 && stats.Cost >= a.cfg.CostLimit {
		return NewLimitsExceeded(fmt.Sprintf(
			"Cost limit reached: $%.2f spent (limit $%.2f).", stats.Cost, a.cfg.CostLimit))
	}
	return nil
}

// templateVars builds the variable bundle handed to prompt rendering:
// environment state, run counters, the registry listing and any caller
// extras (highest precedence).
func (a *Agent) templateVars() map[string]any {
	subagents := "No subagents available."
	if a.registry != nil && a.registry.Len() > 0 {
		subagents = a.registry.Describe()
	}
	return util.MergeVars(
		a.env.TemplateVars(),
		map[string]any{
			"task":      a.task,
			"step":      a.steps,
			"cost":      a.model.Stats().Cost,
			"agent_id":  a.id,
			"mode":      string(a.Mode()),
			"subagents": subagents,
		},
		a.extraVars,
	)
}

func (a *Agent) render(tpl string, extra map[string]any) (string, error) {
	return util.RenderTemplate(tpl, util.MergeVars(a.templateVars(), extra))
}
