package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/SWE-agent/mini-swe-agent/core"
	"github.com/SWE-agent/mini-swe-agent/registry"
)

// SpawnTrigger is the marker a command's output must start with to request
// delegation. The full trigger line is SpawnTrigger, the :: separator and a
// registry name; the lines after it are the child's task.
const SpawnTrigger = "MINI_SWE_AGENT_SPAWN_CHILD"

// spawnSeparator splits the trigger from the delegation name.
const spawnSeparator = "::"

// parseSpawn extracts the subagent name and task body from a trigger
// output. A trigger without a name is a format violation: anonymous
// spawning is disallowed so every child has an accountable identity.
func parseSpawn(output string) (name, task string, err error) {
	trimmed := strings.TrimSpace(output)
	trigger, body, _ := strings.Cut(trimmed, "\n")
	trigger = strings.TrimSpace(trigger)

	if !strings.HasPrefix(trigger, SpawnTrigger) {
		return "", "", fmt.Errorf("spawn trigger is not the first line of the output")
	}
	rest := strings.TrimPrefix(trigger, SpawnTrigger)
	if !strings.HasPrefix(rest, spawnSeparator) {
		return "", "", fmt.Errorf("spawn trigger has no subagent name")
	}
	name = strings.TrimSpace(strings.TrimPrefix(rest, spawnSeparator))
	if name == "" {
		return "", "", fmt.Errorf("spawn trigger has no subagent name")
	}
	return name, strings.TrimSpace(body), nil
}

// handleSpawn turns a spawn-trigger output into the observation for this
// step: either the folded result of a completed child run or a corrective
// message when the trigger is malformed or names an unknown subagent.
// All child-side failures resolve here; nothing propagates to the parent
// as a signal.
func (a *Agent) handleSpawn(ctx context.Context, out core.Output) core.Output {
	name, task, err := parseSpawn(out.Text)
	if err != nil {
		a.logger.Warn("invalid spawn trigger", "agent_id", a.id, "error", err)
		return core.Output{
			Text: fmt.Sprintf(
				"Invalid spawn command: %v.\nUse '%s%s<name>' followed by the task on the next lines, "+
					"where <name> is one of the registered subagents:\n%s",
				err, SpawnTrigger, spawnSeparator, a.subagentListing()),
			ReturnCode: 1,
		}
	}

	var desc registry.Descriptor
	ok := false
	if a.registry != nil {
		desc, ok = a.registry.Lookup(name)
	}
	if !ok {
		return core.Output{
			Text: fmt.Sprintf("Subagent %q not found in registry. Available subagents:\n%s",
				name, a.subagentListing()),
			ReturnCode: 1,
		}
	}

	child, err := a.spawnChild(desc)
	if err != nil {
		return core.Output{
			Text:       fmt.Sprintf("Could not construct subagent %q: %v", name, err),
			ReturnCode: 1,
		}
	}

	a.logger.Info("spawning subagent", "parent", a.id, "child", child.id, "subagent", name)
	res, err := child.Run(ctx, task)
	if err != nil {
		return core.Output{
			Text:       fmt.Sprintf("Agent %s failed: %v", child.id, err),
			ReturnCode: 1,
		}
	}

	if res.ExitStatus == string(Submitted) {
		return core.Output{
			Text:       fmt.Sprintf("Agent %s returned:\n%s", child.id, res.Submission),
			ReturnCode: 0,
		}
	}
	lastMessage := ""
	if msgs := child.Messages(); len(msgs) > 0 {
		lastMessage = msgs[len(msgs)-1].Content
	}
	return core.Output{
		Text:       fmt.Sprintf("Agent %s failed with %s: %s", child.id, res.ExitStatus, lastMessage),
		ReturnCode: 1,
	}
}

// spawnChild builds a child coordinator sharing this agent's model,
// environment, registry, approver and logger. The child's hierarchical ID
// is parent::S<n> with n the 1-based count of children spawned so far; its
// system prompt is the parent's system template extended with the
// descriptor body; descriptor metadata (minus identity fields) is applied
// as configuration overrides. Mode is not copied: the child reads it
// through the root.
func (a *Agent) spawnChild(desc registry.Descriptor) (*Agent, error) {
	overrides := make(map[string]any, len(desc.Metadata))
	for k, v := range desc.Metadata {
		if k == "name" || k == "description" {
			continue
		}
		overrides[k] = v
	}

	cfg, err := a.cfg.withOverrides(overrides)
	if err != nil {
		return nil, err
	}
	if desc.Prompt != "" {
		cfg.SystemTemplate = a.cfg.SystemTemplate + "\n\n" + desc.Prompt
	}

	whitelist, err := compileWhitelist(cfg.WhitelistActions)
	if err != nil {
		return nil, err
	}

	a.children++
	child := &Agent{
		cfg:       cfg,
		model:     a.model,
		env:       a.env,
		registry:  a.registry,
		logger:    a.logger,
		approver:  a.approver,
		whitelist: whitelist,
		runID:     a.runID,
		id:        fmt.Sprintf("%s%sS%d", a.id, spawnSeparator, a.children),
		parent:    a,
		mode:      a.root().mode,
		extraVars: a.extraVars,
	}
	return child, nil
}

func (a *Agent) subagentListing() string {
	if a.registry == nil || a.registry.Len() == 0 {
		return "No subagents available."
	}
	return a.registry.Describe()
}
