package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SWE-agent/mini-swe-agent/core"
	"github.com/SWE-agent/mini-swe-agent/registry"
)

func writeDescriptor(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func loadRegistry(t *testing.T, descriptors map[string]string) *registry.Registry {
	t.Helper()
	dir := t.TempDir()
	for name, content := range descriptors {
		writeDescriptor(t, dir, name, content)
	}
	reg, err := registry.Load(dir)
	require.NoError(t, err)
	return reg
}

// spawnEnv echoes spawn-trigger commands back as their intended output so a
// scripted model can drive delegation without a real shell.
func spawnEnv() *funcEnv {
	return &funcEnv{handler: func(command string) (core.Output, error) {
		if strings.Contains(command, SpawnTrigger) {
			return core.Output{Text: strings.TrimPrefix(command, "emit "), ReturnCode: 0}, nil
		}
		if strings.HasPrefix(command, "submit ") {
			return core.Output{Text: "COMPLETE_TASK_AND_SUBMIT_FINAL_OUTPUT\n" + strings.TrimPrefix(command, "submit ")}, nil
		}
		return core.Output{Text: command + "\n", ReturnCode: 0}, nil
	}}
}

func TestSpawnDelegationRoundTrip(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"reviewer.md": "---\nname: reviewer\ndescription: Reviews changes\n---\nYou are a meticulous code reviewer.",
	})

	m := newScriptModel(
		bashBlock("emit "+SpawnTrigger+"::reviewer\nreview the diff"),
		bashBlock("submit looks good"), // child's turn
		bashBlock("submit parent done"),
	)
	a, err := New(m, spawnEnv(), func(o *Options) {
		cfg := DefaultConfig()
		cfg.Mode = ModeYolo
		o.Config = cfg
		o.Registry = reg
	})
	require.NoError(t, err)

	res, err := a.Run(context.Background(), "land the change")
	require.NoError(t, err)
	assert.Equal(t, string(Submitted), res.ExitStatus)
	assert.Equal(t, 3, m.calls)

	// The child's system prompt extends the parent's with the descriptor
	// body; the child's task is the trigger body.
	require.Len(t, m.histories, 3)
	childHistory := m.histories[1]
	require.GreaterOrEqual(t, len(childHistory), 2)
	assert.Contains(t, childHistory[0].Content, DefaultConfig().SystemTemplate)
	assert.Contains(t, childHistory[0].Content, "You are a meticulous code reviewer.")
	assert.Contains(t, childHistory[1].Content, "review the diff")

	// The child's submission folds into the parent history as an ordinary
	// observation under the child's hierarchical ID.
	folded := false
	for _, msg := range a.Messages() {
		if strings.Contains(msg.Content, "Agent ROOT::S1 returned:") {
			folded = true
			assert.Contains(t, msg.Content, "looks good")
			assert.Equal(t, 0, msg.Extra["returncode"])
		}
	}
	assert.True(t, folded, "folded child result missing from parent history")
}

func TestSpawnChildFailureFoldsAsError(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"worker.md": "---\nname: worker\ndescription: Does work\nstep_limit: 1\n---\nYou are a worker.",
	})

	m := newScriptModel(
		bashBlock("emit "+SpawnTrigger+"::worker\ngrind"),
		bashBlock("echo still going"), // child burns its single step
		bashBlock("submit recovered"),
	)
	a, err := New(m, spawnEnv(), func(o *Options) {
		cfg := DefaultConfig()
		cfg.Mode = ModeYolo
		o.Config = cfg
		o.Registry = reg
	})
	require.NoError(t, err)

	res, err := a.Run(context.Background(), "t")
	require.NoError(t, err)

	// The child's LimitsExceeded stays contained: the parent observes the
	// failure and carries on to its own submission.
	assert.Equal(t, string(Submitted), res.ExitStatus)

	folded := false
	for _, msg := range a.Messages() {
		if strings.Contains(msg.Content, "Agent ROOT::S1 failed with LimitsExceeded") {
			folded = true
			assert.Equal(t, 1, msg.Extra["returncode"])
		}
	}
	assert.True(t, folded, "folded child failure missing from parent history")
}

func TestSpawnWithoutNameIsCorrected(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"reviewer.md": "---\nname: reviewer\ndescription: Reviews changes\n---\nReview.",
	})

	m := newScriptModel(
		bashBlock("emit "+SpawnTrigger),
		bashBlock("submit fine"),
	)
	a, err := New(m, spawnEnv(), func(o *Options) {
		cfg := DefaultConfig()
		cfg.Mode = ModeYolo
		o.Config = cfg
		o.Registry = reg
	})
	require.NoError(t, err)

	res, err := a.Run(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, string(Submitted), res.ExitStatus)

	// No child ran: the second model call is the parent reacting to the
	// corrective observation, which lists the available subagents.
	assert.Equal(t, 2, m.calls)
	corrected := false
	for _, msg := range a.Messages() {
		if strings.Contains(msg.Content, "Invalid spawn command") {
			corrected = true
			assert.Contains(t, msg.Content, "- reviewer: Reviews changes")
		}
	}
	assert.True(t, corrected, "corrective observation missing")
}

func TestSpawnUnknownName(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"reviewer.md": "---\nname: reviewer\ndescription: Reviews changes\n---\nReview.",
	})

	m := newScriptModel(
		bashBlock("emit "+SpawnTrigger+"::ghost\ndo something"),
		bashBlock("submit fine"),
	)
	a, err := New(m, spawnEnv(), func(o *Options) {
		cfg := DefaultConfig()
		cfg.Mode = ModeYolo
		o.Config = cfg
		o.Registry = reg
	})
	require.NoError(t, err)

	res, err := a.Run(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, string(Submitted), res.ExitStatus)
	assert.Equal(t, 2, m.calls)

	seen := false
	for _, msg := range a.Messages() {
		if strings.Contains(msg.Content, `Subagent "ghost" not found in registry`) {
			seen = true
			assert.Contains(t, msg.Content, "- reviewer: Reviews changes")
		}
	}
	assert.True(t, seen, "unknown-name observation missing")
}

func TestSpawnWithoutRegistry(t *testing.T) {
	m := newScriptModel(
		bashBlock("emit "+SpawnTrigger+"::anyone\nhelp"),
		bashBlock("submit fine"),
	)
	a, err := New(m, spawnEnv(), yoloOpts(DefaultConfig()))
	require.NoError(t, err)

	res, err := a.Run(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, string(Submitted), res.ExitStatus)

	seen := false
	for _, msg := range a.Messages() {
		if strings.Contains(msg.Content, "No subagents available.") {
			seen = true
		}
	}
	assert.True(t, seen)
}

func TestSpawnChildIDsIncrement(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"reviewer.md": "---\nname: reviewer\ndescription: Reviews\n---\nReview.",
	})

	m := newScriptModel(
		bashBlock("emit "+SpawnTrigger+"::reviewer\nfirst"),
		bashBlock("submit one"),
		bashBlock("emit "+SpawnTrigger+"::reviewer\nsecond"),
		bashBlock("submit two"),
		bashBlock("submit done"),
	)
	a, err := New(m, spawnEnv(), func(o *Options) {
		cfg := DefaultConfig()
		cfg.Mode = ModeYolo
		o.Config = cfg
		o.Registry = reg
	})
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "t")
	require.NoError(t, err)

	history := a.Messages()
	var ids []string
	for _, msg := range history {
		for _, id := range []string{"ROOT::S1", "ROOT::S2"} {
			if strings.Contains(msg.Content, "Agent "+id+" returned:") {
				ids = append(ids, id)
			}
		}
	}
	assert.Equal(t, []string{"ROOT::S1", "ROOT::S2"}, ids)
}

func TestSpawnRejectsUnknownOverrideKeys(t *testing.T) {
	reg := loadRegistry(t, map[string]string{
		"typo.md": "---\nname: typo\ndescription: Bad override\nstep_limt: 1\n---\nOops.",
	})

	m := newScriptModel(
		bashBlock("emit "+SpawnTrigger+"::typo\ntask"),
		bashBlock("submit fine"),
	)
	a, err := New(m, spawnEnv(), func(o *Options) {
		cfg := DefaultConfig()
		cfg.Mode = ModeYolo
		o.Config = cfg
		o.Registry = reg
	})
	require.NoError(t, err)

	res, err := a.Run(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, string(Submitted), res.ExitStatus)

	seen := false
	for _, msg := range a.Messages() {
		if strings.Contains(msg.Content, `Could not construct subagent "typo"`) {
			seen = true
		}
	}
	assert.True(t, seen, "construction failure observation missing")
}

func TestModeChangeFromChildVisibleHierarchyWide(t *testing.T) {
	a, err := New(newScriptModel("x"), spawnEnv(), yoloOpts(DefaultConfig()))
	require.NoError(t, err)

	desc := registry.Descriptor{Name: "helper", Prompt: "Help."}
	child, err := a.spawnChild(desc)
	require.NoError(t, err)
	assert.Equal(t, "ROOT::S1", child.ID())

	child.SetMode(ModeHuman)
	assert.Equal(t, ModeHuman, a.Mode(), "mode written by a child must be read at the root")

	grandchild, err := child.spawnChild(desc)
	require.NoError(t, err)
	assert.Equal(t, "ROOT::S1::S1", grandchild.ID())
	assert.Equal(t, ModeHuman, grandchild.Mode())
}

func TestParseSpawn(t *testing.T) {
	name, task, err := parseSpawn(SpawnTrigger + "::helper\nline one\nline two")
	require.NoError(t, err)
	assert.Equal(t, "helper", name)
	assert.Equal(t, "line one\nline two", task)

	_, _, err = parseSpawn(SpawnTrigger + "\ntask")
	assert.Error(t, err)

	_, _, err = parseSpawn(SpawnTrigger + "::\ntask")
	assert.Error(t, err)

	_, _, err = parseSpawn("something else entirely")
	assert.Error(t, err)
}
