package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SWE-agent/mini-swe-agent/core"
)

func TestExtractActionsSingleBlock(t *testing.T) {
	content := "Let me check the directory.\n\n```bash\nls -la\n```\n"
	actions := ExtractActions(content)
	assert.Equal(t, []core.Action{{Command: "ls -la"}}, actions)
}

func TestExtractActionsMultipleBlocks(t *testing.T) {
	content := "First:\n```bash\necho one\n```\nthen:\n```bash\necho two\n```"
	actions := ExtractActions(content)
	require.Len(t, actions, 2)
	assert.Equal(t, "echo one", actions[0].Command)
	assert.Equal(t, "echo two", actions[1].Command)
}

func TestExtractActionsMultiline(t *testing.T) {
	content := "```bash\ncd /tmp\nls\n```"
	actions := ExtractActions(content)
	require.Len(t, actions, 1)
	assert.Equal(t, "cd /tmp\nls", actions[0].Command)
}

func TestExtractActionsNone(t *testing.T) {
	assert.Empty(t, ExtractActions("I need to think about this first."))
	assert.Empty(t, ExtractActions("```python\nprint('no')\n```"))
}

func TestExtractActionsHeredoc(t *testing.T) {
	content := "```bash\ncat <<'EOF' > notes.md\nsome ```bash\ninside the heredoc\nEOF\n```"
	actions := ExtractActions(content)
	require.Len(t, actions, 1)
	assert.Equal(t, "cat <<'EOF' > notes.md\nsome ```bash\ninside the heredoc\nEOF", actions[0].Command)
}

func TestExtractActionsHeredocThenPlain(t *testing.T) {
	content := "```bash\ncat <<EOF > f.txt\nhello\nEOF\n```\nand then\n```bash\ncat f.txt\n```"
	actions := ExtractActions(content)
	require.Len(t, actions, 2)
	assert.Equal(t, "cat <<EOF > f.txt\nhello\nEOF", actions[0].Command)
	assert.Equal(t, "cat f.txt", actions[1].Command)
}

func TestMockModelReplaysScript(t *testing.T) {
	m := NewMockModel("first ```bash\necho a\n```", "second")
	m.SetCostPerCall(0.5)

	turn, err := m.GetTurn(t.Context(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, turn.Message.Content, "first")
	require.Len(t, turn.Actions, 1)
	assert.Equal(t, "echo a", turn.Actions[0].Command)

	turn, err = m.GetTurn(t.Context(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", turn.Message.Content)
	assert.Empty(t, turn.Actions)

	// Exhausted scripts repeat the last response.
	turn, err = m.GetTurn(t.Context(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", turn.Message.Content)

	stats := m.Stats()
	assert.Equal(t, 3, stats.Calls)
	assert.InDelta(t, 1.5, stats.Cost, 1e-9)
}

func TestLedgerAccumulates(t *testing.T) {
	var l Ledger
	l.Add(0.25)
	l.Add(0.75)
	stats := l.Stats()
	assert.Equal(t, 2, stats.Calls)
	assert.InDelta(t, 1.0, stats.Cost, 1e-9)
}
