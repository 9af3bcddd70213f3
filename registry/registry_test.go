package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "reviewer.md",
		"---\nname: reviewer\ndescription: Reviews code changes\nstep_limit: 10\n---\nYou review diffs carefully.")
	writeFile(t, dir, "tester.md",
		"---\nname: tester\ndescription: Runs the test suite\n---\nYou run tests.")
	writeFile(t, dir, "notes.txt", "not a descriptor")

	reg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"reviewer", "tester"}, reg.Names())

	desc, ok := reg.Lookup("reviewer")
	require.True(t, ok)
	assert.Equal(t, "Reviews code changes", desc.Description)
	assert.Equal(t, "You review diffs carefully.", desc.Prompt)
	assert.Equal(t, 10, desc.Metadata["step_limit"])

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestLoadMissingDirectory(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, "No subagents available.", reg.Describe())
}

func TestLoadDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "---\nname: twin\n---\nFirst.")
	writeFile(t, dir, "b.md", "---\nname: twin\n---\nSecond.")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate subagent name")
}

func TestLoadBadDescriptor(t *testing.T) {
	for name, content := range map[string]string{
		"no-frontmatter": "just a prompt body",
		"unterminated":   "---\nname: x\nnever closed",
		"nameless":       "---\ndescription: who am I\n---\nBody.",
		"bad-yaml":       "---\nname: [unclosed\n---\nBody.",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "bad.md", content)
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestParse(t *testing.T) {
	desc, err := Parse("---\nname: helper\ndescription: Helps out\nmode: yolo\n---\n\nYou are helpful.\n")
	require.NoError(t, err)
	assert.Equal(t, "helper", desc.Name)
	assert.Equal(t, "Helps out", desc.Description)
	assert.Equal(t, "You are helpful.", desc.Prompt)
	assert.Equal(t, "yolo", desc.Metadata["mode"])
	assert.Equal(t, "helper", desc.Metadata["name"])
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "---\nname: beta\ndescription: Second helper\n---\nB.")
	writeFile(t, dir, "a.md", "---\nname: alpha\n---\nA.")

	reg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t,
		"- alpha: No description provided\n- beta: Second helper",
		reg.Describe())
}
