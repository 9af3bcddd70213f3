package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor is one loaded subagent definition. Metadata holds the full
// frontmatter mapping; keys other than name and description are consumed as
// configuration overrides for the spawned child agent.
type Descriptor struct {
	Name        string
	Description string
	Prompt      string
	Metadata    map[string]any
}

// Registry maps delegation names to descriptors. Immutable once loaded.
type Registry struct {
	byName map[string]Descriptor
	names  []string
}

// Load scans dir for *.md descriptor files and builds a registry. A missing
// directory yields an empty registry rather than an error so agents can run
// without any delegation targets configured. A file without frontmatter or
// without a name is a load error: every spawn target must have an
// accountable identity.
func Load(dir string) (*Registry, error) {
	reg := &Registry{byName: map[string]Descriptor{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("read subagent directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read descriptor %s: %w", path, err)
		}
		desc, err := Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse descriptor %s: %w", path, err)
		}
		if _, dup := reg.byName[desc.Name]; dup {
			return nil, fmt.Errorf("duplicate subagent name %q in %s", desc.Name, path)
		}
		reg.byName[desc.Name] = desc
		reg.names = append(reg.names, desc.Name)
	}

	sort.Strings(reg.names)
	return reg, nil
}

// Parse parses one descriptor document: YAML frontmatter delimited by ---
// lines followed by the prompt body.
func Parse(content string) (Descriptor, error) {
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return Descriptor{}, fmt.Errorf("missing frontmatter")
	}
	front, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return Descriptor{}, fmt.Errorf("unterminated frontmatter")
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
		return Descriptor{}, fmt.Errorf("frontmatter: %w", err)
	}

	name, _ := meta["name"].(string)
	if name == "" {
		return Descriptor{}, fmt.Errorf("frontmatter has no name")
	}
	description, _ := meta["description"].(string)

	return Descriptor{
		Name:        name,
		Description: description,
		Prompt:      strings.TrimSpace(body),
		Metadata:    meta,
	}, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the registered delegation names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int { return len(r.byName) }

// Describe renders the registry as a prompt-ready listing, one
// "- name: description" line per entry.
func (r *Registry) Describe() string {
	if len(r.names) == 0 {
		return "No subagents available."
	}
	var b strings.Builder
	for i, name := range r.names {
		if i > 0 {
			b.WriteByte('\n')
		}
		desc := r.byName[name].Description
		if desc == "" {
			desc = "No description provided"
		}
		fmt.Fprintf(&b, "- %s: %s", name, desc)
	}
	return b.String()
}
