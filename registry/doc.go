// Package registry loads subagent descriptors from a directory of Markdown
// files. Each file carries YAML frontmatter (name, description and any
// constructor-style configuration for the child agent) followed by the
// subagent's system prompt body. The registry is loaded once at root agent
// construction and is immutable afterwards.
package registry
