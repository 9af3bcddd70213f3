package core

import "time"

// Message roles. The set is closed; backends that use other role names
// must map them onto one of these.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a conversation. Messages are append-only: once a
// message has been added to an agent's history neither Role nor Content is
// mutated. Extra carries backend-specific metadata (timestamps, raw provider
// response, execution return code) and is populated at append time only.
type Message struct {
	Role    string         `json:"role"`
	Content string         `json:"content"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// NewMessage constructs a message with an empty Extra map left nil.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// WithExtra returns a copy of the message with the given key set in Extra.
// The receiver is not modified, preserving append-only semantics.
func (m Message) WithExtra(key string, value any) Message {
	extra := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		extra[k] = v
	}
	extra[key] = value
	m.Extra = extra
	return m
}

// Action is one extracted unit of intended execution: a single shell
// command derived from an assistant message.
type Action struct {
	Command string `json:"command"`
}

// Output is the raw result of executing an action.
type Output struct {
	Text       string        `json:"output"`
	ReturnCode int           `json:"returncode"`
	Duration   time.Duration `json:"duration_ns"`
	Truncated  bool          `json:"truncated,omitempty"`
}
