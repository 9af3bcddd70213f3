package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SWE-agent/mini-swe-agent/agent"
	"github.com/SWE-agent/mini-swe-agent/core"
)

var (
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	agentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	promptStyle = lipgloss.NewStyle().Faint(true)
)

// terminalApprover shows each proposed command and reads a verdict from
// the terminal. Besides approve/reject it accepts mode switches, which
// apply to the whole agent hierarchy.
type terminalApprover struct {
	in    *bufio.Reader
	out   io.Writer
	agent *agent.Agent
}

func newTerminalApprover(in io.Reader, out io.Writer) *terminalApprover {
	return &terminalApprover{in: bufio.NewReader(in), out: out}
}

func (t *terminalApprover) Approve(agentID string, action core.Action) (agent.Decision, string) {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, agentStyle.Render(agentID)+" proposes:")
	fmt.Fprintln(t.out, actionStyle.Render("  "+strings.ReplaceAll(action.Command, "\n", "\n  ")))
	fmt.Fprintln(t.out, promptStyle.Render("[enter] run  [r <comment>] reject  [y] yolo  [u] unattended off  [q] interrupt"))

	for {
		fmt.Fprint(t.out, promptStyle.Render("> "))
		line, err := t.in.ReadString('\n')
		if err != nil {
			return agent.Interrupted, "input closed"
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			return agent.Approved, ""
		case line == "q":
			return agent.Interrupted, ""
		case line == "y":
			if t.agent != nil {
				t.agent.SetMode(agent.ModeYolo)
			}
			return agent.Approved, ""
		case line == "u":
			if t.agent != nil {
				t.agent.SetMode(agent.ModeHuman)
			}
			return agent.Approved, ""
		case strings.HasPrefix(line, "r"):
			comment := strings.TrimSpace(strings.TrimPrefix(line, "r"))
			return agent.Rejected, comment
		default:
			fmt.Fprintln(t.out, promptStyle.Render("unrecognized input"))
		}
	}
}
