package model

import (
	"regexp"
	"strings"

	"github.com/SWE-agent/mini-swe-agent/core"
)

var (
	bashBlockRe    = regexp.MustCompile("(?s)```bash\n(.*?)\n```")
	heredocBlockRe = regexp.MustCompile("(?s)```bash\n(.*?\nEOF)\n```")
)

// ExtractActions parses fenced ```bash blocks out of an assistant message
// and returns them as actions in order of appearance. Blocks containing a
// heredoc terminated by EOF are matched through the heredoc first so that
// fences inside the heredoc body are not mistaken for block boundaries.
func ExtractActions(content string) []core.Action {
	blocks := extractBashBlocks(content)
	actions := make([]core.Action, 0, len(blocks))
	for _, b := range blocks {
		actions = append(actions, core.Action{Command: strings.TrimSpace(b)})
	}
	return actions
}

func extractBashBlocks(text string) []string {
	heredocs := heredocBlockRe.FindAllStringSubmatch(text, -1)
	if len(heredocs) == 0 {
		return submatches(bashBlockRe, text)
	}

	blocks := make([]string, 0, len(heredocs))
	for _, m := range heredocs {
		blocks = append(blocks, m[1])
	}
	// Plain blocks may follow the heredoc; scan the remainder separately.
	if loc := heredocBlockRe.FindStringIndex(text); loc != nil {
		blocks = append(blocks, submatches(bashBlockRe, text[loc[1]:])...)
	}
	return blocks
}

func submatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
