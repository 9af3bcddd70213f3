package environment

import "fmt"

// TruncateConfig controls how long command output is cut down before it is
// shown to the model. The head/tail split is configurable rather than a
// hard constant so callers can tune it per deployment.
type TruncateConfig struct {
	// HeadChars and TailChars are the number of bytes retained from the
	// start and end of the output. Output within HeadChars+TailChars is
	// passed through untouched. Zero for both disables truncation.
	HeadChars int `yaml:"head_chars" json:"head_chars"`
	TailChars int `yaml:"tail_chars" json:"tail_chars"`
}

// DefaultTruncateConfig retains 40000 bytes split evenly between head and tail.
func DefaultTruncateConfig() TruncateConfig {
	return TruncateConfig{HeadChars: 20000, TailChars: 20000}
}

// Truncate cuts output down to the configured head and tail, marking the
// elision with an explicit character count so the model can issue a
// narrower follow-up query. Reports whether anything was removed.
func (c TruncateConfig) Truncate(output string) (string, bool) {
	limit := c.HeadChars + c.TailChars
	if limit == 0 || len(output) <= limit {
		return output, false
	}
	elided := len(output) - limit
	return output[:c.HeadChars] +
		fmt.Sprintf("\n[... output truncated: %d characters elided ...]\n", elided) +
		output[len(output)-c.TailChars:], true
}
