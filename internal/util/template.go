package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplate renders text with Go's text/template package against a flat
// variable map, so prompt templates reference values as {{.task}}, {{.step}}
// and so on. Unknown keys are an error rather than silently rendering empty,
// which keeps template typos from producing misleading prompts.
// This lives in internal to avoid committing to public API stability prematurely.
func RenderTemplate(text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
		"join": func(sep string, items []any) string {
			strItems := make([]string, len(items))
			for i, item := range items {
				strItems[i] = fmt.Sprintf("%v", item)
			}
			return strings.Join(strItems, sep)
		},
	}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	return buf.String(), nil
}

// MergeVars merges variable maps left to right; later maps take precedence.
// Nested maps are merged recursively so a partial override does not discard
// sibling keys.
func MergeVars(maps ...map[string]any) map[string]any {
	result := map[string]any{}
	for _, m := range maps {
		for k, v := range m {
			if existing, ok := result[k].(map[string]any); ok {
				if incoming, ok := v.(map[string]any); ok {
					result[k] = MergeVars(existing, incoming)
					continue
				}
			}
			result[k] = v
		}
	}
	return result
}
