package pipeline

import (
	"fmt"
	"strings"
)

// jsonPrompt renders the instruction that constrains a model to a JSON
// response matching the given example objects.
func jsonPrompt(examples ...string) string {
	var b strings.Builder
	if len(examples) > 1 {
		b.WriteString("Answer with a JSON response that strictly matches one of the following examples:\n")
	} else {
		b.WriteString("Answer with a JSON response that strictly matches the following example:\n")
	}
	for _, example := range examples {
		b.WriteString("```json\n")
		b.WriteString(example)
		b.WriteString("\n```\n")
	}
	return b.String()
}

// listStr renders items as a dashed list.
func listStr(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// numberedListStr renders items as a 1-based numbered list with each item in
// backticks.
func numberedListStr(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. `%s`", i+1, item)
	}
	return strings.Join(lines, "\n")
}
