package providers

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/saninsteinn/assistbot/types"
)

// ReadErrMsg extracts a short diagnostic string from an error response body.
func ReadErrMsg(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 2048))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ParseJSONObject decodes a JSON-mode completion into a generic object.
// Before giving up it applies light recovery heuristics shared by several
// backends: markdown code fences are stripped, and raw newlines inside the
// payload are escaped (small local models routinely emit them unescaped).
func ParseJSONObject(content string) (map[string]any, error) {
	content = StripCodeFences(content)

	var obj map[string]any
	err := json.Unmarshal([]byte(content), &obj)
	if err == nil {
		return obj, nil
	}

	if strings.Contains(content, "\n") && !strings.Contains(content, `\n`) {
		repaired := strings.ReplaceAll(content, "\n", `\n`)
		if jsonErr := json.Unmarshal([]byte(repaired), &obj); jsonErr == nil {
			return obj, nil
		}
	}
	return nil, err
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag.
func StripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// LooksGarbled reports whether a JSON-mode completion shows the runaway
// whitespace pattern some local models produce. Such responses are not worth
// parsing; the provider should re-request instead.
func LooksGarbled(content string) bool {
	return strings.Contains(content, "\t\t\t\t") || strings.Contains(content, "\n\n\n\n")
}

// CheckRoleAlternation rejects message lists with two consecutive messages
// from the same role. Some backends silently merge or drop such messages.
func CheckRoleAlternation(provider string, messages []types.Message) error {
	for i := 1; i < len(messages); i++ {
		if messages[i].Role == messages[i-1].Role {
			return &types.TransportError{
				Provider: provider,
				Message:  "consecutive messages from the same role are not supported",
			}
		}
	}
	return nil
}

// EstimateTokens is the crude word-based token estimate used by backends
// without a public tokenizer.
func EstimateTokens(text string) int {
	n := len(strings.Fields(text)) / 2
	if n < 1 && text != "" {
		return 1
	}
	return n
}
