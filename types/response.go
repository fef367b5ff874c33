package types

// TokenUsage reports token consumption for a single AI call as accounted by
// the backend.
type TokenUsage struct {
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// AIResponse is the result of a single chat-completion call.
//
// Exactly one of Text or JSON is populated, depending on whether the request
// asked for structured output. LengthLimited signals that generation was cut
// off by the token budget.
type AIResponse struct {
	Text          string         `json:"text,omitempty"`
	JSON          map[string]any `json:"json,omitempty"`
	Usage         *TokenUsage    `json:"usage,omitempty"`
	LengthLimited bool           `json:"length_limited"`
}

// Model returns the backend-reported model name, or "" if usage is absent.
func (r *AIResponse) Model() string {
	if r.Usage == nil {
		return ""
	}
	return r.Usage.Model
}

// StringField returns the named JSON field if it is present and a string.
func (r *AIResponse) StringField(key string) (string, bool) {
	v, ok := r.JSON[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IntField returns the named JSON field if it is present and an integer.
// JSON numbers decode as float64; values with a fractional part are rejected.
func (r *AIResponse) IntField(key string) (int, bool) {
	v, ok := r.JSON[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// BoolField returns the named JSON field if it is present and a boolean.
func (r *AIResponse) BoolField(key string) (bool, bool) {
	v, ok := r.JSON[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// NullField reports whether the named JSON field is present and null.
func (r *AIResponse) NullField(key string) bool {
	v, ok := r.JSON[key]
	return ok && v == nil
}

// StringSliceField returns the named JSON field if it is present and a list
// of strings.
func (r *AIResponse) StringSliceField(key string) ([]string, bool) {
	v, ok := r.JSON[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
