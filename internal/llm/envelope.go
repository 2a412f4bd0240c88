package llm

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tmc/langchaingo/llms"
)

// textPaths are tried in order against raw JSON envelopes.
var textPaths = []string{
	// responses API
	"output.0.content.0.text",
	// chat completions
	"choices.0.message.content",
	// anthropic messages
	"content.0.text",
	"text",
}

type texter interface {
	Text() string
}

// ExtractText returns the first non-empty text found in env. The boolean is
// false when no known path yields text.
func ExtractText(env Envelope) (string, bool) {
	switch v := env.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case *llms.ContentResponse:
		return fromContentResponse(v)
	case llms.ContentResponse:
		return fromContentResponse(&v)
	case json.RawMessage:
		return fromRaw(v)
	case []byte:
		return fromRaw(v)
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return fromRaw(raw)
	case texter:
		t := v.Text()
		return t, t != ""
	}
	return "", false
}

func fromContentResponse(resp *llms.ContentResponse) (string, bool) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", false
	}
	c := resp.Choices[0].Content
	return c, c != ""
}

func fromRaw(raw []byte) (string, bool) {
	if !gjson.ValidBytes(raw) {
		return "", false
	}
	for _, path := range textPaths {
		r := gjson.GetBytes(raw, path)
		if r.Type == gjson.String && r.Str != "" {
			return r.Str, true
		}
	}
	return "", false
}
