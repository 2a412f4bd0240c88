package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUndecodable is returned when model output cannot be parsed as JSON after
// normalisation.
var ErrUndecodable = errors.New("llm output is not valid json")

const fence = "```"

// Normalize strips the wrapping models put around JSON: surrounding
// whitespace, markdown fences with an optional language tag, and a bare
// "json" label. Text that is not wrapped is returned trimmed.
func Normalize(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			tag := strings.TrimSpace(s[:nl])
			if isLangTag(tag) {
				s = s[nl+1:]
			}
		} else {
			s = trimLangTag(s)
		}
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, fence)
	}
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		if rest := strings.TrimSpace(s[4:]); strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "[") {
			s = rest
		}
	}
	return s
}

// isLangTag reports whether the remainder of an opening fence line is a
// language label rather than content.
func isLangTag(tag string) bool {
	if tag == "" {
		return true
	}
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func trimLangTag(s string) string {
	i := strings.IndexAny(s, "{[")
	if i <= 0 {
		return s
	}
	if isLangTag(strings.TrimSpace(s[:i])) {
		return s[i:]
	}
	return s
}

// DecodeJSON parses model output into a generic value. The boolean is false
// when the text is empty or not valid JSON. It never panics.
func DecodeJSON(text string) (any, bool) {
	s := Normalize(text)
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// DecodeJSONInto parses model output into v.
func DecodeJSONInto(text string, v any) error {
	s := Normalize(text)
	if s == "" {
		return ErrUndecodable
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return errors.Join(ErrUndecodable, err)
	}
	return nil
}
