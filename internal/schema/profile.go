package schema

import (
	"encoding/json"
	"fmt"
)

const (
	RootKey    = "learning_profile"
	SummaryKey = "summary"
)

// Profile is a learning profile: section name -> field name -> value, plus
// the free-text summary. Values are string, int, bool or nil.
type Profile struct {
	Sections map[string]map[string]any
	Summary  string
}

func NewProfile() Profile {
	return Profile{Sections: make(map[string]map[string]any)}
}

// Get returns a field value and whether it is present.
func (p Profile) Get(section, field string) (any, bool) {
	sec, ok := p.Sections[section]
	if !ok {
		return nil, false
	}
	v, ok := sec[field]
	return v, ok
}

// MarshalJSON writes the document as {"learning_profile": {...}}.
func (p Profile) MarshalJSON() ([]byte, error) {
	inner := make(map[string]any, len(p.Sections)+1)
	for name, sec := range p.Sections {
		inner[name] = sec
	}
	inner[SummaryKey] = p.Summary
	return json.Marshal(map[string]any{RootKey: inner})
}

// UnmarshalJSON accepts both the wrapped and the flat document shape.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if inner, ok := raw[RootKey]; ok {
		raw = nil
		if err := json.Unmarshal(inner, &raw); err != nil {
			return fmt.Errorf("%s: %w", RootKey, err)
		}
	}
	out := NewProfile()
	for key, val := range raw {
		if key == SummaryKey {
			if err := json.Unmarshal(val, &out.Summary); err != nil {
				return fmt.Errorf("summary: %w", err)
			}
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(val, &fields); err != nil {
			return fmt.Errorf("section %s: %w", key, err)
		}
		for name, v := range fields {
			if f, ok := v.(float64); ok && f == float64(int(f)) {
				fields[name] = int(f)
			}
		}
		out.Sections[key] = fields
	}
	*p = out
	return nil
}
