package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Issue records a repair or violation found while conforming a profile.
type Issue struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("%s: %s", i.Section, i.Problem)
	}
	return fmt.Sprintf("%s.%s: %s", i.Section, i.Field, i.Problem)
}

// ErrInvalid is wrapped by every rejection from Validate and SetField.
var ErrInvalid = errors.New("invalid profile value")

var (
	leadingNumber = regexp.MustCompile(`^-?\d+(\.\d+)?`)
	enumSeparator = strings.NewReplacer(" ", "-", "_", "-")
)

// Conform coerces a decoded model output into a profile that satisfies the
// schema. Undeclared fields are dropped, missing or unusable values become the
// unknown value, and every repair is reported as an Issue.
func (s *Schema) Conform(raw any) (Profile, []Issue) {
	var issues []Issue
	root, ok := raw.(map[string]any)
	if !ok {
		issues = append(issues, Issue{Section: RootKey, Problem: fmt.Sprintf("expected object, got %T", raw)})
		root = map[string]any{}
	}
	if inner, ok := root[RootKey].(map[string]any); ok {
		root = inner
	}

	out := NewProfile()
	declared := make(map[string]bool, len(s.Sections))
	for _, sec := range s.Sections {
		declared[sec.Name] = true
		src, ok := root[sec.Name].(map[string]any)
		if !ok {
			issues = append(issues, Issue{Section: sec.Name, Problem: "section missing"})
			src = map[string]any{}
		}
		fields := make(map[string]any, len(sec.Fields))
		for _, f := range sec.Fields {
			v, present := src[f.Name]
			if !present {
				issues = append(issues, Issue{Section: sec.Name, Field: f.Name, Problem: "missing"})
				fields[f.Name] = s.unknownFor(f)
				continue
			}
			cv, problem := s.coerce(f, v)
			if problem != "" {
				issues = append(issues, Issue{Section: sec.Name, Field: f.Name, Problem: problem})
			}
			fields[f.Name] = cv
		}
		for _, name := range lo.Keys(src) {
			if _, ok := s.Field(sec.Name, name); !ok {
				issues = append(issues, Issue{Section: sec.Name, Field: name, Problem: "undeclared field dropped"})
			}
		}
		out.Sections[sec.Name] = fields
	}

	for key := range root {
		if key != SummaryKey && !declared[key] {
			issues = append(issues, Issue{Section: key, Problem: "undeclared section dropped"})
		}
	}

	summary, _ := root[SummaryKey].(string)
	summary = strings.TrimSpace(summary)
	if summary == "" {
		issues = append(issues, Issue{Section: SummaryKey, Problem: "summary missing"})
		summary = s.Unknown
	}
	out.Summary = summary
	return out, issues
}

// Check reports every way p deviates from the schema without changing it.
func (s *Schema) Check(p Profile) []Issue {
	var issues []Issue
	for _, sec := range s.Sections {
		fields, ok := p.Sections[sec.Name]
		if !ok {
			issues = append(issues, Issue{Section: sec.Name, Problem: "section missing"})
			continue
		}
		for _, f := range sec.Fields {
			v, ok := fields[f.Name]
			if !ok {
				issues = append(issues, Issue{Section: sec.Name, Field: f.Name, Problem: "missing"})
				continue
			}
			if !s.valid(f, v) {
				issues = append(issues, Issue{Section: sec.Name, Field: f.Name, Problem: fmt.Sprintf("invalid value %v", v)})
			}
		}
		for name := range fields {
			if _, ok := s.Field(sec.Name, name); !ok {
				issues = append(issues, Issue{Section: sec.Name, Field: name, Problem: "undeclared field"})
			}
		}
	}
	for name := range p.Sections {
		if !lo.ContainsBy(s.Sections, func(sec Section) bool { return sec.Name == name }) {
			issues = append(issues, Issue{Section: name, Problem: "undeclared section"})
		}
	}
	if strings.TrimSpace(p.Summary) == "" {
		issues = append(issues, Issue{Section: SummaryKey, Problem: "summary missing"})
	}
	return issues
}

// Validate coerces a single user-supplied value for section.field. Unlike
// Conform it fails instead of falling back to unknown.
func (s *Schema) Validate(section, field string, value any) (any, error) {
	f, ok := s.Field(section, field)
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %s.%s", ErrInvalid, section, field)
	}
	if s.IsUnknown(value) {
		return s.unknownFor(f), nil
	}
	cv, problem := s.coerce(f, value)
	if s.IsUnknown(cv) {
		return nil, fmt.Errorf("%w: %s.%s: %s", ErrInvalid, section, field, problem)
	}
	return cv, nil
}

// SetField overwrites one field of p in place after validating it.
func (s *Schema) SetField(p *Profile, section, field string, value any) error {
	cv, err := s.Validate(section, field, value)
	if err != nil {
		return err
	}
	if p.Sections == nil {
		p.Sections = make(map[string]map[string]any)
	}
	if p.Sections[section] == nil {
		p.Sections[section] = make(map[string]any)
	}
	p.Sections[section][field] = cv
	return nil
}

// IsUnknown reports whether v is the unknown value for any field type.
func (s *Schema) IsUnknown(v any) bool {
	if v == nil {
		return true
	}
	str, ok := v.(string)
	return ok && strings.EqualFold(strings.TrimSpace(str), s.Unknown)
}

func (s *Schema) unknownFor(f Field) any {
	switch f.Type {
	case TypeScale, TypeInt:
		return nil
	default:
		return s.Unknown
	}
}

func (s *Schema) valid(f Field, v any) bool {
	if s.IsUnknown(v) {
		return v == s.unknownFor(f)
	}
	switch f.Type {
	case TypeEnum:
		str, ok := v.(string)
		return ok && lo.Contains(f.Values(), str)
	case TypeScale, TypeInt:
		n, ok := asInt(v)
		return ok && n >= f.Min && n <= f.Max
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBool:
		if _, ok := v.(bool); ok {
			return true
		}
		return f.Tristate && v == Sometimes
	}
	return false
}

// coerce returns the conformed value and a description of any repair made.
func (s *Schema) coerce(f Field, v any) (any, string) {
	unknown := s.unknownFor(f)
	if s.IsUnknown(v) {
		return unknown, ""
	}
	switch f.Type {
	case TypeEnum:
		str, ok := v.(string)
		if !ok {
			return unknown, fmt.Sprintf("expected one of %v, got %T", f.Values(), v)
		}
		if lo.Contains(f.Values(), str) {
			return str, ""
		}
		norm := enumSeparator.Replace(strings.ToLower(strings.TrimSpace(str)))
		if lo.Contains(f.Values(), norm) {
			return norm, fmt.Sprintf("normalised %q to %q", str, norm)
		}
		if strings.EqualFold(norm, "unknown") {
			return unknown, ""
		}
		return unknown, fmt.Sprintf("%q is not one of %v", str, f.Values())

	case TypeScale, TypeInt:
		n, ok := asNumber(v)
		if !ok {
			return unknown, fmt.Sprintf("expected integer, got %v", v)
		}
		i := int(math.Round(n))
		if i >= f.Min && i <= f.Max {
			if float64(i) != n {
				return i, fmt.Sprintf("rounded %v to %d", n, i)
			}
			if _, isInt := v.(int); !isInt {
				if _, isFloat := v.(float64); !isFloat {
					return i, fmt.Sprintf("parsed %v as %d", v, i)
				}
			}
			return i, ""
		}
		if f.Type == TypeScale {
			c := lo.Clamp(i, f.Min, f.Max)
			return c, fmt.Sprintf("clamped %d to %d", i, c)
		}
		return unknown, fmt.Sprintf("%d outside %d..%d", i, f.Min, f.Max)

	case TypeString:
		switch t := v.(type) {
		case string:
			t = strings.TrimSpace(t)
			if t == "" {
				return unknown, "empty string"
			}
			return t, ""
		case json.Number:
			return t.String(), "converted number to string"
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), "converted number to string"
		case int:
			return strconv.Itoa(t), "converted number to string"
		case bool:
			return strconv.FormatBool(t), "converted bool to string"
		case []any:
			parts := lo.FilterMap(t, func(item any, _ int) (string, bool) {
				str, ok := item.(string)
				return strings.TrimSpace(str), ok && strings.TrimSpace(str) != ""
			})
			if len(parts) == 0 {
				return unknown, "empty list"
			}
			return strings.Join(parts, ", "), "joined list into string"
		}
		return unknown, fmt.Sprintf("expected string, got %T", v)

	case TypeBool:
		switch t := v.(type) {
		case bool:
			return t, ""
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "yes", "y":
				return true, fmt.Sprintf("parsed %q as true", t)
			case "false", "no", "n":
				return false, fmt.Sprintf("parsed %q as false", t)
			case Sometimes, "mixed", "depends":
				if f.Tristate {
					return Sometimes, ""
				}
			}
		}
		return unknown, fmt.Sprintf("expected bool, got %v", v)
	}
	return unknown, fmt.Sprintf("unsupported field type %q", f.Type)
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(t))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	}
	return 0, false
}
