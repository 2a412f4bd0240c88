package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefaultSchema(t *testing.T) {
	s := Default()
	if s.Unknown != "N/A" {
		t.Errorf("Unknown = %q, want N/A", s.Unknown)
	}
	if len(s.Sections) != 5 {
		t.Fatalf("expected 5 sections, got %d", len(s.Sections))
	}
	if s.FieldCount() != 37 {
		t.Errorf("FieldCount() = %d, want 37", s.FieldCount())
	}
	f, ok := s.Field("learning_preferences", "detail_level")
	if !ok {
		t.Fatal("detail_level not declared")
	}
	if f.Type != TypeScale || f.Min != 1 || f.Max != 10 {
		t.Errorf("detail_level = %+v, want scale 1..10", f)
	}
	if _, ok := s.Field("learning_preferences", "nope"); ok {
		t.Error("expected undeclared field lookup to fail")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no sections", "version: 1\n"},
		{"reserved section", "sections:\n  - name: summary\n    fields: []\n"},
		{"enum without options", "sections:\n  - name: a\n    fields:\n      - {name: x, type: enum}\n"},
		{"bad bounds", "sections:\n  - name: a\n    fields:\n      - {name: x, type: scale, min: 5, max: 5}\n"},
		{"unknown type", "sections:\n  - name: a\n    fields:\n      - {name: x, type: date}\n"},
		{"duplicate field", "sections:\n  - name: a\n    fields:\n      - {name: x, type: string}\n      - {name: x, type: string}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConformFullProfile(t *testing.T) {
	s := Default()
	raw := map[string]any{
		RootKey: map[string]any{
			"background": map[string]any{
				"academic_program": "Computer Science, Bachelor's",
				"semester":         float64(3),
				"current_focus":    "Algorithms",
				"goals":            "Pass the exam",
				"age":              nil,
			},
			"learning_preferences": map[string]any{
				"explanation_preference": "Step by Step",
				"detail_level":           "7/10",
				"uses_analogies":         "sometimes",
				"practice_problems":      true,
				"code_examples":          "if_necessary",
				"favourite_colour":       "blue",
			},
			"summary": "  A curious learner.  ",
		},
	}

	p, issues := s.Conform(raw)
	if p.Summary != "A curious learner." {
		t.Errorf("Summary = %q", p.Summary)
	}
	checks := []struct {
		section, field string
		want           any
	}{
		{"background", "semester", 3},
		{"background", "age", nil},
		{"learning_preferences", "explanation_preference", "step-by-step"},
		{"learning_preferences", "detail_level", 7},
		{"learning_preferences", "uses_analogies", Sometimes},
		{"learning_preferences", "practice_problems", true},
		{"learning_preferences", "code_examples", "if-necessary"},
		{"learning_preferences", "pacing", "N/A"},
		{"emotional_patterns", "confidence_level", nil},
	}
	for _, c := range checks {
		got, ok := p.Get(c.section, c.field)
		if !ok {
			t.Errorf("%s.%s missing", c.section, c.field)
			continue
		}
		if got != c.want {
			t.Errorf("%s.%s = %#v, want %#v", c.section, c.field, got, c.want)
		}
	}
	if _, ok := p.Get("learning_preferences", "favourite_colour"); ok {
		t.Error("undeclared field should be dropped")
	}
	if len(issues) == 0 {
		t.Error("expected issues for repaired fields")
	}
	if rest := s.Check(p); len(rest) != 0 {
		t.Errorf("conformed profile fails Check: %v", rest)
	}
}

func TestConformEveryFieldPresent(t *testing.T) {
	s := Default()
	p, _ := s.Conform(map[string]any{})
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if _, ok := p.Get(sec.Name, f.Name); !ok {
				t.Errorf("%s.%s missing from conformed empty profile", sec.Name, f.Name)
			}
		}
	}
	if p.Summary != "N/A" {
		t.Errorf("Summary = %q, want N/A", p.Summary)
	}
}

func TestConformNonObject(t *testing.T) {
	s := Default()
	_, issues := s.Conform([]any{1, 2})
	if len(issues) == 0 || issues[0].Section != RootKey {
		t.Errorf("expected root issue first, got %v", issues)
	}
}

func TestCoerceValues(t *testing.T) {
	s := Default()
	tests := []struct {
		name           string
		section, field string
		in             any
		want           any
	}{
		{"scale clamps high", "learning_preferences", "detail_level", float64(14), 10},
		{"scale clamps low", "learning_preferences", "detail_level", float64(0), 1},
		{"scale rounds", "study_behavior", "attention_span", 6.6, 7},
		{"scale garbage", "study_behavior", "attention_span", "lots", nil},
		{"int out of range", "background", "age", float64(400), nil},
		{"int string", "background", "semester", "5", 5},
		{"enum unknown", "communication_style", "tone", "sarcastic", "N/A"},
		{"enum N/A", "communication_style", "tone", "n/a", "N/A"},
		{"string empty", "background", "goals", "   ", "N/A"},
		{"string list", "emotional_patterns", "motivation_drivers", []any{"grades", "curiosity"}, "grades, curiosity"},
		{"bool yes", "communication_style", "question_engagement", "yes", true},
		{"bool no", "communication_style", "question_engagement", "No", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := s.Field(tt.section, tt.field)
			if !ok {
				t.Fatalf("%s.%s not declared", tt.section, tt.field)
			}
			got, _ := s.coerce(f, tt.in)
			if got != tt.want {
				t.Errorf("coerce(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetField(t *testing.T) {
	s := Default()
	p, _ := s.Conform(map[string]any{})

	if err := s.SetField(&p, "learning_preferences", "detail_level", float64(8)); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if v, _ := p.Get("learning_preferences", "detail_level"); v != 8 {
		t.Errorf("detail_level = %v, want 8", v)
	}
	if err := s.SetField(&p, "communication_style", "tone", "sarcastic"); err == nil {
		t.Error("expected error for invalid enum")
	}
	if err := s.SetField(&p, "background", "shoe_size", float64(9)); err == nil {
		t.Error("expected error for undeclared field")
	}
	if err := s.SetField(&p, "background", "age", nil); err != nil {
		t.Errorf("clearing a field: %v", err)
	}
}

func TestProfileJSON(t *testing.T) {
	s := Default()
	p, _ := s.Conform(map[string]any{
		"background": map[string]any{"semester": float64(2)},
		"summary":    "Likes diagrams.",
	})

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(data), `{"learning_profile":`) {
		t.Errorf("expected wrapped document, got %s", data)
	}

	var back Profile
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, _ := back.Get("background", "semester"); v != 2 {
		t.Errorf("semester = %#v, want 2", v)
	}
	if back.Summary != "Likes diagrams." {
		t.Errorf("Summary = %q", back.Summary)
	}

	var flat Profile
	if err := json.Unmarshal([]byte(`{"background":{"age":21},"summary":"x"}`), &flat); err != nil {
		t.Fatalf("unmarshal flat: %v", err)
	}
	if v, _ := flat.Get("background", "age"); v != 21 {
		t.Errorf("age = %#v, want 21", v)
	}
}

func TestPromptJSON(t *testing.T) {
	s := Default()
	out := s.PromptJSON()

	var doc map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("PromptJSON is not valid JSON: %v\n%s", err, out)
	}
	inner := doc[RootKey]
	if _, ok := inner[SummaryKey]; !ok {
		t.Error("template missing summary")
	}
	if strings.Index(out, `"background"`) > strings.Index(out, `"study_behavior"`) {
		t.Error("sections out of declared order")
	}
	if !strings.Contains(out, "step-by-step | high-level | mixed") {
		t.Error("enum hint missing")
	}
}

func TestRubric(t *testing.T) {
	r := Default().Rubric()
	for _, want := range []string{
		"### For CATEGORICAL fields",
		`"step-by-step" = wants detailed, sequential explanations`,
		`"very low/never/minimal" = 1-3`,
		`"extremely/always" = 10`,
		"### For BOOLEAN fields",
		"uses_analogies",
		"### For the SUMMARY field",
	} {
		if !strings.Contains(r, want) {
			t.Errorf("rubric missing %q", want)
		}
	}
}

func TestJSONSchema(t *testing.T) {
	js := Default().JSONSchema()
	data, err := json.Marshal(js)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"learning_profile"`, `"detail_level"`, `"maximum":10`, `"sometimes"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON schema missing %s", want)
		}
	}
}
