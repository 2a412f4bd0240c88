package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PromptJSON renders the schema as an annotated JSON template for a model to
// fill in. Sections and fields keep their declared order.
func (s *Schema) PromptJSON() string {
	var b bytes.Buffer
	b.WriteString("{\n  \"" + RootKey + "\": {\n")
	for _, sec := range s.Sections {
		fmt.Fprintf(&b, "    %q: {\n", sec.Name)
		for i, f := range sec.Fields {
			hint, _ := json.Marshal(s.hint(f))
			fmt.Fprintf(&b, "      %q: %s", f.Name, hint)
			if i < len(sec.Fields)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString("    },\n")
	}
	fmt.Fprintf(&b, "    %q: \"2-3 sentence overview of the student's learning personality\"\n", SummaryKey)
	b.WriteString("  }\n}")
	return b.String()
}

func (s *Schema) hint(f Field) string {
	var h string
	switch f.Type {
	case TypeEnum:
		h = strings.Join(f.Values(), " | ")
	case TypeScale:
		h = fmt.Sprintf("integer %d-%d", f.Min, f.Max)
	case TypeInt:
		h = fmt.Sprintf("integer %d-%d or null", f.Min, f.Max)
	case TypeBool:
		h = "true | false"
		if f.Tristate {
			h += " | " + Sometimes
		}
	default:
		h = "string"
	}
	if f.Description != "" {
		h += " (" + f.Description + ")"
	}
	return h
}

// Rubric renders the per-type extraction rules, including the meaning of
// every categorical option and the qualitative scale bands.
func (s *Schema) Rubric() string {
	var b strings.Builder

	b.WriteString("### For CATEGORICAL fields (choose the best match):\n")
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.Type != TypeEnum {
				continue
			}
			fmt.Fprintf(&b, "\n**%s:**\n", f.Name)
			for _, o := range f.Options {
				fmt.Fprintf(&b, "- %q = %s\n", o.Value, o.Meaning)
			}
		}
	}

	b.WriteString("\n### For SCALE fields:\n")
	b.WriteString("- Extract the number if explicitly given in the response\n")
	b.WriteString("- If described qualitatively, estimate appropriately:\n")
	for _, band := range s.ScaleBands {
		phrases := strings.ReplaceAll(band.Phrases, ", ", "/")
		if band.Min == band.Max {
			fmt.Fprintf(&b, "  - %q = %d\n", phrases, band.Min)
		} else {
			fmt.Fprintf(&b, "  - %q = %d-%d\n", phrases, band.Min, band.Max)
		}
	}

	if ints := s.fieldsOf(TypeInt); len(ints) > 0 {
		b.WriteString("\n### For INTEGER fields (" + strings.Join(ints, ", ") + "):\n")
		b.WriteString("- Use the number stated by the student, or null if not given\n")
	}

	b.WriteString("\n### For STRING fields:\n")
	b.WriteString("- Summarize in 1-2 concise sentences\n")
	b.WriteString("- Capture the key insight, not every detail\n")
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.Type == TypeString && f.Description != "" && strings.Contains(f.Description, "format") {
				fmt.Fprintf(&b, "- For %q: %s\n", f.Name, f.Description)
			}
		}
	}

	b.WriteString("\n### For BOOLEAN fields:\n")
	b.WriteString("- Use true or false")
	if tri := s.tristateFields(); len(tri) > 0 {
		fmt.Fprintf(&b, "; %s may also be %q if the student expresses ambivalence", strings.Join(tri, ", "), Sometimes)
	}
	b.WriteString("\n")

	b.WriteString("\n### For the SUMMARY field:\n")
	b.WriteString("Write a 2-3 sentence paragraph that captures the student's overall learning personality. ")
	b.WriteString("Include their key strengths, preferences, and areas where they need support.\n")
	return b.String()
}

func (s *Schema) fieldsOf(t FieldType) []string {
	var out []string
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.Type == t {
				out = append(out, f.Name)
			}
		}
	}
	return out
}

func (s *Schema) tristateFields() []string {
	var out []string
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.Type == TypeBool && f.Tristate {
				out = append(out, f.Name)
			}
		}
	}
	return out
}
