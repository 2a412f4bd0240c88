package schema

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchema []byte

type FieldType string

const (
	TypeEnum   FieldType = "enum"
	TypeScale  FieldType = "scale"
	TypeInt    FieldType = "int"
	TypeString FieldType = "string"
	TypeBool   FieldType = "bool"
)

// Sometimes is the third value a tristate bool field may take.
const Sometimes = "sometimes"

type Option struct {
	Value   string `yaml:"value"`
	Meaning string `yaml:"meaning"`
}

type Field struct {
	Name        string    `yaml:"name"`
	Type        FieldType `yaml:"type"`
	Description string    `yaml:"description"`
	Options     []Option  `yaml:"options"`
	Min         int       `yaml:"min"`
	Max         int       `yaml:"max"`
	Tristate    bool      `yaml:"tristate"`
}

// Values returns the legal literals of an enum field.
func (f Field) Values() []string {
	out := make([]string, len(f.Options))
	for i, o := range f.Options {
		out[i] = o.Value
	}
	return out
}

type Section struct {
	Name   string  `yaml:"name"`
	Title  string  `yaml:"title"`
	Fields []Field `yaml:"fields"`
}

// Band maps qualitative language to a sub-range of a scale.
type Band struct {
	Phrases string `yaml:"phrases"`
	Min     int    `yaml:"min"`
	Max     int    `yaml:"max"`
}

// Schema is the declared shape of a learning profile.
type Schema struct {
	Version    int       `yaml:"version"`
	Unknown    string    `yaml:"unknown"`
	ScaleBands []Band    `yaml:"scale_bands"`
	Sections   []Section `yaml:"sections"`
}

// Default returns the embedded schema.
func Default() *Schema {
	s, err := Parse(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("embedded schema: %v", err))
	}
	return s
}

// Load reads a schema from path, or returns the embedded one when path is empty.
func Load(path string) (*Schema, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if s.Unknown == "" {
		s.Unknown = "N/A"
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("schema has no sections")
	}
	seen := make(map[string]bool)
	for _, sec := range s.Sections {
		if sec.Name == "" {
			return fmt.Errorf("schema section without name")
		}
		if sec.Name == SummaryKey || seen[sec.Name] {
			return fmt.Errorf("duplicate or reserved section %q", sec.Name)
		}
		seen[sec.Name] = true
		fields := make(map[string]bool)
		for _, f := range sec.Fields {
			if f.Name == "" || fields[f.Name] {
				return fmt.Errorf("section %s: empty or duplicate field %q", sec.Name, f.Name)
			}
			fields[f.Name] = true
			switch f.Type {
			case TypeEnum:
				if len(f.Options) == 0 {
					return fmt.Errorf("%s.%s: enum without options", sec.Name, f.Name)
				}
			case TypeScale, TypeInt:
				if f.Min >= f.Max {
					return fmt.Errorf("%s.%s: invalid bounds %d..%d", sec.Name, f.Name, f.Min, f.Max)
				}
			case TypeString, TypeBool:
			default:
				return fmt.Errorf("%s.%s: unknown type %q", sec.Name, f.Name, f.Type)
			}
		}
	}
	return nil
}

// Field looks up a declared field.
func (s *Schema) Field(section, name string) (Field, bool) {
	for _, sec := range s.Sections {
		if sec.Name != section {
			continue
		}
		for _, f := range sec.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

// FieldCount is the number of declared fields across all sections.
func (s *Schema) FieldCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Fields)
	}
	return n
}
