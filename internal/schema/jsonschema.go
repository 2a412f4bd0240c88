package schema

import (
	"encoding/json"
	"strconv"

	"github.com/invopop/jsonschema"
)

// JSONSchema describes the stored profile document as JSON Schema, for
// clients that validate or generate forms from it.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	inner := jsonschema.NewProperties()
	var required []string
	for _, sec := range s.Sections {
		props := jsonschema.NewProperties()
		names := make([]string, 0, len(sec.Fields))
		for _, f := range sec.Fields {
			props.Set(f.Name, s.fieldSchema(f))
			names = append(names, f.Name)
		}
		inner.Set(sec.Name, &jsonschema.Schema{
			Type:                 "object",
			Title:                sec.Title,
			Properties:           props,
			Required:             names,
			AdditionalProperties: jsonschema.FalseSchema,
		})
		required = append(required, sec.Name)
	}
	inner.Set(SummaryKey, &jsonschema.Schema{Type: "string"})
	required = append(required, SummaryKey)

	root := jsonschema.NewProperties()
	root.Set(RootKey, &jsonschema.Schema{
		Type:       "object",
		Properties: inner,
		Required:   required,
	})
	return &jsonschema.Schema{
		Version:    jsonschema.Version,
		Title:      "Learning profile v" + strconv.Itoa(s.Version),
		Type:       "object",
		Properties: root,
		Required:   []string{RootKey},
	}
}

func (s *Schema) fieldSchema(f Field) *jsonschema.Schema {
	unknown := &jsonschema.Schema{Const: s.Unknown}
	switch f.Type {
	case TypeEnum:
		enum := make([]any, 0, len(f.Options)+1)
		for _, v := range f.Values() {
			enum = append(enum, v)
		}
		enum = append(enum, s.Unknown)
		return &jsonschema.Schema{Type: "string", Enum: enum, Description: f.Description}
	case TypeScale, TypeInt:
		return &jsonschema.Schema{
			Description: f.Description,
			AnyOf: []*jsonschema.Schema{
				{
					Type:    "integer",
					Minimum: json.Number(strconv.Itoa(f.Min)),
					Maximum: json.Number(strconv.Itoa(f.Max)),
				},
				{Type: "null"},
			},
		}
	case TypeBool:
		alts := []*jsonschema.Schema{{Type: "boolean"}, unknown}
		if f.Tristate {
			alts = append(alts, &jsonschema.Schema{Const: Sometimes})
		}
		return &jsonschema.Schema{Description: f.Description, AnyOf: alts}
	default:
		return &jsonschema.Schema{Type: "string", Description: f.Description}
	}
}
