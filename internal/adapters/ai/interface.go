package ai

import (
	"context"
	"sort"
)

// Reasoner is a text-completion service able to return structured JSON
type Reasoner interface {
	// Name returns provider name
	Name() string

	// Complete sends one system/user prompt pair. When schema is non-nil the
	// provider is asked to return a JSON document matching it.
	Complete(ctx context.Context, systemPrompt, userPrompt string, schema *Schema) (string, error)
}

// Schema is a provider-neutral JSON schema subset
type Schema struct {
	Name        string
	Type        string
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	Enum        []string
}

// Schema types
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Object builds an object schema
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

// Array builds an array schema
func Array(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// String builds a string schema, optionally restricted to enum values
func String(enum ...string) *Schema {
	return &Schema{Type: TypeString, Enum: enum}
}

// Integer builds an integer schema
func Integer() *Schema {
	return &Schema{Type: TypeInteger}
}

// JSONSchema renders the schema as a JSON-schema document
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}

	out := map[string]any{"type": s.Type}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	return out
}

// StrictJSONSchema renders the schema in the strict structured-output dialect:
// every object closes additional properties and lists all of its properties as
// required, with optional ones made nullable.
func (s *Schema) StrictJSONSchema() map[string]any {
	return s.strict(false)
}

func (s *Schema) strict(nullable bool) map[string]any {
	if s == nil {
		return nil
	}

	out := map[string]any{"type": s.Type}
	if nullable {
		out["type"] = []string{s.Type, "null"}
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		enum := make([]any, 0, len(s.Enum)+1)
		for _, v := range s.Enum {
			enum = append(enum, v)
		}
		if nullable {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	}
	if s.Items != nil {
		out["items"] = s.Items.strict(false)
	}
	if s.Type == TypeObject {
		required := make(map[string]bool, len(s.Required))
		for _, name := range s.Required {
			required[name] = true
		}

		names := make([]string, 0, len(s.Properties))
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			names = append(names, name)
			props[name] = p.strict(!required[name])
		}
		sort.Strings(names)

		out["properties"] = props
		out["required"] = names
		out["additionalProperties"] = false
	}
	return out
}

// SchemaName returns the schema name used by providers that require one
func (s *Schema) SchemaName() string {
	if s == nil || s.Name == "" {
		return "response"
	}
	return s.Name
}
