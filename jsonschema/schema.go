package jsonschema

import (
	"github.com/goccy/go-json"
)

// Draft is the $schema URI stamped on exported root documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema representation used for export.
type Schema struct {
	// Core
	SchemaURI   string `json:"$schema,omitempty"`
	Type        any    `json:"type,omitempty"` // string, or []string when nullable
	Format      string `json:"format,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`
}

// Nullable widens the type of s to also accept null.
func (s *Schema) Nullable() {
	if t, ok := s.Type.(string); ok && t != "null" {
		s.Type = []string{t, "null"}
	}
}

// Marshal renders s as indented JSON.
func (s *Schema) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
