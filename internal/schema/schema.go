// Package schema infers, validates and generates documents against JSON
// Schema, and converts schemas to Go struct definitions.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/huntdream/jsoncrack/internal/errors"
)

// SchemaType handles JSON Schema type field which can be string or array of strings
type SchemaType struct {
	Types []string
}

// Single builds a SchemaType with one type.
func Single(t string) SchemaType {
	return SchemaType{Types: []string{t}}
}

// UnmarshalJSON handles both string and array forms of type
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		st.Types = []string{s}
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		st.Types = arr
		return nil
	}

	return fmt.Errorf("type must be string or array of strings")
}

// Primary returns the primary (first) type, or empty string if none
func (st SchemaType) Primary() string {
	if len(st.Types) > 0 {
		return st.Types[0]
	}
	return ""
}

// IsNullable returns true if "null" is one of the allowed types
func (st SchemaType) IsNullable() bool {
	return st.Has("null")
}

// Has reports whether t is one of the allowed types.
func (st SchemaType) Has(t string) bool {
	for _, typ := range st.Types {
		if typ == t {
			return true
		}
	}
	return false
}

func (st SchemaType) value() any {
	switch len(st.Types) {
	case 0:
		return nil
	case 1:
		return st.Types[0]
	default:
		return st.Types
	}
}

// AdditionalProperties handles JSON Schema additionalProperties which can be bool or Schema
type AdditionalProperties struct {
	Allowed bool    // If true, any additional properties allowed; if false, none allowed
	Schema  *Schema // If set, additional properties must match this schema
}

// UnmarshalJSON handles both boolean and schema forms
func (ap *AdditionalProperties) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		ap.Allowed = b
		ap.Schema = nil
		return nil
	}

	var s Schema
	if err := decode(data, &s); err == nil {
		ap.Allowed = true
		ap.Schema = &s
		return nil
	}

	return fmt.Errorf("additionalProperties must be boolean or schema")
}

// MarshalJSON writes the schema form when set, the boolean form otherwise.
func (ap AdditionalProperties) MarshalJSON() ([]byte, error) {
	if ap.Schema != nil {
		return json.Marshal(ap.Schema)
	}
	return json.Marshal(ap.Allowed)
}

// Schema represents a JSON Schema document
type Schema struct {
	// Meta
	Schema      string `json:"$schema,omitempty"`
	ID          string `json:"$id,omitempty"`
	Ref         string `json:"$ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Type - can be string or array of strings in JSON Schema
	Type SchemaType `json:"type,omitempty"`

	// Object properties
	Properties           map[string]*Schema    `json:"properties,omitempty"`
	PropertyOrder        []string              `json:"propertyOrder,omitempty"`
	Required             []string              `json:"required,omitempty"`
	AdditionalProperties *AdditionalProperties `json:"additionalProperties,omitempty"`

	// Array items
	Items *Schema `json:"items,omitempty"`

	// String constraints
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Format    string `json:"format,omitempty"`

	// Numeric constraints
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// Array constraints
	MinItems    *int `json:"minItems,omitempty"`
	MaxItems    *int `json:"maxItems,omitempty"`
	UniqueItems bool `json:"uniqueItems,omitempty"`

	// Enum and const; Const is raw so that an explicit null is kept.
	Enum  []any           `json:"enum,omitempty"`
	Const json.RawMessage `json:"const,omitempty"`

	// Nullable (OpenAPI style)
	Nullable bool `json:"nullable,omitempty"`

	// Composition
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`

	// Definitions for $ref resolution
	Definitions map[string]*Schema `json:"definitions,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"` // JSON Schema draft 2019-09+

	Default  any   `json:"default,omitempty"`
	Examples []any `json:"examples,omitempty"`
}

// MarshalJSON writes type as a string or an array and omits it when empty.
func (s Schema) MarshalJSON() ([]byte, error) {
	type plain Schema
	return json.Marshal(struct {
		Type any `json:"type,omitempty"`
		plain
	}{Type: s.Type.value(), plain: plain(s)})
}

// OrderedProperties lists property names: propertyOrder first, then the
// remaining names sorted.
func (s *Schema) OrderedProperties() []string {
	names := make([]string, 0, len(s.Properties))
	seen := make(map[string]bool, len(s.Properties))
	for _, name := range s.PropertyOrder {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// IsRequired reports whether name is listed in required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// definitions merges definitions and $defs.
func (s *Schema) definitions() map[string]*Schema {
	defs := make(map[string]*Schema, len(s.Definitions)+len(s.Defs))
	for k, v := range s.Definitions {
		defs[k] = v
	}
	for k, v := range s.Defs {
		defs[k] = v
	}
	return defs
}

// resolveRef looks up a local reference against root.
func resolveRef(root *Schema, defs map[string]*Schema, ref string) (*Schema, bool) {
	if ref == "#" {
		return root, true
	}
	for _, prefix := range []string{"#/definitions/", "#/$defs/"} {
		if name, ok := strings.CutPrefix(ref, prefix); ok {
			def, found := defs[unescapePointer(name)]
			return def, found && def != nil
		}
	}
	return nil, false
}

func unescapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

// String renders the schema as indented JSON.
func (s *Schema) String() string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Sprintf("<invalid schema: %v>", err)
	}
	return string(b)
}

// ParseFile reads and parses a JSON Schema from a file
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(fmt.Sprintf("schema file not found: %s", path), errors.ErrFileNotFound)
		}
		return nil, errors.NewInputError("failed to read schema file", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses JSON Schema from bytes. Numbers in enum, default and
// examples keep their literal text.
func ParseBytes(data []byte) (*Schema, error) {
	var schema Schema
	if err := decode(data, &schema); err != nil {
		return nil, errors.NewSchemaError("failed to parse JSON Schema", err)
	}

	return &schema, nil
}

// ParseString parses JSON Schema from a string
func ParseString(s string) (*Schema, error) {
	return ParseBytes([]byte(s))
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after schema")
	}
	return nil
}
