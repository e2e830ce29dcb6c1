package schema

import (
	"regexp"
	"time"

	"github.com/huntdream/jsoncrack/internal/models"
)

// Draft is the $schema URI written by Infer.
const Draft = "http://json-schema.org/draft-07/schema#"

// dateTimeRegex is the RFC 3339 subset every validator accepts.
var dateTimeRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)

// Infer derives a schema from a tree. Every object key becomes a required
// property; array elements are merged into one items schema.
func Infer(tree *models.Value) *Schema {
	s := infer(tree)
	s.Schema = Draft
	return s
}

func infer(v *models.Value) *Schema {
	switch v.Kind {
	case models.NullKind:
		return &Schema{Type: Single("null")}
	case models.BoolKind:
		return &Schema{Type: Single("boolean")}
	case models.NumberKind:
		if v.Num.IsInteger() {
			return &Schema{Type: Single("integer")}
		}
		return &Schema{Type: Single("number")}
	case models.StringKind:
		s := &Schema{Type: Single("string")}
		if dateTimeRegex.MatchString(v.Str) && validDateTime(v.Str) {
			s.Format = "date-time"
		}
		return s
	case models.ArrayKind:
		s := &Schema{Type: Single("array")}
		for _, item := range v.Items {
			s.Items = Merge(s.Items, infer(item))
		}
		return s
	default:
		s := &Schema{
			Type:       Single("object"),
			Properties: make(map[string]*Schema, len(v.Members)),
		}
		for _, m := range v.Members {
			s.Properties[m.Key] = infer(m.Value)
			s.PropertyOrder = append(s.PropertyOrder, m.Key)
			s.Required = append(s.Required, m.Key)
		}
		return s
	}
}

// Merge combines two inferred schemas into one that accepts both.
// Either side may be nil.
func Merge(a, b *Schema) *Schema {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	var variants []*Schema
	for _, s := range append(split(a), split(b)...) {
		variants = addVariant(variants, s)
	}
	return assemble(variants)
}

// split breaks a schema into single-type variants.
func split(s *Schema) []*Schema {
	if len(s.Type.Types) == 0 {
		var out []*Schema
		for _, alt := range s.AnyOf {
			out = append(out, split(alt)...)
		}
		if out == nil {
			// untyped schemas accept anything and absorb nothing
			out = []*Schema{s}
		}
		return out
	}
	out := make([]*Schema, 0, len(s.Type.Types))
	for _, t := range s.Type.Types {
		v := &Schema{Type: Single(t)}
		switch t {
		case "object":
			v.Properties = s.Properties
			v.PropertyOrder = s.PropertyOrder
			v.Required = s.Required
		case "array":
			v.Items = s.Items
		case "string":
			v.Format = s.Format
		}
		out = append(out, v)
	}
	return out
}

func family(t string) string {
	if t == "integer" {
		return "number"
	}
	return t
}

func addVariant(variants []*Schema, s *Schema) []*Schema {
	t := s.Type.Primary()
	for i, v := range variants {
		if family(v.Type.Primary()) == family(t) && t != "" {
			variants[i] = mergeSameType(v, s)
			return variants
		}
	}
	return append(variants, s)
}

func mergeSameType(a, b *Schema) *Schema {
	t := a.Type.Primary()
	if t != b.Type.Primary() {
		// integer with number
		return &Schema{Type: Single("number")}
	}
	switch t {
	case "object":
		out := &Schema{Type: Single("object"), Properties: make(map[string]*Schema)}
		for _, name := range a.OrderedProperties() {
			out.Properties[name] = a.Properties[name]
			out.PropertyOrder = append(out.PropertyOrder, name)
		}
		for _, name := range b.OrderedProperties() {
			if prev, ok := out.Properties[name]; ok {
				out.Properties[name] = Merge(prev, b.Properties[name])
				continue
			}
			out.Properties[name] = b.Properties[name]
			out.PropertyOrder = append(out.PropertyOrder, name)
		}
		for _, name := range a.Required {
			if b.IsRequired(name) {
				out.Required = append(out.Required, name)
			}
		}
		return out
	case "array":
		return &Schema{Type: Single("array"), Items: Merge(a.Items, b.Items)}
	case "string":
		out := &Schema{Type: Single("string")}
		if a.Format == b.Format {
			out.Format = a.Format
		}
		return out
	default:
		return a
	}
}

// assemble joins variants into a multi-type schema. Objects and arrays
// together go into anyOf.
func assemble(variants []*Schema) *Schema {
	if len(variants) == 1 {
		return variants[0]
	}
	var hasObject, hasArray, untyped bool
	for _, v := range variants {
		switch v.Type.Primary() {
		case "object":
			hasObject = true
		case "array":
			hasArray = true
		case "":
			untyped = true
		}
	}
	if untyped {
		return &Schema{}
	}
	if hasObject && hasArray {
		var alts []*Schema
		var primitives []*Schema
		for _, v := range variants {
			switch v.Type.Primary() {
			case "object", "array":
				alts = append(alts, v)
			default:
				primitives = append(primitives, v)
			}
		}
		if len(primitives) > 0 {
			alts = append(alts, combine(primitives))
		}
		return &Schema{AnyOf: alts}
	}
	return combine(variants)
}

func combine(variants []*Schema) *Schema {
	if len(variants) == 1 {
		return variants[0]
	}
	out := &Schema{}
	for _, v := range variants {
		out.Type.Types = append(out.Type.Types, v.Type.Primary())
		switch v.Type.Primary() {
		case "object":
			out.Properties = v.Properties
			out.PropertyOrder = v.PropertyOrder
			out.Required = v.Required
		case "array":
			out.Items = v.Items
		case "string":
			out.Format = v.Format
		}
	}
	return out
}

func validDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}
