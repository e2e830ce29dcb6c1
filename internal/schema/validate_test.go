package schema

import (
	"testing"

	"github.com/huntdream/jsoncrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, text string) *Schema {
	t.Helper()
	s, err := ParseString(text)
	require.NoError(t, err)
	return s
}

func violationPaths(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Path)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		input  string
		paths  []string
	}{
		{"type ok", `{"type": "string"}`, `"x"`, nil},
		{"type mismatch", `{"type": "string"}`, `1`, []string{"{Root}"}},
		{"integer is a number", `{"type": "number"}`, `3`, nil},
		{"whole float is an integer", `{"type": "integer"}`, `3.0`, nil},
		{"fraction is not an integer", `{"type": "integer"}`, `3.5`, []string{"{Root}"}},
		{"multi-type", `{"type": ["string", "null"]}`, `null`, nil},
		{"nullable", `{"type": "string", "nullable": true}`, `null`, nil},
		{"enum", `{"enum": ["a", 1, null]}`, `1.0`, nil},
		{"enum miss", `{"enum": ["a", 1]}`, `"b"`, []string{"{Root}"}},
		{"const object", `{"const": {"a": [1]}}`, `{"a": [1]}`, nil},
		{"const null", `{"const": null}`, `0`, []string{"{Root}"}},
		{"minLength counts runes", `{"type": "string", "minLength": 2}`, `"é"`, []string{"{Root}"}},
		{"maxLength", `{"type": "string", "maxLength": 2}`, `"abc"`, []string{"{Root}"}},
		{"pattern", `{"type": "string", "pattern": "^[a-z]+$"}`, `"abc1"`, []string{"{Root}"}},
		{"bad pattern", `{"type": "string", "pattern": "("}`, `"a"`, []string{"{Root}"}},
		{"date-time", `{"type": "string", "format": "date-time"}`, `"2024-01-02T03:04:05Z"`, nil},
		{"date-time miss", `{"type": "string", "format": "date-time"}`, `"yesterday"`, []string{"{Root}"}},
		{"date", `{"type": "string", "format": "date"}`, `"2024-02-30"`, []string{"{Root}"}},
		{"email", `{"type": "string", "format": "email"}`, `"bo@example.com"`, nil},
		{"email with name", `{"type": "string", "format": "email"}`, `"Bo <bo@example.com>"`, []string{"{Root}"}},
		{"uuid", `{"type": "string", "format": "uuid"}`, `"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`, nil},
		{"uuid miss", `{"type": "string", "format": "uuid"}`, `"6ba7b810"`, []string{"{Root}"}},
		{"unknown format", `{"type": "string", "format": "shoe-size"}`, `"!!"`, nil},
		{"hostname", `{"type": "string", "format": "hostname"}`, `"-bad-.example"`, []string{"{Root}"}},
		{"ipv4", `{"type": "string", "format": "ipv4"}`, `"10.0.0.256"`, []string{"{Root}"}},
		{"lowercase date-time", `{"type": "string", "format": "date-time"}`, `"2024-01-02t03:04:05z"`, nil},
		{"nullable array type", `{"type": ["integer", "string"], "nullable": true}`, `null`, nil},
		{"remote ref never fetched", `{"properties": {"a": {"$ref": "http://example.com/s.json"}}}`, `{"a": 1}`, []string{"{Root}.a"}},
		{"minimum", `{"minimum": 5}`, `4`, []string{"{Root}"}},
		{"maximum", `{"maximum": 5}`, `5`, nil},
		{"exclusiveMinimum", `{"exclusiveMinimum": 5}`, `5`, []string{"{Root}"}},
		{"exclusiveMaximum", `{"exclusiveMaximum": 5}`, `4.99`, nil},
		{"big integer above maximum", `{"maximum": 10}`, `123456789012345678901234567890`, []string{"{Root}"}},
		{"multipleOf", `{"multipleOf": 0.1}`, `0.3`, nil},
		{"multipleOf miss", `{"multipleOf": 3}`, `10`, []string{"{Root}"}},
		{"minItems", `{"type": "array", "minItems": 2}`, `[1]`, []string{"{Root}"}},
		{"maxItems", `{"type": "array", "maxItems": 1}`, `[1, 2]`, []string{"{Root}"}},
		{"uniqueItems", `{"type": "array", "uniqueItems": true}`, `[1, 2, 1.0]`, []string{"{Root}"}},
		{"items", `{"type": "array", "items": {"type": "integer"}}`, `[1, "x", 2, true]`, []string{"{Root}.1", "{Root}.3"}},
		{
			"required and properties",
			`{"type": "object", "required": ["id", "name"], "properties": {"id": {"type": "integer"}, "tags": {"type": "array", "items": {"type": "string"}}}}`,
			`{"id": "x", "tags": ["a", 2]}`,
			[]string{"{Root}.name", "{Root}.id", "{Root}.tags.1"},
		},
		{"additionalProperties false", `{"properties": {"a": {}}, "additionalProperties": false}`, `{"a": 1, "b": 2}`, []string{"{Root}.b"}},
		{"additionalProperties schema", `{"additionalProperties": {"type": "integer"}}`, `{"a": 1, "b": "x"}`, []string{"{Root}.b"}},
		{"allOf", `{"allOf": [{"minimum": 1}, {"maximum": 3}]}`, `4`, []string{"{Root}"}},
		{"anyOf", `{"anyOf": [{"type": "string"}, {"type": "integer"}]}`, `true`, []string{"{Root}"}},
		{"anyOf ok", `{"anyOf": [{"type": "string"}, {"type": "integer"}]}`, `2`, nil},
		{"oneOf both", `{"oneOf": [{"type": "number"}, {"type": "integer"}]}`, `2`, []string{"{Root}"}},
		{"oneOf one", `{"oneOf": [{"type": "number"}, {"type": "integer"}]}`, `2.5`, nil},
		{
			"ref",
			`{"definitions": {"pos": {"type": "integer", "minimum": 0}}, "type": "object", "properties": {"x": {"$ref": "#/definitions/pos"}, "y": {"$ref": "#/$defs/missing"}}}`,
			`{"x": -1, "y": 1}`,
			[]string{"{Root}.x", "{Root}.y"},
		},
		{
			"recursive ref",
			`{"type": "object", "properties": {"child": {"$ref": "#"}, "v": {"type": "integer"}}}`,
			`{"child": {"child": {"v": "deep"}}}`,
			[]string{"{Root}.child.child.v"},
		},
		{"dotted key path", `{"properties": {"a.b": {"type": "string"}}}`, `{"a.b": 1}`, []string{`{Root}["a.b"]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(mustTree(t, tt.input), mustSchema(t, tt.schema))
			if tt.paths == nil {
				assert.Empty(t, got)
				return
			}
			assert.ElementsMatch(t, tt.paths, violationPaths(got), "%v", got)
		})
	}
}

func TestValidate_ViolationDetails(t *testing.T) {
	got := Validate(mustTree(t, `{"age": "3"}`), mustSchema(t, `{"properties": {"age": {"type": "integer"}}}`))
	require.Len(t, got, 1)
	assert.Equal(t, Violation{
		Path:     "{Root}.age",
		Expected: "integer",
		Actual:   "string",
		Message:  "expected integer, got string",
	}, got[0])
	assert.Equal(t, "{Root}.age: expected integer, got string", got[0].String())
}

func TestValidate_NilInputs(t *testing.T) {
	assert.Empty(t, Validate(nil, &Schema{}))
	assert.Empty(t, Validate(mustTree(t, `1`), nil))
	assert.True(t, Valid(mustTree(t, `1`), &Schema{}))
}

func TestValidate_InferredSchemaAcceptsSource(t *testing.T) {
	inputs := []string{
		`{"user": {"name": "Bo", "age": 3}, "tags": ["a", "b"], "when": "2024-01-02T03:04:05Z"}`,
		`[{"id": 1}, {"id": 2.5, "extra": null}, {"id": 3, "extra": [1, {"x": "y"}]}]`,
		`[[1, 2], {"a": 1}, "s", null, true]`,
		`"plain"`,
	}
	for _, in := range inputs {
		tree := mustTree(t, in)
		assert.Empty(t, Validate(tree, Infer(tree)), in)
	}
}

func TestValidate_InvalidSchemaIsOneRootViolation(t *testing.T) {
	got := Validate(mustTree(t, `"a"`), mustSchema(t, `{"type": "string", "pattern": "(", "minLength": 5}`))
	require.Len(t, got, 1)
	assert.Equal(t, "{Root}", got[0].Path)
	assert.Equal(t, "valid schema", got[0].Expected)
}

func TestValidate_RequiredNamesEachMissingProperty(t *testing.T) {
	got := Validate(mustTree(t, `{}`), mustSchema(t, `{"required": ["a", "b.c"]}`))
	assert.ElementsMatch(t, []string{"{Root}.a", `{Root}["b.c"]`}, violationPaths(got))
	for _, v := range got {
		assert.Equal(t, "missing", v.Actual)
	}
}

func TestValidate_NonFiniteNumbers(t *testing.T) {
	inf := models.NumberValue(models.Number{Literal: models.PosInf, Type: models.FloatNumber})
	assert.Len(t, Validate(inf, mustSchema(t, `{"maximum": 1e300}`)), 1)
	assert.Empty(t, Validate(inf, mustSchema(t, `{"type": "number"}`)))
}
