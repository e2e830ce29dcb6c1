package schema

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/nodepath"
)

const schemaLocation = "schema.json"

var (
	printer    = message.NewPrinter(language.English)
	jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
)

// Violation is one place where a tree does not match a schema.
type Violation struct {
	Path     string
	Expected string
	Actual   string
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks tree against s and lists every violation. An empty
// result means the tree is valid. A schema that cannot be compiled is
// reported as a single violation at the root.
func Validate(tree *models.Value, s *Schema) []Violation {
	if tree == nil || s == nil {
		return nil
	}
	compiled, err := compile(s)
	if err != nil {
		return []Violation{{
			Path:     nodepath.Root().String(),
			Expected: "valid schema",
			Actual:   "invalid schema",
			Message:  err.Error(),
		}}
	}
	err = compiled.Validate(instance(tree))
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !stderrors.As(err, &ve) {
		return []Violation{{Path: nodepath.Root().String(), Message: err.Error()}}
	}
	c := &collector{tree: tree, seen: make(map[string]bool)}
	c.add(ve)
	return c.out
}

// Valid reports whether tree matches s.
func Valid(tree *models.Value, s *Schema) bool {
	return len(Validate(tree, s)) == 0
}

// compile hands s to jsonschema. Local references that point nowhere are
// replaced by the false schema, so only the nodes behind them fail.
func compile(s *Schema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	doc = prepare(doc, doc)

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(schemaLocation, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaLocation)
}

// keywords whose values are data rather than schemas
var dataKeywords = map[string]bool{"enum": true, "const": true, "default": true, "examples": true}

func prepare(root, node any) any {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok && !refResolves(root, ref) {
			return false
		}
		if nullable, _ := n["nullable"].(bool); nullable {
			n["type"] = withNull(n["type"])
		}
		for k, v := range n {
			if !dataKeywords[k] {
				n[k] = prepare(root, v)
			}
		}
		return n
	case []any:
		for i, v := range n {
			n[i] = prepare(root, v)
		}
		return n
	default:
		return node
	}
}

func withNull(t any) any {
	switch t := t.(type) {
	case string:
		if t == "null" {
			return t
		}
		return []any{t, "null"}
	case []any:
		for _, x := range t {
			if x == "null" {
				return t
			}
		}
		return append(t, "null")
	default:
		return t
	}
}

// refResolves reports whether ref is a JSON Pointer into root. Anchors are
// left to the compiler; other documents are never fetched.
func refResolves(root any, ref string) bool {
	fragment, ok := strings.CutPrefix(ref, "#")
	if !ok {
		return false
	}
	if fragment == "" {
		return true
	}
	if !strings.HasPrefix(fragment, "/") {
		return true
	}
	if unescaped, err := url.PathUnescape(fragment); err == nil {
		fragment = unescaped
	}
	cur := root
	for _, tok := range strings.Split(fragment[1:], "/") {
		tok = unescapePointer(tok)
		switch c := cur.(type) {
		case map[string]any:
			next, ok := c[tok]
			if !ok {
				return false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(c) {
				return false
			}
			cur = c[i]
		default:
			return false
		}
	}
	switch cur.(type) {
	case map[string]any, bool:
		return true
	}
	return false
}

// instance converts a tree to the value model jsonschema validates.
// Numbers keep their literal; non-finite numbers are out of any range.
func instance(v *models.Value) any {
	switch v.Kind {
	case models.NullKind:
		return nil
	case models.BoolKind:
		return v.Bool
	case models.NumberKind:
		return json.Number(numberText(v.Num))
	case models.StringKind:
		return v.Str
	case models.ArrayKind:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = instance(item)
		}
		return out
	default:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = instance(m.Value)
		}
		return out
	}
}

func numberText(n models.Number) string {
	switch {
	case !n.IsFinite() && n.Literal == models.NegInf:
		return "-1e400"
	case !n.IsFinite():
		return "1e400"
	case jsonNumber.MatchString(n.Literal):
		return n.Literal
	default:
		return strconv.FormatFloat(n.Float64(), 'g', -1, 64)
	}
}

// collector flattens a jsonschema error tree into violations.
type collector struct {
	tree *models.Value
	seen map[string]bool
	out  []Violation
}

func (c *collector) report(p nodepath.Path, expected, actual, msg string) {
	key := p.String() + "\x00" + msg
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.out = append(c.out, Violation{Path: p.String(), Expected: expected, Actual: actual, Message: msg})
}

func (c *collector) add(ve *jsonschema.ValidationError) {
	p, val := c.locate(ve.InstanceLocation)
	switch k := ve.ErrorKind.(type) {
	case *kind.Type:
		expected := strings.Join(k.Want, " or ")
		c.report(p, expected, k.Got, fmt.Sprintf("expected %s, got %s", expected, k.Got))
		return
	case *kind.Required:
		for _, name := range k.Missing {
			c.report(p.Key(name), "property "+QuoteString(name), "missing",
				fmt.Sprintf("required property %s is missing", QuoteString(name)))
		}
		return
	case *kind.AdditionalProperties:
		for _, name := range k.Properties {
			c.report(p.Key(name), "no additional properties", "present",
				fmt.Sprintf("property %s is not allowed", QuoteString(name)))
		}
		return
	case *kind.AnyOf, *kind.OneOf:
		// alternatives are reported as one failure
	default:
		if len(ve.Causes) > 0 {
			for _, cause := range ve.Causes {
				c.add(cause)
			}
			return
		}
	}
	actual := ""
	if val != nil {
		actual = formatValue(val)
	}
	c.report(p, strings.Join(ve.ErrorKind.KeywordPath(), "/"), actual, ve.ErrorKind.LocalizedString(printer))
}

// locate maps an instance location back to a path and node.
func (c *collector) locate(loc []string) (nodepath.Path, *models.Value) {
	p := nodepath.Root()
	cur := c.tree
	for _, tok := range loc {
		switch {
		case cur != nil && cur.Kind == models.ArrayKind:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(cur.Items) {
				return p.Key(tok), nil
			}
			p, cur = p.Index(i), cur.Items[i]
		case cur != nil && cur.Kind == models.ObjectKind:
			next, _ := cur.Get(tok)
			p, cur = p.Key(tok), next
		default:
			p, cur = p.Key(tok), nil
		}
	}
	return p, cur
}

// TypeOf names the JSON Schema type of a value.
func TypeOf(val *models.Value) string {
	switch val.Kind {
	case models.NullKind:
		return "null"
	case models.BoolKind:
		return "boolean"
	case models.NumberKind:
		if val.Num.IsInteger() {
			return "integer"
		}
		return "number"
	case models.StringKind:
		return "string"
	case models.ArrayKind:
		return "array"
	default:
		return "object"
	}
}

// sameValue is JSON Schema equality: object key order does not matter.
func sameValue(a, b *models.Value) bool {
	if a.Kind != models.ObjectKind || b.Kind != models.ObjectKind {
		if a.Kind == models.ArrayKind && b.Kind == models.ArrayKind {
			if len(a.Items) != len(b.Items) {
				return false
			}
			for i := range a.Items {
				if !sameValue(a.Items[i], b.Items[i]) {
					return false
				}
			}
			return true
		}
		return models.Equal(a, b)
	}
	if len(a.Members) != len(b.Members) {
		return false
	}
	for _, m := range a.Members {
		other, ok := b.Get(m.Key)
		if !ok || !sameValue(m.Value, other) {
			return false
		}
	}
	return true
}

// QuoteString renders s as a JSON string.
func QuoteString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func formatValue(val *models.Value) string {
	b, err := json.Marshal(val.Interface())
	if err != nil {
		return TypeOf(val)
	}
	return string(b)
}
