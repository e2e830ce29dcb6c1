package formatter

import (
	"unicode"

	gyaml "github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/token"
	"gopkg.in/yaml.v3"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

// yamlNumber emits its literal untouched so that big integers and long
// fractions survive the encoder.
type yamlNumber string

func (n yamlNumber) MarshalYAML() ([]byte, error) {
	return []byte(n), nil
}

func serializeYAML(v *models.Value, opts Options) (string, error) {
	indent := opts.Indent
	if indent < 1 {
		indent = 2
	}

	enc := gyaml.NewEncoder(nil, gyaml.Indent(indent), gyaml.IndentSequence(opts.IndentSequence))
	node, err := enc.EncodeToNode(toYAML(v))
	if err != nil {
		return "", errors.NewSerializeError("failed to encode YAML", err)
	}
	ast.Walk(stringQuoter{}, node)
	return node.String() + "\n", nil
}

// stringQuoter double-quotes every string key or value that would not be
// read back as the same string.
type stringQuoter struct{}

func (q stringQuoter) Visit(n ast.Node) ast.Visitor {
	str, ok := n.(*ast.StringNode)
	if !ok {
		return q
	}
	switch str.Token.Type {
	case token.DoubleQuoteType, token.SingleQuoteType:
		return q
	}
	// already quoted by the encoder
	if len(str.Value) > 0 && (str.Value[0] == '"' || str.Value[0] == '\'') {
		return q
	}
	if !plainIsString(str.Value) {
		str.Token.Type = token.DoubleQuoteType
	}
	return q
}

// plainIsString reports whether s, written as a plain scalar, reads back
// as the string s.
func plainIsString(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil || len(doc.Content) != 1 {
		return false
	}
	scalar := doc.Content[0]
	return scalar.Kind == yaml.ScalarNode && scalar.Tag == "!!str" && scalar.Style == 0 && scalar.Value == s
}

// toYAML maps the tree onto ordered goccy values.
func toYAML(v *models.Value) any {
	switch v.Kind {
	case models.BoolKind:
		return v.Bool
	case models.StringKind:
		return v.Str
	case models.NumberKind:
		switch v.Num.Literal {
		case models.PosInf:
			return yamlNumber(".inf")
		case models.NegInf:
			return yamlNumber("-.inf")
		case models.NaN:
			return yamlNumber(".nan")
		}
		return yamlNumber(v.Num.Literal)
	case models.ArrayKind:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = toYAML(item)
		}
		return items
	case models.ObjectKind:
		ms := make(gyaml.MapSlice, 0, len(v.Members))
		for _, m := range v.Members {
			ms = append(ms, gyaml.MapItem{Key: m.Key, Value: toYAML(m.Value)})
		}
		return ms
	}
	return nil
}
