package parser

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

var (
	yamlLineRegex  = regexp.MustCompile(`line (\d+)`)
	jsonNumberLike = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
)

func parseYAML(text string) (*models.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		e := errors.NewParsingError(strings.TrimPrefix(err.Error(), "yaml: "), errors.ErrInvalidYAML)
		if m := yamlLineRegex.FindStringSubmatch(err.Error()); m != nil {
			line, _ := strconv.Atoi(m[1])
			e.WithPos(line, 0)
		}
		return nil, e
	}
	// Empty documents are null. Only the first document of a stream is read.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return models.Null(), nil
	}
	c := &yamlConverter{visiting: make(map[*yaml.Node]bool)}
	return c.convert(doc.Content[0])
}

type yamlConverter struct {
	visiting map[*yaml.Node]bool
}

func (c *yamlConverter) convert(n *yaml.Node) (*models.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return models.Null(), nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		if c.visiting[n.Alias] {
			return nil, c.errorAt(n, "recursive alias *"+n.Value)
		}
		c.visiting[n.Alias] = true
		defer delete(c.visiting, n.Alias)
		return c.convert(n.Alias)
	case yaml.SequenceNode:
		arr := models.Array()
		for _, item := range n.Content {
			v, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, v)
		}
		return arr, nil
	case yaml.MappingNode:
		return c.mapping(n)
	case yaml.ScalarNode:
		return c.scalar(n)
	default:
		return nil, c.errorAt(n, fmt.Sprintf("unsupported YAML node kind %d", n.Kind))
	}
}

func (c *yamlConverter) mapping(n *yaml.Node) (*models.Value, error) {
	obj := models.Object()
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		if keyNode.Kind == yaml.AliasNode {
			keyNode = keyNode.Alias
		}

		if keyNode.ShortTag() == "!!merge" {
			if err := c.merge(obj, valNode); err != nil {
				return nil, err
			}
			continue
		}

		if keyNode.Kind != yaml.ScalarNode {
			return nil, c.errorAt(keyNode, "mapping keys must be scalars")
		}
		val, err := c.convert(valNode)
		if err != nil {
			return nil, err
		}
		obj.Set(keyNode.Value, val)
	}
	return obj, nil
}

// merge applies a "<<" merge key. Keys already present win.
func (c *yamlConverter) merge(obj *models.Value, src *yaml.Node) error {
	v, err := c.convert(src)
	if err != nil {
		return err
	}
	sources := []*models.Value{v}
	if v.Kind == models.ArrayKind {
		sources = v.Items
	}
	for _, s := range sources {
		if s.Kind != models.ObjectKind {
			return c.errorAt(src, "merge value must be a mapping or a sequence of mappings")
		}
		for _, m := range s.Members {
			if obj.Index(m.Key) < 0 {
				obj.Set(m.Key, m.Value)
			}
		}
	}
	return nil
}

func (c *yamlConverter) scalar(n *yaml.Node) (*models.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return models.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, c.errorAt(n, err.Error())
		}
		return models.Bool(b), nil
	case "!!int":
		num, err := yamlInt(n.Value)
		if err != nil {
			return nil, c.errorAt(n, err.Error())
		}
		return models.NumberValue(num), nil
	case "!!float":
		num, err := yamlFloat(n.Value)
		if err != nil {
			return nil, c.errorAt(n, err.Error())
		}
		return models.NumberValue(num), nil
	default:
		// !!str, !!timestamp, !!binary and custom tags keep their text.
		return models.String(n.Value), nil
	}
}

func (c *yamlConverter) errorAt(n *yaml.Node, message string) error {
	return errors.NewParsingError(message, errors.ErrInvalidYAML).WithPos(n.Line, n.Column)
}

// yamlInt normalizes hex, octal and binary integers to decimal.
func yamlInt(text string) (models.Number, error) {
	s := strings.ReplaceAll(text, "_", "")
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	i, ok := new(big.Int).SetString(s, 0)
	if !ok {
		i, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return models.Number{}, fmt.Errorf("invalid integer %q", text)
	}
	return models.NumberFromLiteral(i.String())
}

func yamlFloat(text string) (models.Number, error) {
	switch strings.ToLower(text) {
	case ".inf", "+.inf":
		return models.Number{Literal: models.PosInf, Type: models.FloatNumber}, nil
	case "-.inf":
		return models.Number{Literal: models.NegInf, Type: models.FloatNumber}, nil
	case ".nan":
		return models.Number{Literal: models.NaN, Type: models.FloatNumber}, nil
	}
	s := strings.TrimPrefix(strings.ReplaceAll(text, "_", ""), "+")
	if jsonNumberLike.MatchString(s) {
		if !strings.ContainsAny(s, ".eE") {
			// integers too large for int64 are tagged as floats
			return yamlInt(s)
		}
		return models.Number{Literal: s, Type: models.FloatNumber}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Number{}, fmt.Errorf("invalid float %q", text)
	}
	return models.FloatToNumber(f), nil
}
