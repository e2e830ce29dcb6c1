// Package search finds nodes in a document tree by text or by expression.
package search

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/nodepath"
)

// Options narrow a text search.
type Options struct {
	CaseSensitive bool
	// KeysOnly matches member keys and ignores leaf values.
	KeysOnly bool
	// ValuesOnly matches leaf values and ignores member keys.
	ValuesOnly bool
}

// Match is a node found by Find or Where.
type Match struct {
	Path  nodepath.Path
	Value *models.Value
	// OnKey and OnValue tell which part of the node matched a text query.
	OnKey   bool
	OnValue bool
}

// Find returns the nodes whose key or leaf text contains query, in document
// order. Leaf text is the display form, so strings match without quotes.
// An empty query matches nothing.
func Find(tree *models.Value, query string, opts Options) []Match {
	if tree == nil || query == "" {
		return nil
	}
	fold := func(s string) string { return s }
	if !opts.CaseSensitive {
		fold = strings.ToLower
	}
	needle := fold(query)

	var matches []Match
	_ = nodepath.Walk(tree, func(p nodepath.Path, v *models.Value) error {
		m := Match{Path: p, Value: v}
		if key, ok := memberKey(p); ok && !opts.ValuesOnly {
			m.OnKey = strings.Contains(fold(key), needle)
		}
		if v.IsLeaf() && !opts.KeysOnly {
			m.OnValue = strings.Contains(fold(formatter.DisplayLabel(v)), needle)
		}
		if m.OnKey || m.OnValue {
			matches = append(matches, m)
		}
		return nil
	})
	return matches
}

// Cycle steps through n matches starting from current, wrapping at both
// ends. A negative current starts from the first or last match.
func Cycle(n, current int, forward bool) int {
	if n <= 0 {
		return -1
	}
	if current < 0 || current >= n {
		if forward {
			return 0
		}
		return n - 1
	}
	if forward {
		return (current + 1) % n
	}
	return (current - 1 + n) % n
}

// Env is what a Where expression sees for each node.
type Env struct {
	Path  string `expr:"path"`
	Key   string `expr:"key"`
	Index int    `expr:"index"`
	Kind  string `expr:"kind"`
	Depth int    `expr:"depth"`
	Value any    `expr:"value"`
	Leaf  bool   `expr:"leaf"`
}

// Query is a compiled Where expression.
type Query struct {
	source  string
	program *vm.Program
}

// Compile checks expression once so it can be run against many trees.
func Compile(expression string) (*Query, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, errors.NewQueryError("expression is empty", errors.ErrInvalidQuery)
	}
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, errors.NewQueryError(err.Error(), errors.ErrInvalidQuery)
	}
	return &Query{source: expression, program: program}, nil
}

func (q *Query) String() string { return q.source }

// Match runs the query over tree. A node for which the expression fails at
// run time, e.g. comparing a string with a number, does not match.
func (q *Query) Match(tree *models.Value) []Match {
	if tree == nil {
		return nil
	}
	var matches []Match
	_ = nodepath.Walk(tree, func(p nodepath.Path, v *models.Value) error {
		out, err := expr.Run(q.program, envFor(p, v))
		if err != nil {
			return nil
		}
		if ok, _ := out.(bool); ok {
			matches = append(matches, Match{Path: p, Value: v})
		}
		return nil
	})
	return matches
}

// Where returns the nodes for which the boolean expression holds, e.g.
//
//	kind == "number" && value > 10
//	leaf && key matches "^id$"
func Where(tree *models.Value, expression string) ([]Match, error) {
	q, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return q.Match(tree), nil
}

func envFor(p nodepath.Path, v *models.Value) Env {
	env := Env{
		Path:  p.String(),
		Index: -1,
		Kind:  v.Kind.String(),
		Depth: len(p),
		Leaf:  v.IsLeaf(),
	}
	if key, ok := memberKey(p); ok {
		env.Key = key
	} else if last, ok := p.Last(); ok {
		env.Index = last.Index
	}
	if v.Kind == models.NumberKind && v.Num.Type == models.BigIntNumber {
		env.Value = v.Num.Float64()
	} else {
		env.Value = v.Interface()
	}
	return env
}

// memberKey returns the key of the node's member in its parent object.
// Walk builds array element segments with an index, key segments without.
func memberKey(p nodepath.Path) (string, bool) {
	last, ok := p.Last()
	if !ok || last.Index >= 0 {
		return "", false
	}
	return last.Name, true
}
