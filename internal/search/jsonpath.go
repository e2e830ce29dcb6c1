package search

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/nodepath"
)

// JSONPath returns the nodes selected by a JSONPath expression such as
// $.users[?(@.age > 30)].name, in the order the expression visits them.
func JSONPath(tree *models.Value, expression string) ([]Match, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, errors.NewQueryError("JSONPath expression is empty", errors.ErrInvalidQuery)
	}
	x, err := jp.ParseString(expression)
	if err != nil {
		return nil, errors.NewQueryError(fmt.Sprintf("invalid JSONPath: %v", err), errors.ErrInvalidQuery)
	}
	if tree == nil {
		return nil, nil
	}

	var matches []Match
	seen := make(map[string]bool)
	for _, loc := range x.Locate(tree.Interface(), 0) {
		p, v, ok := follow(tree, loc)
		if !ok || seen[p.String()] {
			continue
		}
		seen[p.String()] = true
		matches = append(matches, Match{Path: p, Value: v})
	}
	return matches, nil
}

// follow walks a located expression, made of child and index fragments,
// down the tree.
func follow(tree *models.Value, loc jp.Expr) (nodepath.Path, *models.Value, bool) {
	p := nodepath.Root()
	cur := tree
	for _, frag := range loc {
		switch f := frag.(type) {
		case jp.Root, jp.At, jp.Bracket:
		case jp.Child:
			if cur.Kind != models.ObjectKind {
				return nil, nil, false
			}
			next, ok := cur.Get(string(f))
			if !ok {
				return nil, nil, false
			}
			p, cur = p.Key(string(f)), next
		case jp.Nth:
			i := int(f)
			if cur.Kind != models.ArrayKind {
				return nil, nil, false
			}
			if i < 0 {
				i += len(cur.Items)
			}
			if i < 0 || i >= len(cur.Items) {
				return nil, nil, false
			}
			p, cur = p.Index(i), cur.Items[i]
		default:
			return nil, nil, false
		}
	}
	return p, cur, true
}
