// Package query runs jq programs over document trees and decodes JSON Web
// Tokens into documents.
package query

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

// JQ is a compiled jq program.
type JQ struct {
	source string
	code   *gojq.Code
}

// CompileJQ parses and compiles a jq program once so it can run against
// many trees.
func CompileJQ(program string) (*JQ, error) {
	if strings.TrimSpace(program) == "" {
		return nil, errors.NewQueryError("jq program is empty", errors.ErrInvalidQuery)
	}
	q, err := gojq.Parse(program)
	if err != nil {
		return nil, errors.NewQueryError(fmt.Sprintf("invalid jq program: %v", err), errors.ErrInvalidQuery)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, errors.NewQueryError(fmt.Sprintf("invalid jq program: %v", err), errors.ErrInvalidQuery)
	}
	return &JQ{source: program, code: code}, nil
}

func (q *JQ) String() string { return q.source }

// Run feeds tree to the program and collects every output. Object keys of
// the outputs are sorted, as jq sorts them.
func (q *JQ) Run(ctx context.Context, tree *models.Value) ([]*models.Value, error) {
	if tree == nil {
		return nil, errors.NewQueryError("no document loaded", errors.ErrNoInput)
	}
	var out []*models.Value
	iter := q.code.RunWithContext(ctx, jqInput(tree))
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			var halt *gojq.HaltError
			if stderrors.As(err, &halt) && halt.Value() == nil {
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.NewQueryError("jq program cancelled", fmt.Errorf("%w: %v", errors.ErrCancelled, ctxErr))
			}
			return nil, errors.NewQueryError(err.Error(), err)
		}
		val, err := models.FromInterface(v)
		if err != nil {
			return nil, errors.NewQueryError("jq produced an unsupported value", err)
		}
		out = append(out, val)
	}
	return out, nil
}

// RunJQ compiles program and runs it over tree.
func RunJQ(ctx context.Context, tree *models.Value, program string) ([]*models.Value, error) {
	q, err := CompileJQ(program)
	if err != nil {
		return nil, err
	}
	return q.Run(ctx, tree)
}

// jqInput converts a tree to the values gojq accepts: nil, bool, int,
// float64, *big.Int, string, []any and map[string]any.
func jqInput(v *models.Value) any {
	switch v.Kind {
	case models.NullKind:
		return nil
	case models.BoolKind:
		return v.Bool
	case models.StringKind:
		return v.Str
	case models.NumberKind:
		switch v.Num.Type {
		case models.IntNumber:
			if i, ok := v.Num.Int64(); ok && i >= math.MinInt && i <= math.MaxInt {
				return int(i)
			}
			return v.Num.BigInt()
		case models.BigIntNumber:
			return new(big.Int).Set(v.Num.BigInt())
		default:
			return v.Num.Float64()
		}
	case models.ArrayKind:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = jqInput(item)
		}
		return out
	default:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = jqInput(m.Value)
		}
		return out
	}
}
