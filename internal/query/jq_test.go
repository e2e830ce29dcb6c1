package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/parser"
)

const doc = `{
	"users": [
		{"name": "Ann", "age": 31, "tags": ["admin"]},
		{"name": "Bo", "age": 25, "tags": []}
	],
	"big": 123456789012345678901234567890,
	"ratio": 0.5
}`

func mustTree(t *testing.T, text string) *models.Value {
	t.Helper()
	v, err := parser.Parse(text, format.JSON)
	require.NoError(t, err)
	return v
}

func compact(t *testing.T, vs []*models.Value) []string {
	t.Helper()
	out := make([]string, len(vs))
	for i, v := range vs {
		text, err := formatter.Serialize(v, format.JSON, formatter.Options{Indent: 0})
		require.NoError(t, err)
		out[i] = text
	}
	return out
}

func TestRunJQ(t *testing.T) {
	tests := []struct {
		program string
		want    []string
	}{
		{".users[].name", []string{`"Ann"`, `"Bo"`}},
		{".users | length", []string{`2`}},
		{`.users[] | select(.age > 30) | {name, admin: (.tags | any(. == "admin"))}`, []string{`{"admin":true,"name":"Ann"}`}},
		{".big", []string{`123456789012345678901234567890`}},
		{".ratio * 3", []string{`1.5`}},
		{"[.users[].age] | add", []string{`56`}},
		{"empty", []string{}},
		{".missing", []string{`null`}},
	}

	tree := mustTree(t, doc)
	for _, tt := range tests {
		t.Run(tt.program, func(t *testing.T) {
			got, err := RunJQ(context.Background(), tree, tt.program)
			require.NoError(t, err)
			assert.Equal(t, tt.want, compact(t, got))
		})
	}
}

func TestRunJQ_Errors(t *testing.T) {
	tree := mustTree(t, doc)

	for _, program := range []string{"", ".users[", "undefined_function(1)"} {
		_, err := RunJQ(context.Background(), tree, program)
		require.Error(t, err, program)
		assert.ErrorIs(t, err, errors.ErrInvalidQuery, program)
	}

	_, err := RunJQ(context.Background(), tree, `.users | error("boom")`)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))
	assert.Contains(t, err.Error(), "boom")

	_, err = RunJQ(context.Background(), nil, ".")
	assert.ErrorIs(t, err, errors.ErrNoInput)
}

func TestRunJQ_Halt(t *testing.T) {
	got, err := RunJQ(context.Background(), mustTree(t, `1`), `., halt, 2`)
	require.NoError(t, err)
	assert.Equal(t, []string{`1`}, compact(t, got))
}

func TestCompileJQ_Reuse(t *testing.T) {
	q, err := CompileJQ(".a")
	require.NoError(t, err)
	assert.Equal(t, ".a", q.String())

	for _, in := range []string{`{"a": 1}`, `{"a": "x"}`} {
		got, err := q.Run(context.Background(), mustTree(t, in))
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
}

func TestRunJQ_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunJQ(ctx, mustTree(t, doc), "repeat(.)")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCancelled)
}
