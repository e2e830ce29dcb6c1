package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntdream/jsoncrack/internal/errors"
)

func TestFormat_SimpleStruct(t *testing.T) {
	input := `package main

type Person struct {
Name string ` + "`json:\"name\"`" + `
Age int64 ` + "`json:\"age\"`" + `
IsActive bool ` + "`json:\"is_active\"`" + `
}
`

	formatted, err := NewFormatter().Format(input)
	require.NoError(t, err)

	expectedOutput := `package main

type Person struct {
	Name     string ` + "`json:\"name\"`" + `
	Age      int64  ` + "`json:\"age\"`" + `
	IsActive bool   ` + "`json:\"is_active\"`" + `
}
`
	assert.Equal(t, expectedOutput, formatted)
}

func TestFormat_GroupsImports(t *testing.T) {
	input := `package main

import (
"github.com/google/uuid"
"time"
)

type Event struct {
ID uuid.UUID ` + "`json:\"id\"`" + `
CreatedAt time.Time ` + "`json:\"created_at\"`" + `
}
`

	formatted, err := NewFormatter().Format(input)
	require.NoError(t, err)

	assert.Contains(t, formatted, "import (\n\t\"time\"\n\n\t\"github.com/google/uuid\"\n)")
}

func TestFormat_InvalidCode(t *testing.T) {
	input := `package main

type Person struct {
	Name string ` + "`json:\"name\"" + `
}
`

	_, err := NewFormatter().Format(input)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestFormat_EmptyInput(t *testing.T) {
	formatted, err := NewFormatter().Format("  \n")
	require.NoError(t, err)
	assert.Equal(t, "", formatted)
}
