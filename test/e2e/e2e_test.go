package e2e_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntdream/jsoncrack/internal/cli"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/schema"
	"github.com/huntdream/jsoncrack/internal/search"
	"github.com/huntdream/jsoncrack/internal/workspace"
)

// runCLI runs the command line in-process.
func runCLI(t testing.TB, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = cli.Run(args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), code
}

// compileGo builds a generated file when a go toolchain is on PATH.
func compileGo(t *testing.T, dir, file string) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
	cmd := exec.Command("go", "build", file)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "generated code does not compile: %s", output)
}

// TestEndToEnd_ComplexNestedStructures tests the application with complex nested JSON structures
func TestEndToEnd_ComplexNestedStructures(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{
		"id": 12345,
		"uuid": "550e8400-e29b-41d4-a716-446655440000",
		"created_at": "2023-05-20T14:56:23Z",
		"updated_at": null,
		"config": {
			"enabled": true,
			"timeout_seconds": 30,
			"retry_count": 3,
			"features": ["logging", "metrics", "alerting"],
			"rate_limits": {
				"per_second": 100,
				"per_minute": 1000,
				"burst": 150
			},
			"environments": {
				"development": {
					"debug": true,
					"log_level": "debug"
				},
				"production": {
					"debug": false,
					"log_level": "info"
				}
			}
		},
		"users": [
			{
				"id": 1,
				"name": "Alice",
				"roles": ["admin", "user"],
				"metadata": {
					"last_login": "2023-05-19T10:30:00Z",
					"login_count": 42
				}
			},
			{
				"id": 2,
				"name": "Bob",
				"roles": ["user"],
				"metadata": {
					"last_login": "2023-05-18T08:15:00Z",
					"login_count": 7
				}
			}
		],
		"stats": {
			"total_requests": 15000,
			"error_rate": 0.05,
			"average_response_time_ms": 120.5
		}
	}`

	jsonFile := filepath.Join(tempDir, "complex.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(jsonContent), 0o644))
	outputFile := filepath.Join(tempDir, "complex.go")

	_, stderr, code := runCLI(t, "", "types", "-i", jsonFile, "-o", outputFile, "-p", "complex")
	require.Equal(t, 0, code, stderr)

	output, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	generated := string(output)

	assert.Contains(t, generated, "package complex")
	assert.Contains(t, generated, "type RootType struct")
	assert.Contains(t, generated, "type RootTypeConfig struct")
	assert.Contains(t, generated, "type RootTypeConfigRateLimits struct")
	assert.Contains(t, generated, "type RootTypeUser struct")
	assert.Contains(t, generated, "type RootTypeUserMetadata struct")
	assert.Contains(t, generated, "type RootTypeStats struct")

	assert.Regexp(t, `CreatedAt\s+time\.Time\s+\x60json:"created_at"\x60`, generated)
	assert.Regexp(t, `UpdatedAt\s+\*?interface\{\}\s+\x60json:"updated_at,omitempty"\x60`, generated)
	assert.Regexp(t, `Uuid\s+string`, generated)
	assert.Regexp(t, `Features\s+\[\]string`, generated)
	assert.Regexp(t, `ErrorRate\s+float64`, generated)
	assert.Regexp(t, `Users\s+\[\]\*RootTypeUser`, generated)

	// root struct comes first
	assert.Less(t, strings.Index(generated, "type RootType struct"), strings.Index(generated, "type RootTypeConfig struct"))

	compileGo(t, tempDir, "complex.go")
}

// TestEndToEnd_HeterogeneousArrays tests the application with arrays of mixed element types
func TestEndToEnd_HeterogeneousArrays(t *testing.T) {
	jsonContent := `{
		"mixed_array": [1, "two", true, null, {"five": 5}, [6]],
		"numbers": [1, 2.5, 3],
		"mixed_objects": [
			{"type": "user", "id": 1, "name": "Alice"},
			{"type": "group", "id": 2, "members": [1, 3]},
			{"type": "user", "id": 3, "name": "Bob", "active": true}
		]
	}`

	stdout, stderr, code := runCLI(t, jsonContent, "types")
	require.Equal(t, 0, code, stderr)

	assert.Regexp(t, `MixedArray\s+\[\]interface\{\}`, stdout)
	assert.Regexp(t, `Numbers\s+\[\]float64`, stdout)
	assert.Contains(t, stdout, "type RootTypeMixedObject struct")
	assert.Regexp(t, `Type\s+string\s+\x60json:"type"\x60`, stdout)
	assert.Regexp(t, `Name\s+\*string\s+\x60json:"name,omitempty"\x60`, stdout)
	assert.Regexp(t, `Members\s+\[\]int64\s+\x60json:"members,omitempty"\x60`, stdout)
	assert.Regexp(t, `Active\s+\*bool\s+\x60json:"active,omitempty"\x60`, stdout)
}

// TestEndToEnd_EdgeCases tests inputs at the boundaries of what can be typed
func TestEndToEnd_EdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		json     string
		expected string
		isError  bool
	}{
		{name: "EmptyObject", json: `{}`, expected: "type RootType struct"},
		{name: "EmptyArray", json: `[]`, expected: "type RootTypeList []interface{}"},
		{name: "SingleValue", json: `"just a string"`, expected: "string"},
		{name: "SingleNumber", json: `42`, expected: "int64"},
		{name: "SingleBoolean", json: `true`, expected: "bool"},
		{name: "SingleNull", json: `null`, expected: "interface{}"},
		{name: "InvalidJSON", json: `{"name": "Invalid JSON",}`, isError: true},
		{name: "DeeplyNestedObject", json: `{"level1":{"level2":{"level3":{"level4":{"level5":{"value":42}}}}}}`, expected: "type RootTypeLevel1Level2Level3Level4Level5 struct"},
		{name: "DeeplyNestedArray", json: `[[[[[[42]]]]]]`, expected: "[][][][][][]int64"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, stderr, code := runCLI(t, tc.json, "types", "-f", "json")

			if tc.isError {
				assert.Equal(t, 1, code, "Expected an error for %s", tc.name)
				assert.Contains(t, stderr, "Parsing error")
				return
			}
			require.Equal(t, 0, code, "Unexpected error for %s: %s", tc.name, stderr)
			assert.Contains(t, stdout, "package main")
			assert.Contains(t, stdout, tc.expected, "Expected output not found for %s", tc.name)
		})
	}
}

// TestEndToEnd_EditPipeline drives a document through the same steps an
// editor session would: load, edit, validate, sample, commit.
func TestEndToEnd_EditPipeline(t *testing.T) {
	ws := workspace.New()
	require.NoError(t, ws.Load("name: api\nreplicas: 2\nports:\n  - 80\n  - 443\nlimits:\n  cpu: 0.5\n", format.YAML))

	_, err := ws.Replace("{Root}.replicas", "3")
	require.NoError(t, err)
	_, err = ws.Rename("{Root}.limits", "resources")
	require.NoError(t, err)
	require.True(t, ws.HasChanges())

	text := ws.Current().RawText
	assert.Contains(t, text, "replicas: 3")
	assert.Contains(t, text, "resources:\n")
	assert.NotContains(t, text, "limits:")

	assert.Empty(t, ws.Validate())

	matches := search.Find(ws.Current().Tree, "443", search.Options{ValuesOnly: true})
	require.Len(t, matches, 1)
	assert.Equal(t, "{Root}.ports.1", matches[0].Path.String())

	task := ws.StartSample(context.Background(), schema.SampleOptions{Seed: 7, MinItems: 1, MaxItems: 2, MaxDepth: 8})
	applied, err := ws.ApplySample(task)
	require.NoError(t, err)
	require.True(t, applied)

	assert.True(t, schema.Valid(ws.Current().Tree, ws.Schema()))

	ws.Commit()
	assert.False(t, ws.HasChanges())
}

// TestEndToEnd_ConvertRoundTrip converts a document through every format and back.
func TestEndToEnd_ConvertRoundTrip(t *testing.T) {
	input := `{"service":{"name":"api","port":8080,"tags":["a","b"]},"debug":false}`

	yamlOut, stderr, code := runCLI(t, input, "convert", "-f", "json", "-t", "yaml")
	require.Equal(t, 0, code, stderr)

	tomlOut, stderr, code := runCLI(t, yamlOut, "convert", "-f", "yaml", "-t", "toml")
	require.Equal(t, 0, code, stderr)

	jsonOut, stderr, code := runCLI(t, tomlOut, "convert", "-f", "toml", "-t", "json", "--indent", "0")
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, input+"\n", jsonOut)
}
