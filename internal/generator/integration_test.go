package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntdream/jsoncrack/internal/analyzer"
	"github.com/huntdream/jsoncrack/internal/config"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/parser"
	"github.com/huntdream/jsoncrack/internal/schema"
)

func TestIntegration_ParserAnalyzerGenerator(t *testing.T) {
	// Test the full pipeline: Parser -> Analyzer -> Generator
	jsonInput := `{
		"user_id": 123,
		"username": "johndoe",
		"is_active": true,
		"profile": {
			"full_name": "John Doe",
			"email": "john.doe@example.com"
		}
	}`

	tree, err := parser.Parse(jsonInput, format.JSON)
	require.NoError(t, err)

	analysisResult, err := analyzer.NewAnalyzer().Analyze(tree, "User")
	require.NoError(t, err)

	generatedCode, err := NewGenerator().GenerateStructs(analysisResult, "main")
	require.NoError(t, err)

	expectedCode := `package main

type User struct {
	UserId   int64        ` + "`json:\"user_id\"`" + `
	Username string       ` + "`json:\"username\"`" + `
	IsActive bool         ` + "`json:\"is_active\"`" + `
	Profile  *UserProfile ` + "`json:\"profile,omitempty\"`" + `
}

type UserProfile struct {
	FullName string ` + "`json:\"full_name\"`" + `
	Email    string ` + "`json:\"email\"`" + `
}
`

	assert.Equal(t, expectedCode, generatedCode)
}

func TestIntegration_ArrayOfObjects(t *testing.T) {
	jsonInput := `[
		{"id": 1, "name": "Product 1", "price": 19.99},
		{"id": 2, "name": "Product 2", "price": 29.99}
	]`

	tree, err := parser.Parse(jsonInput, format.JSON)
	require.NoError(t, err)

	analysisResult, err := analyzer.NewAnalyzer().Analyze(tree, "Products")
	require.NoError(t, err)

	generatedCode, err := NewGenerator().GenerateStructs(analysisResult, "main")
	require.NoError(t, err)

	assert.Contains(t, generatedCode, "type Products []*Product\n")
	assert.Contains(t, generatedCode, "type Product struct {")
	assert.Contains(t, generatedCode, "`json:\"id\"`")
	assert.Contains(t, generatedCode, "`json:\"name\"`")
	assert.Contains(t, generatedCode, "`json:\"price\"`")
}

func TestIntegration_YAMLAndTOMLInput(t *testing.T) {
	inputs := map[format.Format]string{
		format.YAML: "name: svc\nport: 8080\nstarted: 2024-01-02T03:04:05Z\n",
		format.TOML: "name = \"svc\"\nport = 8080\nstarted = \"2024-01-02T03:04:05Z\"\n",
	}

	for f, input := range inputs {
		t.Run(f.String(), func(t *testing.T) {
			tree, err := parser.Parse(input, f)
			require.NoError(t, err)

			analysisResult, err := analyzer.NewAnalyzer().Analyze(tree, "Service")
			require.NoError(t, err)

			code, err := NewGenerator().GenerateStructs(analysisResult, "main")
			require.NoError(t, err)

			formatted, err := formatter.NewFormatter().Format(code)
			require.NoError(t, err)
			assert.Contains(t, formatted, "\"time\"")
			assert.Contains(t, formatted, "Port    int64")
			assert.Contains(t, formatted, "Started time.Time")
		})
	}
}

func TestIntegration_ConfigMappingsAndComments(t *testing.T) {
	configYAML := `
types:
  package: "models"
  root_name: "User"
  mappings:
    - pattern: "^id$"
      type: "uuid.UUID"
      import: "github.com/google/uuid"
      comment: "ID is assigned by the server"
naming:
  pascal_case_fields: true
  field_mappings:
    user_name: "Login"
`

	jsonInput := `{
		"id": "550e8400-e29b-41d4-a716-446655440000",
		"user_name": "jdoe",
		"joined": "2023-05-01T10:00:00Z"
	}`

	path := filepath.Join(t.TempDir(), "jsoncrack.yml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	tree, err := parser.Parse(jsonInput, format.JSON)
	require.NoError(t, err)

	analysisResult, err := analyzer.NewAnalyzerWithConfig(cfg).Analyze(tree, cfg.Types.RootName)
	require.NoError(t, err)

	generatedCode, err := NewGenerator().GenerateStructs(analysisResult, cfg.Types.Package)
	require.NoError(t, err)

	formatted, err := formatter.NewFormatter().Format(generatedCode)
	require.NoError(t, err)

	assert.Contains(t, formatted, "package models")
	assert.Contains(t, formatted, "type User struct {")
	assert.Contains(t, formatted, "// ID is assigned by the server")
	assert.Contains(t, formatted, "uuid.UUID")
	assert.Contains(t, formatted, "Login ")
	assert.Contains(t, formatted, "\"time\"\n\n\t\"github.com/google/uuid\"")
}

func TestIntegration_SchemaConverterGenerator(t *testing.T) {
	schemaInput := `{
		"title": "Order",
		"type": "object",
		"required": ["id", "lines"],
		"properties": {
			"id": {"type": "integer"},
			"lines": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["sku"],
					"properties": {
						"sku": {"type": "string"},
						"qty": {"type": "integer"}
					}
				}
			},
			"note": {"type": "string"}
		}
	}`

	s, err := schema.ParseString(schemaInput)
	require.NoError(t, err)

	result, err := schema.NewConverter(s).Convert("Order")
	require.NoError(t, err)

	code, err := NewGenerator().GenerateStructs(result, "main")
	require.NoError(t, err)

	formatted, err := formatter.NewFormatter().Format(code)
	require.NoError(t, err)

	assert.Contains(t, formatted, "type Order struct {")
	assert.Regexp(t, `Id\s+int64\s+`+"`json:\"id\" validate:\"required\"`", formatted)
	assert.Regexp(t, `Note\s+\*string\s+`+"`json:\"note,omitempty\"`", formatted)
	assert.Regexp(t, `Lines\s+\[\]`, formatted)
}
