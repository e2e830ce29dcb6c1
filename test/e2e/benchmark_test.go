package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/huntdream/jsoncrack/internal/analyzer"
	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/generator"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/mutation"
	"github.com/huntdream/jsoncrack/internal/parser"
	"github.com/huntdream/jsoncrack/internal/schema"
)

// generateNestedJSON creates a deeply nested JSON structure for benchmarking
func generateNestedJSON(depth int, width int) map[string]interface{} {
	if depth <= 0 {
		return map[string]interface{}{
			"leaf_value": "data",
			"timestamp":  time.Now().Format(time.RFC3339),
			"count":      rand.Intn(100),
			"enabled":    rand.Intn(2) == 1,
		}
	}

	result := make(map[string]interface{})
	for i := 0; i < width; i++ {
		key := fmt.Sprintf("nested_%d_%d", depth, i)
		result[key] = generateNestedJSON(depth-1, width)
	}
	return result
}

// generateWideJSON creates a JSON object with many fields at the same level
func generateWideJSON(fieldCount int) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < fieldCount; i++ {
		switch i % 5 {
		case 0:
			result[fmt.Sprintf("string_field_%d", i)] = fmt.Sprintf("value_%d", i)
		case 1:
			result[fmt.Sprintf("int_field_%d", i)] = i
		case 2:
			result[fmt.Sprintf("bool_field_%d", i)] = i%2 == 0
		case 3:
			result[fmt.Sprintf("float_field_%d", i)] = float64(i) + 0.5
		case 4:
			result[fmt.Sprintf("object_field_%d", i)] = map[string]interface{}{
				"id":    i,
				"name":  fmt.Sprintf("Object %d", i),
				"value": i * 10,
			}
		}
	}
	return result
}

// generateLargeJSON creates an array of records with nested fields
func generateLargeJSON(count int) []interface{} {
	records := make([]interface{}, count)
	for i := range records {
		records[i] = map[string]interface{}{
			"id":         i,
			"name":       fmt.Sprintf("Item %d", i),
			"created_at": "2023-05-20T14:56:23Z",
			"tags":       []string{"a", "b", "c"},
			"attributes": map[string]interface{}{
				"color":  "red",
				"weight": float64(i) * 1.5,
			},
		}
	}
	return records
}

func mustTree(b *testing.B, data interface{}) (*models.Value, string) {
	b.Helper()
	raw, err := json.MarshalIndent(data, "", "  ")
	require.NoError(b, err)
	tree, err := parser.Parse(string(raw), format.JSON)
	require.NoError(b, err)
	return tree, string(raw)
}

// BenchmarkDeepNesting benchmarks type synthesis with deeply nested structures
func BenchmarkDeepNesting(b *testing.B) {
	depths := []struct {
		name  string
		depth int
		width int
	}{
		{"Depth3Width3", 3, 3},
		{"Depth5Width2", 5, 2},
		{"Depth2Width10", 2, 10},
	}

	for _, depth := range depths {
		b.Run(depth.name, func(b *testing.B) {
			tree, _ := mustTree(b, generateNestedJSON(depth.depth, depth.width))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				result, err := analyzer.NewAnalyzer().Analyze(tree, "Bench")
				require.NoError(b, err)
				_, err = generator.NewGenerator().GenerateStructs(result, "bench")
				require.NoError(b, err)
			}
		})
	}
}

// BenchmarkWideStructures benchmarks conversion of objects with many fields
func BenchmarkWideStructures(b *testing.B) {
	for _, fields := range []int{10, 100, 500} {
		b.Run(fmt.Sprintf("Fields%d", fields), func(b *testing.B) {
			_, raw := mustTree(b, generateWideJSON(fields))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				doc, err := document.Load(raw, format.JSON)
				require.NoError(b, err)
				for _, f := range []format.Format{format.YAML, format.TOML} {
					_, err := doc.Convert(f, formatter.DefaultOptions())
					require.NoError(b, err)
				}
			}
		})
	}
}

// BenchmarkArrayProcessing benchmarks schema inference and validation over large arrays
func BenchmarkArrayProcessing(b *testing.B) {
	for _, count := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("Items%d", count), func(b *testing.B) {
			tree, _ := mustTree(b, generateLargeJSON(count))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				s := schema.Infer(tree)
				if !schema.Valid(tree, s) {
					b.Fatal("inferred schema rejects its source")
				}
			}
		})
	}
}

// BenchmarkSample benchmarks sample generation from an inferred schema
func BenchmarkSample(b *testing.B) {
	tree, _ := mustTree(b, generateNestedJSON(3, 3))
	s := schema.Infer(tree)
	opts := schema.DefaultSampleOptions()
	opts.Seed = 42
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, err := schema.GenerateSample(context.Background(), s, opts)
		require.NoError(b, err)
	}
}

// BenchmarkEdit benchmarks leaf replacement in a large document
func BenchmarkEdit(b *testing.B) {
	_, raw := mustTree(b, generateLargeJSON(500))
	doc, err := document.Load(raw, format.JSON)
	require.NoError(b, err)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, err := mutation.ReplaceLeafValue(doc, "{Root}.250.attributes.color", `"blue"`)
		require.NoError(b, err)
	}
}
