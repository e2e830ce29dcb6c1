package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

func TestGenerateStructs_SimpleObject(t *testing.T) {
	analysisResult := models.AnalysisResult{
		Structs: []models.StructDef{
			{
				Name:   "Person",
				IsRoot: true,
				Fields: []models.FieldInfo{
					{
						JSONKey: "name",
						GoName:  "Name",
						GoType:  models.TypeInfo{Kind: models.StringType, Name: "string"},
						JSONTag: "`json:\"name\"`",
					},
					{
						JSONKey: "age",
						GoName:  "Age",
						GoType:  models.TypeInfo{Kind: models.IntType, Name: "int64"},
						JSONTag: "`json:\"age\"`",
					},
					{
						JSONKey: "is_active",
						GoName:  "IsActive",
						GoType:  models.TypeInfo{Kind: models.BoolType, Name: "bool"},
						JSONTag: "`json:\"is_active\"`",
					},
				},
			},
		},
		Imports: map[string]struct{}{},
	}

	generator := NewGenerator()
	result, err := generator.GenerateStructs(analysisResult, "main")

	require.NoError(t, err)
	expectedCode := `package main

type Person struct {
	Name     string ` + "`json:\"name\"`" + `
	Age      int64  ` + "`json:\"age\"`" + `
	IsActive bool   ` + "`json:\"is_active\"`" + `
}
`

	assert.Equal(t, expectedCode, result)
}

func TestGenerateStructs_NestedWithImports(t *testing.T) {
	analysisResult := models.AnalysisResult{
		Structs: []models.StructDef{
			{
				Name: "Address",
				Fields: []models.FieldInfo{
					{
						JSONKey: "street",
						GoName:  "Street",
						GoType:  models.TypeInfo{Kind: models.StringType, Name: "string"},
						JSONTag: "`json:\"street\"`",
					},
				},
			},
			{
				Name:   "User",
				IsRoot: true,
				Fields: []models.FieldInfo{
					{
						JSONKey: "id",
						GoName:  "ID",
						GoType:  models.TypeInfo{Kind: models.StringType, Name: "uuid.UUID"},
						JSONTag: "`json:\"id\"`",
						Comment: "ID is assigned by the server",
					},
					{
						JSONKey: "created_at",
						GoName:  "CreatedAt",
						GoType:  models.TypeInfo{Kind: models.TimeType, Name: "time.Time", IsPointer: true},
						JSONTag: "`json:\"created_at,omitempty\"`",
					},
					{
						JSONKey: "address",
						GoName:  "Address",
						GoType:  models.TypeInfo{Kind: models.StructType, StructName: "Address", IsPointer: true},
						JSONTag: "`json:\"address\"`",
					},
				},
			},
		},
		Imports: map[string]struct{}{
			"time":                   {},
			"github.com/google/uuid": {},
		},
	}

	result, err := NewGenerator().GenerateStructs(analysisResult, "models")
	require.NoError(t, err)

	expectedCode := `package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	// ID is assigned by the server
	ID        uuid.UUID  ` + "`json:\"id\"`" + `
	CreatedAt *time.Time ` + "`json:\"created_at,omitempty\"`" + `
	Address   *Address   ` + "`json:\"address\"`" + `
}

type Address struct {
	Street string ` + "`json:\"street\"`" + `
}
`
	assert.Equal(t, expectedCode, result)
}

func TestGenerateStructs_RootAlias(t *testing.T) {
	analysisResult := models.AnalysisResult{
		Structs: []models.StructDef{
			{
				Name: "Product",
				Fields: []models.FieldInfo{
					{
						JSONKey: "tags",
						GoName:  "Tags",
						GoType: models.TypeInfo{
							Kind:             models.SliceType,
							Name:             "[]string",
							IsPointer:        true,
							SliceElementType: &models.TypeInfo{Kind: models.StringType, Name: "string"},
						},
						JSONTag: "`json:\"tags\"`",
					},
				},
			},
		},
		Imports:  map[string]struct{}{},
		RootType: "[]*Product",
		RootName: "Products",
	}

	result, err := NewGenerator().GenerateStructs(analysisResult, "main")
	require.NoError(t, err)

	expectedCode := `package main

type Products []*Product

type Product struct {
	Tags []string ` + "`json:\"tags\"`" + `
}
`
	assert.Equal(t, expectedCode, result)
}

func TestGenerateStructs_MultiLineComment(t *testing.T) {
	analysisResult := models.AnalysisResult{
		Structs: []models.StructDef{{
			Name:   "Root",
			IsRoot: true,
			Fields: []models.FieldInfo{{
				JSONKey: "v",
				GoName:  "V",
				GoType:  models.TypeInfo{Kind: models.InterfaceType, Name: "interface{}"},
				JSONTag: "`json:\"v\"`",
				Comment: "first line\n  second line\n",
			}},
		}},
	}

	result, err := NewGenerator().GenerateStructs(analysisResult, "main")
	require.NoError(t, err)
	assert.Contains(t, result, "\t// first line\n\t// second line\n\tV interface{} `json:\"v\"`\n")
}

func TestGenerateStructs_InvalidPackage(t *testing.T) {
	for _, name := range []string{"", "my-pkg", "1pkg", "two words"} {
		t.Run(name, func(t *testing.T) {
			_, err := NewGenerator().GenerateStructs(models.AnalysisResult{}, name)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeOutput))
		})
	}
}

func TestSortStructs(t *testing.T) {
	structs := []models.StructDef{
		{Name: "B"},
		{Name: "Root", IsRoot: true},
		{Name: "A"},
	}

	sorted := sortStructs(structs)

	names := make([]string, len(sorted))
	for i, s := range sorted {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"Root", "B", "A"}, names)
	assert.Equal(t, "B", structs[0].Name, "input must not be reordered")
}
