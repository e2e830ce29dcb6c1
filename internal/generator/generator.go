// Package generator renders analysis results as Go source.
package generator

import (
	"bytes"
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

// Generator is responsible for generating Go struct definitions from analysis results
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateStructs writes a Go file declaring every struct in result. Fields
// keep their analyzed order; the root struct comes first.
func (g *Generator) GenerateStructs(result models.AnalysisResult, packageName string) (string, error) {
	if !token.IsIdentifier(packageName) {
		return "", errors.NewOutputError(fmt.Sprintf("invalid package name %q", packageName), nil)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n", packageName)
	writeImports(&buf, result.Imports)

	if result.RootName != "" && result.RootType != "" && result.RootType != result.RootName {
		fmt.Fprintf(&buf, "\ntype %s %s\n", result.RootName, result.RootType)
	}

	for _, structDef := range sortStructs(result.Structs) {
		buf.WriteString("\n")
		writeStruct(&buf, structDef)
	}

	return buf.String(), nil
}

func writeImports(buf *bytes.Buffer, set map[string]struct{}) {
	if len(set) == 0 {
		return
	}
	imports := make([]string, 0, len(set))
	for imp := range set {
		imports = append(imports, imp)
	}
	sort.Strings(imports)

	// standard library paths have no dot in the first element
	var std, thirdParty []string
	for _, imp := range imports {
		if strings.Contains(strings.SplitN(imp, "/", 2)[0], ".") {
			thirdParty = append(thirdParty, imp)
		} else {
			std = append(std, imp)
		}
	}

	buf.WriteString("\nimport (\n")
	for _, imp := range std {
		fmt.Fprintf(buf, "\t%q\n", imp)
	}
	if len(std) > 0 && len(thirdParty) > 0 {
		buf.WriteString("\n")
	}
	for _, imp := range thirdParty {
		fmt.Fprintf(buf, "\t%q\n", imp)
	}
	buf.WriteString(")\n")
}

func writeStruct(buf *bytes.Buffer, structDef models.StructDef) {
	fmt.Fprintf(buf, "type %s struct {\n", structDef.Name)

	maxNameWidth, maxTypeWidth := 0, 0
	for _, field := range structDef.Fields {
		maxNameWidth = max(maxNameWidth, len(field.GoName))
		maxTypeWidth = max(maxTypeWidth, len(field.GoType.Expr()))
	}

	for _, field := range structDef.Fields {
		if field.Comment != "" {
			for _, line := range strings.Split(strings.TrimSpace(field.Comment), "\n") {
				fmt.Fprintf(buf, "\t// %s\n", strings.TrimSpace(line))
			}
		}
		fmt.Fprintf(buf, "\t%-*s %-*s %s\n",
			maxNameWidth, field.GoName,
			maxTypeWidth, field.GoType.Expr(),
			field.JSONTag)
	}

	buf.WriteString("}\n")
}

// sortStructs moves root structs first and keeps discovery order otherwise.
func sortStructs(structs []models.StructDef) []models.StructDef {
	sorted := make([]models.StructDef, len(structs))
	copy(sorted, structs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IsRoot && !sorted[j].IsRoot
	})
	return sorted
}
