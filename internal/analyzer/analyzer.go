// Package analyzer derives Go struct definitions from a document tree.
package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/huntdream/jsoncrack/internal/config"
	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

// DefaultRootName is the default name for the root struct if not specified.
const DefaultRootName = "RootType"

var (
	uuidRegex    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	rfc3339Regex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
)

var (
	interfaceType = models.TypeInfo{Kind: models.InterfaceType, Name: "interface{}"}
	float64Type   = models.TypeInfo{Kind: models.FloatType, Name: "float64"}
)

// Analyzer infers struct definitions from a tree. An Analyzer is used for
// a single Analyze call.
type Analyzer struct {
	// structNames tracks generated struct names to avoid collisions
	structNames    map[string]int
	analysisResult models.AnalysisResult
	config         *config.Config
}

// NewAnalyzer creates an Analyzer with the default configuration.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.NewConfig())
}

// NewAnalyzerWithConfig creates an Analyzer that applies cfg's naming rules
// and type mappings.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	return &Analyzer{
		structNames: make(map[string]int),
		analysisResult: models.AnalysisResult{
			Structs: make([]models.StructDef, 0),
			Imports: make(map[string]struct{}),
		},
		config: cfg,
	}
}

// Analyze walks tree and returns the struct definitions needed to decode it.
// Fields keep document order. Scalars and null at the root are wrapped in a
// struct with a single Value field.
func (a *Analyzer) Analyze(tree *models.Value, rootStructName string) (models.AnalysisResult, error) {
	if tree == nil {
		return models.AnalysisResult{}, errors.NewAnalysisError("nothing to analyze", errors.ErrNoInput)
	}
	if rootStructName == "" {
		rootStructName = DefaultRootName
	}
	rootStructName = a.getFieldName(rootStructName)

	switch tree.Kind {
	case models.ObjectKind:
		info, err := a.mergeObjects([]*models.Value{tree}, rootStructName, true)
		if err != nil {
			return models.AnalysisResult{}, errors.NewAnalysisError("failed to analyze root object", err)
		}
		a.analysisResult.RootType = info.StructName
	case models.ArrayKind:
		elementName := singularize(rootStructName)
		aliasName := rootStructName
		if aliasName == elementName {
			aliasName += "List"
		}
		a.structNames[aliasName]++
		info, err := a.analyzeArray(tree.Items, elementName)
		if err != nil {
			return models.AnalysisResult{}, errors.NewAnalysisError("failed to analyze root array", err)
		}
		a.analysisResult.RootType = info.Expr()
		a.analysisResult.RootName = aliasName
	default:
		info, err := a.unify([]*models.Value{tree}, rootStructName)
		if err != nil {
			return models.AnalysisResult{}, errors.NewAnalysisError("failed to analyze root value", err)
		}
		name := a.generateUniqueStructName(rootStructName)
		a.analysisResult.Structs = append(a.analysisResult.Structs, models.StructDef{
			Name: name,
			Fields: []models.FieldInfo{{
				JSONKey: "value",
				GoName:  "Value",
				GoType:  info,
				JSONTag: fmt.Sprintf("`json:\"value%s\"`", omitempty(info)),
			}},
			IsRoot: true,
		})
		a.analysisResult.RootType = name
	}

	return a.analysisResult, nil
}

// unify finds one Go type for a set of values seen at the same place,
// e.g. the elements of an array or one key across several objects.
func (a *Analyzer) unify(values []*models.Value, suggestedName string) (models.TypeInfo, error) {
	var nonNull []*models.Value
	for _, v := range values {
		if v.Kind != models.NullKind {
			nonNull = append(nonNull, v)
		}
	}
	hasNull := len(nonNull) < len(values)
	if len(nonNull) == 0 {
		info := interfaceType
		info.IsPointer = true
		return info, nil
	}

	var info models.TypeInfo
	switch {
	case allKind(nonNull, models.ObjectKind):
		merged, err := a.mergeObjects(nonNull, suggestedName, false)
		if err != nil {
			return models.TypeInfo{}, err
		}
		merged.IsPointer = true
		return merged, nil
	case allKind(nonNull, models.ArrayKind):
		var items []*models.Value
		for _, arr := range nonNull {
			items = append(items, arr.Items...)
		}
		return a.analyzeArray(items, singularize(suggestedName))
	default:
		infos := make([]models.TypeInfo, len(nonNull))
		for i, v := range nonNull {
			infos[i] = a.analyzeScalar(v)
		}
		info = common(infos)
	}

	if hasNull && info.Kind != models.InterfaceType {
		info.IsPointer = true
	}
	return info, nil
}

func allKind(values []*models.Value, k models.Kind) bool {
	for _, v := range values {
		if v.Kind != k {
			return false
		}
	}
	return true
}

// common picks a type every scalar fits: integers widen to float64, any
// other mix becomes interface{}.
func common(infos []models.TypeInfo) models.TypeInfo {
	first := infos[0]
	same, numeric := true, true
	for _, info := range infos {
		if !areTypeInfosEqual(&first, &info) {
			same = false
		}
		if info.Kind != models.IntType && info.Kind != models.FloatType {
			numeric = false
		}
	}
	switch {
	case same:
		return first
	case numeric:
		return float64Type
	default:
		return interfaceType
	}
}

func (a *Analyzer) analyzeScalar(v *models.Value) models.TypeInfo {
	switch v.Kind {
	case models.BoolKind:
		return models.TypeInfo{Kind: models.BoolType, Name: "bool"}
	case models.NumberKind:
		return a.analyzeNumber(v.Num)
	case models.StringKind:
		return a.analyzeString(v.Str)
	default:
		return interfaceType
	}
}

func (a *Analyzer) analyzeString(s string) models.TypeInfo {
	// uuid strings stay strings to keep generated code dependency free
	if uuidRegex.MatchString(s) {
		return models.TypeInfo{Kind: models.StringType, Name: "string"}
	}
	// only layouts time.Time can decode from JSON
	if rfc3339Regex.MatchString(s) {
		if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
			a.analysisResult.Imports["time"] = struct{}{}
			return models.TypeInfo{Kind: models.TimeType, Name: "time.Time"}
		}
	}
	return models.TypeInfo{Kind: models.StringType, Name: "string"}
}

func (a *Analyzer) analyzeNumber(n models.Number) models.TypeInfo {
	switch n.Type {
	case models.IntNumber:
		return models.TypeInfo{Kind: models.IntType, Name: "int64"}
	case models.BigIntNumber:
		a.analysisResult.Imports["math/big"] = struct{}{}
		return models.TypeInfo{Kind: models.IntType, Name: "big.Int", IsPointer: true}
	default:
		return float64Type
	}
}

func (a *Analyzer) analyzeArray(items []*models.Value, elementName string) (models.TypeInfo, error) {
	if len(items) == 0 {
		elementType := interfaceType
		return models.TypeInfo{Kind: models.SliceType, Name: "[]interface{}", SliceElementType: &elementType}, nil
	}
	elementType, err := a.unify(items, elementName)
	if err != nil {
		return models.TypeInfo{}, fmt.Errorf("failed to analyze elements of '%s': %w", elementName, err)
	}
	slice := models.TypeInfo{Kind: models.SliceType, SliceElementType: &elementType}
	slice.Name = slice.Expr()
	return slice, nil
}

// mergeObjects builds one struct from several objects. Keys keep the order
// in which they are first seen; a key missing from some objects becomes an
// optional pointer field.
func (a *Analyzer) mergeObjects(objects []*models.Value, structName string, isRoot bool) (models.TypeInfo, error) {
	var keys []string
	values := make(map[string][]*models.Value)
	for _, obj := range objects {
		for _, m := range obj.Members {
			if _, seen := values[m.Key]; !seen {
				keys = append(keys, m.Key)
			}
			values[m.Key] = append(values[m.Key], m.Value)
		}
	}

	candidate := models.StructDef{
		Name:   structName,
		Fields: make([]models.FieldInfo, 0, len(keys)),
	}
	for _, key := range keys {
		goFieldName := a.getFieldName(key)
		vals := values[key]
		optional := len(vals) < len(objects)

		var (
			fieldTypeInfo models.TypeInfo
			comment       string
		)
		if mapping, found := a.checkTypeMapping(key); found {
			comment = mapping.Comment
			fieldTypeInfo = models.TypeInfo{Kind: models.StringType, Name: mapping.Type}
			if mapping.Import != "" {
				a.analysisResult.Imports[mapping.Import] = struct{}{}
			}
			if optional || hasNull(vals) {
				fieldTypeInfo.IsPointer = true
			}
		} else {
			var err error
			fieldTypeInfo, err = a.unify(vals, structName+goFieldName)
			if err != nil {
				return models.TypeInfo{}, fmt.Errorf("failed to analyze field '%s' in object '%s': %w", key, structName, err)
			}
			if optional && fieldTypeInfo.Kind != models.SliceType && fieldTypeInfo.Kind != models.InterfaceType {
				fieldTypeInfo.IsPointer = true
			}
		}

		candidate.Fields = append(candidate.Fields, models.FieldInfo{
			JSONKey: key,
			GoName:  goFieldName,
			GoType:  fieldTypeInfo,
			JSONTag: fmt.Sprintf("`json:\"%s%s\"`", key, omitempty(fieldTypeInfo)),
			Comment: comment,
		})
	}

	return a.findOrAddStructDef(candidate, structName, isRoot), nil
}

func hasNull(values []*models.Value) bool {
	for _, v := range values {
		if v.Kind == models.NullKind {
			return true
		}
	}
	return false
}

// generateUniqueStructName ensures that the struct name is unique by appending a number if needed.
func (a *Analyzer) generateUniqueStructName(baseName string) string {
	name := baseName
	count := a.structNames[baseName]
	if count > 0 {
		name = fmt.Sprintf("%s%d", baseName, count)
	}
	a.structNames[baseName] = count + 1
	return name
}

func (a *Analyzer) getFieldName(jsonKey string) string {
	name := a.config.GetFieldName(jsonKey)
	if name == "" {
		return "Field"
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "Field" + name
	}
	return name
}

func (a *Analyzer) checkTypeMapping(fieldName string) (config.TypeMapping, bool) {
	return a.config.FindTypeMapping(fieldName)
}

var knownSingulars = map[string]string{
	"series":    "series",
	"status":    "status",
	"analysis":  "analysis",
	"species":   "species",
	"news":      "news",
	"children":  "child",
	"people":    "person",
	"data":      "data",
	"media":     "media",
	"addresses": "address",
}

// singularize attempts to convert a plural name to a singular one.
func singularize(plural string) string {
	lower := strings.ToLower(plural)
	for word, singular := range knownSingulars {
		if strings.HasSuffix(lower, word) {
			prefix := plural[:len(plural)-len(word)]
			if prefix == "" && plural != lower {
				// keep a leading capital
				return strings.ToUpper(singular[:1]) + singular[1:]
			}
			if prefix != "" {
				// CamelCase compound such as OrderAddresses
				return prefix + strings.ToUpper(singular[:1]) + singular[1:]
			}
			return singular
		}
	}

	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return plural[:len(plural)-3] + "y"
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return plural
	case strings.HasSuffix(lower, "s") && len(lower) > 1:
		return plural[:len(plural)-1]
	}
	return plural
}

// omitempty decides if ",omitempty" should be added to the JSON tag.
func omitempty(typeInfo models.TypeInfo) string {
	if typeInfo.IsPointer {
		return ",omitempty"
	}
	switch typeInfo.Kind {
	case models.SliceType, models.InterfaceType:
		return ",omitempty"
	}
	return ""
}

func areTypeInfosEqual(t1, t2 *models.TypeInfo) bool {
	if t1 == nil || t2 == nil {
		return t1 == t2
	}
	if t1.Kind != t2.Kind || t1.Name != t2.Name || t1.IsPointer != t2.IsPointer || t1.StructName != t2.StructName {
		return false
	}
	if t1.Kind == models.SliceType {
		return areTypeInfosEqual(t1.SliceElementType, t2.SliceElementType)
	}
	return true
}

// areStructDefsEquivalent compares two StructDefs for structural equality.
// Field names, their Go types, and JSON tags must match in order.
func areStructDefsEquivalent(s1, s2 *models.StructDef) bool {
	if len(s1.Fields) != len(s2.Fields) {
		return false
	}
	for i := range s1.Fields {
		f1, f2 := s1.Fields[i], s2.Fields[i]
		if f1.JSONKey != f2.JSONKey || f1.GoName != f2.GoName || f1.JSONTag != f2.JSONTag || !areTypeInfosEqual(&f1.GoType, &f2.GoType) {
			return false
		}
	}
	return true
}

// findOrAddStructDef reuses an equivalent struct or records candidate under
// a unique name.
func (a *Analyzer) findOrAddStructDef(candidate models.StructDef, suggestedName string, isRoot bool) models.TypeInfo {
	if !isRoot {
		for _, existing := range a.analysisResult.Structs {
			if areStructDefsEquivalent(&candidate, &existing) {
				return models.TypeInfo{Kind: models.StructType, Name: existing.Name, StructName: existing.Name}
			}
		}
	}

	finalName := a.generateUniqueStructName(suggestedName)
	candidate.Name = finalName
	candidate.IsRoot = isRoot
	a.analysisResult.Structs = append(a.analysisResult.Structs, candidate)

	return models.TypeInfo{Kind: models.StructType, Name: finalName, StructName: finalName}
}
