package schema

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

// Converter converts JSON Schema to Go struct definitions
type Converter struct {
	schema       *Schema
	structs      []models.StructDef
	imports      map[string]struct{}
	structNames  map[string]int             // Track used names to avoid collisions
	definitions  map[string]*Schema         // Merged definitions for $ref resolution
	resolvedRefs map[string]models.TypeInfo // Cache for already resolved $refs
}

// NewConverter creates a new schema converter
func NewConverter(schema *Schema) *Converter {
	return &Converter{
		schema:       schema,
		structs:      make([]models.StructDef, 0),
		imports:      make(map[string]struct{}),
		structNames:  make(map[string]int),
		definitions:  schema.definitions(),
		resolvedRefs: make(map[string]models.TypeInfo),
	}
}

// Convert processes the schema and returns analysis results
func (c *Converter) Convert(rootName string) (models.AnalysisResult, error) {
	if rootName == "" {
		rootName = c.schema.Title
		if rootName == "" {
			rootName = "RootType"
		}
	}
	rootName = goName(rootName)

	root, err := c.convertSchema(c.schema, rootName, true)
	if err != nil {
		return models.AnalysisResult{}, errors.NewAnalysisError("failed to convert schema", err)
	}

	result := models.AnalysisResult{
		Structs:  c.structs,
		Imports:  c.imports,
		RootType: root.Expr(),
	}
	if root.Kind != models.StructType {
		result.RootName = rootName
	}
	return result, nil
}

// convertSchema recursively converts a schema to Go types
func (c *Converter) convertSchema(schema *Schema, suggestedName string, isRoot bool) (models.TypeInfo, error) {
	if schema.Ref != "" {
		return c.resolveRef(schema.Ref, suggestedName)
	}

	if len(schema.AllOf) > 0 {
		merged := c.mergeAllOf(schema.AllOf)
		return c.convertSchema(merged, suggestedName, isRoot)
	}

	// anyOf/oneOf with a single non-null branch is a nullable form of that branch
	if alts := nonNull(schema.AnyOf, schema.OneOf); len(alts) == 1 && schema.Type.Primary() == "" {
		info, err := c.convertSchema(alts[0], suggestedName, isRoot)
		if err != nil {
			return models.TypeInfo{}, err
		}
		info.IsPointer = true
		return info, nil
	}

	schemaType := schema.Type.Primary()
	if schemaType == "" {
		if len(schema.Properties) > 0 {
			schemaType = "object"
		} else if schema.Items != nil {
			schemaType = "array"
		}
	}

	// Skip "null" if it's the primary type but there are other types
	if schemaType == "null" && len(schema.Type.Types) > 1 {
		for _, t := range schema.Type.Types {
			if t != "null" {
				schemaType = t
				break
			}
		}
	}
	// integer and number together widen to float64
	if schemaType == "integer" && schema.Type.Has("number") {
		schemaType = "number"
	}
	if multiPrimitive(schema.Type) {
		return models.TypeInfo{Kind: models.InterfaceType, Name: "interface{}"}, nil
	}

	switch schemaType {
	case "object":
		return c.convertObject(schema, suggestedName, isRoot)
	case "array":
		return c.convertArray(schema, suggestedName)
	case "string":
		return c.convertString(schema), nil
	case "integer":
		return models.TypeInfo{Kind: models.IntType, Name: "int64"}, nil
	case "number":
		return models.TypeInfo{Kind: models.FloatType, Name: "float64"}, nil
	case "boolean":
		return models.TypeInfo{Kind: models.BoolType, Name: "bool"}, nil
	case "null":
		return models.TypeInfo{Kind: models.InterfaceType, Name: "interface{}", IsPointer: true}, nil
	default:
		return models.TypeInfo{Kind: models.InterfaceType, Name: "interface{}"}, nil
	}
}

// multiPrimitive reports whether the non-null types mix families that no
// single Go type can hold, e.g. string and boolean.
func multiPrimitive(st SchemaType) bool {
	families := make(map[string]bool)
	for _, t := range st.Types {
		switch t {
		case "null":
		case "integer", "number":
			families["number"] = true
		default:
			families[t] = true
		}
	}
	return len(families) > 1
}

func nonNull(groups ...[]*Schema) []*Schema {
	var out []*Schema
	for _, group := range groups {
		for _, s := range group {
			if len(s.Type.Types) == 1 && s.Type.Types[0] == "null" {
				continue
			}
			out = append(out, s)
		}
	}
	return out
}

// convertObject converts an object schema to a Go struct
func (c *Converter) convertObject(schema *Schema, structName string, isRoot bool) (models.TypeInfo, error) {
	finalName := c.generateUniqueName(structName)

	names := schema.OrderedProperties()
	fields := make([]models.FieldInfo, 0, len(names))

	for _, propName := range names {
		propSchema := schema.Properties[propName]
		goFieldName := goName(propName)

		typeInfo, err := c.convertSchema(propSchema, finalName+goFieldName, false)
		if err != nil {
			return models.TypeInfo{}, fmt.Errorf("failed to convert property %s: %w", propName, err)
		}

		// Field is pointer if: not required, OR explicitly nullable, OR type includes "null"
		isRequired := schema.IsRequired(propName)
		if !isRequired || propSchema.Nullable || propSchema.Type.IsNullable() {
			typeInfo.IsPointer = true
		}

		jsonTag, tags, comment := c.generateFieldTags(propName, propSchema, typeInfo, isRequired)

		fields = append(fields, models.FieldInfo{
			JSONKey: propName,
			GoName:  goFieldName,
			GoType:  typeInfo,
			JSONTag: jsonTag,
			Tags:    tags,
			Comment: comment,
		})
	}

	c.structs = append(c.structs, models.StructDef{
		Name:   finalName,
		Fields: fields,
		IsRoot: isRoot,
	})

	return models.TypeInfo{
		Kind:       models.StructType,
		Name:       finalName,
		StructName: finalName,
	}, nil
}

// convertArray converts an array schema to a Go slice
func (c *Converter) convertArray(schema *Schema, suggestedName string) (models.TypeInfo, error) {
	var elementType models.TypeInfo

	if schema.Items != nil {
		var err error
		elementType, err = c.convertSchema(schema.Items, singularize(suggestedName), false)
		if err != nil {
			return models.TypeInfo{}, fmt.Errorf("failed to convert array items: %w", err)
		}
	} else {
		elementType = models.TypeInfo{Kind: models.InterfaceType, Name: "interface{}"}
	}

	sliceName := "[]" + elementType.Name
	if elementType.Kind == models.StructType {
		// Use pointer elements for struct slices
		sliceName = "[]*" + elementType.Name
		elementType.IsPointer = true
	}

	return models.TypeInfo{
		Kind:             models.SliceType,
		Name:             sliceName,
		SliceElementType: &elementType,
		IsPointer:        true, // Slices are nullable by default
	}, nil
}

// convertString converts a string schema to Go type
func (c *Converter) convertString(schema *Schema) models.TypeInfo {
	switch schema.Format {
	case "date-time", "date", "time":
		c.imports["time"] = struct{}{}
		return models.TypeInfo{Kind: models.TimeType, Name: "time.Time"}
	default:
		return models.TypeInfo{Kind: models.StringType, Name: "string"}
	}
}

// resolveRef resolves a $ref to its schema
func (c *Converter) resolveRef(ref string, suggestedName string) (models.TypeInfo, error) {
	if cached, ok := c.resolvedRefs[ref]; ok {
		return cached, nil
	}
	if ref == "#" {
		// a self reference can only be expressed through a pointer
		return models.TypeInfo{Kind: models.InterfaceType, Name: "interface{}", IsPointer: true}, nil
	}

	def, ok := resolveRef(c.schema, c.definitions, ref)
	if !ok {
		if !strings.HasPrefix(ref, "#") {
			return models.TypeInfo{}, fmt.Errorf("external $ref not supported: %s", ref)
		}
		return models.TypeInfo{}, fmt.Errorf("unresolved $ref: %s", ref)
	}

	name := ref[strings.LastIndex(ref, "/")+1:]
	typeInfo, err := c.convertSchema(def, goName(unescapePointer(name)), false)
	if err != nil {
		return models.TypeInfo{}, err
	}
	c.resolvedRefs[ref] = typeInfo
	return typeInfo, nil
}

// mergeAllOf merges multiple schemas from allOf
func (c *Converter) mergeAllOf(schemas []*Schema) *Schema {
	merged := &Schema{
		Properties: make(map[string]*Schema),
		Required:   make([]string, 0),
	}

	for _, s := range schemas {
		resolved := s
		if s.Ref != "" {
			if def, ok := resolveRef(c.schema, c.definitions, s.Ref); ok {
				resolved = def
			}
		}

		for _, k := range resolved.OrderedProperties() {
			if _, exists := merged.Properties[k]; !exists {
				merged.PropertyOrder = append(merged.PropertyOrder, k)
			}
			merged.Properties[k] = resolved.Properties[k]
		}

		merged.Required = append(merged.Required, resolved.Required...)

		if merged.Title == "" && resolved.Title != "" {
			merged.Title = resolved.Title
		}
		if merged.Description == "" && resolved.Description != "" {
			merged.Description = resolved.Description
		}
	}

	merged.Type = Single("object")
	return merged
}

// generateFieldTags creates tags for a field based on schema
func (c *Converter) generateFieldTags(jsonKey string, schema *Schema, typeInfo models.TypeInfo, isRequired bool) (string, map[string]string, string) {
	tags := make(map[string]string)

	jsonTagValue := jsonKey
	if typeInfo.IsPointer {
		jsonTagValue += ",omitempty"
	}
	tags["json"] = jsonTagValue

	var validationParts []string

	if isRequired {
		validationParts = append(validationParts, "required")
	}

	// String validations
	if schema.MinLength != nil {
		validationParts = append(validationParts, fmt.Sprintf("min=%d", *schema.MinLength))
	}
	if schema.MaxLength != nil {
		validationParts = append(validationParts, fmt.Sprintf("max=%d", *schema.MaxLength))
	}
	switch schema.Format {
	case "email":
		validationParts = append(validationParts, "email")
	case "uri", "url":
		validationParts = append(validationParts, "url")
	case "uuid":
		validationParts = append(validationParts, "uuid")
	}

	// Numeric validations
	if schema.Minimum != nil {
		validationParts = append(validationParts, fmt.Sprintf("min=%v", *schema.Minimum))
	}
	if schema.Maximum != nil {
		validationParts = append(validationParts, fmt.Sprintf("max=%v", *schema.Maximum))
	}

	// Array validations
	if schema.MinItems != nil {
		validationParts = append(validationParts, fmt.Sprintf("min=%d", *schema.MinItems))
	}
	if schema.MaxItems != nil {
		validationParts = append(validationParts, fmt.Sprintf("max=%d", *schema.MaxItems))
	}

	tagParts := []string{fmt.Sprintf("json:\"%s\"", jsonTagValue)}
	if len(validationParts) > 0 {
		validateTag := strings.Join(validationParts, ",")
		tags["validate"] = validateTag
		tagParts = append(tagParts, fmt.Sprintf("validate:\"%s\"", validateTag))
	}

	return "`" + strings.Join(tagParts, " ") + "`", tags, schema.Description
}

// generateUniqueName ensures struct names are unique
func (c *Converter) generateUniqueName(baseName string) string {
	name := baseName
	count := c.structNames[baseName]
	if count > 0 {
		name = fmt.Sprintf("%s%d", baseName, count)
	}
	c.structNames[baseName] = count + 1
	return name
}

func goName(s string) string {
	name := strcase.ToCamel(s)
	if name == "" {
		return "Field"
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "Field" + name
	}
	return name
}

// singularize attempts to singularize a name
func singularize(s string) string {
	lower := strings.ToLower(s)

	switch {
	case strings.HasSuffix(lower, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "uses"),
		strings.HasSuffix(lower, "xes"), strings.HasSuffix(lower, "zes"),
		strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"):
		return s[:len(s)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"):
		return s
	case strings.HasSuffix(lower, "s") && len(s) > 1:
		return s[:len(s)-1]
	}

	return s
}
