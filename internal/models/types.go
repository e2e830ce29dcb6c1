package models

// TypeKind is the Go type family chosen for a field during type synthesis.
type TypeKind int

const (
	StringType TypeKind = iota
	IntType
	FloatType
	BoolType
	TimeType
	StructType
	SliceType
	InterfaceType
)

// TypeInfo describes the Go type of a field.
type TypeInfo struct {
	Kind             TypeKind
	Name             string
	IsPointer        bool
	SliceElementType *TypeInfo
	StructName       string
}

// FieldInfo is one field of a generated struct.
type FieldInfo struct {
	JSONKey string
	GoName  string
	GoType  TypeInfo
	JSONTag string
	Tags    map[string]string
	Comment string
}

// StructDef is a generated struct.
type StructDef struct {
	Name   string
	Fields []FieldInfo
	IsRoot bool
}

// AnalysisResult is the output of type synthesis: struct definitions in
// discovery order plus the imports they need.
type AnalysisResult struct {
	Structs []StructDef
	Imports map[string]struct{}
	// RootType is the Go type of the document root, e.g. "[]*Item" for a
	// top-level array.
	RootType string
	// RootName names RootType when it is not itself a generated struct.
	RootName string
}

// Expr renders the type as a Go type expression. Slices and interfaces
// are never pointers.
func (t TypeInfo) Expr() string {
	var expr string
	switch t.Kind {
	case StructType:
		expr = t.StructName
	case SliceType:
		if t.SliceElementType != nil {
			return "[]" + t.SliceElementType.Expr()
		}
		return "[]interface{}"
	case InterfaceType:
		return t.Name
	default:
		expr = t.Name
	}
	if t.IsPointer {
		return "*" + expr
	}
	return expr
}
