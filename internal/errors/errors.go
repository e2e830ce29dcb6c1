package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput        = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON       = errors.New("invalid JSON format")
	ErrInvalidYAML       = errors.New("invalid YAML format")
	ErrInvalidTOML       = errors.New("invalid TOML format")
	ErrMultipleJSON      = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound      = errors.New("file not found")
	ErrFileEmpty         = errors.New("file is empty")
	ErrNoInput           = errors.New("no input provided: please specify a file with -i or pipe data to stdin")
	ErrInvalidFilePath   = errors.New("invalid file path")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrUnsupportedValue  = errors.New("value cannot be represented in the target format")
)

// Path and mutation errors
var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrNotFound       = errors.New("node not found")
	ErrTypeMismatch   = errors.New("segment does not match node type")
	ErrInvalidLiteral = errors.New("value is not a valid literal")
	ErrNotRenameable  = errors.New("node cannot be renamed")
	ErrNotReplaceable = errors.New("node value cannot be replaced")
	ErrEmptyKey       = errors.New("key must not be empty")
)

// Schema and generation errors
var (
	ErrUnsatisfiable = errors.New("schema cannot be satisfied")
	ErrCancelled     = errors.New("operation cancelled")
)

// Query and decode errors
var (
	// ErrInvalidQuery is returned for search expressions and jq programs
	// that do not compile.
	ErrInvalidQuery = errors.New("invalid query")
	ErrInvalidToken = errors.New("invalid JSON Web Token")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput     ErrorType = "input"
	ErrorTypeParsing   ErrorType = "parsing"
	ErrorTypeSerialize ErrorType = "serialize"
	ErrorTypePath      ErrorType = "path"
	ErrorTypeMutation  ErrorType = "mutation"
	ErrorTypeSchema    ErrorType = "schema"
	ErrorTypeAnalysis  ErrorType = "analysis"
	ErrorTypeGenerate  ErrorType = "generate"
	ErrorTypeFormat    ErrorType = "format"
	ErrorTypeOutput    ErrorType = "output"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeQuery     ErrorType = "query"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Position is a 1-based location inside source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Column > 0 {
		return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
	}
	return fmt.Sprintf("line %d", p.Line)
}

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// Pos is set for parse errors when the location is known.
	Pos *Position
	// Path is the textual node path the error refers to, if any.
	Path string
}

// Error implements error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Pos != nil {
		msg = fmt.Sprintf("%s (%s)", msg, e.Pos)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	// Check if target is also an *AppError and if the types match
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithPos attaches a source position and returns the same error.
func (e *AppError) WithPos(line, column int) *AppError {
	if line > 0 {
		e.Pos = &Position{Line: line, Column: column}
	}
	return e
}

// WithPath attaches a node path and returns the same error.
func (e *AppError) WithPath(path string) *AppError {
	e.Path = path
	return e
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: message,
		Err:     err,
	}
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return newError(ErrorTypeInput, message, err)
}

// NewParsingError creates a new error related to document parsing
func NewParsingError(message string, err error) *AppError {
	return newError(ErrorTypeParsing, message, err)
}

// NewSerializeError creates a new error for trees that cannot be written in a format
func NewSerializeError(message string, err error) *AppError {
	return newError(ErrorTypeSerialize, message, err)
}

// NewPathError creates a new error related to path parsing or resolution
func NewPathError(message string, err error) *AppError {
	return newError(ErrorTypePath, message, err)
}

// NewMutationError creates a new error for rejected edits
func NewMutationError(message string, err error) *AppError {
	return newError(ErrorTypeMutation, message, err)
}

// NewSchemaError creates a new error related to schema input
func NewSchemaError(message string, err error) *AppError {
	return newError(ErrorTypeSchema, message, err)
}

// NewAnalysisError creates a new error related to type analysis
func NewAnalysisError(message string, err error) *AppError {
	return newError(ErrorTypeAnalysis, message, err)
}

// NewGenerateError creates a new error related to sample or code generation
func NewGenerateError(message string, err error) *AppError {
	return newError(ErrorTypeGenerate, message, err)
}

// NewFormatError creates a new error related to code formatting
func NewFormatError(message string, err error) *AppError {
	return newError(ErrorTypeFormat, message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, message, err)
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// NewQueryError creates a new error related to search queries
func NewQueryError(message string, err error) *AppError {
	return newError(ErrorTypeQuery, message, err)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Pos != nil {
			msg = fmt.Sprintf("%s at %s", msg, appErr.Pos)
		}
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", msg)
		case ErrorTypeParsing:
			return fmt.Sprintf("Parsing error: %s", msg)
		case ErrorTypeSerialize:
			return fmt.Sprintf("Serialization error: %s", msg)
		case ErrorTypePath:
			return fmt.Sprintf("Path error: %s", msg)
		case ErrorTypeMutation:
			return fmt.Sprintf("Edit rejected: %s", msg)
		case ErrorTypeSchema:
			return fmt.Sprintf("Schema error: %s", msg)
		case ErrorTypeAnalysis:
			return fmt.Sprintf("Type analysis error: %s", msg)
		case ErrorTypeGenerate:
			return fmt.Sprintf("Generation error: %s", msg)
		case ErrorTypeFormat:
			return fmt.Sprintf("Code formatting error: %s", msg)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", msg)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", msg)
		case ErrorTypeQuery:
			return fmt.Sprintf("Query error: %s", msg)
		default:
			return fmt.Sprintf("Error: %s", msg)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide a document."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON value."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		return "Error: Unsupported format. Use json, yaml or toml."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
