package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/huntdream/jsoncrack/internal/errors" // Custom errors package
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/models"
)

// Parse converts document text in the given format into a canonical tree.
// Key order and array order are preserved.
func Parse(text string, f format.Format) (*models.Value, error) {
	switch f {
	case format.JSON:
		return parseJSON(text)
	case format.YAML:
		return parseYAML(text)
	case format.TOML:
		return parseTOML(text)
	default:
		return nil, errors.NewInputError(fmt.Sprintf("cannot parse format %d", int(f)), errors.ErrUnsupportedFormat)
	}
}

// ParseLiteral parses a single JSON value, as typed into a node editor.
func ParseLiteral(text string) (*models.Value, error) {
	return parseJSON(text)
}

// ReadFile reads a document file, rejecting missing and empty files.
func ReadFile(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		// Check if the file doesn't exist
		if os.IsNotExist(err) {
			return "", errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return "", errors.NewInputError(
			fmt.Sprintf("failed to read file '%s'", filePath),
			err,
		)
	}
	if len(data) == 0 {
		return "", errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}
	return string(data), nil
}

// ParseFile reads and parses a document file. The format is taken from the
// file extension.
func ParseFile(filePath string) (*models.Value, format.Format, error) {
	f, err := format.FromPath(filePath)
	if err != nil {
		return nil, 0, errors.NewInputError(fmt.Sprintf("cannot tell the format of '%s'", filePath), err)
	}
	text, err := ReadFile(filePath)
	if err != nil {
		return nil, 0, err
	}
	v, err := Parse(text, f)
	if err != nil {
		return nil, 0, err
	}
	return v, f, nil
}

// position converts a byte offset into a 1-based line and column.
func position(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}
