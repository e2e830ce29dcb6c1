package formatter

import (
	goformat "go/format"
	"regexp"
	"sort"
	"strings"

	"github.com/huntdream/jsoncrack/internal/errors"
)

var importBlockRegex = regexp.MustCompile(`(?s)import\s*\((.+?)\)`)

// Formatter gofmts generated Go source.
type Formatter struct{}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format takes Go code as a string and returns properly formatted Go code
func (f *Formatter) Format(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil
	}

	formatted, err := goformat.Source([]byte(code))
	if err != nil {
		return "", errors.NewFormatError("failed to parse Go code", err)
	}

	return f.formatImports(string(formatted)), nil
}

// formatImports organizes import statements with standard library imports first,
// followed by third-party imports with a blank line in between
func (f *Formatter) formatImports(code string) string {
	importMatches := importBlockRegex.FindStringSubmatch(code)
	if len(importMatches) < 2 {
		// No import block found or it's a single-line import
		return code
	}

	var stdLibImports, thirdPartyImports []string
	for _, line := range strings.Split(strings.TrimSpace(importMatches[1]), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		// Standard library imports don't have dots
		if !strings.Contains(strings.Trim(line, `"`), ".") {
			stdLibImports = append(stdLibImports, line)
		} else {
			thirdPartyImports = append(thirdPartyImports, line)
		}
	}
	sort.Strings(stdLibImports)
	sort.Strings(thirdPartyImports)

	var b strings.Builder
	b.WriteString("import (\n")
	for _, imp := range stdLibImports {
		b.WriteString("\t" + imp + "\n")
	}
	if len(stdLibImports) > 0 && len(thirdPartyImports) > 0 {
		b.WriteString("\n")
	}
	for _, imp := range thirdPartyImports {
		b.WriteString("\t" + imp + "\n")
	}
	b.WriteString(")")

	return importBlockRegex.ReplaceAllLiteralString(code, b.String())
}
