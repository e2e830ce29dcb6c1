package formatter

import (
	"strings"

	"github.com/huntdream/jsoncrack/internal/format"
)

// DetectOptions guesses the layout of existing text so that re-serializing
// an edited document changes as few lines as possible.
func DetectOptions(text string, f format.Format) Options {
	switch f {
	case format.JSON:
		return detectJSON(text)
	case format.YAML:
		indent, seq := detectIndentAndSequence(text)
		return Options{Indent: indent, IndentSequence: seq}
	default:
		return DefaultOptions()
	}
}

func detectJSON(text string) Options {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && !strings.Contains(trimmed, "\n") {
		return Options{Indent: 0}
	}
	for _, ln := range strings.Split(trimmed, "\n")[1:] {
		if n := leadingSpaces(ln); n > 0 && strings.TrimSpace(ln) != "" {
			return Options{Indent: n}
		}
	}
	return DefaultOptions()
}

// detectIndentAndSequence returns the base indent of a YAML text and whether
// block sequences are indented below their key.
func detectIndentAndSequence(text string) (int, bool) {
	indent := detectIndent(text)
	lines := strings.Split(text, "\n")
	votes := 0 // >0 prefer indented seq, <0 prefer indentless

	for i, ln := range lines {
		if isBlankOrComment(ln) || !strings.HasSuffix(strings.TrimRight(ln, " "), ":") {
			continue
		}
		keyIndent := leadingSpaces(ln)
		for _, nxt := range lines[i+1:] {
			if isBlankOrComment(nxt) {
				continue
			}
			lsp := leadingSpaces(nxt)
			if strings.HasPrefix(strings.TrimLeft(nxt, " "), "-") {
				if lsp == keyIndent+indent {
					votes++
				} else if lsp == keyIndent {
					votes--
				}
			}
			break
		}
	}
	return indent, votes >= 0
}

func detectIndent(text string) int {
	result := 0
	for _, ln := range strings.Split(text, "\n") {
		if isBlankOrComment(ln) {
			continue
		}
		if n := leadingSpaces(ln); n > 0 {
			result = gcd(result, n)
		}
	}
	if result == 0 {
		return 2
	}
	return result
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func isBlankOrComment(ln string) bool {
	t := strings.TrimSpace(ln)
	return t == "" || strings.HasPrefix(t, "#")
}

func leadingSpaces(line string) int {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}
