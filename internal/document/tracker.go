package document

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// HasChanges reports whether current differs from the last committed
// snapshot. Only the raw text is compared.
func HasChanges(current, lastCommitted *Document) bool {
	if current == nil || lastCommitted == nil {
		return current != lastCommitted
	}
	return current.RawText != lastCommitted.RawText
}

// Op is the kind of a diff line.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

func (o Op) prefix() string {
	switch o {
	case Insert:
		return "+"
	case Delete:
		return "-"
	default:
		return " "
	}
}

// DiffLine is one line of a line-based diff.
type DiffLine struct {
	Op   Op
	Text string
}

// Diff compares the raw text of two snapshots line by line.
func Diff(lastCommitted, current *Document) []DiffLine {
	var from, to string
	if lastCommitted != nil {
		from = lastCommitted.RawText
	}
	if current != nil {
		to = current.RawText
	}
	return DiffText(from, to)
}

// DiffText diffs two texts line by line.
func DiffText(from, to string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(terminate(from), terminate(to))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		}
		for _, ln := range strings.SplitAfter(d.Text, "\n") {
			if ln == "" {
				continue
			}
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(ln, "\n")})
		}
	}
	return out
}

// Stats counts inserted and deleted lines.
func Stats(lines []DiffLine) (inserted, deleted int) {
	for _, l := range lines {
		switch l.Op {
		case Insert:
			inserted++
		case Delete:
			deleted++
		}
	}
	return inserted, deleted
}

// Render writes lines with +, - and space prefixes.
func Render(lines []DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s%s\n", l.Op.prefix(), l.Text)
	}
	return b.String()
}

// Prefix exposes the marker used by Render for a line.
func (l DiffLine) Prefix() string { return l.Op.prefix() }

func terminate(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
