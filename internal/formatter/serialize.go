package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/models"
)

// Options controls the layout of serialized documents.
type Options struct {
	// Indent is the number of spaces per nesting level. Zero writes compact
	// JSON; YAML always indents by at least one space.
	Indent int
	// IndentSequence indents YAML block sequences under their parent key.
	IndentSequence bool
}

// DefaultOptions matches what editors show by default: two-space indent.
func DefaultOptions() Options {
	return Options{Indent: 2, IndentSequence: true}
}

// Serialize renders a tree as text in the given format. Trees that the
// format cannot express produce a serialize error.
func Serialize(v *models.Value, f format.Format, opts Options) (string, error) {
	if v == nil {
		return "", errors.NewSerializeError("document is empty", errors.ErrEmptyInput)
	}
	switch f {
	case format.JSON:
		return serializeJSON(v, opts)
	case format.YAML:
		return serializeYAML(v, opts)
	case format.TOML:
		return serializeTOML(v)
	default:
		return "", errors.NewSerializeError(fmt.Sprintf("cannot serialize format %d", int(f)), errors.ErrUnsupportedFormat)
	}
}

func serializeJSON(v *models.Value, opts Options) (string, error) {
	w := &jsonWriter{indent: opts.Indent}
	if err := w.value(v, nil); err != nil {
		return "", err
	}
	return w.buf.String(), nil
}

type jsonWriter struct {
	buf    strings.Builder
	indent int
	depth  int
}

func (w *jsonWriter) newline() {
	if w.indent <= 0 {
		return
	}
	w.buf.WriteByte('\n')
	w.buf.WriteString(strings.Repeat(" ", w.indent*w.depth))
}

func (w *jsonWriter) value(v *models.Value, path []string) error {
	switch v.Kind {
	case models.NullKind:
		w.buf.WriteString("null")
	case models.BoolKind:
		if v.Bool {
			w.buf.WriteString("true")
		} else {
			w.buf.WriteString("false")
		}
	case models.NumberKind:
		if !v.Num.IsFinite() {
			return errors.NewSerializeError(
				fmt.Sprintf("%s has no JSON representation at %s", v.Num.Literal, pointer(path)),
				errors.ErrUnsupportedValue,
			)
		}
		w.buf.WriteString(v.Num.Literal)
	case models.StringKind:
		w.buf.WriteString(QuoteJSON(v.Str))
	case models.ArrayKind:
		if len(v.Items) == 0 {
			w.buf.WriteString("[]")
			return nil
		}
		w.buf.WriteByte('[')
		w.depth++
		for i, item := range v.Items {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline()
			if err := w.value(item, append(path, fmt.Sprint(i))); err != nil {
				return err
			}
		}
		w.depth--
		w.newline()
		w.buf.WriteByte(']')
	case models.ObjectKind:
		if len(v.Members) == 0 {
			w.buf.WriteString("{}")
			return nil
		}
		w.buf.WriteByte('{')
		w.depth++
		for i, m := range v.Members {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline()
			w.buf.WriteString(QuoteJSON(m.Key))
			w.buf.WriteByte(':')
			if w.indent > 0 {
				w.buf.WriteByte(' ')
			}
			if err := w.value(m.Value, append(path, m.Key)); err != nil {
				return err
			}
		}
		w.depth--
		w.newline()
		w.buf.WriteByte('}')
	}
	return nil
}

// QuoteJSON returns s as a JSON string literal without HTML escaping.
func QuoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// pointer renders a key path for error messages.
func pointer(path []string) string {
	if len(path) == 0 {
		return "the root"
	}
	return "/" + strings.Join(path, "/")
}
