package formatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

var bareKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// serializeTOML writes tables as [sections] only when that keeps member
// order; anything else is written inline.
func serializeTOML(v *models.Value) (string, error) {
	if v.Kind != models.ObjectKind {
		return "", errors.NewSerializeError(
			fmt.Sprintf("TOML documents must be tables, got %s", v.Kind),
			errors.ErrUnsupportedValue,
		)
	}
	e := &tomlEncoder{}
	if err := e.table(nil, v); err != nil {
		return "", err
	}
	return strings.TrimLeft(e.buf.String(), "\n"), nil
}

type tomlEncoder struct {
	buf strings.Builder
}

func isTable(v *models.Value) bool {
	return v.Kind == models.ObjectKind
}

func isTableArray(v *models.Value) bool {
	if v.Kind != models.ArrayKind || len(v.Items) == 0 {
		return false
	}
	for _, item := range v.Items {
		if item.Kind != models.ObjectKind {
			return false
		}
	}
	return true
}

func (e *tomlEncoder) table(path []string, obj *models.Value) error {
	// Members from split onwards are all tables and can become sections.
	split := len(obj.Members)
	for i := len(obj.Members) - 1; i >= 0; i-- {
		val := obj.Members[i].Value
		if !isTable(val) && !isTableArray(val) {
			break
		}
		split = i
	}

	for _, m := range obj.Members[:split] {
		sub := appendPath(path, m.Key)
		e.buf.WriteString(tomlKey(m.Key))
		e.buf.WriteString(" = ")
		if err := e.inline(sub, m.Value); err != nil {
			return err
		}
		e.buf.WriteByte('\n')
	}

	for _, m := range obj.Members[split:] {
		sub := appendPath(path, m.Key)
		header := tomlHeader(sub)
		if isTable(m.Value) {
			e.buf.WriteString("\n[" + header + "]\n")
			if err := e.table(sub, m.Value); err != nil {
				return err
			}
			continue
		}
		for _, item := range m.Value.Items {
			e.buf.WriteString("\n[[" + header + "]]\n")
			if err := e.table(sub, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *tomlEncoder) inline(path []string, v *models.Value) error {
	switch v.Kind {
	case models.NullKind:
		return errors.NewSerializeError(
			fmt.Sprintf("TOML has no null value (at %s)", strings.Join(path, ".")),
			errors.ErrUnsupportedValue,
		)
	case models.BoolKind:
		fmt.Fprintf(&e.buf, "%t", v.Bool)
	case models.StringKind:
		e.buf.WriteString(QuoteTOML(v.Str))
	case models.NumberKind:
		lit, err := tomlNumber(v.Num)
		if err != nil {
			return errors.NewSerializeError(
				fmt.Sprintf("%s at %s", err.Error(), strings.Join(path, ".")),
				errors.ErrUnsupportedValue,
			)
		}
		e.buf.WriteString(lit)
	case models.ArrayKind:
		e.buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				e.buf.WriteString(", ")
			}
			if err := e.inline(appendPath(path, fmt.Sprint(i)), item); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case models.ObjectKind:
		if len(v.Members) == 0 {
			e.buf.WriteString("{}")
			return nil
		}
		e.buf.WriteString("{ ")
		for i, m := range v.Members {
			if i > 0 {
				e.buf.WriteString(", ")
			}
			e.buf.WriteString(tomlKey(m.Key) + " = ")
			if err := e.inline(appendPath(path, m.Key), m.Value); err != nil {
				return err
			}
		}
		e.buf.WriteString(" }")
	}
	return nil
}

func tomlNumber(n models.Number) (string, error) {
	switch n.Literal {
	case models.PosInf:
		return "inf", nil
	case models.NegInf:
		return "-inf", nil
	case models.NaN:
		return "nan", nil
	}
	if n.Type == models.BigIntNumber {
		return "", fmt.Errorf("integer %s does not fit in 64 bits", n.Literal)
	}
	return n.Literal, nil
}

func tomlKey(k string) string {
	if bareKeyRegex.MatchString(k) {
		return k
	}
	return QuoteTOML(k)
}

func tomlHeader(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = tomlKey(p)
	}
	return strings.Join(parts, ".")
}

// QuoteTOML returns s as a TOML basic string.
func QuoteTOML(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}
