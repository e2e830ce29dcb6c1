// Package format names the document formats the engine reads and writes.
package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huntdream/jsoncrack/internal/errors"
)

type Format int

const (
	JSON Format = iota
	YAML
	TOML
)

func ParseFormat(v string) (Format, error) {
	f, ok := map[string]Format{
		"j":    JSON,
		"json": JSON,
		"y":    YAML,
		"yml":  YAML,
		"yaml": YAML,
		"t":    TOML,
		"toml": TOML,
	}[strings.ToLower(strings.TrimSpace(v))]
	if ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, v)
}

// FromPath picks a format from a file extension.
func FromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("%w: %q has no extension", errors.ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

func (f Format) String() string {
	d, err := f.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case JSON:
		return []byte("json"), nil
	case YAML:
		return []byte("yaml"), nil
	case TOML:
		return []byte("toml"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not a format>", f)
	}
}

func (f *Format) UnmarshalText(d []byte) error {
	pf, err := ParseFormat(string(d))
	if err != nil {
		return err
	}
	*f = pf
	return nil
}

// Suffix returns the file extension for this format (including the dot).
func (f Format) Suffix() string {
	switch f {
	case JSON:
		return ".json"
	case YAML:
		return ".yaml"
	case TOML:
		return ".toml"
	default:
		return ""
	}
}

// SupportsNull reports whether the format has a null literal.
func (f Format) SupportsNull() bool { return f != TOML }

// All returns all supported formats in preference order.
func All() []Format {
	return []Format{JSON, YAML, TOML}
}
