package formatter

import (
	"fmt"

	"github.com/huntdream/jsoncrack/internal/models"
)

// EditText is the text a node editor starts from. Leaves are written as JSON
// literals with strings quoted and escaped, so that feeding the text back as
// a replacement yields the same value. Containers are written as compact JSON.
func EditText(v *models.Value) string {
	if v.Kind == models.NumberKind && !v.Num.IsFinite() {
		return v.Num.Literal
	}
	s, err := serializeJSON(v, Options{})
	if err != nil {
		return ""
	}
	return s
}

// DisplayLabel is a short read-only rendering of a node. Strings are shown
// without surrounding quotes; embedded quotes are kept as they are.
func DisplayLabel(v *models.Value) string {
	switch v.Kind {
	case models.NullKind:
		return "null"
	case models.BoolKind:
		return fmt.Sprintf("%t", v.Bool)
	case models.NumberKind:
		return v.Num.Literal
	case models.StringKind:
		return v.Str
	case models.ArrayKind:
		return "[" + plural(len(v.Items), "item") + "]"
	default:
		return "{" + plural(len(v.Members), "key") + "}"
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
