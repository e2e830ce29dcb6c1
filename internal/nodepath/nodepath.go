// Package nodepath addresses nodes inside a document tree.
//
// A path is written as the root marker followed by segments:
//
//	{Root}.user.addresses.0.street
//	{Root}["key.with.dots"][2]
//
// A plain segment made of digits addresses an array element when the
// container is an array and a key when it is an object. A bracketed,
// quoted segment is always a key and a bracketed number is always an index.
package nodepath

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/huntdream/jsoncrack/internal/errors"
)

// RootMarker starts every textual path.
const RootMarker = "{Root}"

var indexLike = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// SegmentKind tells how a segment was written.
type SegmentKind int

const (
	// Plain segments match keys, or indexes when they look like integers.
	Plain SegmentKind = iota
	// Key segments were quoted and only match object keys.
	Key
	// Index segments were bracketed numbers and only match array elements.
	Index
)

// Segment is one step of a Path.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

// KeySegment builds a segment for an object key.
func KeySegment(key string) Segment {
	if plainAllowed(key) {
		return Segment{Kind: Plain, Name: key, Index: -1}
	}
	return Segment{Kind: Key, Name: key, Index: -1}
}

// IndexSegment builds a segment for an array element.
func IndexSegment(i int) Segment {
	return Segment{Kind: Plain, Name: strconv.Itoa(i), Index: i}
}

// IsIndexLike reports whether the segment can address an array element.
func (s Segment) IsIndexLike() bool {
	return s.Index >= 0 && s.Kind != Key
}

// MatchesKey reports whether the segment can address an object member.
func (s Segment) MatchesKey() bool {
	return s.Kind != Index
}

func (s Segment) String() string {
	switch s.Kind {
	case Index:
		if s.Name != "" {
			return "[" + s.Name + "]"
		}
		return "[" + strconv.Itoa(s.Index) + "]"
	case Key:
		if plainAllowed(s.Name) && !indexLike.MatchString(s.Name) {
			return "." + s.Name
		}
		return "[" + quote(s.Name) + "]"
	default:
		if plainAllowed(s.Name) {
			return "." + s.Name
		}
		return "[" + quote(s.Name) + "]"
	}
}

// Path is an ordered list of segments from the root.
type Path []Segment

// Root is the empty path.
func Root() Path { return Path{} }

// String renders the path with the root marker.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString(RootMarker)
	for _, s := range p {
		b.WriteString(s.String())
	}
	return b.String()
}

// IsRoot reports whether the path addresses the document root.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Parent drops the last segment. The root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[: len(p)-1 : len(p)-1]
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// Child returns a new path extended by s.
func (p Path) Child(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Key returns a new path extended by an object key.
func (p Path) Key(key string) Path { return p.Child(KeySegment(key)) }

// Index returns a new path extended by an array index.
func (p Path) Index(i int) Path { return p.Child(IndexSegment(i)) }

// Keys renders segments as raw strings, e.g. for JSON Pointers.
func (p Path) Keys() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Name
	}
	return out
}

// Pointer renders the path as an RFC 6901 JSON Pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(strings.NewReplacer("~", "~0", "/", "~1").Replace(s.Name))
	}
	return b.String()
}

// Parse reads a textual path. The root marker is required.
func Parse(text string) (Path, error) {
	if !strings.HasPrefix(text, RootMarker) {
		return nil, errors.NewPathError(fmt.Sprintf("path %q must start with %s", text, RootMarker), errors.ErrInvalidPath)
	}
	rest := text[len(RootMarker):]
	p := Path{}
	for len(rest) > 0 {
		var (
			seg Segment
			n   int
			err error
		)
		switch rest[0] {
		case '.':
			seg, n, err = parsePlain(rest[1:])
			n++
		case '[':
			seg, n, err = parseBracket(rest)
		default:
			err = fmt.Errorf("unexpected %q", rest[0])
		}
		if err != nil {
			return nil, errors.NewPathError(
				fmt.Sprintf("invalid path %q at offset %d", text, len(text)-len(rest)),
				fmt.Errorf("%w: %v", errors.ErrInvalidPath, err),
			)
		}
		p = append(p, seg)
		rest = rest[n:]
	}
	return p, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

func parsePlain(s string) (Segment, int, error) {
	end := strings.IndexAny(s, ".[")
	if end < 0 {
		end = len(s)
	}
	name := s[:end]
	if name == "" {
		return Segment{}, 0, fmt.Errorf("empty segment")
	}
	if strings.ContainsAny(name, `]"\`) {
		return Segment{}, 0, fmt.Errorf("segment %q must be quoted", name)
	}
	seg := Segment{Kind: Plain, Name: name, Index: -1}
	if indexLike.MatchString(name) {
		seg.Index = atoiSaturating(name)
	}
	return seg, end, nil
}

func parseBracket(s string) (Segment, int, error) {
	if len(s) > 1 && s[1] == '"' {
		// find the closing quote, honouring escapes
		i := 2
		for i < len(s) {
			if s[i] == '\\' {
				i += 2
				continue
			}
			if s[i] == '"' {
				break
			}
			i++
		}
		if i >= len(s) || i+1 >= len(s) || s[i+1] != ']' {
			return Segment{}, 0, fmt.Errorf("unterminated quoted segment")
		}
		var name string
		if err := json.Unmarshal([]byte(s[1:i+1]), &name); err != nil {
			return Segment{}, 0, fmt.Errorf("bad quoted segment: %v", err)
		}
		return Segment{Kind: Key, Name: name, Index: -1}, i + 2, nil
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return Segment{}, 0, fmt.Errorf("missing ']'")
	}
	num := s[1:end]
	if !indexLike.MatchString(num) {
		return Segment{}, 0, fmt.Errorf("index %q is not a non-negative integer", num)
	}
	return Segment{Kind: Index, Name: num, Index: atoiSaturating(num)}, end + 1, nil
}

// atoiSaturating parses a non-negative index. Indexes too large for an int
// become math.MaxInt, which no array reaches.
func atoiSaturating(num string) int {
	i, err := strconv.Atoi(num)
	if err != nil {
		return math.MaxInt
	}
	return i
}

// plainAllowed reports whether a key can be written without quotes.
func plainAllowed(key string) bool {
	if key == "" || strings.ContainsAny(key, `.[]"\`) {
		return false
	}
	for _, r := range key {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
