package nodepath

import (
	stderrors "errors"
	"fmt"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/models"
)

// Class decides which edit applies to a node.
type Class int

const (
	// Leaf nodes (null, boolean, number, string) have their value replaced.
	Leaf Class = iota
	// Container nodes (array, object) are renamed.
	Container
)

func (c Class) String() string {
	if c == Container {
		return "container"
	}
	return "leaf"
}

// Classify derives the class from the node tag alone.
func Classify(v *models.Value) Class {
	if v.Kind.IsContainer() {
		return Container
	}
	return Leaf
}

// NodeRef is a resolved node together with its place in the parent.
type NodeRef struct {
	Path  Path
	Value *models.Value
	// Parent is nil for the root.
	Parent *models.Value
	// Key is the member key when Parent is an object.
	Key string
	// Index is the element index when Parent is an array, -1 otherwise.
	Index int
}

// IsRoot reports whether the ref points at the document root.
func (r NodeRef) IsRoot() bool { return r.Parent == nil }

// Class classifies the referenced node.
func (r NodeRef) Class() Class { return Classify(r.Value) }

// Resolve walks the tree along p.
func Resolve(tree *models.Value, p Path) (NodeRef, error) {
	if tree == nil {
		return NodeRef{}, errors.NewPathError("document is empty", errors.ErrNotFound).WithPath(p.String())
	}
	ref := NodeRef{Path: p, Value: tree, Index: -1}
	for i, seg := range p {
		prefix := p[:i].String()
		cur := ref.Value
		switch cur.Kind {
		case models.ObjectKind:
			if !seg.MatchesKey() {
				return NodeRef{}, mismatch(p, fmt.Sprintf("index [%s] used on object at %s", seg.Name, prefix))
			}
			idx := cur.Index(seg.Name)
			if idx < 0 {
				return NodeRef{}, notFound(p, fmt.Sprintf("key %q not found at %s", seg.Name, prefix))
			}
			ref = NodeRef{Path: p, Value: cur.Members[idx].Value, Parent: cur, Key: seg.Name, Index: -1}
		case models.ArrayKind:
			if !seg.IsIndexLike() {
				return NodeRef{}, mismatch(p, fmt.Sprintf("key %q used on array at %s", seg.Name, prefix))
			}
			if seg.Index >= len(cur.Items) {
				return NodeRef{}, notFound(p, fmt.Sprintf("index %s out of range at %s (length %d)", seg.Name, prefix, len(cur.Items)))
			}
			ref = NodeRef{Path: p, Value: cur.Items[seg.Index], Parent: cur, Index: seg.Index}
		default:
			return NodeRef{}, mismatch(p, fmt.Sprintf("cannot descend into %s at %s to reach %q", cur.Kind, prefix, seg.Name))
		}
	}
	return ref, nil
}

// Lookup parses text and resolves it.
func Lookup(tree *models.Value, text string) (NodeRef, error) {
	p, err := Parse(text)
	if err != nil {
		return NodeRef{}, err
	}
	return Resolve(tree, p)
}

func notFound(p Path, msg string) error {
	return errors.NewPathError(msg, errors.ErrNotFound).WithPath(p.String())
}

func mismatch(p Path, msg string) error {
	return errors.NewPathError(msg, errors.ErrTypeMismatch).WithPath(p.String())
}

// SkipChildren can be returned by a WalkFunc to skip a container's children.
var SkipChildren = stderrors.New("skip children")

// WalkFunc is called for every node in document order.
type WalkFunc func(p Path, v *models.Value) error

// Walk visits the tree in pre-order. Returning an error other than
// SkipChildren stops the walk.
func Walk(tree *models.Value, fn WalkFunc) error {
	err := walk(Root(), tree, fn)
	if stderrors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func walk(p Path, v *models.Value, fn WalkFunc) error {
	if err := fn(p, v); err != nil {
		return err
	}
	switch v.Kind {
	case models.ObjectKind:
		for _, m := range v.Members {
			if err := walk(p.Key(m.Key), m.Value, fn); err != nil && !stderrors.Is(err, SkipChildren) {
				return err
			}
		}
	case models.ArrayKind:
		for i, item := range v.Items {
			if err := walk(p.Index(i), item, fn); err != nil && !stderrors.Is(err, SkipChildren) {
				return err
			}
		}
	}
	return nil
}
