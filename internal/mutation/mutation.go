// Package mutation applies path-addressed edits to documents.
//
// Every operation works on a clone of the document tree and returns a new
// document only after the clone has been re-serialized, so a failed edit
// never changes the input.
package mutation

import (
	"encoding/json"
	"fmt"

	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/nodepath"
	"github.com/huntdream/jsoncrack/internal/parser"
)

// Operation is one RFC 6902 operation describing an applied edit.
type Operation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Result is the outcome of a successful edit.
type Result struct {
	Document *document.Document
	Ops      []Operation
}

// Changed reports whether the edit produced different text.
func (r *Result) Changed(before *document.Document) bool {
	return document.HasChanges(r.Document, before)
}

// Patch renders the operations as a JSON Patch document.
func (r *Result) Patch() ([]byte, error) {
	ops := r.Ops
	if ops == nil {
		ops = []Operation{}
	}
	return json.Marshal(ops)
}

// RenameOptions tunes RenameContainerKey.
type RenameOptions struct {
	// PreservePosition keeps the renamed member where it was instead of
	// moving it to the end of its parent.
	PreservePosition bool
}

// ReplaceLeafValue sets the leaf at path to the value written in
// newValueText, which must be a single JSON value.
func ReplaceLeafValue(doc *document.Document, path, newValueText string) (*Result, error) {
	if doc == nil {
		return nil, errors.NewMutationError("no document loaded", errors.ErrNoInput)
	}
	p, err := nodepath.Parse(path)
	if err != nil {
		return nil, err
	}
	tree := doc.Tree.Clone()
	ref, err := nodepath.Resolve(tree, p)
	if err != nil {
		return nil, err
	}
	if ref.Class() != nodepath.Leaf {
		return nil, errors.NewMutationError(
			fmt.Sprintf("%s is a %s; rename it instead", p, ref.Value.Kind),
			errors.ErrNotReplaceable,
		).WithPath(p.String())
	}

	val, err := parser.ParseLiteral(newValueText)
	if err != nil {
		return nil, errors.NewMutationError(
			fmt.Sprintf("%q is not a valid value", newValueText),
			fmt.Errorf("%w: %v", errors.ErrInvalidLiteral, err),
		).WithPath(p.String())
	}

	switch {
	case ref.IsRoot():
		tree = val
	case ref.Parent.Kind == models.ArrayKind:
		ref.Parent.Items[ref.Index] = val
	default:
		ref.Parent.Set(ref.Key, val)
	}

	next, err := doc.WithTree(tree)
	if err != nil {
		return nil, err
	}
	raw, err := compactJSON(val)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document: next,
		Ops:      []Operation{{Op: "replace", Path: p.Pointer(), Value: raw}},
	}, nil
}

// RenameContainerKey renames the object member holding the container at
// path. By default the member is removed and re-added under newKey, which
// moves it to the end of its parent. An existing member named newKey is
// overwritten.
func RenameContainerKey(doc *document.Document, path, newKey string, opts RenameOptions) (*Result, error) {
	if doc == nil {
		return nil, errors.NewMutationError("no document loaded", errors.ErrNoInput)
	}
	p, err := nodepath.Parse(path)
	if err != nil {
		return nil, err
	}
	tree := doc.Tree.Clone()
	ref, err := nodepath.Resolve(tree, p)
	if err != nil {
		return nil, err
	}
	if err := renameable(p, ref); err != nil {
		return nil, err
	}
	if newKey == "" {
		return nil, errors.NewMutationError("new key is empty", errors.ErrEmptyKey).WithPath(p.String())
	}
	if newKey == ref.Key {
		return &Result{Document: doc}, nil
	}

	parent := ref.Parent
	if opts.PreservePosition {
		parent.Delete(newKey)
		parent.Members[parent.Index(ref.Key)].Key = newKey
	} else {
		parent.Delete(ref.Key)
		parent.Set(newKey, ref.Value)
	}

	next, err := doc.WithTree(tree)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document: next,
		Ops: []Operation{{
			Op:   "move",
			From: p.Pointer(),
			Path: p.Parent().Key(newKey).Pointer(),
		}},
	}, nil
}

func renameable(p nodepath.Path, ref nodepath.NodeRef) error {
	var reason string
	switch {
	case ref.IsRoot():
		reason = "the root has no key"
	case ref.Class() != nodepath.Container:
		reason = fmt.Sprintf("%s is a %s; replace its value instead", p, ref.Value.Kind)
	case ref.Parent.Kind != models.ObjectKind:
		reason = fmt.Sprintf("%s is an array element and has no key", p)
	default:
		return nil
	}
	return errors.NewMutationError(reason, errors.ErrNotRenameable).WithPath(p.String())
}

// Edit is a request coming from a node editor: the content is a new value
// for leaves and a new key for containers.
type Edit struct {
	Path    string
	Content string
	Rename  RenameOptions
}

// Apply picks the edit from the classification of the target node.
func Apply(doc *document.Document, e Edit) (*Result, error) {
	if doc == nil {
		return nil, errors.NewMutationError("no document loaded", errors.ErrNoInput)
	}
	ref, err := nodepath.Lookup(doc.Tree, e.Path)
	if err != nil {
		return nil, err
	}
	if ref.Class() == nodepath.Leaf {
		return ReplaceLeafValue(doc, e.Path, e.Content)
	}
	return RenameContainerKey(doc, e.Path, e.Content, e.Rename)
}

// EditContent is the text a node editor starts from: the JSON literal of a
// leaf, or the key of a container.
func EditContent(doc *document.Document, path string) (string, error) {
	ref, err := nodepath.Lookup(doc.Tree, path)
	if err != nil {
		return "", err
	}
	if ref.Class() == nodepath.Leaf {
		return formatter.EditText(ref.Value), nil
	}
	return ref.Key, nil
}

func compactJSON(v *models.Value) (json.RawMessage, error) {
	s, err := formatter.Serialize(v, format.JSON, formatter.Options{})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(s), nil
}
