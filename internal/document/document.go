// Package document binds a canonical tree to its serialized text.
package document

import (
	"github.com/google/uuid"

	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/parser"
)

// Document is an immutable snapshot: RawText is always the serialization
// of Tree in Format. Edits produce new Documents with the same ID.
type Document struct {
	ID      uuid.UUID
	Format  format.Format
	Tree    *models.Value
	RawText string
	Options formatter.Options
}

// Load parses text and keeps its detected layout for later re-serialization.
func Load(text string, f format.Format) (*Document, error) {
	return LoadWithOptions(text, f, formatter.DetectOptions(text, f))
}

// LoadWithOptions parses text and re-serializes it with opts.
func LoadWithOptions(text string, f format.Format, opts formatter.Options) (*Document, error) {
	tree, err := parser.Parse(text, f)
	if err != nil {
		return nil, err
	}
	return New(tree, f, opts)
}

// New wraps a tree in a fresh Document.
func New(tree *models.Value, f format.Format, opts formatter.Options) (*Document, error) {
	raw, err := formatter.Serialize(tree, f, opts)
	if err != nil {
		return nil, err
	}
	return &Document{
		ID:      uuid.New(),
		Format:  f,
		Tree:    tree,
		RawText: raw,
		Options: opts,
	}, nil
}

// WithTree returns the same document holding a new tree. The receiver is
// left untouched when serialization fails.
func (d *Document) WithTree(tree *models.Value) (*Document, error) {
	raw, err := formatter.Serialize(tree, d.Format, d.Options)
	if err != nil {
		return nil, err
	}
	return &Document{
		ID:      d.ID,
		Format:  d.Format,
		Tree:    tree,
		RawText: raw,
		Options: d.Options,
	}, nil
}

// Convert re-serializes the document in another format.
func (d *Document) Convert(f format.Format, opts formatter.Options) (*Document, error) {
	raw, err := formatter.Serialize(d.Tree, f, opts)
	if err != nil {
		return nil, err
	}
	return &Document{
		ID:      d.ID,
		Format:  f,
		Tree:    d.Tree,
		RawText: raw,
		Options: opts,
	}, nil
}
