// Package workspace holds the state of one editing session: the current
// document, the last committed snapshot and the derived schema.
//
// A Workspace is not safe for concurrent use. Only sample generation runs
// in the background; its result is brought back through ApplySample on the
// caller's goroutine.
package workspace

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/logging"
	"github.com/huntdream/jsoncrack/internal/mutation"
	"github.com/huntdream/jsoncrack/internal/parser"
	"github.com/huntdream/jsoncrack/internal/schema"
)

// Workspace is the explicit replacement for editor-wide stores.
type Workspace struct {
	current   *document.Document
	committed *document.Document
	// revision grows with every load, edit and commit.
	revision uint64

	external *schema.Schema
	cache    schemaCache

	rename mutation.RenameOptions
	synth  schema.Synthesizer
	logger *log.Logger

	latest *SampleTask
}

type cacheKey struct {
	id       uuid.UUID
	revision uint64
}

type schemaCache struct {
	key    cacheKey
	schema *schema.Schema
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithRenameOptions sets how container renames treat member order.
func WithRenameOptions(opts mutation.RenameOptions) Option {
	return func(w *Workspace) { w.rename = opts }
}

// WithSynthesizer sets the type synthesis step used by sample generation.
func WithSynthesizer(s schema.Synthesizer) Option {
	return func(w *Workspace) { w.synth = s }
}

// WithLogger sets the logger for workspace events.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// New creates an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		synth:  schema.InferSynthesizer{},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Current is the document being edited, nil before Load.
func (w *Workspace) Current() *document.Document { return w.current }

// Committed is the last committed snapshot.
func (w *Workspace) Committed() *document.Document { return w.committed }

// Revision identifies the state of the workspace.
func (w *Workspace) Revision() uint64 { return w.revision }

// Load parses text as a new document and commits it.
func (w *Workspace) Load(text string, f format.Format) error {
	doc, err := document.Load(text, f)
	if err != nil {
		return err
	}
	w.LoadDocument(doc)
	return nil
}

// LoadDocument replaces the session with doc and commits it.
func (w *Workspace) LoadDocument(doc *document.Document) {
	w.current = doc
	w.committed = doc
	w.bump()
	w.logger.Debug("loaded document", "id", doc.ID, "format", doc.Format)
}

// Edit applies a node editor request.
func (w *Workspace) Edit(e mutation.Edit) (*mutation.Result, error) {
	if !e.Rename.PreservePosition {
		e.Rename = w.rename
	}
	return w.apply(mutation.Apply(w.current, e))
}

// Replace sets the leaf at path.
func (w *Workspace) Replace(path, valueText string) (*mutation.Result, error) {
	return w.apply(mutation.ReplaceLeafValue(w.current, path, valueText))
}

// Rename changes the key of the container at path.
func (w *Workspace) Rename(path, newKey string) (*mutation.Result, error) {
	return w.apply(mutation.RenameContainerKey(w.current, path, newKey, w.rename))
}

// Patch applies an RFC 6902 JSON Patch.
func (w *Workspace) Patch(patchJSON []byte) (*mutation.Result, error) {
	return w.apply(mutation.ApplyPatch(w.current, patchJSON))
}

func (w *Workspace) apply(res *mutation.Result, err error) (*mutation.Result, error) {
	if err != nil {
		return nil, err
	}
	w.current = res.Document
	w.bump()
	w.logger.Debug("applied edit", "ops", len(res.Ops), "revision", w.revision)
	return res, nil
}

// SetText replaces the current document with text typed into the editor.
// The text is parsed in the current format and kept as typed; invalid text
// leaves the workspace untouched.
func (w *Workspace) SetText(text string) error {
	if w.current == nil {
		return errors.NewInputError("no document loaded", errors.ErrNoInput)
	}
	tree, err := parser.Parse(text, w.current.Format)
	if err != nil {
		return err
	}
	w.current = &document.Document{
		ID:      w.current.ID,
		Format:  w.current.Format,
		Tree:    tree,
		RawText: text,
		Options: w.current.Options,
	}
	w.bump()
	return nil
}

// Commit records the current document as the committed snapshot.
func (w *Workspace) Commit() {
	w.committed = w.current
	w.bump()
}

// HasChanges reports whether the current text differs from the commit.
func (w *Workspace) HasChanges() bool {
	return document.HasChanges(w.current, w.committed)
}

// Diff lists line changes since the last commit.
func (w *Workspace) Diff() []document.DiffLine {
	return document.Diff(w.committed, w.current)
}

// SetSchema makes s the schema used for validation. Nil goes back to the
// schema inferred from the current document.
func (w *Workspace) SetSchema(s *schema.Schema) {
	w.external = s
}

// Schema returns the external schema if one is set and the inferred schema
// of the current document otherwise.
func (w *Workspace) Schema() *schema.Schema {
	if w.external != nil {
		return w.external
	}
	if w.current == nil {
		return nil
	}
	key := cacheKey{id: w.current.ID, revision: w.revision}
	if w.cache.schema == nil || w.cache.key != key {
		w.cache = schemaCache{key: key, schema: schema.Infer(w.current.Tree)}
	}
	return w.cache.schema
}

// Validate checks the current document against Schema.
func (w *Workspace) Validate() []schema.Violation {
	if w.current == nil {
		return nil
	}
	return schema.Validate(w.current.Tree, w.Schema())
}

// bump moves to a new revision. Cached schemas and running sample tasks
// belong to the old one.
func (w *Workspace) bump() {
	w.revision++
	w.cache = schemaCache{}
}
