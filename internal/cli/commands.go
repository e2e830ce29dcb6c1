package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/mutation"
	"github.com/huntdream/jsoncrack/internal/nodepath"
	"github.com/huntdream/jsoncrack/internal/search"
	"github.com/huntdream/jsoncrack/internal/workspace"
)

// ConvertCmd re-serializes a document.
type ConvertCmd struct {
	InputFlags  `embed:""`
	OutputFlags `embed:""`
}

func (c *ConvertCmd) Run(rt *Runtime) error {
	doc, err := c.load(rt)
	if err != nil {
		return err
	}
	text, err := c.render(rt, doc)
	if err != nil {
		return err
	}
	return c.write(rt, text)
}

// GetCmd prints one node.
type GetCmd struct {
	InputFlags `embed:""`

	Path  string `arg:"" help:"Node path, e.g. {Root}.user.name."`
	Label bool   `help:"Print the short display label instead of the editable value."`
	Key   bool   `help:"For containers, print the key an edit would rename."`
}

func (c *GetCmd) Run(rt *Runtime) error {
	doc, err := c.load(rt)
	if err != nil {
		return err
	}
	ref, err := nodepath.Lookup(doc.Tree, c.Path)
	if err != nil {
		return err
	}

	var text string
	switch {
	case c.Label:
		text = formatter.DisplayLabel(ref.Value)
	case c.Key:
		text, err = mutation.EditContent(doc, c.Path)
		if err != nil {
			return err
		}
	default:
		text = formatter.EditText(ref.Value)
	}
	return writeText(rt, "", text)
}

// EditFlags are shared by commands that change a document.
type EditFlags struct {
	InputFlags  `embed:""`
	OutputFlags `embed:""`

	ShowPatch bool `help:"Print the applied change as a JSON Patch instead of the document." name:"show-patch"`
	ShowDiff  bool `help:"Print a line diff against the input instead of the document." name:"show-diff"`
}

// apply loads the input into a workspace, runs edit and writes the result.
func (f *EditFlags) apply(rt *Runtime, edit func(ws *workspace.Workspace) (*mutation.Result, error)) error {
	doc, err := f.load(rt)
	if err != nil {
		return err
	}
	ws := workspace.New(
		workspace.WithLogger(rt.Logger),
		workspace.WithRenameOptions(mutation.RenameOptions{PreservePosition: rt.Config.Edit.RenamePreservePosition}),
	)
	ws.LoadDocument(doc)

	res, err := edit(ws)
	if err != nil {
		return err
	}
	if !ws.HasChanges() {
		rt.Logger.Info("document unchanged")
	}

	switch {
	case f.ShowPatch:
		patch, err := res.Patch()
		if err != nil {
			return errors.NewOutputError("failed to render patch", err)
		}
		return writeText(rt, f.Output, string(patch))
	case f.ShowDiff:
		printDiff(rt, ws.Diff())
		return nil
	}

	text, err := f.render(rt, ws.Current())
	if err != nil {
		return err
	}
	return f.write(rt, text)
}

// SetCmd replaces a leaf value.
type SetCmd struct {
	EditFlags `embed:""`

	Path  string `arg:"" help:"Path of a leaf node."`
	Value string `arg:"" help:"New value as a JSON literal, e.g. 42, \"text\" or null."`
}

func (c *SetCmd) Run(rt *Runtime) error {
	return c.apply(rt, func(ws *workspace.Workspace) (*mutation.Result, error) {
		return ws.Replace(c.Path, c.Value)
	})
}

// RenameCmd renames a container's key.
type RenameCmd struct {
	EditFlags `embed:""`

	Path         string `arg:"" help:"Path of an object or array member."`
	Key          string `arg:"" help:"New key."`
	KeepPosition bool   `help:"Keep the member in place instead of moving it to the end."`
}

func (c *RenameCmd) Run(rt *Runtime) error {
	if c.KeepPosition {
		rt.Config.Edit.RenamePreservePosition = true
	}
	return c.apply(rt, func(ws *workspace.Workspace) (*mutation.Result, error) {
		return ws.Rename(c.Path, c.Key)
	})
}

// EditCmd dispatches on the kind of the target node.
type EditCmd struct {
	EditFlags `embed:""`

	Path    string `arg:"" help:"Path of the node to edit."`
	Content string `arg:"" help:"New value for leaves, new key for containers."`
}

func (c *EditCmd) Run(rt *Runtime) error {
	return c.apply(rt, func(ws *workspace.Workspace) (*mutation.Result, error) {
		return ws.Edit(mutation.Edit{Path: c.Path, Content: c.Content})
	})
}

// PatchCmd applies a JSON Patch file.
type PatchCmd struct {
	EditFlags `embed:""`

	Patch string `arg:"" help:"Path to the JSON Patch file." type:"path"`
}

func (c *PatchCmd) Run(rt *Runtime) error {
	data, err := os.ReadFile(c.Patch)
	if err != nil {
		return errors.NewInputError(fmt.Sprintf("failed to read patch '%s'", c.Patch), err)
	}
	return c.apply(rt, func(ws *workspace.Workspace) (*mutation.Result, error) {
		return ws.Patch(data)
	})
}

// PathsCmd lists nodes in document order.
type PathsCmd struct {
	InputFlags `embed:""`

	Leaves bool `help:"Only list leaf nodes."`
}

func (c *PathsCmd) Run(rt *Runtime) error {
	doc, err := c.load(rt)
	if err != nil {
		return err
	}
	pathColor := rt.paint(color.FgCyan)
	var b strings.Builder
	err = nodepath.Walk(doc.Tree, func(p nodepath.Path, v *models.Value) error {
		if c.Leaves && !v.IsLeaf() {
			return nil
		}
		fmt.Fprintf(&b, "%s\t%s\n", pathColor.Sprint(p.String()), formatter.DisplayLabel(v))
		return nil
	})
	if err != nil {
		return err
	}
	return writeText(rt, "", strings.TrimSuffix(b.String(), "\n"))
}

// SearchCmd finds nodes.
type SearchCmd struct {
	InputFlags `embed:""`

	Query         string `arg:"" optional:"" help:"Text to look for in keys and values."`
	Where         string `help:"Boolean expression over path, key, index, kind, depth, value and leaf." short:"w" xor:"mode"`
	JSONPath      string `name:"jsonpath" help:"JSONPath expression, e.g. '$.users[?(@.age > 30)]'." short:"j" xor:"mode"`
	CaseSensitive bool   `help:"Match case." short:"s"`
	Keys          bool   `help:"Only match keys." xor:"scope"`
	Values        bool   `help:"Only match values." xor:"scope"`
}

func (c *SearchCmd) Run(rt *Runtime) error {
	if c.Query == "" && c.Where == "" && c.JSONPath == "" {
		return errors.NewQueryError("give a query, a --where expression or a --jsonpath", errors.ErrInvalidQuery)
	}
	doc, err := c.load(rt)
	if err != nil {
		return err
	}

	var matches []search.Match
	switch {
	case c.Where != "":
		matches, err = search.Where(doc.Tree, c.Where)
		if err != nil {
			return err
		}
	case c.JSONPath != "":
		matches, err = search.JSONPath(doc.Tree, c.JSONPath)
		if err != nil {
			return err
		}
	default:
		matches = search.Find(doc.Tree, c.Query, search.Options{
			CaseSensitive: c.CaseSensitive,
			KeysOnly:      c.Keys,
			ValuesOnly:    c.Values,
		})
	}

	pathColor := rt.paint(color.FgCyan)
	for _, m := range matches {
		fmt.Fprintf(rt.Stdout, "%s\t%s\n", pathColor.Sprint(m.Path.String()), formatter.DisplayLabel(m.Value))
	}
	if len(matches) == 1 {
		fmt.Fprintln(rt.Stderr, "1 match")
	} else {
		fmt.Fprintf(rt.Stderr, "%d matches\n", len(matches))
	}
	return nil
}

// DiffCmd compares two documents line by line.
type DiffCmd struct {
	Old       string `arg:"" help:"Original document." type:"existingfile"`
	New       string `arg:"" help:"Changed document." type:"existingfile"`
	Format    string `help:"Format of both documents when it cannot be told from the file names." short:"f"`
	Normalize bool   `help:"Re-serialize both documents with the default layout before comparing." short:"n"`
}

func (c *DiffCmd) Run(rt *Runtime) error {
	oldDoc, err := InputFlags{Input: c.Old, Format: c.Format}.load(rt)
	if err != nil {
		return err
	}
	newDoc, err := InputFlags{Input: c.New, Format: c.Format}.load(rt)
	if err != nil {
		return err
	}
	if c.Normalize {
		if oldDoc, err = oldDoc.Convert(oldDoc.Format, formatter.DefaultOptions()); err != nil {
			return err
		}
		if newDoc, err = newDoc.Convert(oldDoc.Format, formatter.DefaultOptions()); err != nil {
			return err
		}
	}

	if !document.HasChanges(newDoc, oldDoc) {
		fmt.Fprintln(rt.Stderr, "No changes")
		return nil
	}
	printDiff(rt, document.Diff(oldDoc, newDoc))
	return nil
}

func printDiff(rt *Runtime, lines []document.DiffLine) {
	added := rt.paint(color.FgGreen)
	removed := rt.paint(color.FgRed)
	for _, l := range lines {
		text := l.Prefix() + l.Text
		switch l.Op {
		case document.Insert:
			added.Fprintln(rt.Stdout, text)
		case document.Delete:
			removed.Fprintln(rt.Stdout, text)
		default:
			fmt.Fprintln(rt.Stdout, text)
		}
	}
	inserted, deleted := document.Stats(lines)
	fmt.Fprintf(rt.Stderr, "%d insertion(s), %d deletion(s)\n", inserted, deleted)
}
