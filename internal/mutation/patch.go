package mutation

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/parser"
)

// ApplyPatch applies an RFC 6902 JSON Patch to the document. The patch
// runs against the JSON rendering of the tree; the result is written back
// in the document's own format.
func ApplyPatch(doc *document.Document, patchJSON []byte) (*Result, error) {
	if doc == nil {
		return nil, errors.NewMutationError("no document loaded", errors.ErrNoInput)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, errors.NewMutationError("invalid JSON Patch",
			fmt.Errorf("%w: %v", errors.ErrInvalidLiteral, err))
	}
	ops, err := decodeOps(patchJSON)
	if err != nil {
		return nil, err
	}

	src, err := compactJSON(doc.Tree)
	if err != nil {
		return nil, err
	}
	out, err := patch.Apply(src)
	if err != nil {
		return nil, errors.NewMutationError("failed to apply JSON Patch", err)
	}

	tree, err := parser.Parse(string(out), format.JSON)
	if err != nil {
		return nil, err
	}
	next, err := doc.WithTree(tree)
	if err != nil {
		return nil, err
	}
	return &Result{Document: next, Ops: ops}, nil
}

func decodeOps(patchJSON []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(patchJSON, &ops); err != nil {
		return nil, errors.NewMutationError("invalid JSON Patch",
			fmt.Errorf("%w: %v", errors.ErrInvalidLiteral, err))
	}
	return ops, nil
}
