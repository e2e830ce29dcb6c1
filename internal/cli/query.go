package cli

import (
	"strings"
	"time"

	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/query"
)

// JQCmd runs a jq program over a document.
type JQCmd struct {
	InputFlags `embed:""`

	Program string `arg:"" help:"jq program, e.g. '.users[] | select(.age > 30) | .name'."`
	Compact bool   `help:"Print each result on one line." short:"c"`
	Raw     bool   `help:"Print string results without quotes." short:"r"`
}

func (c *JQCmd) Run(rt *Runtime) error {
	q, err := query.CompileJQ(c.Program)
	if err != nil {
		return err
	}
	doc, err := c.load(rt)
	if err != nil {
		return err
	}
	results, err := q.Run(rt.Ctx, doc.Tree)
	if err != nil {
		return err
	}

	opts := formatter.DefaultOptions()
	if c.Compact {
		opts.Indent = 0
	}
	var out strings.Builder
	for _, v := range results {
		if c.Raw && v.Kind == models.StringKind {
			out.WriteString(v.Str)
			out.WriteByte('\n')
			continue
		}
		text, err := formatter.Serialize(v, format.JSON, opts)
		if err != nil {
			return err
		}
		out.WriteString(text)
		out.WriteByte('\n')
	}
	rt.Logger.Debug("ran jq program", "program", q.String(), "results", len(results))
	if out.Len() == 0 {
		return nil
	}
	return writeText(rt, "", out.String())
}

// JWTCmd decodes a JSON Web Token without verifying it.
type JWTCmd struct {
	OutputFlags `embed:""`

	Token string `arg:"" optional:"" help:"Token to decode. If not specified, reads from stdin."`
}

func (c *JWTCmd) Run(rt *Runtime) error {
	token := c.Token
	if token == "" {
		text, err := readStdin(rt)
		if err != nil {
			return err
		}
		token = text
	}
	tree, err := query.DecodeJWT(token, time.Now())
	if err != nil {
		return err
	}
	doc, err := document.New(tree, format.JSON, formatter.DefaultOptions())
	if err != nil {
		return err
	}
	text, err := c.render(rt, doc)
	if err != nil {
		return err
	}
	return c.write(rt, text)
}
