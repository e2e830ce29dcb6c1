package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/huntdream/jsoncrack/internal/analyzer"
	"github.com/huntdream/jsoncrack/internal/config"
	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/generator"
	"github.com/huntdream/jsoncrack/internal/logging"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/schema"
	"github.com/huntdream/jsoncrack/internal/workspace"
)

// SchemaCmd prints the inferred schema.
type SchemaCmd struct {
	InputFlags `embed:""`

	Output string `help:"Path to the output file. If not specified, writes to stdout." short:"o" type:"path"`
}

func (c *SchemaCmd) Run(rt *Runtime) error {
	doc, err := c.load(rt)
	if err != nil {
		return err
	}
	return writeText(rt, c.Output, schema.Infer(doc.Tree).String())
}

// ValidateCmd checks a document against a schema.
type ValidateCmd struct {
	InputFlags `embed:""`

	Schema string `help:"JSON Schema file. Defaults to the schema inferred from the input." short:"s" type:"existingfile"`
}

func (c *ValidateCmd) Run(rt *Runtime) error {
	doc, err := c.load(rt)
	if err != nil {
		return err
	}
	ws := workspace.New(workspace.WithLogger(rt.Logger))
	ws.LoadDocument(doc)
	if c.Schema != "" {
		s, err := schema.ParseFile(c.Schema)
		if err != nil {
			return err
		}
		ws.SetSchema(s)
	}

	violations := ws.Validate()
	if len(violations) == 0 {
		fmt.Fprintln(rt.Stdout, rt.paint(color.FgGreen).Sprint("valid"))
		return nil
	}
	pathColor := rt.paint(color.FgRed)
	for _, v := range violations {
		fmt.Fprintf(rt.Stdout, "%s: %s\n", pathColor.Sprint(v.Path), v.Message)
	}
	return errors.NewSchemaError(fmt.Sprintf("document has %d violation(s)", len(violations)), nil)
}

// SampleCmd fabricates a document.
type SampleCmd struct {
	InputFlags  `embed:""`
	OutputFlags `embed:""`

	Schema   string `help:"Generate from this JSON Schema instead of the input document." short:"s" type:"existingfile"`
	Seed     *int64 `help:"Random seed; 0 picks one from the clock."`
	MinItems *int   `help:"Minimum array length."`
	MaxItems *int   `help:"Maximum array length."`
	MaxDepth *int   `help:"Nesting depth after which optional members are left out."`
}

func (c *SampleCmd) options(rt *Runtime) (schema.SampleOptions, error) {
	cfg := rt.Config
	cfg.Apply(config.Overrides{Seed: c.Seed})
	if c.MinItems != nil {
		cfg.Sample.MinItems = *c.MinItems
	}
	if c.MaxItems != nil {
		cfg.Sample.MaxItems = *c.MaxItems
	}
	if c.MaxDepth != nil {
		cfg.Sample.MaxDepth = *c.MaxDepth
	}
	if err := cfg.Validate(); err != nil {
		return schema.SampleOptions{}, err
	}
	return schema.SampleOptions{
		Seed:     cfg.Sample.Seed,
		MinItems: cfg.Sample.MinItems,
		MaxItems: cfg.Sample.MaxItems,
		MaxDepth: cfg.Sample.MaxDepth,
	}, nil
}

func (c *SampleCmd) Run(rt *Runtime) error {
	opts, err := c.options(rt)
	if err != nil {
		return err
	}

	var doc *document.Document
	if c.Schema != "" {
		doc, err = c.fromSchema(rt, opts)
	} else {
		doc, err = c.fromInput(rt, opts)
	}
	if err != nil {
		return err
	}

	text, err := c.render(rt, doc)
	if err != nil {
		return err
	}
	return c.write(rt, text)
}

func (c *SampleCmd) fromSchema(rt *Runtime, opts schema.SampleOptions) (*document.Document, error) {
	s, err := schema.ParseFile(c.Schema)
	if err != nil {
		return nil, err
	}
	progress := logging.NewProgress(rt.Logger)
	sample, err := schema.GenerateSample(rt.Ctx, s, opts)
	if err != nil {
		return nil, err
	}
	progress.Done("generated sample", "schema", c.Schema)

	f, _, err := c.format(rt)
	if err != nil {
		return nil, err
	}
	return document.New(sample, f, formatter.DefaultOptions())
}

// fromInput runs generation as a workspace task so that an interrupt
// cancels it.
func (c *SampleCmd) fromInput(rt *Runtime, opts schema.SampleOptions) (*document.Document, error) {
	source, err := c.load(rt)
	if err != nil {
		return nil, err
	}
	ws := workspace.New(workspace.WithLogger(rt.Logger))
	ws.LoadDocument(source)

	applied, err := ws.ApplySample(ws.StartSample(rt.Ctx, opts))
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.NewGenerateError("sample generation was interrupted", errors.ErrCancelled)
	}
	return ws.Current(), nil
}

// TypesCmd generates Go type definitions.
type TypesCmd struct {
	InputFlags `embed:""`

	Schema   string  `help:"Generate from this JSON Schema instead of the input document." short:"s" type:"existingfile"`
	Package  *string `help:"Package name for generated code." short:"p"`
	RootName *string `help:"Name for the root type." short:"r"`
	NoFormat bool    `help:"Do not gofmt the generated code."`
	Output   string  `help:"Path to output Go file. If not specified, writes to stdout." short:"o" type:"path"`
}

func (c *TypesCmd) Run(rt *Runtime) error {
	cfg := rt.Config
	cfg.Apply(config.Overrides{Package: c.Package, RootName: c.RootName})

	var (
		result models.AnalysisResult
		err    error
	)
	if c.Schema != "" {
		var s *schema.Schema
		s, err = schema.ParseFile(c.Schema)
		if err != nil {
			return err
		}
		result, err = schema.NewConverter(s).Convert(cfg.Types.RootName)
	} else {
		var doc *document.Document
		doc, err = c.load(rt)
		if err != nil {
			return err
		}
		result, err = analyzer.NewAnalyzerWithConfig(cfg).Analyze(doc.Tree, cfg.Types.RootName)
	}
	if err != nil {
		return err
	}
	rt.Logger.Debug("analyzed types", "structs", len(result.Structs), "root", result.RootType)

	code, err := generator.NewGenerator().GenerateStructs(result, cfg.Types.Package)
	if err != nil {
		return err
	}
	if cfg.Types.FormatCode && !c.NoFormat {
		code, err = formatter.NewFormatter().Format(code)
		if err != nil {
			return err
		}
	}
	return writeText(rt, c.Output, code)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(rt *Runtime) error {
	if _, err := fmt.Fprintf(rt.Stdout, "jsoncrack version %s\n", Version); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
