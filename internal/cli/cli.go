// Package cli implements the jsoncrack command line.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/huntdream/jsoncrack/internal/config"
	"github.com/huntdream/jsoncrack/internal/document"
	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/formatter"
	"github.com/huntdream/jsoncrack/internal/logging"
	"github.com/huntdream/jsoncrack/internal/parser"
)

// Version information
const Version = "0.1.0"

// Globals are flags accepted by every command.
type Globals struct {
	Config string `help:"Path to a config file. Defaults to the nearest .jsoncrack.yml." type:"path"`
	Debug  bool   `help:"Enable debug logging." short:"d"`
	Color  string `help:"Colorize output (${enum})." enum:"auto,always,never" default:"auto"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Convert  ConvertCmd  `cmd:"" help:"Convert a document to another format."`
	Get      GetCmd      `cmd:"" help:"Print the node at a path."`
	Set      SetCmd      `cmd:"" help:"Replace the value of a leaf node."`
	Rename   RenameCmd   `cmd:"" help:"Rename the key of an object or array node."`
	Edit     EditCmd     `cmd:"" help:"Edit a node: leaves get a new value, containers a new key."`
	Patch    PatchCmd    `cmd:"" help:"Apply an RFC 6902 JSON Patch."`
	Paths    PathsCmd    `cmd:"" help:"List the path of every node."`
	Search   SearchCmd   `cmd:"" help:"Find nodes by text, expression or JSONPath."`
	JQ       JQCmd       `cmd:"" name:"jq" help:"Run a jq program over a document."`
	JWT      JWTCmd      `cmd:"" name:"jwt" help:"Decode a JSON Web Token without verifying it."`
	Schema   SchemaCmd   `cmd:"" help:"Infer a JSON Schema from a document."`
	Validate ValidateCmd `cmd:"" help:"Validate a document against a JSON Schema."`
	Sample   SampleCmd   `cmd:"" help:"Generate a sample document."`
	Types    TypesCmd    `cmd:"" help:"Generate Go types from a document or JSON Schema."`
	Diff     DiffCmd     `cmd:"" help:"Show line changes between two documents."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Runtime is what every command runs with.
type Runtime struct {
	Ctx    context.Context
	Config *config.Config
	Logger *log.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Color is true when output may carry ANSI colors.
	Color bool
}

type exitCode int

// Run parses args, runs the selected command and returns the process exit
// code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("jsoncrack"),
		kong.Description("Inspect, edit and generate JSON, YAML and TOML documents"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		var pe *kong.ParseError
		if stderrors.As(err, &pe) && pe.Context != nil {
			_ = pe.Context.PrintUsage(true)
		}
		parser.Errorf("%s", err)
		return 1
	}

	rt, stop, err := newRuntime(cli.Globals, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(err))
		return 1
	}
	defer stop()

	if err := kctx.Run(rt); err != nil {
		rt.Logger.Debug("command failed", "command", kctx.Command(), "err", err)
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(err))
		return 1
	}
	return 0
}

func newRuntime(g Globals, stdin io.Reader, stdout, stderr io.Writer) (*Runtime, func(), error) {
	path := g.Config
	if path == "" {
		path = config.FindConfigFile()
	}
	cfg, err := config.LoadConfigWithCLI(path, config.Overrides{Debug: g.Debug})
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(stderr, logging.ParseLevel(cfg.Log.Level))
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	return &Runtime{
		Ctx:    logging.WithLogger(ctx, logger),
		Config: cfg,
		Logger: logger,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Color:  useColor(g.Color, stdout),
	}, stop, nil
}

// useColor resolves --color. In auto mode only terminals get colors.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(w)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// paint returns a color that is switched off unless rt allows colors.
func (rt *Runtime) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if rt.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// InputFlags select the document a command works on.
type InputFlags struct {
	Input  string `help:"Path to the input document. If not specified, reads from stdin." short:"i"`
	Format string `help:"Input format (json, yaml, toml) when it cannot be told from the file name." short:"f"`
}

// read returns the input text and its format.
func (in InputFlags) read(rt *Runtime) (string, format.Format, error) {
	f, explicit, err := in.format(rt)
	if err != nil {
		return "", 0, err
	}

	if in.Input == "" || in.Input == "-" {
		text, err := readStdin(rt)
		if err != nil {
			return "", 0, err
		}
		return text, f, nil
	}

	text, err := parser.ReadFile(in.Input)
	if err != nil {
		return "", 0, err
	}
	if !explicit {
		if fromPath, err := format.FromPath(in.Input); err == nil {
			f = fromPath
		}
	}
	return text, f, nil
}

func (in InputFlags) format(rt *Runtime) (format.Format, bool, error) {
	if in.Format == "" {
		return rt.Config.DocumentFormat(), false, nil
	}
	f, err := format.ParseFormat(in.Format)
	if err != nil {
		return 0, false, errors.NewInputError(fmt.Sprintf("unknown format %q", in.Format), err)
	}
	return f, true, nil
}

// load parses the input into a document. Configured output settings win
// over the layout detected from the input.
func (in InputFlags) load(rt *Runtime) (*document.Document, error) {
	text, f, err := in.read(rt)
	if err != nil {
		return nil, err
	}
	opts := formatter.DetectOptions(text, f)
	if ind := rt.Config.Output.Indent; ind != nil {
		opts = formatter.Options{Indent: *ind, IndentSequence: rt.Config.Output.IndentSequence}
	}
	doc, err := document.LoadWithOptions(text, f, opts)
	if err != nil {
		return nil, err
	}
	rt.Logger.Debug("loaded document", "format", f, "bytes", len(text))
	return doc, nil
}

func readStdin(rt *Runtime) (string, error) {
	if isTerminal(rt.Stdin) {
		fmt.Fprintln(rt.Stderr, "Paste your document below and press Ctrl+D (or Ctrl+Z on Windows) when done:")
	}
	data, err := io.ReadAll(rt.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if len(data) == 0 {
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), nil
}

// OutputFlags choose where and how a document is written.
type OutputFlags struct {
	Output string `help:"Path to the output file. If not specified, writes to stdout." short:"o" type:"path"`
	To     string `help:"Output format (json, yaml, toml). Defaults to the input format." short:"t"`
	Indent *int   `help:"Spaces per indentation level; 0 writes compact JSON."`
}

// render serializes doc according to the flags.
func (out OutputFlags) render(rt *Runtime, doc *document.Document) (string, error) {
	target := doc.Format
	if out.To != "" {
		f, err := format.ParseFormat(out.To)
		if err != nil {
			return "", errors.NewOutputError(fmt.Sprintf("unknown format %q", out.To), err)
		}
		target = f
	}

	opts := doc.Options
	if target != doc.Format {
		opts = formatter.DefaultOptions()
	}
	if out.Indent != nil {
		if *out.Indent < 0 || *out.Indent > 8 {
			return "", errors.NewConfigError(fmt.Sprintf("indent must be between 0 and 8, got %d", *out.Indent), nil)
		}
		opts.Indent = *out.Indent
	}
	if target == doc.Format && opts == doc.Options {
		return doc.RawText, nil
	}
	converted, err := doc.Convert(target, opts)
	if err != nil {
		return "", err
	}
	return converted.RawText, nil
}

// write sends text to the output file or stdout.
func (out OutputFlags) write(rt *Runtime, text string) error {
	return writeText(rt, out.Output, text)
}

func writeText(rt *Runtime, path, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if path != "" {
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(rt.Stderr, "Written to %s\n", path)
		return nil
	}
	if _, err := io.WriteString(rt.Stdout, text); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
