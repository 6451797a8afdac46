package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mcncl/objtree/internal/analyzer"
	"github.com/mcncl/objtree/internal/config"
	"github.com/mcncl/objtree/internal/errors"
	"github.com/mcncl/objtree/internal/formatter"
	"github.com/mcncl/objtree/internal/generator"
	"github.com/mcncl/objtree/internal/logging"
	"github.com/mcncl/objtree/internal/parser"
	"github.com/mcncl/objtree/internal/schema"
	"github.com/mcncl/objtree/node"
)

// CLI defines the command-line interface
var CLI struct {
	Assignments []string `arg:"" optional:"" help:"Assignments in the form path[:type]=value. A bare path assigns null."`

	Input          string  `help:"Path to a base JSON document. Use - to read from stdin." short:"i"`
	Output         string  `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Schema         string  `help:"Path to a JSON Schema whose defaults seed the document." short:"s" type:"path"`
	Config         string  `help:"Path to configuration file." short:"c" type:"path"`
	Pretty         *bool   `help:"Pretty-print the output." short:"p"`
	SortKeys       *bool   `help:"Sort object keys in the output." name:"sort-keys"`
	Format         *string `help:"Output format (json, yaml)." short:"f"`
	Naming         *string `help:"Key naming style (none, snake, camel, lower_camel, kebab)."`
	FloatPrecision *string `help:"Precision for inferred decimals (double, float)." name:"float-precision"`
	Debug          bool    `help:"Enable debug logging." short:"d"`
	Version        bool    `help:"Show version information." short:"v"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	// Parse CLI arguments with Kong
	cli := kong.Must(&CLI,
		kong.Name("objtree"),
		kong.Description("Build nested JSON objects from key=value assignments"),
		kong.UsageOnError(),
	)

	if _, err := cli.Parse(os.Args[1:]); err != nil {
		// The usage is already shown by kong.UsageOnError()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Show version and exit if requested
	if CLI.Version {
		fmt.Printf("objtree version %s\n", Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx := &Context{Debug: cfg.Dev.Debug, Config: cfg}
	initLogging(ctx)

	if err := run(ctx); err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		logging.Debug().Err(err).Msg("run failed")

		fmt.Fprintf(os.Stderr, "\nFor help, run: objtree --help\n")
		os.Exit(1)
	}
}

// loadConfig resolves the config file and applies explicitly set flags on top
func loadConfig() (*config.Config, error) {
	path := CLI.Config
	if path == "" {
		path = config.FindConfigFile()
	}

	overrides := config.Overrides{
		Format:         CLI.Format,
		Pretty:         CLI.Pretty,
		SortKeys:       CLI.SortKeys,
		Naming:         CLI.Naming,
		FloatPrecision: CLI.FloatPrecision,
	}
	if CLI.Debug {
		overrides.Debug = &CLI.Debug
	}

	return config.LoadConfigWithCLI(path, overrides)
}

func initLogging(ctx *Context) {
	logCfg := logging.DefaultConfig()
	if ctx.Config != nil && ctx.Config.Dev.LogLevel != "" {
		logCfg.Level = logging.ParseLevel(ctx.Config.Dev.LogLevel)
	}
	if ctx.Debug {
		logCfg.Level = logging.DebugLevel
	}
	logging.Init(logCfg)
}

// run executes the main program logic
func run(ctx *Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	gen := generator.NewGeneratorWithConfig(cfg)

	// 1. Seed from the schema, then lay the base document over it
	skeleton, err := loadSkeleton()
	if err != nil {
		return err
	}

	base, err := parseInput(cfg)
	if err != nil {
		return err
	}
	if skeleton != nil {
		base = gen.Merge(skeleton, base)
	}

	// 2. Parse assignments
	doc, err := analyzer.NewAnalyzerWithConfig(cfg).Analyze(CLI.Assignments)
	if err != nil {
		return err
	}
	logging.Debug().Int("assignments", len(doc.Assignments)).Msg("parsed assignments")

	// 3. Build the document
	result, err := gen.Generate(base, doc)
	if err != nil {
		return err
	}

	// 4. Render
	out, err := formatter.NewFormatter().Format(result, formatter.Options{
		Format:   cfg.Output.Format,
		Pretty:   cfg.Output.Pretty,
		Indent:   cfg.Output.Indent,
		SortKeys: cfg.Output.SortKeys,
	})
	if err != nil {
		return err
	}

	// 5. Output the result
	return writeOutput(out)
}

// loadSkeleton builds the schema skeleton, or returns nil without a schema
func loadSkeleton() (*node.ObjectNode, error) {
	if CLI.Schema == "" {
		return nil, nil
	}

	s, err := schema.ParseFile(CLI.Schema)
	if err != nil {
		return nil, err
	}
	skeleton, err := schema.NewConverter(s).Skeleton(node.Instance)
	if err != nil {
		return nil, err
	}
	logging.Debug().
		Str("schema", CLI.Schema).
		Str("title", s.Title).
		Int("keys", skeleton.Size()).
		Msg("loaded schema skeleton")
	return skeleton, nil
}

// parseInput reads the base document from a file or stdin. Without --input
// there is no base document.
func parseInput(cfg *config.Config) (*node.ObjectNode, error) {
	opts := parser.Options{PreferFloat: cfg.Types.FloatPrecision == config.PrecisionFloat}

	switch CLI.Input {
	case "":
		return nil, nil
	case "-":
		stdinInfo, err := os.Stdin.Stat()
		if err != nil {
			return nil, errors.NewInputError("failed to access stdin", err)
		}
		if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
			return nil, errors.NewInputError("no input piped to stdin", errors.ErrEmptyInput)
		}
		return parser.ParseWithOptions(os.Stdin, opts)
	default:
		return parser.ParseFile(CLI.Input, opts)
	}
}

// writeOutput writes the document to file or stdout
func writeOutput(out string) error {
	if CLI.Output != "" {
		// Write to file
		err := os.WriteFile(CLI.Output, []byte(out+"\n"), 0644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		logging.Info().Str("path", CLI.Output).Msg("output written")
		return nil
	}

	// Write to stdout
	_, err := fmt.Println(strings.TrimSpace(out))
	if err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
