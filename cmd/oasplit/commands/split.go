package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erraggy/oasplit"
	"github.com/erraggy/oasplit/internal/config"
	"github.com/erraggy/oasplit/loader"
	"github.com/erraggy/oasplit/processor"
	"github.com/erraggy/oasplit/renderer"
)

// SplitFlags contains flags for the split command
type SplitFlags struct {
	Output           string
	Format           string
	Workers          int
	Endpoints        stringList
	Prune            bool
	MethodsOnly      bool
	SourceMethodKeys bool
	Config           string
	Quiet            bool
	Verbose          bool
}

// SetupSplitFlags creates and configures a FlagSet for the split command.
// Returns the FlagSet and a SplitFlags struct with bound flag variables.
func SetupSplitFlags() (*flag.FlagSet, *SplitFlags) {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	flags := &SplitFlags{}

	fs.StringVar(&flags.Output, "o", "", "write one file per record into this directory (default: print records to stdout)")
	fs.StringVar(&flags.Output, "output", "", "write one file per record into this directory (default: print records to stdout)")
	fs.StringVar(&flags.Format, "format", "", "record format: yaml or json (default from config, yaml)")
	fs.IntVar(&flags.Workers, "workers", 0, "goroutines per stage (0 = GOMAXPROCS)")
	fs.Var(&flags.Endpoints, "endpoint", "keep only records whose canonical path starts with this prefix (repeatable)")
	fs.BoolVar(&flags.Prune, "prune", false, "keep only the schemas each record references")
	fs.BoolVar(&flags.MethodsOnly, "methods-only", false, "emit verb records only for HTTP methods")
	fs.BoolVar(&flags.SourceMethodKeys, "source-method-keys", false, "render verb records under the method key as spelled in the source")
	fs.StringVar(&flags.Config, "config", "", "config file (yaml, json, or toml)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: no summary, errors only")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: no summary, errors only")
	fs.BoolVar(&flags.Verbose, "v", false, "verbose logging")

	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: oasplit split [flags] <file|url|->...\n\n")
		Writef(output, "Split OpenAPI documents into path records (one per resource) and verb\n")
		Writef(output, "records (one per canonical path and method). Several documents are merged;\n")
		Writef(output, "later documents win for operations, the first wins for shared top-level members.\n\n")
		Writef(output, "Flags:\n")
		fs.PrintDefaults()
		Writef(output, "\nExamples:\n")
		Writef(output, "  oasplit split openapi.yaml\n")
		Writef(output, "  oasplit split -o fragments -format json openapi.yaml\n")
		Writef(output, "  oasplit split -endpoint /users -prune https://example.com/openapi.yaml\n")
		Writef(output, "  cat openapi.yaml | oasplit split -q -\n")
		Writef(output, "\nOutput:\n")
		Writef(output, "  With -o, the directory receives _skeleton.<ext> and one file per record.\n")
		Writef(output, "  Without -o, records are printed to stdout in the record format.\n")
		Writef(output, "  The summary goes to stderr.\n")
	}

	return fs, flags
}

// HandleSplit executes the split command
func HandleSplit(args []string) error {
	fs, flags := SetupSplitFlags()
	fs.SetOutput(Stderr)

	set, err := parseArgs(fs, args)
	if err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("split command requires at least one file path, URL, or '-' for stdin")
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	applySplitConfig(flags, set, cfg)

	format, err := renderer.ParseFormat(flags.Format)
	if err != nil {
		return err
	}

	log := newLogger(flags.Verbose, flags.Quiet)
	defer func() { _ = log.Sync() }()

	start := time.Now()
	docs, err := loadSpecs(context.Background(), newLoader(cfg, log), fs.Args())
	if err != nil {
		return err
	}

	p := &processor.Processor{
		Workers:          flags.Workers,
		Format:           format,
		Endpoints:        flags.Endpoints,
		PruneComponents:  flags.Prune,
		MethodsOnly:      flags.MethodsOnly,
		SourceMethodKeys: flags.SourceMethodKeys,
		Logger:           log,
	}
	result, err := p.ProcessDocuments(docs...)
	if err != nil {
		return err
	}

	var written []string
	if flags.Output != "" {
		written, err = WriteRecords(flags.Output, result)
		if err != nil {
			return err
		}
	} else if err := outputRecords(result); err != nil {
		return err
	}

	if !flags.Quiet {
		printSplitSummary(docs, result, flags.Output, len(written), time.Since(start))
	}
	return nil
}

// applySplitConfig fills flags the user did not set from the configuration.
func applySplitConfig(flags *SplitFlags, set map[string]bool, cfg *config.Config) {
	if !set["format"] {
		flags.Format = cfg.Split.Format
	}
	if !set["workers"] {
		flags.Workers = cfg.Split.Workers
	}
	if !set["endpoint"] {
		flags.Endpoints = cfg.Split.Endpoints
	}
	if !set["prune"] {
		flags.Prune = cfg.Split.PruneComponents
	}
	if !set["methods-only"] {
		flags.MethodsOnly = cfg.Split.MethodsOnly
	}
	if !set["source-method-keys"] {
		flags.SourceMethodKeys = cfg.Split.SourceMethodKeys
	}
}

// outputRecords prints the skeleton and records to Stdout in the record
// format.
func outputRecords(result *processor.Result) error {
	out := struct {
		Skeleton string             `json:"skeleton" yaml:"skeleton"`
		BaseURL  string             `json:"base_url,omitempty" yaml:"base_url,omitempty"`
		Records  []processor.Record `json:"records" yaml:"records"`
	}{result.Skeleton, result.BaseURL, result.Records}
	return OutputStructured(out, string(result.Format))
}

func printSplitSummary(docs []*loader.Document, result *processor.Result, dir string, files int, total time.Duration) {
	p := newPalette()
	s := result.Stats

	p.title.Fprintf(Stderr, "OpenAPI Document Splitter\n") //nolint:errcheck
	p.title.Fprintf(Stderr, "=========================\n\n") //nolint:errcheck
	Writef(Stderr, "oasplit version: %s\n", oasplit.Version())
	for _, d := range docs {
		Writef(Stderr, "Document: %s (%s, %s)\n", FormatSpecPath(d.Source), d.Format, loader.FormatBytes(d.Size))
	}
	if result.BaseURL != "" {
		Writef(Stderr, "Base URL: %s\n", result.BaseURL)
	}
	Writef(Stderr, "Routes: %d\n", s.Routes)
	Writef(Stderr, "Canonical Paths: %d\n", s.Groups)
	Writef(Stderr, "Path Records: %d\n", s.PathFragments)
	Writef(Stderr, "Verb Records: %d\n", s.OperationFragments)
	p.dim.Fprintf(Stderr, "Load Time: %v\n", s.LoadTime)       //nolint:errcheck
	p.dim.Fprintf(Stderr, "Process Time: %v\n", s.ProcessTime) //nolint:errcheck
	p.dim.Fprintf(Stderr, "Total Time: %v\n\n", total)         //nolint:errcheck

	if len(result.Warnings) > 0 {
		p.warn.Fprintf(Stderr, "Warnings (%d):\n", len(result.Warnings)) //nolint:errcheck
		for _, w := range result.Warnings {
			Writef(Stderr, "  - %s\n", w)
		}
		Writef(Stderr, "\n")
	}

	if dir != "" {
		p.ok.Fprintf(Stderr, "✓ Wrote %d files to %s\n", files, dir) //nolint:errcheck
		return
	}
	p.ok.Fprintf(Stderr, "✓ Split completed successfully!\n") //nolint:errcheck
}

// fileMode is the permission of written record files.
const fileMode os.FileMode = 0o600
