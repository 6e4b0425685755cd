package commands

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/erraggy/oasplit/catalog"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/internal/config"
	"github.com/erraggy/oasplit/processor"
)

// SearchFlags contains flags for the search command
type SearchFlags struct {
	Query      string
	Method     string
	Kind       string
	PathPrefix string
	Limit      int
	Offset     int
	Format     string
	Config     string
	Verbose    bool
}

// SearchHit is one row of search output.
type SearchHit struct {
	Score    float64 `json:"score" yaml:"score"`
	Kind     string  `json:"kind" yaml:"kind"`
	Method   string  `json:"method,omitempty" yaml:"method,omitempty"`
	Path     string  `json:"path" yaml:"path"`
	Resource string  `json:"resource" yaml:"resource"`
	ID       string  `json:"id" yaml:"id"`
}

// SetupSearchFlags creates and configures a FlagSet for the search command.
func SetupSearchFlags() (*flag.FlagSet, *SearchFlags) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	flags := &SearchFlags{}

	fs.StringVar(&flags.Query, "query", "", "free text matched against operationId, summary, description, tags, path, and parameters")
	fs.StringVar(&flags.Method, "method", "", "keep only verb records with this HTTP method")
	fs.StringVar(&flags.Kind, "kind", "", "keep only records of this kind: path or verb")
	fs.StringVar(&flags.PathPrefix, "prefix", "", "keep only records whose canonical path starts with this prefix")
	fs.IntVar(&flags.Limit, "limit", 0, "maximum number of hits (default from config)")
	fs.IntVar(&flags.Offset, "offset", 0, "skip the first N hits")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.StringVar(&flags.Config, "config", "", "config file (yaml, json, or toml)")
	fs.BoolVar(&flags.Verbose, "v", false, "verbose logging")

	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: oasplit search [flags] <file|url|->\n\n")
		Writef(output, "Split an OpenAPI document and search its records. Hits are ordered by relevance.\n\n")
		Writef(output, "Flags:\n")
		fs.PrintDefaults()
		Writef(output, "\nExamples:\n")
		Writef(output, "  oasplit search -query \"list pets\" openapi.yaml\n")
		Writef(output, "  oasplit search -method post -kind verb -format json openapi.yaml\n")
		Writef(output, "  oasplit search -prefix /stores https://example.com/openapi.yaml\n")
	}

	return fs, flags
}

// HandleSearch executes the search command
func HandleSearch(args []string) error {
	fs, flags := SetupSearchFlags()
	fs.SetOutput(Stderr)

	set, err := parseArgs(fs, args)
	if err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}
	if err := ValidateOutputFormat(flags.Format, FormatText, FormatJSON, FormatYAML); err != nil {
		return err
	}
	kind := fragment.Kind(flags.Kind)
	if kind != "" && kind != fragment.KindPath && kind != fragment.KindVerb {
		return fmt.Errorf("invalid kind '%s'. Valid kinds: path, verb", flags.Kind)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("search command requires exactly one file path, URL, or '-' for stdin")
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	if !set["limit"] {
		flags.Limit = cfg.Search.Limit
	}

	log := newLogger(flags.Verbose, false)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	docs, err := loadSpecs(ctx, newLoader(cfg, log), fs.Args())
	if err != nil {
		return err
	}
	p := &processor.Processor{
		Workers:     cfg.Split.Workers,
		Format:      cfg.OutputFormat(),
		MethodsOnly: cfg.Split.MethodsOnly,
		Logger:      log,
	}
	result, err := p.ProcessDocuments(docs...)
	if err != nil {
		return err
	}

	cat, err := catalog.FromResult(result)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	res, err := cat.Search(ctx, catalog.Query{
		Text:       flags.Query,
		Method:     flags.Method,
		Kind:       kind,
		PathPrefix: flags.PathPrefix,
		Limit:      flags.Limit,
		Offset:     flags.Offset,
	})
	if err != nil {
		return err
	}

	hits := make([]SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, SearchHit{
			Score:    h.Score,
			Kind:     string(h.Record.Kind),
			Method:   h.Record.Method,
			Path:     h.Record.CanonicalPath,
			Resource: h.Record.ResourceKey,
			ID:       h.Record.ID,
		})
	}

	if flags.Format != FormatText {
		return OutputStructured(struct {
			Total int         `json:"total" yaml:"total"`
			Hits  []SearchHit `json:"hits" yaml:"hits"`
		}{res.Total, hits}, flags.Format)
	}

	tw := tabwriter.NewWriter(Stdout, 0, 4, 2, ' ', 0)
	Writef(tw, "SCORE\tKIND\tMETHOD\tPATH\n")
	for _, h := range hits {
		Writef(tw, "%.3f\t%s\t%s\t%s\n", h.Score, h.Kind, h.Method, h.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	Writef(Stderr, "%d of %d matching records\n", len(hits), res.Total)
	return nil
}
