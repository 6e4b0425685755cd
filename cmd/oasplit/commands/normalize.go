package commands

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/erraggy/oasplit/internal/pathutil"
	"github.com/erraggy/oasplit/normalizer"
)

// NormalizeFlags contains flags for the normalize command
type NormalizeFlags struct {
	Format string
}

// NormalizedPath is one row of normalize output.
type NormalizedPath struct {
	Raw       string   `json:"raw" yaml:"raw"`
	Canonical string   `json:"canonical" yaml:"canonical"`
	Resource  string   `json:"resource" yaml:"resource"`
	Params    []string `json:"params,omitempty" yaml:"params,omitempty"`
}

// SetupNormalizeFlags creates and configures a FlagSet for the normalize command.
func SetupNormalizeFlags() (*flag.FlagSet, *NormalizeFlags) {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	flags := &NormalizeFlags{}

	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		output := fs.Output()
		Writef(output, "Usage: oasplit normalize [flags] <route>...\n\n")
		Writef(output, "Print the canonical form, resource key, and template parameters of raw\n")
		Writef(output, "routes. A leading api segment and a following version segment are dropped.\n\n")
		Writef(output, "Flags:\n")
		fs.PrintDefaults()
		Writef(output, "\nExamples:\n")
		Writef(output, "  oasplit normalize /api/v1/users/{id}\n")
		Writef(output, "  oasplit normalize -format json /v2/orders /orders/{orderId}/items\n")
	}

	return fs, flags
}

// HandleNormalize executes the normalize command
func HandleNormalize(args []string) error {
	fs, flags := SetupNormalizeFlags()
	fs.SetOutput(Stderr)

	if _, err := parseArgs(fs, args); err != nil {
		if isHelp(err) {
			return nil
		}
		return err
	}
	if err := ValidateOutputFormat(flags.Format, FormatText, FormatJSON, FormatYAML); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("normalize command requires at least one route")
	}

	rows := make([]NormalizedPath, 0, fs.NArg())
	for _, raw := range fs.Args() {
		canonical := normalizer.Normalize(raw)
		rows = append(rows, NormalizedPath{
			Raw:       raw,
			Canonical: canonical,
			Resource:  normalizer.ResourceKey(canonical),
			Params:    pathutil.PathParams(canonical),
		})
	}

	if flags.Format != FormatText {
		return OutputStructured(rows, flags.Format)
	}
	tw := tabwriter.NewWriter(Stdout, 0, 4, 2, ' ', 0)
	Writef(tw, "RAW\tCANONICAL\tRESOURCE\n")
	for _, r := range rows {
		Writef(tw, "%s\t%s\t%s\n", r.Raw, r.Canonical, r.Resource)
	}
	return tw.Flush()
}
