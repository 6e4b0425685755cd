// Package commands provides CLI command handlers for oasplit.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasplit/internal/cliutil"
	"github.com/erraggy/oasplit/internal/config"
	"github.com/erraggy/oasplit/loader"
	"github.com/erraggy/oasplit/logging"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// Stdout, Stderr and Stdin are the streams commands use. Tests replace them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
	Stdin  io.Reader = os.Stdin
)

// Writef writes formatted output to the writer.
func Writef(w io.Writer, format string, args ...any) {
	cliutil.Writef(w, format, args...)
}

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("invalid format '%s'. Valid formats: %s", format, strings.Join(allowed, ", "))
}

// OutputStructured writes data to Stdout as JSON or YAML.
func OutputStructured(data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}

	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	Writef(Stdout, "%s\n", strings.TrimSuffix(string(bytes), "\n"))
	return nil
}

// FormatSpecPath returns a display-friendly path for a document source.
// Returns "<stdin>" if the path is StdinFilePath, otherwise returns the path as-is.
func FormatSpecPath(specPath string) string {
	if specPath == StdinFilePath {
		return "<stdin>"
	}
	return specPath
}

// stringList is a repeatable string flag. Each value may also hold a comma
// separated list.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

// parseArgs parses args and reports which flags were set explicitly.
// A help request returns flag.ErrHelp.
func parseArgs(fs *flag.FlagSet, args []string) (map[string]bool, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set, nil
}

// isHelp reports whether err is a help request, which is not a failure.
func isHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// newLoader builds a loader from the process configuration.
func newLoader(cfg *config.Config, log logging.Logger) *loader.Loader {
	return loader.New(
		loader.WithUserAgent(cfg.HTTP.UserAgent),
		loader.WithTimeout(cfg.HTTP.Timeout),
		loader.WithMaxSize(cfg.HTTP.MaxSize),
		loader.WithLogger(log),
	)
}

// loadSpecs loads every source in order. StdinFilePath reads Stdin.
func loadSpecs(ctx context.Context, l *loader.Loader, sources []string) ([]*loader.Document, error) {
	docs := make([]*loader.Document, 0, len(sources))
	for _, src := range sources {
		var (
			doc *loader.Document
			err error
		)
		if src == StdinFilePath {
			doc, err = l.LoadReader(Stdin, "stdin")
		} else {
			doc, err = l.Load(ctx, src)
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", FormatSpecPath(src), err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// useColor reports whether Stderr is a terminal that should get colors.
func useColor() bool {
	if color.NoColor {
		return false
	}
	f, ok := Stderr.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// palette holds the summary colors, plain when colors are off.
type palette struct {
	title, ok, warn, dim *color.Color
}

func newPalette() palette {
	p := palette{
		title: color.New(color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		dim:   color.New(color.Faint),
	}
	if !useColor() {
		for _, c := range []*color.Color{p.title, p.ok, p.warn, p.dim} {
			c.DisableColor()
		}
	}
	return p
}
