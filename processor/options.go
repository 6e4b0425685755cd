package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erraggy/oasplit/internal/options"
	"github.com/erraggy/oasplit/loader"
	"github.com/erraggy/oasplit/logging"
	"github.com/erraggy/oasplit/oaserrors"
	"github.com/erraggy/oasplit/renderer"
)

// Option configures a ProcessWithOptions run.
type Option func(*processConfig) error

type processConfig struct {
	// Input source (exactly one must be set)
	filePath *string
	reader   io.Reader
	bytes    []byte

	sourceName  string
	inputFormat loader.SourceFormat

	// Loading
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	maxSize    int64

	processor Processor
}

// ProcessWithOptions loads one document and runs the pipeline over it.
//
// Example:
//
//	result, err := processor.ProcessWithOptions(ctx,
//	    processor.WithFilePath("openapi.yaml"),
//	    processor.WithFormat(renderer.FormatJSON),
//	)
func ProcessWithOptions(ctx context.Context, opts ...Option) (*Result, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("processor: invalid options: %w", err)
	}

	l := loader.New(
		loader.WithHTTPClient(cfg.httpClient),
		loader.WithUserAgent(cfg.userAgent),
		loader.WithTimeout(cfg.timeout),
		loader.WithMaxSize(cfg.maxSize),
		loader.WithLogger(cfg.processor.Logger),
	)

	var (
		doc     *loader.Document
		loadErr error
	)
	switch {
	case cfg.filePath != nil:
		doc, loadErr = l.Load(ctx, *cfg.filePath)
	case cfg.reader != nil:
		doc, loadErr = l.LoadReader(cfg.reader, cfg.sourceName)
	case cfg.bytes != nil:
		doc, loadErr = l.LoadBytes(cfg.bytes, cfg.sourceName, cfg.inputFormat)
	default:
		return nil, fmt.Errorf("processor: no input source specified")
	}
	if loadErr != nil {
		return nil, fmt.Errorf("processor: %w", loadErr)
	}

	p := cfg.processor
	return p.ProcessDocuments(doc)
}

func applyOptions(opts ...Option) (*processConfig, error) {
	cfg := &processConfig{
		sourceName:  "input",
		inputFormat: loader.SourceFormatUnknown,
		processor:   *New(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := options.ValidateSingleInputSource(
		"must specify an input source (use WithFilePath, WithReader, or WithBytes)",
		"must specify exactly one input source",
		cfg.filePath != nil, cfg.reader != nil, cfg.bytes != nil,
	); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithFilePath specifies a file path or http(s) URL as the input source.
func WithFilePath(path string) Option {
	return func(cfg *processConfig) error {
		cfg.filePath = &path
		return nil
	}
}

// WithReader specifies an io.Reader as the input source.
func WithReader(r io.Reader) Option {
	return func(cfg *processConfig) error {
		cfg.reader = r
		return nil
	}
}

// WithBytes specifies a byte slice as the input source.
func WithBytes(data []byte) Option {
	return func(cfg *processConfig) error {
		cfg.bytes = data
		return nil
	}
}

// WithSourceName names reader and byte inputs in errors. An extension in
// the name (".json", ".yaml") decides the input format.
func WithSourceName(name string) Option {
	return func(cfg *processConfig) error {
		cfg.sourceName = name
		return nil
	}
}

// WithInputFormat forces the input format of a byte input.
func WithInputFormat(f loader.SourceFormat) Option {
	return func(cfg *processConfig) error {
		cfg.inputFormat = f
		return nil
	}
}

// WithFormat sets the output dialect.
func WithFormat(f renderer.Format) Option {
	return func(cfg *processConfig) error {
		format, err := renderer.ParseFormat(string(f))
		if err != nil {
			return err
		}
		cfg.processor.Format = format
		return nil
	}
}

// WithWorkers bounds the goroutines of each stage. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(cfg *processConfig) error {
		if err := options.ValidateNonNegative("workers", n); err != nil {
			return err
		}
		cfg.processor.Workers = n
		return nil
	}
}

// WithEndpoints keeps only fragments under the given canonical path prefixes.
func WithEndpoints(prefixes ...string) Option {
	return func(cfg *processConfig) error {
		cfg.processor.Endpoints = append(cfg.processor.Endpoints, prefixes...)
		return nil
	}
}

// WithPruneComponents enables per-record schema pruning.
func WithPruneComponents(enabled bool) Option {
	return func(cfg *processConfig) error {
		cfg.processor.PruneComponents = enabled
		return nil
	}
}

// WithMethodsOnly restricts operation records to HTTP methods.
func WithMethodsOnly(enabled bool) Option {
	return func(cfg *processConfig) error {
		cfg.processor.MethodsOnly = enabled
		return nil
	}
}

// WithSourceMethodKeys renders operation records under the source method key.
func WithSourceMethodKeys(enabled bool) Option {
	return func(cfg *processConfig) error {
		cfg.processor.SourceMethodKeys = enabled
		return nil
	}
}

// WithLogger sets the logger for loading and processing.
func WithLogger(l logging.Logger) Option {
	return func(cfg *processConfig) error {
		cfg.processor.Logger = l
		return nil
	}
}

// WithHTTPClient sets the client used for URL inputs.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *processConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithUserAgent sets the User-Agent for URL inputs.
func WithUserAgent(ua string) Option {
	return func(cfg *processConfig) error {
		cfg.userAgent = ua
		return nil
	}
}

// WithTimeout bounds the fetch of a URL input.
func WithTimeout(d time.Duration) Option {
	return func(cfg *processConfig) error {
		if d < 0 {
			return &oaserrors.ConfigError{Option: "timeout", Value: d, Message: "must not be negative"}
		}
		cfg.timeout = d
		return nil
	}
}

// WithMaxSize rejects inputs larger than n bytes. Zero means the loader
// default.
func WithMaxSize(n int64) Option {
	return func(cfg *processConfig) error {
		cfg.maxSize = n
		return nil
	}
}
