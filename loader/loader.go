// Package loader reads OpenAPI documents from files, URLs, readers, and byte
// slices and decodes them into document trees.
//
// The source format is decided in this order: the file or URL path
// extension, then the HTTP Content-Type, then the first non-blank byte of
// the content. When none of these settle it, JSON is tried and then YAML,
// and if both fail the error reports both failures. The decoded root must
// be a mapping.
//
// URL sources share one package-level http.Client so connections are
// reused across loads. Per-load timeouts are applied through the request
// context.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/erraggy/oasplit"
	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/logging"
	"github.com/erraggy/oasplit/oaserrors"
)

const (
	// DefaultTimeout bounds a single URL fetch.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxSize is the largest source accepted, in bytes.
	DefaultMaxSize int64 = 64 << 20
)

// sharedClient serves every Loader that has no HTTPClient of its own.
var sharedClient = &http.Client{}

// Document is a decoded source.
type Document struct {
	// Root is the root mapping node.
	Root document.Node
	// Source is the file path or URL the document was read from, or a
	// caller-supplied name for readers and byte slices.
	Source string
	// Format is the format the content was decoded as.
	Format SourceFormat
	// Size is the content length in bytes.
	Size int64
	// LoadTime is the time spent reading and decoding.
	LoadTime time.Duration
}

// Loader reads documents. The zero value is not usable; call New.
type Loader struct {
	// HTTPClient fetches URL sources. Nil means the shared client.
	HTTPClient *http.Client
	// UserAgent is sent with URL requests.
	UserAgent string
	// Timeout bounds each URL fetch. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxSize rejects larger sources. Zero means DefaultMaxSize.
	MaxSize int64
	// Logger receives debug output. Nil disables logging.
	Logger logging.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.HTTPClient = c }
}

// WithUserAgent sets the User-Agent header for URL sources.
func WithUserAgent(ua string) Option {
	return func(l *Loader) { l.UserAgent = ua }
}

// WithTimeout sets the per-fetch timeout for URL sources.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.Timeout = d }
}

// WithMaxSize sets the largest accepted source in bytes.
func WithMaxSize(n int64) Option {
	return func(l *Loader) { l.MaxSize = n }
}

// WithLogger sets the logger.
func WithLogger(log logging.Logger) Option {
	return func(l *Loader) { l.Logger = log }
}

// New creates a Loader with defaults applied.
func New(opts ...Option) *Loader {
	l := &Loader{
		UserAgent: oasplit.UserAgent(),
		Timeout:   DefaultTimeout,
		MaxSize:   DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) log() logging.Logger {
	return logging.OrNop(l.Logger)
}

func (l *Loader) maxSize() int64 {
	if l.MaxSize > 0 {
		return l.MaxSize
	}
	return DefaultMaxSize
}

// Load reads source as a URL when it starts with http:// or https://,
// otherwise as a file path.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	if IsURL(source) {
		return l.LoadURL(ctx, source)
	}
	return l.LoadFile(source)
}

// LoadFile reads and decodes a file.
func (l *Loader) LoadFile(path string) (*Document, error) {
	start := time.Now()
	f, err := os.Open(path) //nolint:gosec // path is user-provided input
	if err != nil {
		return nil, &oaserrors.LoadError{Source: path, Message: "cannot open file", Cause: err}
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := l.readAll(f, path)
	if err != nil {
		return nil, err
	}
	return l.decode(data, path, detectFormatFromPath(path), start)
}

// LoadURL fetches and decodes a URL.
func (l *Loader) LoadURL(ctx context.Context, rawURL string) (*Document, error) {
	start := time.Now()
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &oaserrors.LoadError{Source: rawURL, Message: "invalid request", Cause: err}
	}
	ua := l.UserAgent
	if ua == "" {
		ua = oasplit.UserAgent()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	client := l.HTTPClient
	if client == nil {
		client = sharedClient
	}
	resp, err := client.Do(req) //nolint:gosec // URL is user-provided input
	if err != nil {
		return nil, &oaserrors.LoadError{Source: rawURL, Message: "request failed", Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &oaserrors.LoadError{Source: rawURL, StatusCode: resp.StatusCode, Message: resp.Status}
	}

	data, err := l.readAll(resp.Body, rawURL)
	if err != nil {
		return nil, err
	}
	return l.decode(data, rawURL, detectFormatFromURL(rawURL, resp.Header.Get("Content-Type")), start)
}

// LoadReader reads r to the end and decodes it. name identifies the source
// in errors and may carry an extension that decides the format.
func (l *Loader) LoadReader(r io.Reader, name string) (*Document, error) {
	start := time.Now()
	data, err := l.readAll(r, name)
	if err != nil {
		return nil, err
	}
	return l.decode(data, name, detectFormatFromPath(name), start)
}

// LoadBytes decodes data. A known format skips detection.
func (l *Loader) LoadBytes(data []byte, name string, format SourceFormat) (*Document, error) {
	if int64(len(data)) > l.maxSize() {
		return nil, l.tooLarge(name)
	}
	if format == SourceFormatUnknown || format == "" {
		format = detectFormatFromPath(name)
	}
	return l.decode(data, name, format, time.Now())
}

func (l *Loader) readAll(r io.Reader, source string) ([]byte, error) {
	limit := l.maxSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &oaserrors.LoadError{Source: source, Message: "read failed", Cause: err}
	}
	if int64(len(data)) > limit {
		return nil, l.tooLarge(source)
	}
	return data, nil
}

func (l *Loader) tooLarge(source string) error {
	return &oaserrors.LoadError{
		Source:  source,
		Message: fmt.Sprintf("source exceeds the %s limit", FormatBytes(l.maxSize())),
	}
}

func (l *Loader) decode(data []byte, source string, format SourceFormat, start time.Time) (*Document, error) {
	root, format, err := Decode(data, source, format)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Root:     root,
		Source:   source,
		Format:   format,
		Size:     int64(len(data)),
		LoadTime: time.Since(start),
	}
	l.log().Debug("loaded document",
		"source", source,
		"format", string(format),
		"size", FormatBytes(doc.Size),
		"elapsed", doc.LoadTime,
	)
	return doc, nil
}

// IsURL reports whether source is an http or https URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// FormatBytes formats a byte count using binary units (KiB, MiB, ...).
func FormatBytes(size int64) string {
	if size < 0 {
		return fmt.Sprintf("%d B", size)
	}

	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit && exp < 5; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
