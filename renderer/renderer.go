// Package renderer serializes fragments.
//
// A fragment is rendered by embedding it into the document skeleton: the
// working document holds every top-level member of the skeleton in source
// order, followed by a "paths" member holding only the fragment. Path
// fragments render as {path: methodMap}; operation fragments render as
// {path: {METHOD: operation}}.
//
// Two dialects are supported. YAML output is produced by go.yaml.in/yaml/v4.
// JSON output is written directly from the node tree so that key order is
// preserved exactly; encoding/json would sort map keys.
package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/oaserrors"
)

// Format is an output dialect.
type Format string

const (
	// FormatYAML renders block-style YAML.
	FormatYAML Format = "yaml"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat converts a user-supplied name ("yaml", "yml", "json") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", &oaserrors.ConfigError{Option: "format", Value: s, Message: "must be yaml or json"}
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".yaml"
}

// String implements fmt.Stringer.
func (f Format) String() string { return string(f) }

// DefaultIndent is the indentation width for both dialects.
const DefaultIndent = 2

// Renderer renders fragments and skeletons to text. A Renderer is safe for
// concurrent use once configured.
type Renderer struct {
	// Format selects the dialect. Empty means FormatYAML.
	Format Format
	// SourceMethodKeys renders operation fragments under the method key as
	// spelled in the source instead of the uppercased method.
	SourceMethodKeys bool
	// Indent is the indentation width. Zero means DefaultIndent.
	Indent int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFormat sets the dialect.
func WithFormat(f Format) Option {
	return func(r *Renderer) { r.Format = f }
}

// WithSourceMethodKeys renders operation method keys in source spelling.
func WithSourceMethodKeys(enabled bool) Option {
	return func(r *Renderer) { r.SourceMethodKeys = enabled }
}

// WithIndent sets the indentation width.
func WithIndent(n int) Option {
	return func(r *Renderer) { r.Indent = n }
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{Format: FormatYAML}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders f embedded in skeleton.
func (r *Renderer) Render(skeleton document.Node, f fragment.Fragment) (string, error) {
	doc := r.WorkingDocument(skeleton, f)
	text, err := r.encode(doc)
	if err != nil {
		renderErr := asRenderError(err, r.format())
		renderErr.Kind = string(f.Kind())
		renderErr.Path = f.Path()
		if op, ok := f.(*fragment.OperationFragment); ok {
			renderErr.Method = op.Method
		}
		return "", renderErr
	}
	return text, nil
}

// RenderSkeleton renders the skeleton alone.
func (r *Renderer) RenderSkeleton(skeleton document.Node) (string, error) {
	root := document.Root(skeleton)
	if root == nil {
		root = document.NewMapping()
	}
	text, err := r.encode(root)
	if err != nil {
		renderErr := asRenderError(err, r.format())
		renderErr.Kind = "skeleton"
		return "", renderErr
	}
	return text, nil
}

// WorkingDocument builds the document that Render serializes: the skeleton's
// members in order plus a "paths" member holding only f. The skeleton is not
// modified. A "paths" member left in the skeleton is replaced in place.
func (r *Renderer) WorkingDocument(skeleton document.Node, f fragment.Fragment) document.Node {
	var body document.Node
	switch f := f.(type) {
	case *fragment.PathFragment:
		body = f.Body()
	case *fragment.OperationFragment:
		key := f.Method
		if r.SourceMethodKeys {
			key = f.SourceKey
		}
		body = document.NewMapping(document.Pair{Key: key, Value: f.Body})
	}
	paths := document.NewMapping(document.Pair{Key: f.Path(), Value: body})
	return document.With(document.Root(skeleton), "paths", paths)
}

func (r *Renderer) format() Format {
	if r.Format == "" {
		return FormatYAML
	}
	return r.Format
}

func (r *Renderer) indent() int {
	if r.Indent > 0 {
		return r.Indent
	}
	return DefaultIndent
}

func (r *Renderer) encode(n document.Node) (string, error) {
	switch r.format() {
	case FormatJSON:
		data, err := MarshalJSON(n, r.indent())
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatYAML:
		data, err := MarshalYAML(n, r.indent())
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", &oaserrors.ConfigError{Option: "format", Value: string(r.Format), Message: "must be yaml or json"}
	}
}

// MarshalYAML encodes n as block YAML with the given indentation. Scalars
// holding invalid UTF-8 are rejected.
func MarshalYAML(n document.Node, indent int) ([]byte, error) {
	if err := checkUTF8(n, make(map[*yaml.Node]bool)); err != nil {
		return nil, asRenderError(err, FormatYAML)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(n); err != nil {
		return nil, &oaserrors.RenderError{Format: string(FormatYAML), Cause: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &oaserrors.RenderError{Format: string(FormatYAML), Cause: err}
	}
	return buf.Bytes(), nil
}

// asRenderError returns err as a *RenderError, wrapping it when needed.
func asRenderError(err error, f Format) *oaserrors.RenderError {
	var re *oaserrors.RenderError
	if errors.As(err, &re) {
		if re.Format == "" {
			re.Format = string(f)
		}
		return re
	}
	return &oaserrors.RenderError{Format: string(f), Cause: err}
}

func errorf(format string, args ...any) *oaserrors.RenderError {
	return &oaserrors.RenderError{Message: fmt.Sprintf(format, args...)}
}
