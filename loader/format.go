package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/internal/httputil"
	"github.com/erraggy/oasplit/oaserrors"
)

// SourceFormat is the serialization format of a source.
type SourceFormat string

const (
	// SourceFormatYAML indicates YAML content.
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatJSON indicates JSON content.
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatUnknown indicates the format has not been determined.
	SourceFormatUnknown SourceFormat = "unknown"
)

// ParseSourceFormat converts a user-supplied name to a SourceFormat. The
// empty string and "auto" mean SourceFormatUnknown.
func ParseSourceFormat(s string) (SourceFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return SourceFormatUnknown, nil
	case "json":
		return SourceFormatJSON, nil
	case "yaml", "yml":
		return SourceFormatYAML, nil
	default:
		return "", &oaserrors.ConfigError{Option: "input format", Value: s, Message: "must be auto, json or yaml"}
	}
}

// detectFormatFromPath detects the format from a file extension.
func detectFormatFromPath(path string) SourceFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SourceFormatJSON
	case ".yaml", ".yml":
		return SourceFormatYAML
	default:
		return SourceFormatUnknown
	}
}

// detectFormatFromURL detects the format from the URL path extension, then
// from the Content-Type header.
func detectFormatFromURL(rawURL, contentType string) SourceFormat {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		if format := detectFormatFromPath(u.Path); format != SourceFormatUnknown {
			return format
		}
	}
	mt := httputil.MediaType(contentType)
	switch {
	case httputil.IsJSONMediaType(mt):
		return SourceFormatJSON
	case httputil.IsYAMLMediaType(mt):
		return SourceFormatYAML
	}
	return SourceFormatUnknown
}

// detectFormatFromContent sniffs the first non-blank byte. JSON documents
// start with '{' or '['. A YAML directive, document marker, or comment marks
// YAML. Anything else is undecided.
func detectFormatFromContent(data []byte) SourceFormat {
	trimmed := bytes.TrimLeft(data, " \t\n\r\ufeff")
	if len(trimmed) == 0 {
		return SourceFormatUnknown
	}
	switch trimmed[0] {
	case '{', '[':
		return SourceFormatJSON
	case '%', '#':
		return SourceFormatYAML
	}
	if bytes.HasPrefix(trimmed, []byte("---")) {
		return SourceFormatYAML
	}
	return SourceFormatUnknown
}

// Decode decodes data as format and returns the root mapping together with
// the format actually used. source only labels errors.
//
// A known format is decoded strictly. Otherwise the content is sniffed:
// YAML markers decode as YAML, and everything else is tried as JSON and then
// as YAML, since YAML flow mappings also start with '{'.
func Decode(data []byte, source string, format SourceFormat) (document.Node, SourceFormat, error) {
	var (
		root document.Node
		err  error
	)
	switch format {
	case SourceFormatJSON, SourceFormatYAML:
		root, err = decodeAs(data, source, format)
	default:
		if detectFormatFromContent(data) == SourceFormatYAML {
			format = SourceFormatYAML
			root, err = decodeAs(data, source, format)
		} else {
			root, format, err = decodeEither(data, source)
		}
	}
	if err != nil {
		return nil, format, err
	}

	if !document.IsMapping(root) {
		return nil, format, &oaserrors.ParseError{
			Path:    source,
			Format:  string(format),
			Message: "document root is a " + document.KindName(root) + ", expected a mapping",
		}
	}
	return root, format, nil
}

// decodeEither tries JSON and then YAML. When both fail the returned
// ParseError wraps both failures.
func decodeEither(data []byte, source string) (document.Node, SourceFormat, error) {
	root, jsonErr := decodeAs(data, source, SourceFormatJSON)
	if jsonErr == nil {
		return root, SourceFormatJSON, nil
	}
	root, yamlErr := decodeAs(data, source, SourceFormatYAML)
	if yamlErr == nil {
		return root, SourceFormatYAML, nil
	}
	if errors.Is(jsonErr, document.ErrEmpty) {
		return nil, SourceFormatUnknown, &oaserrors.ParseError{Path: source, Message: "document is empty", Cause: document.ErrEmpty}
	}
	return nil, SourceFormatUnknown, &oaserrors.ParseError{
		Path:    source,
		Message: "content is neither valid JSON nor valid YAML",
		Cause:   multierr.Combine(jsonErr, yamlErr),
	}
}

func decodeAs(data []byte, source string, format SourceFormat) (document.Node, error) {
	var (
		root document.Node
		err  error
	)
	if format == SourceFormatJSON {
		root, err = document.DecodeJSON(data)
	} else {
		root, err = document.DecodeYAML(data)
	}
	if err == nil {
		return root, nil
	}
	pe := &oaserrors.ParseError{Path: source, Format: string(format), Cause: err}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) && syntax.Offset > 0 && syntax.Offset <= int64(len(data)) {
		pe.Line = bytes.Count(data[:syntax.Offset], []byte("\n")) + 1
	}
	return nil, pe
}
