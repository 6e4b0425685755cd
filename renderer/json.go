package renderer

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/oaserrors"
)

// jsonNumber matches the JSON number grammar (RFC 8259 section 6).
var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// MarshalJSON encodes n as JSON, keeping mapping keys in node order, and
// indents the result by indent spaces. Zero indent produces compact output.
//
// Numbers that are already valid JSON are copied verbatim so no precision is
// lost. Other YAML number spellings (0x1F, 1_000, +12) are converted. NaN and
// infinities, invalid UTF-8, and non-scalar mapping keys cannot be
// represented and yield a *oaserrors.RenderError.
func MarshalJSON(n document.Node, indent int) ([]byte, error) {
	var buf bytes.Buffer
	w := &jsonWriter{buf: &buf, active: make(map[*yaml.Node]bool)}
	if err := w.write(n); err != nil {
		return nil, asRenderError(err, FormatJSON)
	}
	if indent <= 0 {
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", strings.Repeat(" ", indent)); err != nil {
		return nil, &oaserrors.RenderError{Format: string(FormatJSON), Cause: err}
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

type jsonWriter struct {
	buf *bytes.Buffer
	// active holds the nodes on the current path, to stop alias cycles.
	active map[*yaml.Node]bool
}

func (w *jsonWriter) write(n *yaml.Node) error {
	if n == nil {
		w.buf.WriteString("null")
		return nil
	}
	if w.active[n] {
		return errorf("cyclic alias at line %d", n.Line)
	}
	w.active[n] = true
	defer delete(w.active, n)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			w.buf.WriteString("null")
			return nil
		}
		return w.write(n.Content[0])

	case yaml.AliasNode:
		return w.write(n.Alias)

	case yaml.MappingNode:
		w.buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			key := resolveAlias(n.Content[i])
			if key == nil || key.Kind != yaml.ScalarNode {
				return errorf("mapping key at line %d is a %s, JSON keys must be scalars",
					n.Content[i].Line, document.KindName(key))
			}
			if err := w.writeString(key.Value); err != nil {
				return err
			}
			w.buf.WriteByte(':')
			if err := w.write(n.Content[i+1]); err != nil {
				return err
			}
		}
		w.buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		w.buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.write(item); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return w.writeScalar(n)

	default:
		return errorf("unsupported node kind %d at line %d", n.Kind, n.Line)
	}
}

func (w *jsonWriter) writeScalar(n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		w.buf.WriteString("null")
		return nil

	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(n.Value))
		if err != nil {
			return w.writeString(n.Value)
		}
		w.buf.WriteString(strconv.FormatBool(b))
		return nil

	case "!!int":
		if jsonNumber.MatchString(n.Value) {
			w.buf.WriteString(n.Value)
			return nil
		}
		if i, err := document.ParseInt(n.Value); err == nil {
			w.buf.WriteString(strconv.FormatInt(i, 10))
			return nil
		}
		if i, ok := new(big.Int).SetString(strings.ReplaceAll(n.Value, "_", ""), 0); ok {
			w.buf.WriteString(i.String())
			return nil
		}
		return w.writeString(n.Value)

	case "!!float":
		if jsonNumber.MatchString(n.Value) {
			w.buf.WriteString(n.Value)
			return nil
		}
		f, ok := document.ParseFloat(n.Value)
		if !ok {
			return w.writeString(n.Value)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errorf("%s at line %d is not representable in JSON", n.Value, n.Line)
		}
		w.buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		return nil

	default:
		return w.writeString(n.Value)
	}
}

func (w *jsonWriter) writeString(s string) error {
	if !utf8.ValidString(s) {
		return errorf("invalid UTF-8 in %q", truncate(s))
	}
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return &oaserrors.RenderError{Cause: err}
	}
	w.buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for i := 0; n != nil && n.Kind == yaml.AliasNode && i < 64; i++ {
		n = n.Alias
	}
	return n
}

// checkUTF8 reports the first key or scalar that is not valid UTF-8.
func checkUTF8(n *yaml.Node, active map[*yaml.Node]bool) error {
	if n == nil || active[n] {
		return nil
	}
	active[n] = true
	defer delete(active, n)

	if n.Kind == yaml.AliasNode {
		return checkUTF8(n.Alias, active)
	}
	if n.Kind == yaml.ScalarNode && !utf8.ValidString(n.Value) {
		return errorf("invalid UTF-8 at line %d in %q", n.Line, truncate(n.Value))
	}
	for _, c := range n.Content {
		if err := checkUTF8(c, active); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string) string {
	const maxShown = 32
	if len(s) <= maxShown {
		return s
	}
	return s[:maxShown] + "..."
}
