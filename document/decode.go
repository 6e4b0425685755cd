package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// ErrEmpty is returned when the input holds no document.
var ErrEmpty = errors.New("document is empty")

// DecodeYAML decodes the first YAML document in data.
func DecodeYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := Root(&doc)
	if root == nil {
		return nil, ErrEmpty
	}
	return root, nil
}

// DecodeJSON decodes a JSON document.
//
// The input must be valid JSON; YAML that merely happens to parse is rejected.
// The tree is built from the JSON token stream, so surrogate pair escapes
// decode and numbers keep their source text. Nodes are in block style with
// resolved tags.
func DecodeJSON(data []byte) (Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	if err := json.Unmarshal(data, new(json.RawMessage)); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	b := &jsonBuilder{dec: dec, lineStarts: lineStarts(data)}
	return b.value()
}

type jsonBuilder struct {
	dec        *json.Decoder
	lineStarts []int
}

// line returns the 1-based line of the decoder's current offset.
func (b *jsonBuilder) line() int {
	return sort.SearchInts(b.lineStarts, int(b.dec.InputOffset())+1)
}

func (b *jsonBuilder) value() (Node, error) {
	tok, err := b.dec.Token()
	if err != nil {
		return nil, err
	}
	line := b.line()
	switch t := tok.(type) {
	case json.Delim:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: line}
		if t == '{' {
			n.Kind, n.Tag = yaml.MappingNode, "!!map"
		}
		for b.dec.More() {
			if n.Kind == yaml.MappingNode {
				k, err := b.dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := k.(string)
				n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, Line: b.line()})
			}
			v, err := b.value()
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, v)
		}
		// Closing delimiter.
		if _, err := b.dec.Token(); err != nil {
			return nil, err
		}
		return n, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t, Line: line}, nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(t), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(t), Line: line}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t), Line: line}, nil
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null", Line: line}, nil
	}
}

// lineStarts returns the byte offset at which each line of data begins.
func lineStarts(data []byte) []int {
	starts := []int{0}
	for i, c := range data {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
