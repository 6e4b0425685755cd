// Package document provides the ordered tree that every oasplit package works on.
//
// A document is a go.yaml.in/yaml/v4 node tree. Mappings keep their keys in
// source order, which is what the splitter walks and what the renderer
// reproduces. The helpers in this package never mutate their inputs; functions
// that "change" a mapping return a new node that shares unchanged children.
package document

import (
	"go.yaml.in/yaml/v4"
)

// Node is a document tree node.
type Node = *yaml.Node

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   string
	Value Node
	// Merge is set for a YAML merge key ("<<"). Pairs never expands merges.
	Merge bool
}

const mergeTag = "!!merge"

// Root unwraps a yaml DocumentNode to its content node. Other nodes are
// returned unchanged.
func Root(n Node) Node {
	for n != nil && n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	return n
}

// IsMapping reports whether n is a mapping node.
func IsMapping(n Node) bool {
	return n != nil && n.Kind == yaml.MappingNode
}

// Get returns the value for key in mapping m, or nil.
// When a key repeats, the first occurrence wins.
func Get(m Node, key string) Node {
	if !IsMapping(m) {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// GetPath follows keys through nested mappings.
func GetPath(m Node, keys ...string) Node {
	n := m
	for _, k := range keys {
		n = Get(n, k)
		if n == nil {
			return nil
		}
	}
	return n
}

// Pairs returns the entries of mapping m in source order.
func Pairs(m Node) []Pair {
	if !IsMapping(m) {
		return nil
	}
	out := make([]Pair, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		out = append(out, Pair{Key: k.Value, Value: m.Content[i+1], Merge: k.Kind == yaml.ScalarNode && k.ShortTag() == mergeTag})
	}
	return out
}

// Keys returns the keys of mapping m in source order.
func Keys(m Node) []string {
	if !IsMapping(m) {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// NewMapping builds a mapping node from pairs, preserving their order.
func NewMapping(pairs ...Pair) Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: make([]*yaml.Node, 0, len(pairs)*2)}
	for _, p := range pairs {
		n.Content = append(n.Content, String(p.Key), p.Value)
	}
	return n
}

// String returns a string scalar node.
func String(s string) Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Null returns a null scalar node.
func Null() Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// Without returns a copy of mapping m without the given keys. The values are
// shared with m, not cloned.
func Without(m Node, keys ...string) Node {
	if !IsMapping(m) {
		return m
	}
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: m.Tag, Style: m.Style, Content: make([]*yaml.Node, 0, len(m.Content))}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if _, ok := drop[m.Content[i].Value]; ok {
			continue
		}
		out.Content = append(out.Content, m.Content[i], m.Content[i+1])
	}
	return out
}

// With returns a copy of mapping m where key is bound to value. An existing
// key keeps its position; a new key is appended.
func With(m Node, key string, value Node) Node {
	if !IsMapping(m) {
		return NewMapping(Pair{Key: key, Value: value})
	}
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: m.Tag, Style: m.Style, Content: make([]*yaml.Node, 0, len(m.Content)+2)}
	replaced := false
	for i := 0; i+1 < len(m.Content); i += 2 {
		if !replaced && m.Content[i].Value == key {
			out.Content = append(out.Content, m.Content[i], value)
			replaced = true
			continue
		}
		out.Content = append(out.Content, m.Content[i], m.Content[i+1])
	}
	if !replaced {
		out.Content = append(out.Content, String(key), value)
	}
	return out
}

// KindName returns a short human name for the kind of n.
func KindName(n Node) string {
	if n == nil {
		return "missing"
	}
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return "null"
		}
		return "scalar"
	default:
		return "unknown"
	}
}
