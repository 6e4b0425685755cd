package document

import (
	"go.yaml.in/yaml/v4"
)

// Clone returns a deep copy of n.
//
// Aliases are expanded into copies of their anchored nodes and anchors are
// dropped, so the result is self-contained and can be serialized without the
// rest of the source document. An alias that refers back to one of its own
// ancestors is replaced by a null node. Line and column information is kept.
func Clone(n Node) Node {
	if n == nil {
		return nil
	}
	return cloneNode(n, make(map[*yaml.Node]bool))
}

func cloneNode(n *yaml.Node, active map[*yaml.Node]bool) *yaml.Node {
	if n.Kind == yaml.AliasNode {
		if n.Alias == nil || active[n.Alias] {
			null := Null()
			null.Line, null.Column = n.Line, n.Column
			return null
		}
		return cloneNode(n.Alias, active)
	}

	active[n] = true
	defer delete(active, n)

	out := &yaml.Node{
		Kind:        n.Kind,
		Style:       n.Style,
		Tag:         n.Tag,
		Value:       n.Value,
		HeadComment: n.HeadComment,
		LineComment: n.LineComment,
		FootComment: n.FootComment,
		Line:        n.Line,
		Column:      n.Column,
	}
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = cloneNode(c, active)
		}
	}
	return out
}
