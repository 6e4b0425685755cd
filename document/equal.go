package document

import (
	"math"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Equal reports whether a and b hold the same data.
//
// Presentation is ignored: styles, comments, positions, and anchors do not
// matter, aliases compare as the node they refer to, and numbers compare by
// value so that "0x1F" equals "31" and "1.50" equals "1.5". Scalar mapping
// keys compare by their text, so the key 200 equals the key "200" the way it
// does once written as JSON. Mapping key order does matter.
func Equal(a, b Node) bool {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == yaml.ScalarNode {
		return scalarEqual(a, b)
	}
	if len(a.Content) != len(b.Content) {
		return false
	}
	for i := range a.Content {
		if a.Kind == yaml.MappingNode && i%2 == 0 {
			if !keyEqual(a.Content[i], b.Content[i]) {
				return false
			}
			continue
		}
		if !Equal(a.Content[i], b.Content[i]) {
			return false
		}
	}
	return true
}

func keyEqual(a, b Node) bool {
	a, b = deref(a), deref(b)
	if a != nil && b != nil && a.Kind == yaml.ScalarNode && b.Kind == yaml.ScalarNode {
		return a.Value == b.Value
	}
	return Equal(a, b)
}

func deref(n Node) Node {
	for n != nil && (n.Kind == yaml.AliasNode || n.Kind == yaml.DocumentNode) {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
			continue
		}
		n = Root(n)
	}
	return n
}

func scalarEqual(a, b Node) bool {
	ta, tb := a.ShortTag(), b.ShortTag()
	if ta != tb {
		// An int and a float of the same value are the same number.
		if isNumberTag(ta) && isNumberTag(tb) {
			fa, okA := ParseFloat(a.Value)
			fb, okB := ParseFloat(b.Value)
			return okA && okB && fa == fb
		}
		return false
	}
	switch ta {
	case "!!null":
		return true
	case "!!bool":
		return strings.EqualFold(a.Value, b.Value)
	case "!!int":
		ia, errA := ParseInt(a.Value)
		ib, errB := ParseInt(b.Value)
		if errA == nil && errB == nil {
			return ia == ib
		}
		return a.Value == b.Value
	case "!!float":
		fa, okA := ParseFloat(a.Value)
		fb, okB := ParseFloat(b.Value)
		if okA && okB {
			return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
		}
		return a.Value == b.Value
	default:
		return a.Value == b.Value
	}
}

func isNumberTag(tag string) bool {
	return tag == "!!int" || tag == "!!float"
}

// ParseInt parses a YAML integer literal, accepting the 0x, 0o and 0b
// prefixes and underscores between digits.
func ParseInt(s string) (int64, error) {
	s = strings.ReplaceAll(s, "_", "")
	return strconv.ParseInt(s, 0, 64)
}

// ParseFloat parses a YAML float literal, including .inf and .nan spellings.
func ParseFloat(s string) (float64, bool) {
	switch strings.ToLower(strings.TrimLeft(s, "+")) {
	case ".inf":
		return math.Inf(1), true
	case "-.inf":
		return math.Inf(-1), true
	case ".nan":
		return math.NaN(), true
	}
	if i, err := ParseInt(s); err == nil {
		return float64(i), true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	return f, err == nil
}
