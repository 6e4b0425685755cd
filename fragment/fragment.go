// Package fragment defines the path and operation fragments produced by the
// splitter and reduced by the merger.
//
// Fragments are values. Every method body they carry is a deep clone owned by
// the fragment, and no operation in oasplit mutates a fragment after it has
// been created; combining two fragments always builds a new one.
package fragment

import (
	"cmp"
	"slices"

	"github.com/maruel/natural"

	"github.com/erraggy/oasplit/document"
)

// Kind identifies the two fragment kinds.
type Kind string

const (
	// KindPath is a fragment holding a whole method map for one route.
	KindPath Kind = "path"
	// KindVerb is a fragment holding a single operation.
	KindVerb Kind = "verb"
)

// Order is the position of a method entry in processing order: document
// index, raw route index in document key order, and method index in the
// route's key order. Seq breaks ties between otherwise equal positions and is
// assigned by the merger from the input index.
type Order struct {
	Doc   int
	Route int
	Entry int
	Seq   int
}

// Compare orders positions lexicographically. It returns -1, 0 or +1.
func (o Order) Compare(p Order) int {
	if c := cmp.Compare(o.Doc, p.Doc); c != 0 {
		return c
	}
	if c := cmp.Compare(o.Route, p.Route); c != 0 {
		return c
	}
	if c := cmp.Compare(o.Entry, p.Entry); c != 0 {
		return c
	}
	return cmp.Compare(o.Seq, p.Seq)
}

// Before reports whether o comes strictly before p.
func (o Order) Before(p Order) bool {
	return o.Compare(p) < 0
}

// Fragment is either a *PathFragment or an *OperationFragment.
type Fragment interface {
	// Kind returns KindPath or KindVerb.
	Kind() Kind
	// Path returns the canonical path the fragment is rendered under.
	Path() string
	// Position returns the earliest processing position the fragment covers.
	Position() Order

	isFragment()
}

// MethodEntry is one method of a path fragment's method map.
type MethodEntry struct {
	// Method is the uppercased method name and the union key.
	Method string
	// SourceKey is the key as spelled in the source document.
	SourceKey string
	// Body is the operation sub-tree.
	Body document.Node
	// Order is where this entry was first seen.
	Order Order
}

// PathFragment holds the method map of one canonical route, or of a whole
// resource once the merger has folded routes together.
type PathFragment struct {
	CanonicalPath string
	Methods       []MethodEntry
	// Members lists the canonical paths folded into this fragment, in
	// processing order. A fragment fresh from the splitter has one member.
	Members []string
	// Order is the position of the first raw route of the group.
	Order Order
}

// Kind implements Fragment.
func (*PathFragment) Kind() Kind { return KindPath }

// Path implements Fragment.
func (p *PathFragment) Path() string { return p.CanonicalPath }

// Position implements Fragment.
func (p *PathFragment) Position() Order { return p.Order }

func (*PathFragment) isFragment() {}

// Body materializes the method map as a mapping node keyed by source spelling.
func (p *PathFragment) Body() document.Node {
	pairs := make([]document.Pair, 0, len(p.Methods))
	for _, m := range p.Methods {
		pairs = append(pairs, document.Pair{Key: m.SourceKey, Value: m.Body})
	}
	return document.NewMapping(pairs...)
}

// Method returns the entry for an uppercased method, if present.
func (p *PathFragment) Method(method string) (MethodEntry, bool) {
	for _, m := range p.Methods {
		if m.Method == method {
			return m, true
		}
	}
	return MethodEntry{}, false
}

// OperationFragment holds a single operation of one canonical route.
type OperationFragment struct {
	// Method is the uppercased method name.
	Method string
	// SourceKey is the method key as spelled in the source document.
	SourceKey     string
	CanonicalPath string
	ResourceKey   string
	Body          document.Node
	Order         Order
}

// Kind implements Fragment.
func (*OperationFragment) Kind() Kind { return KindVerb }

// Path implements Fragment.
func (o *OperationFragment) Path() string { return o.CanonicalPath }

// Position implements Fragment.
func (o *OperationFragment) Position() Order { return o.Order }

func (*OperationFragment) isFragment() {}

// UnionMethods combines two method lists keyed by Method. When both lists
// hold a method, the entry with the earlier Order wins. The result is sorted
// by Order, which is the order entries were first seen.
//
// UnionMethods is commutative and associative, so folding any number of
// lists in any grouping gives the same result.
func UnionMethods(a, b []MethodEntry) []MethodEntry {
	byMethod := make(map[string]MethodEntry, len(a)+len(b))
	for _, list := range [][]MethodEntry{a, b} {
		for _, m := range list {
			if cur, ok := byMethod[m.Method]; !ok || m.Order.Before(cur.Order) {
				byMethod[m.Method] = m
			}
		}
	}
	out := make([]MethodEntry, 0, len(byMethod))
	for _, m := range byMethod {
		out = append(out, m)
	}
	slices.SortFunc(out, func(x, y MethodEntry) int { return x.Order.Compare(y.Order) })
	return out
}

// Sort orders fragments for presentation: by canonical path in natural
// order ("/v2" before "/v10"), path fragments before operation fragments,
// then by method.
func Sort(frags []Fragment) {
	slices.SortStableFunc(frags, func(a, b Fragment) int {
		if a.Path() != b.Path() {
			if natural.Less(a.Path(), b.Path()) {
				return -1
			}
			if natural.Less(b.Path(), a.Path()) {
				return 1
			}
			return cmp.Compare(a.Path(), b.Path())
		}
		if a.Kind() != b.Kind() {
			if a.Kind() == KindPath {
				return -1
			}
			return 1
		}
		return cmp.Compare(methodOf(a), methodOf(b))
	})
}

func methodOf(f Fragment) string {
	if op, ok := f.(*OperationFragment); ok {
		return op.Method
	}
	return ""
}

// Counts returns the number of path and operation fragments in frags.
func Counts(frags []Fragment) (paths, operations int) {
	for _, f := range frags {
		switch f.Kind() {
		case KindPath:
			paths++
		case KindVerb:
			operations++
		}
	}
	return paths, operations
}
