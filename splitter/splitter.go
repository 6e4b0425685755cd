// Package splitter fans an OpenAPI document out into path and operation
// fragments.
//
// The raw routes of the document's "paths" mapping are canonicalized with the
// normalizer and grouped by canonical path in document key order. Each group
// yields one path fragment holding the union of the group's method maps, and
// one operation fragment per method in that union. When two raw routes of a
// group define the same method (compared after ASCII uppercasing), the route
// that comes first in the document wins. YAML merge keys ("<<") are neither
// routes nor methods; they are skipped with a warning.
//
// Groups are independent and are processed in parallel; the output is
// flattened in group order, so it does not depend on the worker count.
//
// Example:
//
//	s := splitter.New(splitter.WithWorkers(8))
//	skeleton, frags := s.Split(doc)
package splitter

import (
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/internal/httputil"
	"github.com/erraggy/oasplit/logging"
	"github.com/erraggy/oasplit/normalizer"
	"github.com/erraggy/oasplit/oaserrors"
)

// PathsKey is the top-level document member that holds the routes.
const PathsKey = "paths"

// Splitter splits documents into fragments.
type Splitter struct {
	// Workers bounds the number of groups processed concurrently.
	// Zero or negative means runtime.GOMAXPROCS(0).
	Workers int
	// MethodsOnly restricts operation fragments to HTTP methods. Path
	// fragments always keep every key of the method map.
	MethodsOnly bool
	// DocIndex is stamped into every fragment's Order. Use distinct values
	// when splitting several documents whose fragments are merged together.
	DocIndex int
	// Logger receives diagnostics. Nil means no logging.
	Logger logging.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithWorkers sets the worker bound.
func WithWorkers(n int) Option {
	return func(s *Splitter) { s.Workers = n }
}

// WithMethodsOnly restricts operation fragments to HTTP methods.
func WithMethodsOnly(enabled bool) Option {
	return func(s *Splitter) { s.MethodsOnly = enabled }
}

// WithDocIndex sets the document index stamped into fragment positions.
func WithDocIndex(i int) Option {
	return func(s *Splitter) { s.DocIndex = i }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Splitter) { s.Logger = l }
}

// New creates a Splitter.
func New(opts ...Option) *Splitter {
	s := &Splitter{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the full outcome of splitting one document.
type Result struct {
	// Skeleton is a deep copy of the document without its "paths" member.
	Skeleton document.Node
	// Fragments holds, per canonical group in document order, the path
	// fragment followed by its operation fragments.
	Fragments []fragment.Fragment
	// Routes is the number of raw routes visited.
	Routes int
	// Groups is the number of canonical paths.
	Groups int
	// Warnings holds tolerated input problems as *oaserrors.ShapeError.
	Warnings []error
}

// Split returns the document skeleton and its fragments.
func (s *Splitter) Split(doc document.Node) (document.Node, []fragment.Fragment) {
	r := s.SplitDocument(doc)
	return r.Skeleton, r.Fragments
}

// SplitDocument splits doc and reports statistics and warnings.
//
// A missing "paths" member yields the skeleton and no fragments. A "paths"
// member that is not a mapping is treated the same way and reported as a
// warning; it never fails the split.
func (s *Splitter) SplitDocument(doc document.Node) *Result {
	log := logging.OrNop(s.Logger).With("doc", s.DocIndex)
	root := document.Root(doc)

	if !document.IsMapping(root) {
		w := &oaserrors.ShapeError{Member: "document", Expected: "mapping", Actual: document.KindName(root)}
		log.Warn("document root is not a mapping", "kind", document.KindName(root))
		return &Result{Skeleton: document.Clone(root), Warnings: []error{w}}
	}

	result := &Result{Skeleton: document.Clone(document.Without(root, PathsKey))}

	paths := document.Get(root, PathsKey)
	if paths == nil {
		log.Debug("document has no paths")
		return result
	}
	if !document.IsMapping(paths) {
		w := &oaserrors.ShapeError{Member: PathsKey, Expected: "mapping", Actual: document.KindName(paths)}
		log.Warn("paths is not a mapping, skipping", "kind", document.KindName(paths))
		result.Warnings = append(result.Warnings, w)
		return result
	}

	var routes []document.Pair
	for _, p := range document.Pairs(paths) {
		if p.Merge {
			log.Warn("merge key in paths is not a route, skipping")
			continue
		}
		routes = append(routes, p)
	}
	groups := groupRoutes(routes)
	result.Routes = len(routes)
	result.Groups = len(groups)
	if len(groups) == 0 {
		return result
	}

	mapper := iter.Mapper[*routeGroup, []fragment.Fragment]{MaxGoroutines: s.workers()}
	perGroup := mapper.Map(groups, func(g **routeGroup) []fragment.Fragment {
		return s.splitGroup(*g, log)
	})

	for _, frags := range perGroup {
		result.Fragments = append(result.Fragments, frags...)
	}

	pathCount, opCount := fragment.Counts(result.Fragments)
	log.Debug("split document",
		"routes", result.Routes,
		"groups", result.Groups,
		"pathFragments", pathCount,
		"operationFragments", opCount)
	return result
}

func (s *Splitter) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// rawRoute is one entry of the paths mapping.
type rawRoute struct {
	index int
	raw   string
	value document.Node
}

// routeGroup is every raw route sharing one canonical path, in document order.
type routeGroup struct {
	canonical string
	routes    []rawRoute
}

func groupRoutes(pairs []document.Pair) []*routeGroup {
	var groups []*routeGroup
	byPath := make(map[string]*routeGroup, len(pairs))
	for i, p := range pairs {
		canonical := normalizer.Normalize(p.Key)
		g, ok := byPath[canonical]
		if !ok {
			g = &routeGroup{canonical: canonical}
			byPath[canonical] = g
			groups = append(groups, g)
		}
		g.routes = append(g.routes, rawRoute{index: i, raw: p.Key, value: p.Value})
	}
	return groups
}

// splitGroup builds the fragments of one canonical group. It runs on a
// worker goroutine and touches no shared state.
func (s *Splitter) splitGroup(g *routeGroup, log logging.Logger) []fragment.Fragment {
	var methods []fragment.MethodEntry
	seen := make(map[string]bool)
	for _, r := range g.routes {
		if !document.IsMapping(r.value) {
			log.Debug("route is not a mapping, no methods taken",
				"route", r.raw, "kind", document.KindName(r.value))
			continue
		}
		for j, m := range document.Pairs(r.value) {
			if m.Merge {
				log.Warn("merge key in route is not a method, skipping", "route", r.raw)
				continue
			}
			method := httputil.UpperMethod(m.Key)
			if seen[method] {
				log.Debug("duplicate method dropped, first occurrence kept",
					"path", g.canonical, "route", r.raw, "method", method)
				continue
			}
			seen[method] = true
			methods = append(methods, fragment.MethodEntry{
				Method:    method,
				SourceKey: m.Key,
				Body:      document.Clone(m.Value),
				Order:     fragment.Order{Doc: s.DocIndex, Route: r.index, Entry: j},
			})
		}
	}

	out := make([]fragment.Fragment, 0, len(methods)+1)
	out = append(out, &fragment.PathFragment{
		CanonicalPath: g.canonical,
		Methods:       methods,
		Members:       []string{g.canonical},
		Order:         fragment.Order{Doc: s.DocIndex, Route: g.routes[0].index},
	})

	resource := normalizer.ResourceKey(g.canonical)
	for _, m := range methods {
		if s.MethodsOnly && !httputil.IsOperationMethod(strings.TrimSpace(m.SourceKey)) {
			continue
		}
		out = append(out, &fragment.OperationFragment{
			Method:        m.Method,
			SourceKey:     m.SourceKey,
			CanonicalPath: g.canonical,
			ResourceKey:   resource,
			Body:          m.Body,
			Order:         m.Order,
		})
	}
	return out
}
