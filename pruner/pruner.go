// Package pruner reduces a skeleton's schema section to what one fragment
// needs.
//
// The schema section is "definitions" for OAS 2.0 documents and
// "components.schemas" for OAS 3.x documents. Pruning keeps the schemas
// reachable from the fragment body through local $ref strings, following
// references transitively through kept schemas and through any other local
// component the body refers to. Everything else in the skeleton is left
// untouched, and the input skeleton is never modified.
package pruner

import (
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/internal/pathutil"
	"github.com/erraggy/oasplit/logging"
)

const refKey = "$ref"

// Pruner computes reference closures. The zero value is ready to use.
type Pruner struct {
	// Logger receives a debug entry for each reference whose target is
	// missing. Nil means no logging.
	Logger logging.Logger
}

// New creates a Pruner logging to l.
func New(l logging.Logger) *Pruner {
	return &Pruner{Logger: l}
}

// Prune returns a copy of skeleton whose schema sections hold only the
// schemas reachable from bodies. A skeleton without a schema section is
// returned as is.
func (p *Pruner) Prune(skeleton document.Node, bodies ...document.Node) document.Node {
	root := document.Root(skeleton)
	definitions := document.Get(root, "definitions")
	schemas := document.GetPath(root, "components", "schemas")
	if !document.IsMapping(definitions) && !document.IsMapping(schemas) {
		return skeleton
	}

	c := &closure{
		root: root,
		log:  logging.OrNop(p.Logger),
		keep: map[string]map[string]bool{
			pathutil.RefPrefixDefinitions: {},
			pathutil.RefPrefixSchemas:     {},
		},
		seen: make(map[string]bool),
	}
	for _, body := range bodies {
		c.walk(body)
	}
	c.drain()

	out := root
	if document.IsMapping(definitions) {
		out = document.With(out, "definitions", filter(definitions, c.keep[pathutil.RefPrefixDefinitions]))
	}
	if document.IsMapping(schemas) {
		components := document.Get(out, "components")
		components = document.With(components, "schemas", filter(schemas, c.keep[pathutil.RefPrefixSchemas]))
		out = document.With(out, "components", components)
	}
	return out
}

// Prune is shorthand for a Pruner without logging.
func Prune(skeleton document.Node, bodies ...document.Node) document.Node {
	return (&Pruner{}).Prune(skeleton, bodies...)
}

// CollectRefs returns every $ref string under n in document order, without
// duplicates.
func CollectRefs(n document.Node) []string {
	var refs []string
	seen := make(map[string]bool)
	ptr := pathutil.Get()
	defer pathutil.Put(ptr)
	visitRefs(n, ptr, make(map[*yaml.Node]bool), func(ref, _ string) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	})
	return refs
}

type closure struct {
	root  document.Node
	log   logging.Logger
	keep  map[string]map[string]bool
	seen  map[string]bool
	queue []string
}

// walk queues every unseen reference under n.
func (c *closure) walk(n document.Node) {
	ptr := pathutil.Get()
	defer pathutil.Put(ptr)
	visitRefs(n, ptr, make(map[*yaml.Node]bool), func(ref, at string) {
		if c.seen[ref] {
			return
		}
		c.seen[ref] = true
		if !strings.HasPrefix(ref, "#/") {
			c.log.Debug("skipping external reference", "ref", ref, "at", at)
			return
		}
		c.queue = append(c.queue, ref)
	})
}

// drain resolves queued references until no new ones appear.
func (c *closure) drain() {
	for len(c.queue) > 0 {
		ref := c.queue[0]
		c.queue = c.queue[1:]

		for prefix, names := range c.keep {
			if name, ok := pathutil.RefName(ref, prefix); ok {
				names[name] = true
			}
		}
		target := resolve(c.root, ref)
		if target == nil {
			c.log.Debug("reference target not found", "ref", ref)
			continue
		}
		c.walk(target)
	}
}

// resolve follows a local JSON Pointer reference from root.
func resolve(root document.Node, ref string) document.Node {
	rest, ok := strings.CutPrefix(ref, "#/")
	if !ok {
		return nil
	}
	n := root
	for _, tok := range strings.Split(rest, "/") {
		n = deref(n)
		if n == nil {
			return nil
		}
		tok = pathutil.UnescapePointer(tok)
		switch n.Kind {
		case yaml.MappingNode:
			n = document.Get(n, tok)
		case yaml.SequenceNode:
			i, err := document.ParseInt(tok)
			if err != nil || i < 0 || int(i) >= len(n.Content) {
				return nil
			}
			n = n.Content[i]
		default:
			return nil
		}
	}
	return deref(n)
}

func deref(n document.Node) document.Node {
	for i := 0; n != nil && n.Kind == yaml.AliasNode && i < 64; i++ {
		n = n.Alias
	}
	return n
}

// visitRefs calls fn with each $ref string value under n and its location.
func visitRefs(n document.Node, ptr *pathutil.Pointer, active map[*yaml.Node]bool, fn func(ref, at string)) {
	n = deref(document.Root(n))
	if n == nil || active[n] {
		return
	}
	active[n] = true
	defer delete(active, n)

	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i].Value, deref(n.Content[i+1])
			ptr.Push(key)
			if key == refKey && value != nil && value.Kind == yaml.ScalarNode {
				fn(value.Value, ptr.String())
			} else {
				visitRefs(value, ptr, active, fn)
			}
			ptr.Pop()
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			ptr.PushIndex(i)
			visitRefs(item, ptr, active, fn)
			ptr.Pop()
		}
	}
}

// filter returns a new mapping holding the members of m named in keep, in
// source order.
func filter(m document.Node, keep map[string]bool) document.Node {
	var pairs []document.Pair
	for _, p := range document.Pairs(m) {
		if keep[p.Key] {
			pairs = append(pairs, p)
		}
	}
	return document.NewMapping(pairs...)
}
