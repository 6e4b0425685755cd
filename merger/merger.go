// Package merger reduces fragments that collide on a key.
//
// Operation fragments are keyed by canonical path and method; when several
// share a key, the one with the latest processing position wins. Path
// fragments are keyed by resource key; fragments sharing one are combined
// into a single fragment rendered under the resource key, whose method map is
// the union of theirs with the earliest position winning each method.
//
// The processing position of a fragment is its fragment.Order followed by its
// index in the input slice. Both reductions only compare positions, so they
// are commutative and associative: the merger partitions its input across
// workers that fold into a shared concurrent map, and the result equals a
// sequential merge in processing order no matter how the work was scheduled.
//
// Conflicts are never errors.
package merger

import (
	"cmp"
	"runtime"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/sourcegraph/conc/pool"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/logging"
	"github.com/erraggy/oasplit/normalizer"
)

// Merger merges fragments.
type Merger struct {
	// Workers bounds the number of partitions folded concurrently.
	// Zero or negative means runtime.GOMAXPROCS(0).
	Workers int
	// Logger receives diagnostics. Nil means no logging.
	Logger logging.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithWorkers sets the worker bound.
func WithWorkers(n int) Option {
	return func(m *Merger) { m.Workers = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Merger) { m.Logger = l }
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge merges frags with a default Merger.
func Merge(frags []fragment.Fragment) []fragment.Fragment {
	return New().Merge(frags)
}

type opKey struct {
	path   string
	method string
}

// pathAcc is the running union for one resource key. Values are replaced,
// never modified, so a pathAcc seen by one Compute call stays valid.
type pathAcc struct {
	frag    *fragment.PathFragment
	members map[string]fragment.Order
}

// Merge returns the merged fragments ordered by position, path fragments
// first on ties. The input is not modified.
func (m *Merger) Merge(frags []fragment.Fragment) []fragment.Fragment {
	if len(frags) == 0 {
		return nil
	}
	log := logging.OrNop(m.Logger)

	ops := xsync.NewMap[opKey, *fragment.OperationFragment](xsync.WithPresize(len(frags)))
	paths := xsync.NewMap[string, *pathAcc]()

	fold := func(i int, f fragment.Fragment) {
		switch f := f.(type) {
		case *fragment.OperationFragment:
			foldOperation(ops, i, f)
		case *fragment.PathFragment:
			foldPath(paths, i, f)
		}
	}

	workers := m.workers()
	size := (len(frags) + workers - 1) / workers
	p := pool.New().WithMaxGoroutines(workers)
	for lo := 0; lo < len(frags); lo += size {
		hi := min(lo+size, len(frags))
		p.Go(func() {
			for i := lo; i < hi; i++ {
				fold(i, frags[i])
			}
		})
	}
	p.Wait()

	out := make([]fragment.Fragment, 0, ops.Size()+paths.Size())
	paths.Range(func(_ string, acc *pathAcc) bool {
		out = append(out, finishPath(acc))
		return true
	})
	ops.Range(func(_ opKey, op *fragment.OperationFragment) bool {
		out = append(out, op)
		return true
	})
	slices.SortFunc(out, func(a, b fragment.Fragment) int {
		if c := a.Position().Compare(b.Position()); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind(), b.Kind())
	})

	log.Debug("merged fragments",
		"in", len(frags),
		"out", len(out),
		"resources", paths.Size(),
		"operations", ops.Size(),
		"partitions", (len(frags)+size-1)/size)
	return out
}

func (m *Merger) workers() int {
	if m.Workers > 0 {
		return m.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func foldOperation(ops *xsync.Map[opKey, *fragment.OperationFragment], i int, f *fragment.OperationFragment) {
	next := *f
	next.Order.Seq = i
	ops.Compute(opKey{path: f.CanonicalPath, method: f.Method},
		func(old *fragment.OperationFragment, loaded bool) (*fragment.OperationFragment, xsync.ComputeOp) {
			if loaded && next.Order.Before(old.Order) {
				return old, xsync.CancelOp
			}
			return &next, xsync.UpdateOp
		})
}

func foldPath(paths *xsync.Map[string, *pathAcc], i int, f *fragment.PathFragment) {
	order := f.Order
	order.Seq = i
	methods := make([]fragment.MethodEntry, len(f.Methods))
	for j, e := range f.Methods {
		e.Order.Seq = i
		methods[j] = e
	}
	members := f.Members
	if len(members) == 0 {
		members = []string{f.CanonicalPath}
	}
	memberOrder := make(map[string]fragment.Order, len(members))
	for _, p := range members {
		memberOrder[p] = order
	}

	resource := normalizer.ResourceKey(f.CanonicalPath)
	incoming := &pathAcc{
		frag: &fragment.PathFragment{
			CanonicalPath: resource,
			Methods:       fragment.UnionMethods(nil, methods),
			Order:         order,
		},
		members: memberOrder,
	}

	paths.Compute(resource, func(old *pathAcc, loaded bool) (*pathAcc, xsync.ComputeOp) {
		if !loaded {
			return incoming, xsync.UpdateOp
		}
		return combinePaths(old, incoming), xsync.UpdateOp
	})
}

func combinePaths(a, b *pathAcc) *pathAcc {
	members := make(map[string]fragment.Order, len(a.members)+len(b.members))
	for _, acc := range []*pathAcc{a, b} {
		for p, o := range acc.members {
			if cur, ok := members[p]; !ok || o.Before(cur) {
				members[p] = o
			}
		}
	}
	order := a.frag.Order
	if b.frag.Order.Before(order) {
		order = b.frag.Order
	}
	return &pathAcc{
		frag: &fragment.PathFragment{
			CanonicalPath: a.frag.CanonicalPath,
			Methods:       fragment.UnionMethods(a.frag.Methods, b.frag.Methods),
			Order:         order,
		},
		members: members,
	}
}

func finishPath(acc *pathAcc) *fragment.PathFragment {
	members := make([]string, 0, len(acc.members))
	for p := range acc.members {
		members = append(members, p)
	}
	slices.SortFunc(members, func(x, y string) int {
		if c := acc.members[x].Compare(acc.members[y]); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	})
	out := *acc.frag
	out.Members = members
	return &out
}

// MergeSkeletons combines per-document skeletons top-level key by key. The
// first skeleton that defines a key provides its value; later values for the
// same key are discarded. Keys keep the order in which they were first seen.
// Nil and non-mapping skeletons are skipped.
func (m *Merger) MergeSkeletons(skeletons ...document.Node) document.Node {
	log := logging.OrNop(m.Logger)
	var pairs []document.Pair
	seen := make(map[string]int)
	for doc, s := range skeletons {
		for _, p := range document.Pairs(document.Root(s)) {
			if idx, ok := seen[p.Key]; ok {
				if !document.Equal(pairs[idx].Value, p.Value) {
					log.Debug("skeleton key already set by an earlier document, discarded",
						"key", p.Key, "doc", doc)
				}
				continue
			}
			seen[p.Key] = len(pairs)
			pairs = append(pairs, p)
		}
	}
	return document.NewMapping(pairs...)
}

// MergeSkeletons combines skeletons with a default Merger.
func MergeSkeletons(skeletons ...document.Node) document.Node {
	return New().MergeSkeletons(skeletons...)
}
