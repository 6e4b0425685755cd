package merger

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/splitter"
)

func op(path, method, body string, route, entry int) *fragment.OperationFragment {
	return &fragment.OperationFragment{
		Method:        method,
		SourceKey:     method,
		CanonicalPath: path,
		Body:          document.String(body),
		Order:         fragment.Order{Route: route, Entry: entry},
	}
}

func pathFrag(path string, route int, methods ...string) *fragment.PathFragment {
	p := &fragment.PathFragment{CanonicalPath: path, Members: []string{path}, Order: fragment.Order{Route: route}}
	for i, m := range methods {
		p.Methods = append(p.Methods, fragment.MethodEntry{
			Method:    m,
			SourceKey: m,
			Body:      document.String(fmt.Sprintf("%s@%d", m, route)),
			Order:     fragment.Order{Route: route, Entry: i},
		})
	}
	return p
}

func TestMergeEmpty(t *testing.T) {
	assert.Nil(t, Merge(nil))
	assert.Nil(t, Merge([]fragment.Fragment{}))
}

func TestMergeOperationsLastAppliedWins(t *testing.T) {
	frags := []fragment.Fragment{
		op("/users", "GET", "first", 0, 0),
		op("/users", "GET", "second", 1, 0),
		op("/users", "POST", "only", 0, 1),
	}
	out := Merge(frags)
	require.Len(t, out, 2)

	got := out[1].(*fragment.OperationFragment)
	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, "second", got.Body.Value)
}

func TestMergeOperationsTieBrokenByInputIndex(t *testing.T) {
	frags := []fragment.Fragment{
		op("/a", "GET", "first", 0, 0),
		op("/a", "GET", "second", 0, 0),
	}
	out := Merge(frags)
	require.Len(t, out, 1)
	assert.Equal(t, "second", out[0].(*fragment.OperationFragment).Body.Value)
}

func TestMergePathsByResource(t *testing.T) {
	frags := []fragment.Fragment{
		pathFrag("/users", 0, "GET", "POST"),
		pathFrag("/users/{id}", 1, "GET", "DELETE"),
		pathFrag("/orders", 2, "GET"),
	}
	out := Merge(frags)
	require.Len(t, out, 2)

	users := out[0].(*fragment.PathFragment)
	assert.Equal(t, "/users", users.CanonicalPath)
	assert.Equal(t, []string{"/users", "/users/{id}"}, users.Members)
	require.Len(t, users.Methods, 3)
	assert.Equal(t, "GET@0", users.Methods[0].Body.Value, "first-seen GET wins")
	assert.Equal(t, "POST", users.Methods[1].Method)
	assert.Equal(t, "DELETE", users.Methods[2].Method)

	orders := out[1].(*fragment.PathFragment)
	assert.Equal(t, "/orders", orders.CanonicalPath)
}

func TestMergeSingleSubPathUsesResourceKey(t *testing.T) {
	out := Merge([]fragment.Fragment{pathFrag("/users/{id}", 0, "GET")})
	require.Len(t, out, 1)
	p := out[0].(*fragment.PathFragment)
	assert.Equal(t, "/users", p.CanonicalPath)
	assert.Equal(t, []string{"/users/{id}"}, p.Members)
}

func TestMergeConflictsAreNotErrors(t *testing.T) {
	// Every fragment collides with another; Merge has no error return and
	// resolves all of them.
	var frags []fragment.Fragment
	for i := range 50 {
		frags = append(frags, op("/x", "GET", fmt.Sprint(i), i, 0))
		frags = append(frags, pathFrag("/x", i, "GET"))
	}
	out := Merge(frags)
	assert.Len(t, out, 2)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	p := pathFrag("/users/{id}", 3, "GET")
	o := op("/users", "GET", "b", 1, 0)
	Merge([]fragment.Fragment{p, o, pathFrag("/users", 0, "PUT")})

	assert.Equal(t, "/users/{id}", p.CanonicalPath)
	assert.Equal(t, 0, p.Methods[0].Order.Seq)
	assert.Equal(t, 0, o.Order.Seq)
	assert.Len(t, p.Methods, 1)
}

// sequentialMerge is the reference: apply fragments one at a time in
// processing order.
func sequentialMerge(frags []fragment.Fragment) map[string]string {
	type positioned struct {
		f   fragment.Fragment
		pos fragment.Order
	}
	list := make([]positioned, len(frags))
	for i, f := range frags {
		pos := f.Position()
		pos.Seq = i
		list[i] = positioned{f, pos}
	}
	slices.SortStableFunc(list, func(a, b positioned) int { return a.pos.Compare(b.pos) })

	result := make(map[string]string)
	for _, p := range list {
		switch f := p.f.(type) {
		case *fragment.OperationFragment:
			result["op "+f.CanonicalPath+" "+f.Method] = f.Body.Value
		case *fragment.PathFragment:
			// method entries within a fragment are in order already
			for _, m := range f.Methods {
				key := "path " + resourceOf(f.CanonicalPath) + " " + m.Method
				if _, ok := result[key]; !ok {
					result[key] = m.Body.Value
				}
			}
			result["path "+resourceOf(f.CanonicalPath)] = "present"
		}
	}
	return result
}

func resourceOf(p string) string {
	for i := 1; i < len(p); i++ {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return p
}

func flatten(frags []fragment.Fragment) map[string]string {
	result := make(map[string]string)
	for _, f := range frags {
		switch f := f.(type) {
		case *fragment.OperationFragment:
			result["op "+f.CanonicalPath+" "+f.Method] = f.Body.Value
		case *fragment.PathFragment:
			for _, m := range f.Methods {
				result["path "+f.CanonicalPath+" "+m.Method] = m.Body.Value
			}
			result["path "+f.CanonicalPath] = "present"
		}
	}
	return result
}

// randomFragments builds colliding fragments whose positions are unique, so
// processing order is fully determined by the fragments themselves.
func randomFragments(r *rand.Rand, n int) []fragment.Fragment {
	paths := []string{"/a", "/a/{id}", "/a/{id}/b", "/c", "/c/d", "/e"}
	methods := []string{"GET", "PUT", "POST", "DELETE"}
	var out []fragment.Fragment
	for i := range n {
		p := paths[r.IntN(len(paths))]
		if r.IntN(2) == 0 {
			m := methods[r.IntN(len(methods))]
			out = append(out, op(p, m, fmt.Sprintf("%s %s #%d", m, p, i), i, 0))
			continue
		}
		k := 1 + r.IntN(len(methods))
		perm := r.Perm(len(methods))[:k]
		var ms []string
		for _, j := range perm {
			ms = append(ms, methods[j])
		}
		out = append(out, pathFrag(p, i, ms...))
	}
	return out
}

func TestMergePartitionIndependence(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	frags := randomFragments(r, 500)
	want := sequentialMerge(frags)

	for _, workers := range []int{1, 2, 3, 7, 16, 64, 500, 1000} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got := New(WithWorkers(workers)).Merge(frags)
			assert.Equal(t, want, flatten(got))
		})
	}

	t.Run("shuffled input", func(t *testing.T) {
		shuffled := slices.Clone(frags)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := New(WithWorkers(8)).Merge(shuffled)
		assert.Equal(t, want, flatten(got))
	})

	t.Run("repeated runs are identical", func(t *testing.T) {
		first := New(WithWorkers(8)).Merge(frags)
		for range 20 {
			again := New(WithWorkers(8)).Merge(frags)
			require.Len(t, again, len(first))
			for i := range first {
				assert.Equal(t, first[i].Path(), again[i].Path())
				assert.Equal(t, first[i].Position(), again[i].Position())
			}
		}
	})
}

func TestMergeSplitterOutput(t *testing.T) {
	doc, err := document.DecodeYAML([]byte(`paths:
  /api/v1/users: {get: {summary: v1}, post: {}}
  /v2/users: {get: {summary: v2}, delete: {}}
  /users/{id}: {get: {summary: one}}
`))
	require.NoError(t, err)
	_, frags := splitter.New().Split(doc)
	out := Merge(frags)

	var paths []*fragment.PathFragment
	var ops int
	for _, f := range out {
		switch f := f.(type) {
		case *fragment.PathFragment:
			paths = append(paths, f)
		case *fragment.OperationFragment:
			ops++
		}
	}
	require.Len(t, paths, 1)
	assert.Equal(t, "/users", paths[0].CanonicalPath)
	assert.Equal(t, []string{"/users", "/users/{id}"}, paths[0].Members)
	assert.Len(t, paths[0].Methods, 3)
	assert.Equal(t, 4, ops)
}

func TestMergeSkeletons(t *testing.T) {
	first, err := document.DecodeYAML([]byte("openapi: 3.0.0\ninfo:\n  title: First\nservers:\n  - url: https://one\n"))
	require.NoError(t, err)
	second, err := document.DecodeYAML([]byte("openapi: 3.1.0\ninfo:\n  title: Second\ntags: []\n"))
	require.NoError(t, err)

	merged := MergeSkeletons(first, nil, second)
	assert.Equal(t, []string{"openapi", "info", "servers", "tags"}, document.Keys(merged))
	assert.Equal(t, "3.0.0", document.Get(merged, "openapi").Value)
	assert.Equal(t, "First", document.GetPath(merged, "info", "title").Value)

	reversed := MergeSkeletons(second, first)
	assert.Equal(t, "Second", document.GetPath(reversed, "info", "title").Value)

	assert.Empty(t, document.Keys(MergeSkeletons()))
}

func BenchmarkMerge(b *testing.B) {
	frags := randomFragments(rand.New(rand.NewPCG(3, 4)), 10000)
	m := New()
	for b.Loop() {
		m.Merge(frags)
	}
}
