package splitter

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/logging"
	"github.com/erraggy/oasplit/oaserrors"
)

const scenarioA = `openapi: 3.0.0
info:
  title: Users
  version: "1.0"
paths:
  /api/v1/users:
    get:
      summary: list users (v1)
    post:
      summary: create user
  /v2/users:
    get:
      summary: list users (v2)
    delete:
      summary: delete users
  /users/{id}:
    get:
      summary: get user
components:
  schemas: {}
`

func decode(t testing.TB, s string) document.Node {
	t.Helper()
	n, err := document.DecodeYAML([]byte(s))
	require.NoError(t, err)
	return n
}

func operations(frags []fragment.Fragment) []*fragment.OperationFragment {
	var out []*fragment.OperationFragment
	for _, f := range frags {
		if op, ok := f.(*fragment.OperationFragment); ok {
			out = append(out, op)
		}
	}
	return out
}

func pathFragments(frags []fragment.Fragment) []*fragment.PathFragment {
	var out []*fragment.PathFragment
	for _, f := range frags {
		if p, ok := f.(*fragment.PathFragment); ok {
			out = append(out, p)
		}
	}
	return out
}

func TestSplitScenarioA(t *testing.T) {
	doc := decode(t, scenarioA)
	res := New().SplitDocument(doc)

	assert.Equal(t, 3, res.Routes)
	assert.Equal(t, 2, res.Groups)
	assert.Empty(t, res.Warnings)

	paths := pathFragments(res.Fragments)
	require.Len(t, paths, 2)
	assert.Equal(t, "/users", paths[0].CanonicalPath)
	assert.Equal(t, "/users/{id}", paths[1].CanonicalPath)

	var methods []string
	for _, m := range paths[0].Methods {
		methods = append(methods, m.Method)
	}
	assert.Equal(t, []string{"GET", "POST", "DELETE"}, methods)

	get, ok := paths[0].Method("GET")
	require.True(t, ok)
	assert.Equal(t, "list users (v1)", document.Get(get.Body, "summary").Value, "first-seen GET wins")

	ops := operations(res.Fragments)
	require.Len(t, ops, 4)
	for _, op := range ops {
		assert.Equal(t, "/users", op.ResourceKey)
	}
	assert.Equal(t, "GET", ops[0].Method)
	assert.Equal(t, "get", ops[0].SourceKey)
	assert.Equal(t, "list users (v1)", document.Get(ops[0].Body, "summary").Value)

	t.Run("flattened in group order", func(t *testing.T) {
		var got []string
		for _, f := range res.Fragments {
			got = append(got, string(f.Kind())+":"+f.Path())
		}
		assert.Equal(t, []string{
			"path:/users", "verb:/users", "verb:/users", "verb:/users",
			"path:/users/{id}", "verb:/users/{id}",
		}, got)
	})

	t.Run("skeleton drops paths and keeps order", func(t *testing.T) {
		assert.Equal(t, []string{"openapi", "info", "components"}, document.Keys(res.Skeleton))
	})
}

func TestSplitScenarioB(t *testing.T) {
	doc := decode(t, "openapi: 3.1.0\ninfo:\n  title: Empty\npaths: {}\nservers: []\n")
	skeleton, frags := New().Split(doc)

	assert.Empty(t, frags)
	assert.True(t, document.Equal(document.Without(doc, "paths"), skeleton))
}

func TestSplitShapes(t *testing.T) {
	t.Run("missing paths", func(t *testing.T) {
		res := New().SplitDocument(decode(t, "swagger: '2.0'\n"))
		assert.Empty(t, res.Fragments)
		assert.Empty(t, res.Warnings)
		assert.Equal(t, []string{"swagger"}, document.Keys(res.Skeleton))
	})

	t.Run("paths is a sequence", func(t *testing.T) {
		res := New().SplitDocument(decode(t, "openapi: 3.0.0\npaths:\n  - /users\n"))
		assert.Empty(t, res.Fragments)
		require.Len(t, res.Warnings, 1)
		assert.ErrorIs(t, res.Warnings[0], oaserrors.ErrInputShape)
		assert.Equal(t, []string{"openapi"}, document.Keys(res.Skeleton))
	})

	t.Run("paths is null", func(t *testing.T) {
		res := New().SplitDocument(decode(t, "openapi: 3.0.0\npaths:\n"))
		assert.Empty(t, res.Fragments)
		require.Len(t, res.Warnings, 1)
	})

	t.Run("route that is not a mapping", func(t *testing.T) {
		res := New().SplitDocument(decode(t, "paths:\n  /a: 42\n  /b:\n    get: {}\n"))
		paths := pathFragments(res.Fragments)
		require.Len(t, paths, 2)
		assert.Empty(t, paths[0].Methods)
		assert.Len(t, operations(res.Fragments), 1)
	})

	t.Run("root is not a mapping", func(t *testing.T) {
		res := New().SplitDocument(decode(t, "- a\n- b\n"))
		assert.Empty(t, res.Fragments)
		require.Len(t, res.Warnings, 1)
	})
}

func TestSplitDoesNotMutateInput(t *testing.T) {
	doc := decode(t, scenarioA)
	before := document.Clone(doc)

	_, frags := New().Split(doc)
	for _, op := range operations(frags) {
		document.Get(op.Body, "summary").Value = "changed"
	}

	assert.True(t, document.Equal(before, doc))
}

func TestSplitMethodCase(t *testing.T) {
	doc := decode(t, `paths:
  /api/v1/pets:
    Get: {summary: first}
  /pets:
    GET: {summary: second}
    post: {summary: create}
`)
	_, frags := New().Split(doc)
	ops := operations(frags)
	require.Len(t, ops, 2)
	assert.Equal(t, "GET", ops[0].Method)
	assert.Equal(t, "Get", ops[0].SourceKey)
	assert.Equal(t, "first", document.Get(ops[0].Body, "summary").Value)
}

func TestSplitMethodCaseIsASCII(t *testing.T) {
	doc := decode(t, `paths:
  /a:
    get: {summary: lower}
    Get: {summary: title}
    "\u00df": {}
    SS: {}
    "gEt\u00df": {}
`)
	_, frags := New().Split(doc)
	var methods []string
	for _, op := range operations(frags) {
		methods = append(methods, op.Method)
	}
	assert.Equal(t, []string{"GET", "\u00df", "SS", "GET\u00df"}, methods)
}

func TestSplitSkipsMergeKeys(t *testing.T) {
	doc := decode(t, `x-shared: &shared
  get: {summary: shared}
paths:
  <<: {/merged: {get: {}}}
  /pets:
    <<: *shared
    post: {summary: create}
`)
	core, logs := observer.New(zapcore.WarnLevel)
	res := New(WithLogger(logging.NewZapAdapter(zap.New(core)))).SplitDocument(doc)

	assert.Equal(t, 1, res.Routes)
	assert.Equal(t, 1, res.Groups)
	ops := operations(res.Fragments)
	require.Len(t, ops, 1)
	assert.Equal(t, "/pets", ops[0].CanonicalPath)
	assert.Equal(t, "POST", ops[0].Method)
	assert.Len(t, pathFragments(res.Fragments)[0].Methods, 1)

	assert.Equal(t, 1, logs.FilterMessage("merge key in paths is not a route, skipping").Len())
	assert.Equal(t, 1, logs.FilterMessage("merge key in route is not a method, skipping").Len())
}

func TestSplitMethodsOnly(t *testing.T) {
	doc := decode(t, `paths:
  /pets:
    summary: Pets
    parameters: []
    get: {}
    x-internal: true
    query: {}
`)
	t.Run("default keeps every key", func(t *testing.T) {
		_, frags := New().Split(doc)
		assert.Len(t, operations(frags), 5)
	})

	t.Run("methods only", func(t *testing.T) {
		_, frags := New(WithMethodsOnly(true)).Split(doc)
		ops := operations(frags)
		require.Len(t, ops, 2)
		assert.Equal(t, "GET", ops[0].Method)
		assert.Equal(t, "QUERY", ops[1].Method)
		assert.Len(t, pathFragments(frags)[0].Methods, 5, "path fragment keeps every key")
	})
}

func TestSplitNoDuplicateOperations(t *testing.T) {
	doc := decode(t, `paths:
  /a: {get: {}, post: {}}
  /api/a: {get: {}, put: {}}
  /v3/a: {GET: {}, put: {}, delete: {}}
  /api/v9/a/: {patch: {}}
  /b: {get: {}}
`)
	_, frags := New().Split(doc)

	seen := make(map[string]bool)
	for _, op := range operations(frags) {
		key := op.CanonicalPath + " " + op.Method
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
	assert.Len(t, seen, 6)
}

func TestSplitDeterministicAcrossWorkers(t *testing.T) {
	doc := decode(t, largeDocument(200))
	_, want := New(WithWorkers(1)).Split(doc)

	for _, workers := range []int{2, 4, 16, 64} {
		_, got := New(WithWorkers(workers)).Split(doc)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Kind(), got[i].Kind())
			assert.Equal(t, want[i].Path(), got[i].Path())
			assert.Equal(t, want[i].Position(), got[i].Position())
		}
	}
}

func TestSplitDocIndex(t *testing.T) {
	_, frags := New(WithDocIndex(3)).Split(decode(t, scenarioA))
	for _, f := range frags {
		assert.Equal(t, 3, f.Position().Doc)
	}
}

func largeDocument(n int) string {
	s := "openapi: 3.0.0\npaths:\n"
	for i := 0; i < n; i++ {
		prefix := []string{"", "/api", "/api/v1", "/v2"}[i%4]
		s += "  " + prefix + "/r" + strconv.Itoa(i/4) + ":\n    get: {}\n    post: {}\n"
	}
	return s
}

func BenchmarkSplit(b *testing.B) {
	doc := decode(b, largeDocument(2000))
	s := New()
	for b.Loop() {
		s.Split(doc)
	}
}
