package mcpserver

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasplit/catalog"
)

type searchInput struct {
	Spec        specInput `json:"spec"                   jsonschema:"The OAS document to search"`
	Query       string    `json:"query,omitempty"        jsonschema:"Free text matched against operationId, summary, description, tags, path, and parameter names. Empty matches every record"`
	Method      string    `json:"method,omitempty"       jsonschema:"Keep only verb records with this HTTP method"`
	Kind        string    `json:"kind,omitempty"         jsonschema:"Keep only records of this kind: path or verb"`
	PathPrefix  string    `json:"path_prefix,omitempty"  jsonschema:"Keep only records whose canonical path starts with this prefix"`
	IncludeText bool      `json:"include_text,omitempty" jsonschema:"Include each hit's rendered document"`
	Offset      int       `json:"offset,omitempty"       jsonschema:"Skip the first N hits (for pagination)"`
	Limit       int       `json:"limit,omitempty"        jsonschema:"Maximum number of hits to return (default 25, 10 with include_text)"`
}

type searchHit struct {
	Score  float64       `json:"score"`
	Record recordSummary `json:"record"`
}

type searchOutput struct {
	Total    int         `json:"total"`
	Returned int         `json:"returned"`
	Hits     []searchHit `json:"hits,omitempty"`
}

func handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, searchOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return errResult(err), searchOutput{}, nil
	}
	cat, release, err := catalogFor(ctx, input.Spec)
	if err != nil {
		return errResult(err), searchOutput{}, nil
	}
	defer release()

	limit := input.Limit
	if limit <= 0 {
		limit = cfg.Search.Limit
		if input.IncludeText {
			limit = defaultTextLimit
		}
	}
	res, err := cat.Search(ctx, catalog.Query{
		Text:       input.Query,
		Method:     input.Method,
		Kind:       kind,
		PathPrefix: input.PathPrefix,
		Limit:      min(limit, cfg.MaxLimit),
		Offset:     input.Offset,
	})
	if err != nil {
		return errResult(err), searchOutput{}, nil
	}

	output := searchOutput{Total: res.Total, Hits: make([]searchHit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		output.Hits = append(output.Hits, searchHit{Score: h.Score, Record: summarize(h.Record, input.IncludeText)})
	}
	output.Returned = len(output.Hits)
	return nil, output, nil
}

// catalogFor returns the search catalog for s, built with the server's
// split defaults. The caller must call release when done searching. A cached
// catalog is closed once it has been evicted and every holder released it.
func catalogFor(ctx context.Context, s specInput) (*catalog.Catalog, func(), error) {
	if err := s.validate(); err != nil {
		return nil, nil, err
	}
	key := s.cacheKey()
	if key != "" {
		key = "catalog:" + key
		if sc, ok := cachedCatalog(key); ok {
			return sc.cat, sc.release, nil
		}
	}

	doc, err := s.resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := newProcessor(splitInput{})
	if err != nil {
		return nil, nil, err
	}
	res, err := p.ProcessDocuments(doc)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.FromResult(res)
	if err != nil {
		return nil, nil, err
	}

	if key == "" {
		return cat, func() { _ = cat.Close() }, nil
	}
	sc := &sharedCatalog{cat: cat, refs: 1}
	// Add overwrites an expired entry without calling OnEvicted.
	specCache.DeleteExpired()
	if err := specCache.Add(key, sc, s.ttl()); err == nil {
		return cat, sc.release, nil
	}
	// Another call built the same catalog first.
	if existing, ok := cachedCatalog(key); ok {
		_ = cat.Close()
		return existing.cat, existing.release, nil
	}
	return cat, func() { _ = cat.Close() }, nil
}

// cachedCatalog looks up key and takes a reference on the catalog it holds.
func cachedCatalog(key string) (*sharedCatalog, bool) {
	v, ok := specCache.Get(key)
	if !ok {
		return nil, false
	}
	sc, ok := v.(*sharedCatalog)
	if !ok || !sc.acquire() {
		return nil, false
	}
	return sc, true
}

// sharedCatalog is a cached catalog with a count of in-flight searches.
type sharedCatalog struct {
	cat *catalog.Catalog

	mu      sync.Mutex
	refs    int
	evicted bool
}

func (sc *sharedCatalog) acquire() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.evicted {
		return false
	}
	sc.refs++
	return true
}

func (sc *sharedCatalog) release() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.refs--
	if sc.evicted && sc.refs == 0 {
		_ = sc.cat.Close()
	}
}

// evict marks the catalog as gone from the cache and closes it when no
// search holds it.
func (sc *sharedCatalog) evict() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.evicted {
		return
	}
	sc.evicted = true
	if sc.refs == 0 {
		_ = sc.cat.Close()
	}
}
