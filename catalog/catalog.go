// Package catalog keeps an in-memory full-text index over processed records.
//
// Each record is indexed with its kind, method, canonical path, resource
// key, path template parameters, and the descriptive members of its
// operations (operationId, summary, description, tags). Free text is matched
// against all of them; method, kind, and path prefix act as exact filters.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/internal/pathutil"
	"github.com/erraggy/oasplit/processor"
)

const (
	// DefaultLimit is the number of hits returned when a query sets none.
	DefaultLimit = 10
	// MaxLimit caps the hits of a single query.
	MaxLimit = 100

	batchSize = 100
)

// entry is the indexed form of a record.
type entry struct {
	Kind        string   `json:"kind"`
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Resource    string   `json:"resource"`
	Params      []string `json:"params"`
	OperationID []string `json:"operationId"`
	Summary     []string `json:"summary"`
	Description []string `json:"description"`
	Tags        []string `json:"tags"`
}

// Catalog is an index over records. It is safe for concurrent use.
type Catalog struct {
	index   bleve.Index
	records *xsync.Map[string, processor.Record]
}

// New creates an empty catalog.
func New() (*Catalog, error) {
	index, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to create index: %w", err)
	}
	return &Catalog{index: index, records: xsync.NewMap[string, processor.Record]()}, nil
}

// FromResult creates a catalog holding every record of res.
func FromResult(res *processor.Result) (*Catalog, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}
	if err := c.Add(res.Records...); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func indexMapping() *mapping.IndexMappingImpl {
	keyword := bleve.NewKeywordFieldMapping()
	text := bleve.NewTextFieldMapping()
	pathText := bleve.NewTextFieldMapping()
	pathText.Name = "pathText"

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("kind", keyword)
	doc.AddFieldMappingsAt("method", keyword)
	doc.AddFieldMappingsAt("path", keyword, pathText)
	doc.AddFieldMappingsAt("resource", keyword)
	for _, f := range []string{"params", "operationId", "summary", "description", "tags"} {
		doc.AddFieldMappingsAt(f, text)
	}

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Add indexes records. A record with an ID already in the catalog replaces
// the earlier one.
func (c *Catalog) Add(records ...processor.Record) error {
	batch := c.index.NewBatch()
	for i, rec := range records {
		if err := batch.Index(rec.ID, newEntry(rec)); err != nil {
			return fmt.Errorf("catalog: failed to index %s %s: %w", rec.Kind, rec.CanonicalPath, err)
		}
		c.records.Store(rec.ID, rec)
		if (i+1)%batchSize == 0 {
			if err := c.index.Batch(batch); err != nil {
				return fmt.Errorf("catalog: failed to index batch: %w", err)
			}
			batch = c.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := c.index.Batch(batch); err != nil {
			return fmt.Errorf("catalog: failed to index batch: %w", err)
		}
	}
	return nil
}

// Len returns the number of records in the catalog.
func (c *Catalog) Len() int {
	return c.records.Size()
}

// Get returns the record with the given ID.
func (c *Catalog) Get(id string) (processor.Record, bool) {
	return c.records.Load(id)
}

// Close releases the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

// Query selects records.
type Query struct {
	// Text is matched against every indexed field. Empty matches all.
	Text string
	// Method keeps verb records with this method (case-insensitive).
	Method string
	// Kind keeps records of this kind.
	Kind fragment.Kind
	// PathPrefix keeps records whose canonical path starts with it.
	PathPrefix string
	// Limit bounds the hits. Zero means DefaultLimit.
	Limit int
	// Offset skips that many hits, for paging.
	Offset int
}

// Hit is one search result.
type Hit struct {
	Record processor.Record
	Score  float64
}

// Results is the outcome of a search.
type Results struct {
	Hits []Hit
	// Total is the number of matching records before Limit applies.
	Total int
}

// Search runs q against the catalog. Hits are ordered by score.
func (c *Catalog) Search(ctx context.Context, q Query) (*Results, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, max(q.Offset, 0), false)
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog: search failed: %w", err)
	}

	out := &Results{Total: int(res.Total), Hits: make([]Hit, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		rec, ok := c.records.Load(hit.ID)
		if !ok {
			continue
		}
		out.Hits = append(out.Hits, Hit{Record: rec, Score: hit.Score})
	}
	return out, nil
}

func buildQuery(q Query) query.Query {
	var conjuncts []query.Query
	if text := strings.TrimSpace(q.Text); text != "" {
		conjuncts = append(conjuncts, bleve.NewMatchQuery(text))
	}
	if q.Method != "" {
		t := bleve.NewTermQuery(strings.ToUpper(q.Method))
		t.SetField("method")
		conjuncts = append(conjuncts, t)
	}
	if q.Kind != "" {
		t := bleve.NewTermQuery(string(q.Kind))
		t.SetField("kind")
		conjuncts = append(conjuncts, t)
	}
	if q.PathPrefix != "" {
		p := bleve.NewPrefixQuery(q.PathPrefix)
		p.SetField("path")
		conjuncts = append(conjuncts, p)
	}
	switch len(conjuncts) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return conjuncts[0]
	default:
		return bleve.NewConjunctionQuery(conjuncts...)
	}
}

// newEntry extracts the searchable members of a record from its text.
func newEntry(rec processor.Record) entry {
	e := entry{
		Kind:     string(rec.Kind),
		Method:   rec.Method,
		Path:     rec.CanonicalPath,
		Resource: rec.ResourceKey,
		Params:   pathutil.PathParams(rec.CanonicalPath),
	}
	doc, err := document.DecodeYAML([]byte(rec.Text))
	if err != nil {
		return e
	}
	// Path records hold every method of the route, verb records just one.
	for _, p := range document.Pairs(document.GetPath(doc, "paths", rec.CanonicalPath)) {
		e.addOperation(p.Value)
	}
	return e
}

func (e *entry) addOperation(op document.Node) {
	if v := document.Get(op, "operationId"); v != nil && v.Value != "" {
		e.OperationID = append(e.OperationID, v.Value)
	}
	if v := document.Get(op, "summary"); v != nil && v.Value != "" {
		e.Summary = append(e.Summary, v.Value)
	}
	if v := document.Get(op, "description"); v != nil && v.Value != "" {
		e.Description = append(e.Description, v.Value)
	}
	if tags := document.Get(op, "tags"); document.KindName(tags) == "sequence" {
		for _, t := range tags.Content {
			if t.Value != "" {
				e.Tags = append(e.Tags, t.Value)
			}
		}
	}
}
