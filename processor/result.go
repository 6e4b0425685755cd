package processor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/normalizer"
	"github.com/erraggy/oasplit/renderer"
)

// RecordNamespace is the UUID namespace record IDs are derived in.
var RecordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/erraggy/oasplit/record"))

// Record is one rendered fragment.
type Record struct {
	// Kind is "path" or "verb".
	Kind fragment.Kind `json:"kind" yaml:"kind"`
	// ID is stable for a given kind, path, and method across runs.
	ID string `json:"id" yaml:"id"`
	// Method is the uppercased method of a verb record.
	Method        string `json:"method,omitempty" yaml:"method,omitempty"`
	CanonicalPath string `json:"path" yaml:"path"`
	ResourceKey   string `json:"resource" yaml:"resource"`
	// Members lists the canonical paths a path record was folded from.
	Members []string `json:"members,omitempty" yaml:"members,omitempty"`
	// Text is the rendered working document.
	Text string `json:"text" yaml:"text"`
}

// RecordID returns the deterministic ID of a record.
func RecordID(kind fragment.Kind, path, method string) string {
	name := string(kind) + "\x00" + path + "\x00" + method
	return uuid.NewSHA1(RecordNamespace, []byte(name)).String()
}

func newRecord(f fragment.Fragment, text string) Record {
	rec := Record{Kind: f.Kind(), CanonicalPath: f.Path(), Text: text}
	switch f := f.(type) {
	case *fragment.PathFragment:
		rec.ResourceKey = normalizer.ResourceKey(f.CanonicalPath)
		rec.Members = f.Members
	case *fragment.OperationFragment:
		rec.Method = f.Method
		rec.ResourceKey = f.ResourceKey
	}
	rec.ID = RecordID(rec.Kind, rec.CanonicalPath, rec.Method)
	return rec
}

// Stats summarizes a run.
type Stats struct {
	Documents int
	// Routes is the number of raw routes across all documents.
	Routes int
	// Groups is the number of canonical paths across all documents.
	Groups int
	// SplitFragments is the number of fragments before merging.
	SplitFragments     int
	PathFragments      int
	OperationFragments int
	LoadTime           time.Duration
	ProcessTime        time.Duration
}

// Result is the outcome of a run.
type Result struct {
	// Skeleton is the rendered base document without "paths".
	Skeleton string
	// Records holds one entry per fragment in natural path order.
	Records []Record
	Format  renderer.Format
	// BaseURL is the API base URL declared by the document, if any.
	BaseURL string
	// Sources lists where loaded documents came from.
	Sources  []string
	Stats    Stats
	Warnings []error
}

// Paths returns the path records.
func (r *Result) Paths() []Record {
	return r.filter(fragment.KindPath)
}

// Operations returns the verb records.
func (r *Result) Operations() []Record {
	return r.filter(fragment.KindVerb)
}

func (r *Result) filter(kind fragment.Kind) []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// BaseURL extracts the API base URL from a skeleton: the first server URL
// of an OAS 3.x document, or scheme://host+basePath of an OAS 2.0 document
// with the first listed scheme, https when none is listed.
func BaseURL(skeleton document.Node) string {
	root := document.Root(skeleton)
	if v := document.Get(root, "openapi"); v != nil && strings.HasPrefix(v.Value, "3.") {
		servers := document.Get(root, "servers")
		if document.KindName(servers) != "sequence" || len(servers.Content) == 0 {
			return ""
		}
		if u := document.Get(servers.Content[0], "url"); u != nil {
			return u.Value
		}
		return ""
	}
	if v := document.Get(root, "swagger"); v != nil && strings.HasPrefix(v.Value, "2.") {
		host := document.Get(root, "host")
		if host == nil || host.Value == "" {
			return ""
		}
		scheme := "https"
		if schemes := document.Get(root, "schemes"); document.KindName(schemes) == "sequence" && len(schemes.Content) > 0 {
			scheme = schemes.Content[0].Value
		}
		basePath := ""
		if bp := document.Get(root, "basePath"); bp != nil {
			basePath = bp.Value
		}
		return scheme + "://" + host.Value + basePath
	}
	return ""
}
