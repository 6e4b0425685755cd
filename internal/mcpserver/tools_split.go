package mcpserver

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/processor"
	"github.com/erraggy/oasplit/renderer"
)

type splitInput struct {
	Spec             specInput `json:"spec"                         jsonschema:"The OAS document to split"`
	Format           string    `json:"format,omitempty"             jsonschema:"Record text format: yaml or json. Defaults to the server setting"`
	Endpoints        []string  `json:"endpoints,omitempty"          jsonschema:"Keep only records whose canonical path starts with one of these prefixes"`
	PruneComponents  bool      `json:"prune_components,omitempty"   jsonschema:"Keep only the schemas each record references"`
	MethodsOnly      bool      `json:"methods_only,omitempty"       jsonschema:"Emit verb records only for HTTP methods, not for other path item members"`
	SourceMethodKeys bool      `json:"source_method_keys,omitempty" jsonschema:"Render verb records under the method key as spelled in the source"`
	Kind             string    `json:"kind,omitempty"               jsonschema:"Filter records by kind: path or verb"`
	IncludeText      bool      `json:"include_text,omitempty"       jsonschema:"Include each record's rendered document"`
	IncludeSkeleton  bool      `json:"include_skeleton,omitempty"   jsonschema:"Include the rendered document skeleton (everything except paths)"`
	GroupBy          string    `json:"group_by,omitempty"           jsonschema:"Group results and return counts instead of records. Values: resource, method, kind"`
	Offset           int       `json:"offset,omitempty"             jsonschema:"Skip the first N records (for pagination)"`
	Limit            int       `json:"limit,omitempty"              jsonschema:"Maximum number of records to return (default 25, 10 with include_text)"`
}

// recordSummary is the wire form of a processor.Record.
type recordSummary struct {
	Kind      string   `json:"kind"`
	ID        string   `json:"id"`
	Method    string   `json:"method,omitempty"`
	Path      string   `json:"path"`
	Resource  string   `json:"resource"`
	Members   []string `json:"members,omitempty"`
	Text      string   `json:"text,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
}

type splitOutput struct {
	Source         string          `json:"source"`
	Format         string          `json:"format"`
	BaseURL        string          `json:"base_url,omitempty"`
	Routes         int             `json:"routes"`
	CanonicalPaths int             `json:"canonical_paths"`
	PathRecords    int             `json:"path_records"`
	VerbRecords    int             `json:"verb_records"`
	Warnings       []string        `json:"warnings,omitempty"`
	Skeleton       string          `json:"skeleton,omitempty"`
	Total          int             `json:"total"`
	Returned       int             `json:"returned"`
	Records        []recordSummary `json:"records,omitempty"`
	Groups         []groupCount    `json:"groups,omitempty"`
}

var splitGroupBy = []string{"resource", "method", "kind"}

func handleSplit(ctx context.Context, _ *mcp.CallToolRequest, input splitInput) (*mcp.CallToolResult, splitOutput, error) {
	if err := validateGroupBy(input.GroupBy, input.IncludeText, splitGroupBy); err != nil {
		return errResult(err), splitOutput{}, nil
	}
	kind, err := parseKind(input.Kind)
	if err != nil {
		return errResult(err), splitOutput{}, nil
	}
	p, err := newProcessor(input)
	if err != nil {
		return errResult(err), splitOutput{}, nil
	}

	doc, err := input.Spec.resolve(ctx)
	if err != nil {
		return errResult(err), splitOutput{}, nil
	}
	res, err := p.ProcessDocuments(doc)
	if err != nil {
		return errResult(err), splitOutput{}, nil
	}

	records := filterKind(res.Records, kind)
	output := splitOutput{
		Source:         doc.Source,
		Format:         string(res.Format),
		BaseURL:        res.BaseURL,
		Routes:         res.Stats.Routes,
		CanonicalPaths: res.Stats.Groups,
		PathRecords:    res.Stats.PathFragments,
		VerbRecords:    res.Stats.OperationFragments,
		Total:          len(records),
	}
	for _, w := range res.Warnings {
		output.Warnings = append(output.Warnings, sanitizeError(w))
	}
	if input.IncludeSkeleton {
		output.Skeleton, _ = truncateText(res.Skeleton, cfg.Search.MaxInlineSize)
	}

	if input.GroupBy != "" {
		output.Groups = groupAndSort(records, groupKey(input.GroupBy))
		output.Returned = len(output.Groups)
		return nil, output, nil
	}

	limit := input.Limit
	if input.IncludeText {
		limit = detailLimit(limit)
	}
	page := paginate(records, input.Offset, limit)
	output.Records = make([]recordSummary, 0, len(page))
	for _, rec := range page {
		output.Records = append(output.Records, summarize(rec, input.IncludeText))
	}
	output.Returned = len(output.Records)
	return nil, output, nil
}

// newProcessor builds a processor from the server defaults overlaid with
// the tool input.
func newProcessor(input splitInput) (*processor.Processor, error) {
	name := input.Format
	if name == "" {
		name = cfg.Split.Format
	}
	format, err := renderer.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	endpoints := input.Endpoints
	if len(endpoints) == 0 {
		endpoints = cfg.Split.Endpoints
	}
	return &processor.Processor{
		Workers:          cfg.Split.Workers,
		Format:           format,
		Endpoints:        endpoints,
		PruneComponents:  input.PruneComponents || cfg.Split.PruneComponents,
		MethodsOnly:      input.MethodsOnly || cfg.Split.MethodsOnly,
		SourceMethodKeys: input.SourceMethodKeys || cfg.Split.SourceMethodKeys,
		Logger:           serverLog,
	}, nil
}

func filterKind(records []processor.Record, kind fragment.Kind) []processor.Record {
	if kind == "" {
		return records
	}
	var out []processor.Record
	for _, rec := range records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

func groupKey(groupBy string) func(processor.Record) []string {
	switch strings.ToLower(groupBy) {
	case "method":
		return func(r processor.Record) []string {
			if r.Method == "" {
				return nil
			}
			return []string{r.Method}
		}
	case "kind":
		return func(r processor.Record) []string { return []string{string(r.Kind)} }
	default:
		return func(r processor.Record) []string { return []string{r.ResourceKey} }
	}
}

func summarize(rec processor.Record, includeText bool) recordSummary {
	s := recordSummary{
		Kind:     string(rec.Kind),
		ID:       rec.ID,
		Method:   rec.Method,
		Path:     rec.CanonicalPath,
		Resource: rec.ResourceKey,
		Members:  rec.Members,
	}
	if includeText {
		s.Text, s.Truncated = truncateText(rec.Text, cfg.Search.MaxInlineSize)
	}
	return s
}

// truncateText cuts s to at most limit bytes without splitting a rune.
// A non-positive limit disables truncation.
func truncateText(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}
	return strings.ToValidUTF8(s[:limit], ""), true
}
