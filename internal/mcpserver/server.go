// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes oasplit capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasplit"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/logging"
)

const serverInstructions = `oasplit MCP server: splits OpenAPI documents into path and operation fragments, canonicalizes routes, and searches the fragments.

Routes are canonicalized before splitting: a leading "api" segment and a following version segment are dropped, so /api/v1/users, /v2/users and /users are all the canonical path /users. Path records are grouped by resource key (the first segment of the canonical path); verb records hold a single operation.

Configuration: defaults come from the config file named by OASPLIT_CONFIG and from OASPLIT_* environment variables set in your MCP client config.

Key settings:
- OASPLIT_SPLIT_FORMAT (default: yaml): record text format
- OASPLIT_SPLIT_PRUNE_COMPONENTS (default: false): keep only referenced schemas in each record
- OASPLIT_CACHE_ENABLED (default: true): disable document caching entirely
- OASPLIT_CACHE_FILE_TTL (default: 15m): cache TTL for local files
- OASPLIT_CACHE_URL_TTL (default: 5m): cache TTL for fetched URLs
- OASPLIT_SEARCH_LIMIT (default: 25): default page size
- OASPLIT_SEARCH_MAX_INLINE_SIZE (default: 65536): longest record text returned inline
- OASPLIT_HTTP_ALLOW_PRIVATE_IPS (default: false): allow URL inputs on private networks

Caching: loaded documents and search indexes are cached per session. File entries use path+mtime as key (auto-invalidated on change). URL entries are cached with a shorter TTL.

Workflow: call split with group_by=resource to see the shape of a large API, then page through records with kind, endpoints and include_text. Use search to find operations by operationId, summary, tag, or parameter name.`

// defaultTextLimit is the default page size when record text is included.
const defaultTextLimit = 10

// serverLog receives loader and pipeline output. It never writes to stdout,
// which carries the protocol.
var serverLog logging.Logger = logging.NewSlogAdapter(slog.Default())

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled. A nil log keeps the default slog output.
func Run(ctx context.Context, log logging.Logger) error {
	if log != nil {
		serverLog = log
	}
	defer specCache.Flush()

	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasplit", Version: oasplit.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "split",
		Description: "Split an OpenAPI document into path records (one per resource, methods merged) and verb records (one per canonical path and method). Returns record summaries with stable IDs by default; include_text=true adds each record's rendered document, truncated at the inline size limit. Use group_by (resource, method, or kind) to get distribution counts instead of records. Narrow large APIs with endpoints (canonical path prefixes) and kind (path or verb), then page with offset/limit.",
	}, handleSplit)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "normalize",
		Description: "Canonicalize raw route strings the way split does: empty segments are dropped, then a leading api segment and a following version segment (v1, v2, ...). Returns each canonical path with its resource key and template parameters. Use group_by=resource to count routes per resource.",
	}, handleNormalize)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Full-text search over the records of an OpenAPI document. Matches operationId, summary, description, tags, path, and path parameter names. Filter with method, kind (path or verb), and path_prefix. Hits are ordered by relevance; use offset/limit to page and include_text=true to return record documents.",
	}, handleSearch)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.Search.Limit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.Search.Limit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// detailLimit returns a lower default limit when record text is returned.
func detailLimit(limit int) int {
	if limit <= 0 {
		return defaultTextLimit
	}
	return limit
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// groupCount represents a single group in group_by results.
type groupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// groupAndSort groups items by key, sorts by count descending (ties
// broken alphabetically by key), and returns the sorted groups.
func groupAndSort[T any](items []T, keyFn func(T) []string) []groupCount {
	counts := make(map[string]int)
	for _, item := range items {
		for _, key := range keyFn(item) {
			counts[key]++
		}
	}
	groups := make([]groupCount, 0, len(counts))
	for key, count := range counts {
		groups = append(groups, groupCount{Key: key, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// validateGroupBy checks that group_by is a valid value and is not combined
// with include_text.
func validateGroupBy(groupBy string, includeText bool, allowed []string) error {
	if groupBy == "" {
		return nil
	}
	if includeText {
		return fmt.Errorf("cannot use both group_by and include_text")
	}
	for _, a := range allowed {
		if strings.EqualFold(groupBy, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid group_by value %q; valid values: %s", groupBy, strings.Join(allowed, ", "))
}

// parseKind validates a kind filter.
func parseKind(s string) (fragment.Kind, error) {
	switch k := fragment.Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", fragment.KindPath, fragment.KindVerb:
		return k, nil
	default:
		return "", fmt.Errorf("invalid kind %q; valid values: path, verb", s)
	}
}
