package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasplit/internal/pathutil"
	"github.com/erraggy/oasplit/normalizer"
)

type normalizeInput struct {
	Paths   []string `json:"paths"              jsonschema:"Raw route strings to canonicalize"`
	GroupBy string   `json:"group_by,omitempty" jsonschema:"Set to resource to return route counts per resource key"`
}

type normalizedPath struct {
	Raw       string   `json:"raw"`
	Canonical string   `json:"canonical"`
	Resource  string   `json:"resource"`
	Params    []string `json:"params,omitempty"`
	Changed   bool     `json:"changed,omitempty"`
}

type normalizeOutput struct {
	Paths  []normalizedPath `json:"paths,omitempty"`
	Groups []groupCount     `json:"groups,omitempty"`
}

func handleNormalize(_ context.Context, _ *mcp.CallToolRequest, input normalizeInput) (*mcp.CallToolResult, normalizeOutput, error) {
	if len(input.Paths) == 0 {
		return errResult(fmt.Errorf("paths must contain at least one route")), normalizeOutput{}, nil
	}
	if len(input.Paths) > cfg.MaxLimit {
		return errResult(fmt.Errorf("too many paths: %d (maximum %d)", len(input.Paths), cfg.MaxLimit)), normalizeOutput{}, nil
	}
	if err := validateGroupBy(input.GroupBy, false, []string{"resource"}); err != nil {
		return errResult(err), normalizeOutput{}, nil
	}

	paths := make([]normalizedPath, 0, len(input.Paths))
	for _, raw := range input.Paths {
		canonical := normalizer.Normalize(raw)
		paths = append(paths, normalizedPath{
			Raw:       raw,
			Canonical: canonical,
			Resource:  normalizer.ResourceKey(canonical),
			Params:    pathutil.PathParams(canonical),
			Changed:   canonical != raw,
		})
	}

	if input.GroupBy != "" {
		// Each canonical path counts once per resource.
		seen := make(map[string]bool)
		groups := groupAndSort(paths, func(p normalizedPath) []string {
			if seen[p.Canonical] {
				return nil
			}
			seen[p.Canonical] = true
			return []string{p.Resource}
		})
		return nil, normalizeOutput{Groups: groups}, nil
	}
	return nil, normalizeOutput{Paths: paths}, nil
}
