// Package oasplit decomposes large OpenAPI Specification (OAS) documents into
// resource- and operation-granular fragments.
//
// A document's "paths" member is split into one path fragment per canonical
// route and one operation fragment per HTTP method. Raw routes that differ only
// by an "api" prefix or a version segment ("/api/v1/users", "/v2/users",
// "/users") collapse onto the same canonical route. Fragments are then merged:
// path fragments sharing a resource root ("/users", "/users/{id}") converge on
// one resource-level fragment, while operation fragments stay keyed by exact
// canonical path and method.
//
// # Overview
//
// The library is organized as a pipeline of small packages:
//
//   - normalizer: canonicalize raw route strings and derive resource keys
//   - splitter: fan a document out into path and operation fragments
//   - merger: reduce fragments that collide on a key, safely in parallel
//   - renderer: embed a fragment in the document skeleton and serialize it
//   - loader: read a document from a file, URL, reader, or bytes
//   - pruner: reduce a skeleton's schemas to those a fragment references
//   - processor: run the whole pipeline and return text records
//   - catalog: index records for full-text and filtered search
//
// The oasplit command (cmd/oasplit) exposes split, normalize, and search on
// the command line, and "oasplit mcp" serves the same operations as MCP tools
// over stdio.
//
// # Quick Start
//
//	import "github.com/erraggy/oasplit/processor"
//
//	result, err := processor.ProcessWithOptions(ctx,
//		processor.WithFilePath("openapi.yaml"),
//		processor.WithFormat(renderer.FormatYAML),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Skeleton)
//	for _, rec := range result.Records {
//		fmt.Printf("%s %s %s\n", rec.Kind, rec.Method, rec.CanonicalPath)
//	}
//
// # Conflict Resolution
//
// Conflicts never fail a run. When two raw routes canonicalize to the same
// path and define the same method, the first one in document order wins.
// When two path fragments share a resource key, their method maps are unioned
// with the same first-seen-wins rule. Operation fragments sharing a canonical
// path and method resolve last-applied-wins. The processing order is the
// document's key order, and it is the same whether fragments are processed
// sequentially or in parallel.
//
// # Errors
//
// The oaserrors package defines the error types returned by every package.
// Use errors.Is with the sentinels (oaserrors.ErrRender, oaserrors.ErrParse,
// ...) or errors.As to extract details.
package oasplit
