// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

// Package pathutil provides JSON Pointer and reference helpers used while
// walking OpenAPI document trees.
//
// The primary type is [Pointer], which uses push/pop semantics to build a
// JSON Pointer (RFC 6901) incrementally without allocating intermediate
// strings. The pointer is only materialized when a location needs to be
// reported.
//
// # Pointer Usage
//
// Use [Get] to obtain a pooled Pointer, and [Put] to return it:
//
//	ptr := pathutil.Get()
//	defer pathutil.Put(ptr)
//
//	ptr.Push("paths")
//	ptr.Push("/pets/{id}")
//	// ... recurse ...
//	ptr.Pop()
//
//	// Only call String() when needed
//	log.Warn("dangling $ref", "at", ptr.String()) // "#/paths/~1pets~1{id}"
//
// # References
//
// [RefName] extracts the component name from a local reference:
//
//	name, ok := pathutil.RefName("#/components/schemas/Pet", pathutil.RefPrefixSchemas) // "Pet", true
//
// # Template Parameters
//
// [PathParams] lists the {name} parameters of a route template.
//
// # Output Path Sanitization
//
// [SanitizeOutputPath] validates and cleans output file paths for security.
// It resolves ".." and rejects symlinks:
//
//	safe, err := pathutil.SanitizeOutputPath(userProvidedPath)
//	if err != nil {
//	    return err
//	}
package pathutil
