// Package oaserrors provides structured error types for the oasplit library.
//
// Import path: github.com/erraggy/oasplit/oaserrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to distinguish between different categories of errors.
//
// # Error Types
//
//   - [ParseError]: JSON/YAML decoding failures and a non-mapping document root
//   - [ShapeError]: a document member has an unexpected shape ("paths" that is not a mapping)
//   - [RenderError]: a fragment could not be serialized
//   - [LoadError]: reading a file or fetching a URL failed
//   - [ConfigError]: invalid configuration or input options
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel error for use with errors.Is():
//
//   - [ErrParse]: Matches any [ParseError]
//   - [ErrInputShape]: Matches any [ShapeError]
//   - [ErrRender]: Matches any [RenderError]
//   - [ErrLoad]: Matches any [LoadError]
//   - [ErrConfig]: Matches any [ConfigError]
//
// # Usage Examples
//
//	result, err := processor.ProcessWithOptions(processor.WithFilePath("api.yaml"))
//	if errors.Is(err, oaserrors.ErrRender) {
//	    // at least one fragment could not be rendered
//	}
//
//	var renderErr *oaserrors.RenderError
//	if errors.As(err, &renderErr) {
//	    fmt.Printf("cannot render %s %s\n", renderErr.Method, renderErr.Path)
//	}
//
// Shape problems are not fatal. The splitter reports them as warnings, and
// processor.Result.Warnings carries them as *ShapeError values.
//
// A merge conflict is never an error: colliding fragments are resolved by
// processing order, so no merge error type exists.
package oaserrors
