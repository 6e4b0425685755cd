package oaserrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrParse indicates a decoding failure occurred.
	ErrParse = errors.New("parse error")

	// ErrInputShape indicates a document member had an unexpected shape.
	ErrInputShape = errors.New("input shape error")

	// ErrRender indicates a fragment could not be rendered.
	ErrRender = errors.New("render error")

	// ErrLoad indicates a source could not be read or fetched.
	ErrLoad = errors.New("load error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ParseError represents a failure to decode a document.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Format is the format that was attempted ("json", "yaml"), if known
	Format string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Format != "" {
		msg = e.Format + " " + msg
	}
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ShapeError reports a document member whose node kind is not the expected one.
type ShapeError struct {
	// Member is the document member, e.g. "paths"
	Member string
	// Expected is the expected node kind, e.g. "mapping"
	Expected string
	// Actual is the kind that was found, e.g. "sequence"
	Actual string
}

// Error returns a human-readable error message.
func (e *ShapeError) Error() string {
	msg := "input shape error"
	if e.Member != "" {
		msg += ": " + e.Member
	}
	if e.Expected != "" {
		msg += " is not a " + e.Expected
	}
	if e.Actual != "" {
		msg += " (got " + e.Actual + ")"
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ShapeError) Is(target error) bool {
	return target == ErrInputShape
}

// RenderError represents a fragment that could not be serialized.
type RenderError struct {
	// Kind is the fragment kind: "path", "verb", or "skeleton"
	Kind string
	// Path is the canonical path of the fragment
	Path string
	// Method is the uppercased method for operation fragments
	Method string
	// Format is the target dialect, e.g. "json"
	Format string
	// Message describes what could not be represented
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *RenderError) Error() string {
	msg := "render error"
	if e.Kind != "" {
		msg += " for " + e.Kind
	}
	if e.Method != "" {
		msg += " " + e.Method
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Format != "" {
		msg += " as " + e.Format
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}

// LoadError represents a failure to read a source before decoding.
type LoadError struct {
	// Source is the file path or URL
	Source string
	// StatusCode is the HTTP status for URL sources (0 if not applicable)
	StatusCode int
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *LoadError) Error() string {
	msg := "load error"
	if e.Source != "" {
		msg += " for " + e.Source
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// ConfigError represents an invalid configuration or option.
type ConfigError struct {
	// Option is the name of the invalid option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
