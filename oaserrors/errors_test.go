package oaserrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New("underlying")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parse minimal", &ParseError{}, "parse error"},
		{"parse full", &ParseError{Path: "api.yaml", Format: "yaml", Line: 4, Message: "bad indent", Cause: cause},
			"yaml parse error in api.yaml at line 4: bad indent: underlying"},
		{"shape minimal", &ShapeError{}, "input shape error"},
		{"shape full", &ShapeError{Member: "paths", Expected: "mapping", Actual: "sequence"},
			"input shape error: paths is not a mapping (got sequence)"},
		{"render minimal", &RenderError{}, "render error"},
		{"render verb", &RenderError{Kind: "verb", Path: "/users", Method: "GET", Format: "json", Message: "NaN is not representable"},
			"render error for verb GET /users as json: NaN is not representable"},
		{"load minimal", &LoadError{}, "load error"},
		{"load status", &LoadError{Source: "https://x/api.json", StatusCode: 404, Message: "unexpected status"},
			"load error for https://x/api.json (HTTP 404): unexpected status"},
		{"config minimal", &ConfigError{}, "configuration error"},
		{"config full", &ConfigError{Option: "workers", Value: -1, Message: "must not be negative"},
			"configuration error for workers (value: -1): must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"ParseError", &ParseError{}, ErrParse},
		{"ShapeError", &ShapeError{}, ErrInputShape},
		{"RenderError", &RenderError{}, ErrRender},
		{"LoadError", &LoadError{}, ErrLoad},
		{"ConfigError", &ConfigError{}, ErrConfig},
	}

	all := []error{ErrParse, ErrInputShape, ErrRender, ErrLoad, ErrConfig}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("processor: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range all {
				if other == tt.sentinel {
					continue
				}
				assert.NotErrorIs(t, wrapped, other)
			}
		})
	}
}

func TestSentinelErrorsDistinct(t *testing.T) {
	sentinels := []error{ErrParse, ErrInputShape, ErrRender, ErrLoad, ErrConfig}
	for i, s1 := range sentinels {
		for j, s2 := range sentinels {
			if i != j {
				assert.NotErrorIs(t, s1, s2)
			}
		}
	}
}

func TestUnwrap(t *testing.T) {
	root := errors.New("connection reset")

	assert.Same(t, root, (&ParseError{Cause: root}).Unwrap())
	assert.Same(t, root, (&RenderError{Cause: root}).Unwrap())
	assert.Same(t, root, (&LoadError{Cause: root}).Unwrap())
	assert.Same(t, root, (&ConfigError{Cause: root}).Unwrap())
	assert.Nil(t, (&ParseError{}).Unwrap())

	wrapped := fmt.Errorf("loader: %w", &LoadError{Source: "x", Cause: root})
	assert.ErrorIs(t, wrapped, root)
}

func TestErrorsAsThroughMultierr(t *testing.T) {
	combined := multierr.Combine(
		&RenderError{Kind: "verb", Path: "/a", Method: "GET"},
		&RenderError{Kind: "path", Path: "/b"},
	)
	wrapped := fmt.Errorf("processor: %w", combined)

	assert.ErrorIs(t, wrapped, ErrRender)

	var renderErr *RenderError
	require.ErrorAs(t, wrapped, &renderErr)
	assert.Equal(t, "/a", renderErr.Path)
	assert.Len(t, multierr.Errors(combined), 2)
}
