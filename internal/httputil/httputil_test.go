package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOperationMethod(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"get", true},
		{"GET", true},
		{"Patch", true},
		{"query", true},
		{"trace", true},
		{"parameters", false},
		{"summary", false},
		{"x-internal", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOperationMethod(tt.key))
		})
	}
}

func TestUpperMethod(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"get", "GET"},
		{"Get", "GET"},
		{"x-internal", "X-INTERNAL"},
		{"\u00df", "\u00df"},
		{"gEt\u00df", "GET\u00df"},
		{"\u0131d", "\u0131D"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, UpperMethod(tt.key))
		})
	}
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		header string
		want   string
		json   bool
		yaml   bool
	}{
		{"application/json", "application/json", true, false},
		{"Application/JSON; charset=utf-8", "application/json", true, false},
		{"application/vnd.oai.openapi+json;version=3.0", "application/vnd.oai.openapi+json", true, false},
		{"application/yaml", "application/yaml", false, true},
		{"text/x-yaml", "text/x-yaml", false, true},
		{"application/vnd.oai.openapi+yaml", "application/vnd.oai.openapi+yaml", false, true},
		{"text/plain", "text/plain", false, false},
		{"", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			mt := MediaType(tt.header)
			assert.Equal(t, tt.want, mt)
			assert.Equal(t, tt.json, IsJSONMediaType(mt))
			assert.Equal(t, tt.yaml, IsYAMLMediaType(mt))
		})
	}
}

func TestOperationMethodsLowercase(t *testing.T) {
	assert.Len(t, OperationMethods, 9)
	for _, m := range OperationMethods {
		assert.True(t, IsOperationMethod(m))
	}
}
