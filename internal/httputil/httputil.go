// Package httputil provides HTTP method and media type helpers.
package httputil

import (
	"mime"
	"strings"
)

// HTTP Method Constants, spelled as they appear in OpenAPI path items.
const (
	MethodGet     = "get"
	MethodPut     = "put"
	MethodPost    = "post"
	MethodDelete  = "delete"
	MethodOptions = "options"
	MethodHead    = "head"
	MethodPatch   = "patch"
	MethodTrace   = "trace" // OAS 3.0+ only
	MethodQuery   = "query" // OAS 3.2+ only
)

// OperationMethods lists every method that may key an operation in a path item.
var OperationMethods = []string{
	MethodGet, MethodPut, MethodPost, MethodDelete,
	MethodOptions, MethodHead, MethodPatch, MethodTrace, MethodQuery,
}

// IsOperationMethod reports whether key names an operation, ignoring case.
// Other path item keys such as "parameters", "summary" or "x-*" extensions
// are not operations.
func IsOperationMethod(key string) bool {
	for _, m := range OperationMethods {
		if strings.EqualFold(key, m) {
			return true
		}
	}
	return false
}

// UpperMethod uppercases the ASCII letters of a method key and leaves every
// other byte as is, so "get" and "Get" both become "GET" while non-ASCII
// keys keep their spelling.
func UpperMethod(key string) string {
	b := []byte(key)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// MediaType returns the lowercased media type of a Content-Type header value
// without its parameters, or "" when the value cannot be parsed.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// IsJSONMediaType reports whether mt is application/json or a +json suffix type.
func IsJSONMediaType(mt string) bool {
	return mt == "application/json" || mt == "text/json" || strings.HasSuffix(mt, "+json")
}

// IsYAMLMediaType reports whether mt is one of the registered or customary YAML types.
func IsYAMLMediaType(mt string) bool {
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return strings.HasSuffix(mt, "+yaml")
}
