// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

package pathutil

import (
	"regexp"
	"strings"
)

// Schema reference prefixes.
const (
	// RefPrefixDefinitions is the OAS 2.0 schema prefix.
	RefPrefixDefinitions = "#/definitions/"
	// RefPrefixSchemas is the OAS 3.x schema prefix.
	RefPrefixSchemas = "#/components/schemas/"
)

// RefName returns the component name a local reference points at under
// prefix. A reference into the component ("#/definitions/Pet/properties/id")
// yields the component itself. External references never match.
func RefName(ref, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(ref, prefix)
	if !ok || rest == "" {
		return "", false
	}
	name, _, _ := strings.Cut(rest, "/")
	if name == "" {
		return "", false
	}
	return UnescapePointer(name), true
}

// pathParam matches route template parameters like {paramName}.
var pathParam = regexp.MustCompile(`\{([^}]+)\}`)

// PathParams returns the template parameter names of a route in order.
func PathParams(route string) []string {
	matches := pathParam.FindAllStringSubmatch(route, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
