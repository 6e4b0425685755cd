// Package normalizer canonicalizes raw route strings.
//
// Raw routes in an OpenAPI "paths" mapping often carry deployment details
// that have nothing to do with the resource they address: an "api" mount
// point and a version segment. Normalize strips those so that
// "/api/v1/users", "/v2/users" and "/users" all name the canonical route
// "/users". ResourceKey then reduces a canonical route to its resource root,
// which is how related routes such as "/users" and "/users/{id}" are grouped.
//
// Both functions are pure, never fail, and are safe for concurrent use.
package normalizer

import "strings"

// apiSegment is the mount point segment dropped from the front of a route.
const apiSegment = "api"

// Root is the canonical form of a route with no segments.
const Root = "/"

// Normalize returns the canonical form of raw.
//
// Empty segments are dropped, then a leading "api" segment (case-sensitive)
// and a following "v<digits>" version segment are removed. The remaining
// segments are joined with a single leading slash; Root is returned when
// nothing remains. Case is preserved.
//
// The stripping is repeated until the route no longer starts with a
// removable segment, so Normalize(Normalize(p)) == Normalize(p) holds even
// for routes like "/api/v1/v2/users".
//
//	Normalize("/api/v1/users")    // "/users"
//	Normalize("//users//{id}/")   // "/users/{id}"
//	Normalize("/v1a/users")       // "/v1a/users"
//	Normalize("/api")             // "/"
func Normalize(raw string) string {
	segments := splitSegments(raw)
	for {
		n := len(segments)
		segments = stripPrefix(segments)
		if len(segments) == n {
			break
		}
	}
	if len(segments) == 0 {
		return Root
	}
	return Root + strings.Join(segments, "/")
}

// ResourceKey returns the resource root of a canonical route: a slash
// followed by its first segment, or Root when there is none.
//
//	ResourceKey("/users/{id}/posts") // "/users"
//	ResourceKey("/")                 // "/"
func ResourceKey(canonical string) string {
	for _, seg := range strings.Split(canonical, "/") {
		if seg != "" {
			return Root + seg
		}
	}
	return Root
}

// IsCanonical reports whether p is already in canonical form.
func IsCanonical(p string) bool {
	return Normalize(p) == p
}

func splitSegments(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == '/' })
}

// stripPrefix drops one leading "api" segment and then one version segment.
func stripPrefix(segments []string) []string {
	if len(segments) > 0 && segments[0] == apiSegment {
		segments = segments[1:]
	}
	if len(segments) > 0 && IsVersionSegment(segments[0]) {
		segments = segments[1:]
	}
	return segments
}

// IsVersionSegment reports whether seg is "v" followed by one or more ASCII
// digits, such as "v1" or "v10".
func IsVersionSegment(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for i := 1; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}
