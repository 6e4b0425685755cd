// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

package pathutil

import (
	"strconv"
	"strings"
)

// Pointer builds a JSON Pointer fragment ("#/a/b/0") incrementally.
// Segments are escaped on Push; the full string is only materialized when
// String() is called.
type Pointer struct {
	segments []string
	length   int // Pre-calculated length for String() allocation
}

// Push adds a mapping key segment.
func (p *Pointer) Push(segment string) {
	seg := EscapePointer(segment)
	p.segments = append(p.segments, seg)
	p.length += len(seg) + 1
}

// PushIndex adds a sequence index segment.
func (p *Pointer) PushIndex(i int) {
	seg := strconv.Itoa(i)
	p.segments = append(p.segments, seg)
	p.length += len(seg) + 1
}

// Pop removes the last segment.
func (p *Pointer) Pop() {
	if len(p.segments) == 0 {
		return
	}
	last := p.segments[len(p.segments)-1]
	p.segments = p.segments[:len(p.segments)-1]
	p.length -= len(last) + 1
}

// Reset clears the pointer for reuse.
func (p *Pointer) Reset() {
	p.segments = p.segments[:0]
	p.length = 0
}

// Depth returns the number of segments.
func (p *Pointer) Depth() int {
	return len(p.segments)
}

// String materializes the pointer. The empty pointer is "#".
func (p *Pointer) String() string {
	var b strings.Builder
	b.Grow(p.length + 1)
	b.WriteByte('#')
	for _, seg := range p.segments {
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String()
}

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// EscapePointer escapes a single reference token.
func EscapePointer(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return pointerEscaper.Replace(s)
}

// UnescapePointer reverses EscapePointer.
func UnescapePointer(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return pointerUnescaper.Replace(s)
}
