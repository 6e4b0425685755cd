// Copyright 2024 Erraggy
// SPDX-License-Identifier: MIT

package pathutil

import "sync"

const (
	defaultPointerCap = 8  // Most operation trees are <8 levels deep
	maxPointerCap     = 64 // Don't pool excessively deep pointers
)

var pointerPool = sync.Pool{
	New: func() any {
		return &Pointer{
			segments: make([]string, 0, defaultPointerCap),
		}
	},
}

// Get retrieves a Pointer from the pool, reset and ready to use.
func Get() *Pointer {
	p := pointerPool.Get().(*Pointer)
	p.Reset()
	return p
}

// Put returns a Pointer to the pool if not oversized.
func Put(p *Pointer) {
	if p == nil || cap(p.segments) > maxPointerCap {
		return
	}
	pointerPool.Put(p)
}
