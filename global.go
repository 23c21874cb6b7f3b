// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

import "unsafe"

// The functions in this file are the thin CRT-style entry surface spec.md
// §6 describes: Allocate/Release/Reallocate/ZeroAllocate over a single
// lazily-initialized package-level Allocator, for callers that want C's
// malloc/free/realloc/calloc ergonomics rather than an explicit Allocator
// value. They are adapters only — all behavior lives in the Allocator
// methods in heap.go.
//
// Like the rest of this package, the global Allocator is not safe for
// concurrent use (spec.md §5).
var defaultAllocator *Allocator

func defaultAlloc() (*Allocator, error) {
	if defaultAllocator != nil {
		return defaultAllocator, nil
	}
	a, err := NewAllocator(DefaultConfig())
	if err != nil {
		return nil, err
	}
	defaultAllocator = a
	return a, nil
}

// Allocate returns a pointer to size bytes from the default heap, or nil on
// a zero/negative size request or provider exhaustion.
func Allocate(size int) unsafe.Pointer {
	a, err := defaultAlloc()
	if err != nil {
		return nil
	}
	p, err := a.Malloc(size)
	if err != nil {
		return nil
	}
	return p
}

// Release returns ptr to the default heap. Release(nil) is a no-op.
func Release(ptr unsafe.Pointer) {
	if defaultAllocator == nil {
		return
	}
	defaultAllocator.Free(ptr)
}

// Reallocate resizes ptr to size bytes on the default heap; see
// (*Allocator).Realloc for exact semantics.
func Reallocate(ptr unsafe.Pointer, size int) unsafe.Pointer {
	a, err := defaultAlloc()
	if err != nil {
		return nil
	}
	p, err := a.Realloc(ptr, size)
	if err != nil {
		return nil
	}
	return p
}

// ZeroAllocate allocates count*size bytes from the default heap and
// zero-fills them, or returns nil if the allocation fails.
func ZeroAllocate(count, size int) unsafe.Pointer {
	a, err := defaultAlloc()
	if err != nil {
		return nil
	}
	p, err := a.Calloc(count, size)
	if err != nil {
		return nil
	}
	return p
}
