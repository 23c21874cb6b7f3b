// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/cznic/mathutil"
)

// trace, when true, logs every entry point call to stderr, mirroring
// cznic/memory's trace-gated Fprintf calls. It exists for interactive
// debugging; flip it in a debugger or a _test.go file, not in production
// code.
var trace = false

// Config tunes an Allocator's Provider and extension policy. The zero Config
// is not valid; use DefaultConfig or set ReservationSize or Provider.
type Config struct {
	// ReservationSize bounds the total lifetime growth of the heap when no
	// Provider is supplied to NewAllocator. Ignored if Provider is set.
	ReservationSize int
	// Provider, if non-nil, is used instead of an internally-constructed
	// mmapProvider. Tests use this to inject a mockProvider.
	Provider Provider
}

// DefaultConfig returns a Config reserving 1GiB of address space from the
// OS, large enough for any workload this package's tests exercise while
// costing no physical memory until touched.
func DefaultConfig() Config {
	return Config{ReservationSize: 1 << 30}
}

// Allocator manages a single contiguous heap. Its zero value is NOT ready
// for use — call NewAllocator.
type Allocator struct {
	prov Provider
	free freeList

	prologue unsafe.Pointer // payload of the sentinel prologue block
	epilogue unsafe.Pointer // payload-style address of the zero-sized epilogue; its tag word lives at hdrAddr(epilogue), like any other block

	stats AllocStats
}

// NewAllocator creates and initializes a heap: it lays down the
// prologue/epilogue sentinels and performs the first chunk-sized extension
// (spec.md §4.5 "Initialization").
func NewAllocator(cfg Config) (*Allocator, error) {
	prov := cfg.Provider
	if prov == nil {
		p, err := NewMmapProvider(cfg.ReservationSize)
		if err != nil {
			return nil, fmt.Errorf("dsalloc: reserve heap: %w", err)
		}
		prov = p
	}

	a := &Allocator{prov: prov}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Allocator) init() error {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Init() lo=%#x\n", a.prov.Lo()) }()
	}

	// 4 words: alignment pad, prologue header, prologue footer, epilogue
	// header.
	base, err := a.prov.Extend(4 * wordSize)
	if err != nil {
		return fmt.Errorf("dsalloc: init: %w", err)
	}

	// base+0: alignment pad (left zero)
	prologueHdr := unsafe.Pointer(uintptr(base) + wordSize)
	a.prologue = unsafe.Pointer(uintptr(prologueHdr) + wordSize)
	// The prologue is a permanently-allocated sentinel but, uniquely,
	// still carries a footer. Nothing reads it: the block after the
	// prologue always has prevAlloc set, so coalesce never calls prevBlock
	// across the prologue.
	prologueTag := packTag(dwordSize, true, true)
	putHdr(a.prologue, prologueTag)
	putFtr(a.prologue, dwordSize, prologueTag)
	a.epilogue = unsafe.Pointer(uintptr(a.prologue) + dwordSize)
	putHdr(a.epilogue, packTag(0, true, true))

	if err := a.extend(chunk); err != nil {
		return err
	}
	return nil
}

// extend grows the heap by at least n bytes (rounded to an even word count,
// per spec.md §4.5 "Extension") and coalesces the new free block with a
// trailing free block if one exists.
func (a *Allocator) extend(n int) error {
	words := n / wordSize
	if words%2 != 0 {
		words++
	}
	size := words * wordSize

	oldEpilogue := hdr(a.epilogue)
	base, err := a.prov.Extend(size)
	if err != nil {
		return fmt.Errorf("dsalloc: extend: %w", err)
	}

	bp := base // the new free block's payload replaces the old epilogue
	putBlock(bp, packTag(size, oldEpilogue.prevAlloc(), false))
	a.epilogue = nextBlockSize(bp, size)
	putHdr(a.epilogue, packTag(0, false, true))

	a.coalesce(bp)
	a.stats.Extensions++
	a.stats.BytesCommitted += int64(size)
	return nil
}

// findFit scans the free lists for the first block whose stored size is >=
// asize, starting at asize's own class and walking upward through class 15
// (spec.md §4.5 "Find_fit"). Because classes 4 and 5 are singletons,
// startClass only lands there for an exact-match request; a populated
// class-4/5 list is otherwise skipped even when it could satisfy a smaller
// request — preserved for parity, see spec.md §9.
func (a *Allocator) findFit(asize int) unsafe.Pointer {
	var found unsafe.Pointer
	for c := startClass(asize); c <= numClasses; c++ {
		a.free.walk(c, func(bp unsafe.Pointer) {
			if found != nil {
				return
			}
			if hdr(bp).size() >= asize {
				found = bp
			}
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Malloc allocates size bytes and returns a pointer to the payload, or nil
// if size <= 0 or the heap cannot be extended further.
func (a *Allocator) Malloc(size int) (unsafe.Pointer, error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Malloc(%#x)\n", size) }()
	}
	if size <= 0 {
		return nil, nil
	}

	asize := adjustedSize(size)

	if bp := a.findFit(asize); bp != nil {
		csize := hdr(bp).size()
		a.free.remove(bp, csize)
		bp = a.place(bp, csize, asize)
		a.onAlloc(size)
		return bp, nil
	}

	extendBy := mathutil.Max(asize, chunk)
	if err := a.extend(extendBy); err != nil {
		return nil, err
	}

	bp := a.findFit(asize)
	if bp == nil {
		// The just-performed extension must satisfy asize; if it somehow
		// doesn't (e.g. asize > extendBy due to a future policy change),
		// fail cleanly rather than loop.
		return nil, fmt.Errorf("dsalloc: malloc(%d): %w", size, ErrOOM)
	}
	csize := hdr(bp).size()
	a.free.remove(bp, csize)
	bp = a.place(bp, csize, asize)
	a.onAlloc(size)
	return bp, nil
}

func (a *Allocator) onAlloc(requested int) {
	a.stats.Allocs++
	a.stats.Live++
	a.stats.BytesRequested += int64(requested)
}

// Free releases the block at ptr. Free(nil) is a no-op.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Free(%p)\n", ptr) }()
	}
	if ptr == nil {
		return
	}

	size := hdr(ptr).size()
	prevAlloc := hdr(ptr).prevAlloc()
	putBlock(ptr, packTag(size, prevAlloc, false))
	setPrevAlloc(nextBlockSize(ptr, size), false)

	a.coalesce(ptr)
	a.stats.Frees++
	a.stats.Live--
}

// Realloc resizes the block at ptr to size bytes, preserving the
// min(size, old payload size) leading bytes of its contents (spec.md
// §4.5 "Reallocate"). If size is 0, Realloc frees ptr and returns nil. If
// ptr is nil, Realloc behaves as Malloc(size). On allocation failure the
// original block is left untouched.
func (a *Allocator) Realloc(ptr unsafe.Pointer, size int) (unsafe.Pointer, error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Realloc(%p, %#x)\n", ptr, size) }()
	}
	if size == 0 {
		a.Free(ptr)
		return nil, nil
	}
	if ptr == nil {
		return a.Malloc(size)
	}

	newPtr, err := a.Malloc(size)
	if err != nil || newPtr == nil {
		return nil, err
	}

	// oldPayloadSize is a conservative bound (the stored block size minus
	// header overhead) that may copy up to wordSize bytes beyond the
	// caller's original request, per spec.md §4.5.
	oldPayloadSize := hdr(ptr).size() - wordSize
	n := size
	if oldPayloadSize < n {
		n = oldPayloadSize
	}
	copyBytes(newPtr, ptr, n)
	a.Free(ptr)
	return newPtr, nil
}

// Calloc allocates count*size bytes and zero-fills them, returning nil if
// the underlying Malloc fails or the request is empty. Unlike the original
// this package was distilled from, it never zeroes memory that allocation
// did not actually obtain (spec.md §9, third Open Question).
func (a *Allocator) Calloc(count, size int) (unsafe.Pointer, error) {
	if trace {
		defer func() { fmt.Fprintf(os.Stderr, "Calloc(%#x, %#x)\n", count, size) }()
	}
	total := count * size
	bp, err := a.Malloc(total)
	if err != nil || bp == nil {
		return nil, err
	}
	zeroBytes(bp, total)
	return bp, nil
}

// Close releases the Allocator's reservation back to the OS, if its
// Provider supports it. It is not necessary to Close an Allocator when
// exiting a process.
func (a *Allocator) Close() error {
	if c, ok := a.prov.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func copyBytes(dst, src unsafe.Pointer, n int) {
	if n <= 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}

func zeroBytes(p unsafe.Pointer, n int) {
	if n <= 0 {
		return
	}
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}
