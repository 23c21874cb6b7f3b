// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

import "unsafe"

// coalesce merges bp, which has just become free (its header already
// written with alloc=0, prevAlloc preserved from before), with whichever of
// its immediate physical neighbors are also free. It returns the payload
// pointer of the resulting block, which is already inserted into its
// class's free list.
//
// The four cases of spec.md §4.3. Cases 3 and 4 read the previous block's
// footer only after confirming, via bp's own prevAlloc bit, that the
// previous block is free and therefore carries a footer — the hazard
// spec.md §9 warns against (reading FTRP of an allocated neighbor) cannot
// occur here because the read is gated on that bit, never on a guess.
func (a *Allocator) coalesce(bp unsafe.Pointer) unsafe.Pointer {
	size := hdr(bp).size()
	prevAlloc := hdr(bp).prevAlloc()
	next := nextBlockSize(bp, size)
	nextAlloc := hdr(next).isAlloc()

	switch {
	case prevAlloc && nextAlloc: // Case 1
		a.free.insert(bp, size)
		return bp

	case prevAlloc && !nextAlloc: // Case 2
		nsize := hdr(next).size()
		a.free.remove(next, nsize)
		size += nsize
		putBlock(bp, packTag(size, true, false))
		a.free.insert(bp, size)
		return bp

	case !prevAlloc && nextAlloc: // Case 3
		prev := prevBlock(bp)
		psize := hdr(prev).size()
		a.free.remove(prev, psize)
		size += psize
		putBlock(prev, packTag(size, true, false))
		a.free.insert(prev, size)
		return prev

	default: // Case 4: both free
		prev := prevBlock(bp)
		psize := hdr(prev).size()
		nsize := hdr(next).size()
		a.free.remove(prev, psize)
		a.free.remove(next, nsize)
		size += psize + nsize
		putBlock(prev, packTag(size, true, false))
		a.free.insert(prev, size)
		return prev
	}
}
