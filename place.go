// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

import "unsafe"

// place commits an allocation of asize bytes within the free block bp
// (whose stored header size is csize), splitting off a residual free block
// when one of valid minimum size would remain. It returns the payload
// pointer the caller should use, which is bp unless the split placed the
// allocation in the tail half (spec.md §4.4).
//
// bp must already have been removed from its free list by the caller.
func (a *Allocator) place(bp unsafe.Pointer, csize, asize int) unsafe.Pointer {
	prevAlloc := hdr(bp).prevAlloc()

	if csize-asize < minBlock {
		// No split: hand out the whole block. The footer word is written
		// even though the block is now allocated — it preserves the slot
		// as part of the caller's payload rather than leaving it
		// uninitialized, and nothing ever reads an allocated block's tail
		// (spec.md §4.4).
		full := packTag(csize, prevAlloc, true)
		putHdr(bp, full)
		putTag(ftrAddr(bp, csize), full)
		setPrevAlloc(nextBlockSize(bp, csize), true)
		return bp
	}

	if asize < splitThreshold {
		// Small request: allocation at the head, residual at the tail.
		putBlock(bp, packTag(asize, prevAlloc, true))
		residual := nextBlockSize(bp, asize)
		rsize := csize - asize
		putBlock(residual, packTag(rsize, true, false))
		a.free.insert(residual, rsize)
		return bp
	}

	// Large request: residual at the head, allocation at the tail.
	rsize := csize - asize
	putBlock(bp, packTag(rsize, prevAlloc, false))
	a.free.insert(bp, rsize)
	tailBp := nextBlockSize(bp, rsize)
	putBlock(tailBp, packTag(asize, false, true))
	setPrevAlloc(nextBlockSize(tailBp, asize), true)
	return tailBp
}
