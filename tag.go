// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

import "unsafe"

// A tag is a packed 32-bit header or footer word:
//
//	bits [31:3] size, a multiple of 8
//	bit  2      prevAlloc: 1 if the physically-preceding block is allocated
//	bit  1      reserved, always 0
//	bit  0      alloc: 1 if this block is allocated
type tag uint32

func packTag(size int, prevAlloc, alloc bool) tag {
	v := tag(size) &^ 7
	if prevAlloc {
		v |= 1 << 2
	}
	if alloc {
		v |= 1
	}
	return v
}

func (t tag) size() int        { return int(t &^ 7) }
func (t tag) prevAlloc() bool  { return t&(1<<2) != 0 }
func (t tag) isAlloc() bool    { return t&1 != 0 }
func (t tag) withSize(n int) tag {
	return packTag(n, t.prevAlloc(), t.isAlloc())
}
func (t tag) withAlloc(v bool) tag {
	return packTag(t.size(), t.prevAlloc(), v)
}
func (t tag) withPrevAlloc(v bool) tag {
	return packTag(t.size(), v, t.isAlloc())
}

// getTag/putTag perform 32-bit aligned reads/writes of a tag at an address
// within the heap. Callers must ensure addr is word-aligned.
func getTag(addr unsafe.Pointer) tag {
	return tag(*(*uint32)(addr))
}

func putTag(addr unsafe.Pointer, t tag) {
	*(*uint32)(addr) = uint32(t)
}

// Given payload pointer bp: header is at bp-word, footer (free blocks only)
// at bp+size-2*word.
func hdrAddr(bp unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(uintptr(bp) - wordSize)
}

func ftrAddr(bp unsafe.Pointer, size int) unsafe.Pointer {
	return unsafe.Pointer(uintptr(bp) + uintptr(size) - dwordSize)
}

func hdr(bp unsafe.Pointer) tag { return getTag(hdrAddr(bp)) }

func ftr(bp unsafe.Pointer, size int) tag { return getTag(ftrAddr(bp, size)) }

func putHdr(bp unsafe.Pointer, t tag) { putTag(hdrAddr(bp), t) }

func putFtr(bp unsafe.Pointer, size int, t tag) { putTag(ftrAddr(bp, size), t) }

// putBlock writes a block's header and, if it is free, its footer.
func putBlock(bp unsafe.Pointer, t tag) {
	putHdr(bp, t)
	if !t.isAlloc() {
		putFtr(bp, t.size(), t)
	}
}

// nextBlockSize returns the payload pointer of the block physically following
// bp, whose header was read with size size.
func nextBlockSize(bp unsafe.Pointer, size int) unsafe.Pointer {
	return unsafe.Pointer(uintptr(bp) + uintptr(size))
}

func nextBlock(bp unsafe.Pointer) unsafe.Pointer {
	return nextBlockSize(bp, hdr(bp).size())
}

// prevBlock returns the payload pointer of the block physically preceding
// bp. Valid only when that block is free (bp's prevAlloc bit is false);
// callers must check that before calling.
func prevBlock(bp unsafe.Pointer) unsafe.Pointer {
	pf := getTag(unsafe.Pointer(uintptr(bp) - dwordSize))
	return unsafe.Pointer(uintptr(bp) - uintptr(pf.size()))
}

// align rounds an int size up to the allocator's alignment.
func align(n int) int { return roundup(n, alignment) }

// adjustedSize implements spec.md §4.5 step 2: room for the header plus
// payload, aligned to a double word, and never less than minBlock.
// Matches original_source/mm_allocator.c's asize computation exactly,
// including truncating integer division for the size > dwordSize branch.
func adjustedSize(size int) int {
	if size <= dwordSize {
		return 2 * dwordSize
	}
	return dwordSize * ((wordSize + size + (dwordSize - 1)) / dwordSize)
}

// setPrevAlloc refreshes the prevAlloc bit of bp's header (and, if bp is
// itself free, its footer) without touching its size or alloc bit. This is
// the update the footer-elision optimization requires on every allocation
// state change of the preceding block (spec.md §4.3, §9).
func setPrevAlloc(bp unsafe.Pointer, v bool) {
	t := hdr(bp).withPrevAlloc(v)
	putHdr(bp, t)
	if !t.isAlloc() {
		putFtr(bp, t.size(), t)
	}
}
