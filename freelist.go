// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

import "unsafe"

// classOf returns the size class (1..numClasses) a block of the given size
// belongs to. Classes 4 and 5 are singletons: they only accept an exact
// match against their bound. The cascade is ascending and matches
// original_source/mm_allocator.c's insertx/deletex/find_fit dispatch, down
// to the gap sizes in (20,64), (64,112) and (112,120) skip straight to
// class 6. Preserved for behavioral parity; see spec.md §9.
func classOf(size int) int {
	switch {
	case size <= classBound[1]:
		return 1
	case size <= classBound[2]:
		return 2
	case size <= classBound[3]:
		return 3
	case size == classBound[singletonClass4]:
		return singletonClass4
	case size == classBound[singletonClass5]:
		return singletonClass5
	case size <= classBound[6]:
		return 6
	case size <= classBound[7]:
		return 7
	case size <= classBound[8]:
		return 8
	case size <= classBound[9]:
		return 9
	case size <= classBound[10]:
		return 10
	case size <= classBound[11]:
		return 11
	case size <= classBound[12]:
		return 12
	case size <= classBound[13]:
		return 13
	case size <= classBound[lastFiniteClass]:
		return lastFiniteClass
	default:
		return numClasses
	}
}

// startClass returns the class findFit should begin scanning at for a
// request of asize bytes: classOf, except singleton classes 4 and 5 are
// only a valid start when asize matches their bound exactly (classOf
// already encodes that), so this is just classOf — kept as a named entry
// point because find_fit's cascade in the original treats "the starting
// list" and "the class a block of this exact size is filed under" as two
// conceptually different lookups that happen to share an implementation.
func startClass(asize int) int { return classOf(asize) }

// freeList is the per-Allocator segregated free-list state: heads[c] holds
// the payload address of the head of class c's singly-linked list, or 0.
// The link word of a free block lives in the first dwordSize bytes of its
// payload and is stored as a raw uintptr (not unsafe.Pointer) because it
// addresses other bytes inside the same off-heap mmap region, never a
// Go-managed object; see provider.go.
type freeList struct {
	heads [numClasses + 1]uintptr
}

func linkAddr(bp unsafe.Pointer) *uintptr { return (*uintptr)(bp) }

// insert prepends bp to the free list for the class matching size. size
// must be the exact size last written to bp's header; singleton classes
// require it.
func (fl *freeList) insert(bp unsafe.Pointer, size int) {
	c := classOf(size)
	*linkAddr(bp) = fl.heads[c]
	fl.heads[c] = uintptr(bp)
}

// remove splices bp out of the free list for the class matching size. bp
// must currently be a member of that list (spec.md §4.2 "Error
// conditions"); violating that is undefined behavior, caught only by
// Verify.
func (fl *freeList) remove(bp unsafe.Pointer, size int) {
	c := classOf(size)
	target := uintptr(bp)
	next := *linkAddr(bp)

	if fl.heads[c] == target {
		fl.heads[c] = next
		return
	}

	for p := fl.heads[c]; p != 0; {
		pl := linkAddr(unsafe.Pointer(p))
		if *pl == target {
			*pl = next
			return
		}
		p = *pl
	}
}

// walk invokes fn for every block currently on class c's list, in LIFO
// (head-to-tail) order. fn must not mutate the list.
func (fl *freeList) walk(c int, fn func(bp unsafe.Pointer)) {
	for p := fl.heads[c]; p != 0; p = *linkAddr(unsafe.Pointer(p)) {
		fn(unsafe.Pointer(p))
	}
}

// count returns the total number of blocks across all fifteen lists.
func (fl *freeList) count() int {
	n := 0
	for c := 1; c <= numClasses; c++ {
		fl.walk(c, func(unsafe.Pointer) { n++ })
	}
	return n
}
