// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

const (
	wordSize  = 4 // header/footer size, bytes
	dwordSize = 8 // alignment and link-word size, bytes

	alignment      = dwordSize
	chunk          = 1 << 12 // default heap-extension amount, bytes
	minBlock       = 16      // smallest valid block, bytes
	splitThreshold = 120     // request size at which place() swaps head/tail

	numClasses = 15 // free-list size classes, 1-indexed; index 0 unused
)

// Size-class upper bounds, spec.md §3. Classes 4 and 5 are singletons: a
// block enters class i only when its size equals classBound[i] exactly, not
// merely when it is <= the bound. classOf implements the ascending cascade
// this implies, including the gap it creates for sizes in (20,64), (64,112)
// and (112,120): those land in class 6, never in 4 or 5.
var classBound = [numClasses + 1]int{
	0,    // unused
	12,   // class 1
	16,   // class 2
	20,   // class 3
	64,   // class 4 (singleton)
	112,  // class 5 (singleton)
	120,  // class 6
	256,  // class 7
	448,  // class 8
	512,  // class 9
	1024, // class 10
	2048, // class 11
	3072, // class 12
	4096, // class 13
	8192, // class 14
	0,    // class 15, catches the remainder; bound unused
}

const (
	singletonClass4 = 4
	singletonClass5 = 5
	lastFiniteClass = 14
)

// roundup rounds n up to the nearest multiple of m. m must be a power of 2.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }
