// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dsalloc implements a single-heap dynamic storage allocator over
// segregated, size-classed free lists with boundary-tag coalescing and
// footer-elided allocated blocks.
//
// The heap is a single contiguous byte range obtained from a Provider (see
// provider.go) and grown on demand by at least one chunk at a time; it is never returned to
// the provider. There is no internal locking: an Allocator value must not be
// used from more than one goroutine at a time without external
// synchronization.
//
// Changelog
//
// 2024-01-01 Initial segregated-free-list allocator with boundary-tag
// coalescing and a 15-class size index.
package dsalloc
