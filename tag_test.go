// Copyright 2024 The dsalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsalloc

import "testing"

func TestPackTagRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		size             int
		prevAlloc, alloc bool
	}{
		{16, false, false},
		{16, true, false},
		{16, false, true},
		{4096, true, true},
		{8, true, true},
	} {
		tg := packTag(tc.size, tc.prevAlloc, tc.alloc)
		if g, e := tg.size(), tc.size; g != e {
			t.Errorf("packTag(%d,%v,%v).size() = %d, want %d", tc.size, tc.prevAlloc, tc.alloc, g, e)
		}
		if g, e := tg.prevAlloc(), tc.prevAlloc; g != e {
			t.Errorf("packTag(%d,%v,%v).prevAlloc() = %v, want %v", tc.size, tc.prevAlloc, tc.alloc, g, e)
		}
		if g, e := tg.isAlloc(), tc.alloc; g != e {
			t.Errorf("packTag(%d,%v,%v).isAlloc() = %v, want %v", tc.size, tc.prevAlloc, tc.alloc, g, e)
		}
	}
}

func TestAdjustedSize(t *testing.T) {
	cases := []struct{ in, want int }{
		{1, 16},
		{8, 16},
		{9, 16},
		{12, 16},
		{100, 104},
		{4096, 4104},
	}
	for _, c := range cases {
		if g := adjustedSize(c.in); g != c.want {
			t.Errorf("adjustedSize(%d) = %d, want %d", c.in, g, c.want)
		}
	}
}

func TestRoundup(t *testing.T) {
	cases := []struct{ n, m, want int }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{4095, 4096, 4096},
	}
	for _, c := range cases {
		if g := roundup(c.n, c.m); g != c.want {
			t.Errorf("roundup(%d,%d) = %d, want %d", c.n, c.m, g, c.want)
		}
	}
}
