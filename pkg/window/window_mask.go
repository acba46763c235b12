// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package window

import (
	"github.com/windowcore/windowcore/pkg/util"
)

// findNextStart scans forward from l (inclusive) to r (exclusive) in mask,
// decrementing n at each set bit, and returns the index of the set bit
// where n reaches zero, or r if the range is exhausted (n holds the
// residual count).
//
// Whole bytes with no set bits are skipped in one step; bytes with at
// least one set bit are scanned bit by bit.
func findNextStart(mask *util.Bitmap, l, r int, n *int) int {
	if *n <= 0 {
		return l
	}
	if mask == nil || mask.AllValid() {
		if r-l >= *n {
			found := l + *n - 1
			*n = 0
			return found
		}
		*n -= r - l
		return r
	}
	for l < r {
		entryIdx, pos := util.GetEntryIndex(uint64(l))
		entry := mask.GetEntry(entryIdx)
		if util.NoneValidInEntry(entry) {
			l += 8 - int(pos)
			continue
		}
		for ; l < r && pos < 8; l, pos = l+1, pos+1 {
			if util.EntryIsSet(entry, pos) {
				*n--
				if *n == 0 {
					return l
				}
			}
		}
	}
	return r
}

// findPrevStart mirrors findNextStart, scanning backward from r-1 down to l.
func findPrevStart(mask *util.Bitmap, l, r int, n *int) int {
	if *n <= 0 {
		return r
	}
	if mask == nil || mask.AllValid() {
		amount := min(*n, r-l)
		*n -= amount
		return r - amount
	}
	for r > l {
		idx := r - 1
		entryIdx, pos := util.GetEntryIndex(uint64(idx))
		entry := mask.GetEntry(entryIdx)
		if util.NoneValidInEntry(entry) {
			r -= int(pos) + 1
			continue
		}
		// scan this byte's bits from pos down to 0, stopping at l.
		for pos8 := int(pos); pos8 >= 0 && r > l; pos8, r = pos8-1, r-1 {
			if util.EntryIsSet(entry, uint64(pos8)) {
				*n--
				if *n == 0 {
					return r - 1
				}
			}
		}
	}
	return l
}
