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
	"cmp"
	"math"

	"github.com/windowcore/windowcore/pkg/util"
)

// windowBoundariesState computes, for each row of a sorted partition, the
// six frame indices (partition_begin, partition_end, peer_begin, peer_end,
// window_begin, window_end). It is stateful across calls to update so
// monotonic RANGE searches can seed from the previous row's result
// instead of re-searching the whole partition every time.
type windowBoundariesState struct {
	partitionBegin int
	partitionEnd   int
	peerBegin      int
	peerEnd        int
	windowBegin    int
	windowEnd      int

	// validStart/validEnd exclude leading/trailing NULLs in the ordering
	// column from RANGE searches; computed once per partition.
	validStart      int
	validEnd        int
	validComputed   bool

	// RANGE search hints seeded from the previous row processed; both
	// bounds move monotonically forward as r advances within a partition.
	startHint int
	endHint   int
}

func newWindowBoundariesState() *windowBoundariesState {
	return &windowBoundariesState{}
}

// updatePartition runs the "Partition / peer discovery" step for row r.
func (s *windowBoundariesState) updatePartition(r, count int, partitionMask, orderMask *util.Bitmap, needPeerEnd bool) {
	if partitionMask != nil && partitionMask.RowIsValid(uint64(r)) {
		s.partitionBegin = r
		n := 1
		s.partitionEnd = findNextStart(partitionMask, r+1, count, &n)
		s.validComputed = false
		s.startHint = r
		s.endHint = r
		s.peerBegin = r
	} else if orderMask != nil && orderMask.RowIsValid(uint64(r)) {
		s.peerBegin = r
	}
	if needPeerEnd {
		n := 1
		s.peerEnd = findNextStart(orderMask, s.peerBegin+1, s.partitionEnd, &n)
	} else {
		s.peerEnd = s.partitionEnd
	}
}

// ensureValidRange computes, once per partition, the first/last row whose
// ordering column is non-null, per spec.md §4.3's "RANGE-mode NULL
// exclusion" rule.
func (s *windowBoundariesState) ensureValidRange(orderCol *windowColumnCache, needStart, needEnd bool) {
	if s.validComputed {
		return
	}
	s.validStart = s.partitionBegin
	s.validEnd = s.partitionEnd
	if needStart {
		idx := s.partitionBegin
		for idx < s.partitionEnd && orderCol.isNull(idx) {
			idx++
		}
		s.validStart = idx
	}
	if needEnd {
		idx := s.partitionEnd
		for idx > s.validStart && orderCol.isNull(idx-1) {
			idx--
		}
		s.validEnd = idx
	}
	s.validComputed = true
}

// computeRows applies the ROWS-mode boundary rules to produce one side
// (start or end) of the frame; sign is -1 for PRECEDING, +1 for
// FOLLOWING.
func computeRowsBound(boundTyp FrameBoundType, r int, offset int64, sign int, partitionBegin, partitionEnd int) (int, error) {
	switch boundTyp {
	case FBT_UNBOUNDED_PRECEDING:
		return partitionBegin, nil
	case FBT_UNBOUNDED_FOLLOWING:
		return partitionEnd, nil
	case FBT_CURRENT_ROW:
		return r, nil
	case FBT_PRECEDING, FBT_FOLLOWING:
		delta := offset * int64(sign)
		if delta > 0 && int64(r) > math.MaxInt64-delta {
			return 0, windowOutOfRangeError("overflow computing ROWS boundary at row %d", r)
		}
		if delta < 0 && int64(r) < math.MinInt64-delta {
			return 0, windowOutOfRangeError("overflow computing ROWS boundary at row %d", r)
		}
		v := int64(r) + delta
		if v < 0 {
			return 0, windowOutOfRangeError("failed to compute window boundaries at row %d", r)
		}
		return int(v), nil
	default:
		return r, nil
	}
}

// rangeSearchLeft returns the first index in [lo, hi) for which get(i)
// satisfies "not before v" under the given sense (ASC: get(i) >= v; DESC:
// get(i) <= v), i.e. a lower_bound generalized to either sort direction.
// hint seeds an exponential (galloping) search outward before narrowing
// with binary search, exploiting the monotonic drift of the boundary
// between consecutive rows (spec.md §4.3's prev_hint).
func rangeSearchLeft[T cmp.Ordered](get func(int) T, lo, hi, hint int, v T, desc bool) int {
	pred := func(i int) bool {
		if desc {
			return get(i) <= v
		}
		return get(i) >= v
	}
	return gallopSearch(pred, lo, hi, hint)
}

// rangeSearchRight returns the first index in [lo, hi) for which get(i)
// strictly exceeds v under the given sense (ASC: get(i) > v; DESC:
// get(i) < v), i.e. an upper_bound generalized to either sort direction.
func rangeSearchRight[T cmp.Ordered](get func(int) T, lo, hi, hint int, v T, desc bool) int {
	pred := func(i int) bool {
		if desc {
			return get(i) < v
		}
		return get(i) > v
	}
	return gallopSearch(pred, lo, hi, hint)
}

// gallopSearch finds the first index in [lo, hi) where the monotone
// predicate pred turns true, starting from hint and expanding the search
// bracket exponentially in the right direction before a final binary
// search — the shape matrixorigin-matrixone's genericSearchLeft/
// genericSearchRight use, adapted here to a get/pred callback pair
// instead of a concrete vector type so it works uniformly over any
// windowColumnCache-backed ordered column.
func gallopSearch(pred func(i int) bool, lo, hi, hint int) int {
	if hi <= lo {
		return lo
	}
	if hint < lo {
		hint = lo
	}
	if hint > hi-1 {
		hint = hi - 1
	}

	if pred(hint) {
		// The transition is at or before hint: scan left in growing
		// strides until a false index is found (or lo is reached), then
		// binary search the bracket it leaves behind.
		lo2, hi2 := lo, hint+1
		probe, step := hint, 1
		for probe > lo {
			next := max(lo, probe-step)
			if !pred(next) {
				lo2 = next
				break
			}
			hi2 = next + 1
			probe = next
			step *= 2
			if next == lo {
				lo2 = lo
				break
			}
		}
		return binarySearchPred(pred, lo2, hi2)
	}

	// pred(hint) is false, so the transition is strictly after hint:
	// scan right in growing strides until a true index is found (or hi
	// is reached).
	lo2, hi2 := hint+1, hi
	probe, step := hint, 1
	for probe < hi-1 {
		next := min(hi-1, probe+step)
		if pred(next) {
			hi2 = next + 1
			break
		}
		lo2 = next + 1
		probe = next
		step *= 2
		if next == hi-1 {
			hi2 = hi
			break
		}
	}
	return binarySearchPred(pred, lo2, hi2)
}

// binarySearchPred finds the first index in [lo, hi) satisfying the
// monotone predicate pred (false, false, ..., false, true, true, ...).
func binarySearchPred(pred func(i int) bool, lo, hi int) int {
	for lo < hi {
		mid := lo + (hi-lo)/2
		if pred(mid) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
