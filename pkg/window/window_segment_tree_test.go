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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/windowcore/windowcore/pkg/chunk"
	"github.com/windowcore/windowcore/pkg/common"
)

// Test_windowSegmentTree_crossesLeafBoundaries builds a tree over 200 rows
// (more than 3x segmentTreeLeafSize) using MIN, which has no `window`
// incremental specialization and so always exercises build/combineRange,
// and checks several ranges that start/end mid-leaf, span whole leaves, and
// span multiple internal-level blocks.
func Test_windowSegmentTree_crossesLeafBoundaries(t *testing.T) {
	n := 200
	values := make([]int64, n)
	for i := range values {
		values[i] = int64(n - i) // descending, so MIN over [begin,end) is always the last value
	}
	cache := newCacheFromInt64(values, nil)

	fn := NewMinAggr[int64](common.BigintType(), common.BigintType())
	tree := newWindowSegmentTree(fn, cache, n, false, 0)
	tree.build()

	minOf := func(begin, end int) int64 {
		m := values[begin]
		for i := begin + 1; i < end; i++ {
			if values[i] < m {
				m = values[i]
			}
		}
		return m
	}

	ranges := [][2]int{
		{0, 1},
		{0, 64},
		{10, 70},    // crosses the first leaf boundary
		{63, 65},    // straddles exactly one leaf boundary
		{0, 200},    // whole range, multiple internal levels
		{128, 199},  // tail range crossing two leaf boundaries
		{100, 101},  // single row
	}
	for _, rg := range ranges {
		result := chunk.NewFlatVector(common.BigintType(), 1)
		tree.evaluate(rg[0], rg[1], result, 0)
		got := chunk.GetSliceInPhyFormatFlat[int64](result)[0]
		require.Equal(t, minOf(rg[0], rg[1]), got, "range [%d,%d)", rg[0], rg[1])
	}
}

func Test_windowSegmentTree_emptyRangeIsNull(t *testing.T) {
	cache := newCacheFromInt64([]int64{1, 2, 3}, nil)
	fn := NewSumAggr[int64](common.BigintType(), common.BigintType())
	tree := newWindowSegmentTree(fn, cache, 3, false, 0)
	tree.build()

	result := chunk.NewFlatVector(common.BigintType(), 1)
	tree.evaluate(2, 2, result, 0)
	require.False(t, result.Mask.RowIsValid(0))
}

func Test_windowSegmentTree_usesWindowSpecializationWhenAvailable(t *testing.T) {
	cache := newCacheFromInt64([]int64{1, 2, 3, 4, 5}, nil)
	fn := NewSumAggr[int64](common.BigintType(), common.BigintType())
	tree := newWindowSegmentTree(fn, cache, 5, false, 0)
	// SUM's `window` specialization bypasses build()/the level arrays
	// entirely, so evaluate must work correctly without ever calling build.
	result := chunk.NewFlatVector(common.BigintType(), 1)
	tree.evaluate(1, 4, result, 0)
	require.Equal(t, int64(9), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

// Test_windowSegmentTree_midLeafRangeNotDoubleCounted regresses a bug where
// combineRange's leading and trailing partial-row loops both ran over the
// same rows whenever [begin, end) fell entirely inside one leaf block
// without starting at the block's first row (blockBegin ends up one past
// blockEnd, and both loops independently clamped to the full range). MIN/MAX
// can't see this — re-applying either is a no-op — so this builds a plain
// row-counting AggrFunc with no `window` specialization to force the
// combineRange path and expose a non-idempotent combine.
func Test_windowSegmentTree_midLeafRangeNotDoubleCounted(t *testing.T) {
	type countState struct{ n int64 }
	fn := &AggrFunc{
		Name:    "rowcount",
		ArgType: common.BigintType(),
		RetType: common.BigintType(),
		stateSize: func() int {
			var s countState
			return int(unsafe.Sizeof(s))
		},
		init: func(state unsafe.Pointer) {
			*(*countState)(state) = countState{}
		},
		addRow: func(state unsafe.Pointer, input *windowColumnCache, rowIdx int) {
			(*countState)(state).n++
		},
		combine: func(target, source unsafe.Pointer) {
			(*countState)(target).n += (*countState)(source).n
		},
		finalize: func(state unsafe.Pointer, result *chunk.Vector, resultIdx int) {
			chunk.GetSliceInPhyFormatFlat[int64](result)[resultIdx] = (*countState)(state).n
		},
		// deliberately no window specialization, to force the combineRange path.
	}

	cache := newCacheFromInt64(make([]int64, 200), nil)
	tree := newWindowSegmentTree(fn, cache, 200, false, 0)
	tree.build()

	// [10, 20) lies entirely inside leaf 0 ([0,64)) and doesn't start at its
	// first row, the exact shape that triggered the double-count.
	result := chunk.NewFlatVector(common.BigintType(), 1)
	tree.evaluate(10, 20, result, 0)
	require.Equal(t, int64(10), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_windowSegmentTree_evaluateConstant(t *testing.T) {
	cache := newCacheFromInt64([]int64{10, 20, 30}, nil)
	fn := NewCountAggr(common.BigintType(), true)
	tree := newWindowSegmentTree(fn, cache, 3, true, 0)

	result := chunk.NewFlatVector(common.BigintType(), 3)
	tree.evaluateConstant(0, 3, result, 0)
	tree.evaluateConstant(0, 3, result, 1)
	tree.evaluateConstant(0, 3, result, 2)
	data := chunk.GetSliceInPhyFormatFlat[int64](result)
	require.Equal(t, []int64{3, 3, 3}, data)
}
