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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowcore/windowcore/pkg/common"
)

func Test_binarySearchPred(t *testing.T) {
	vals := []int{1, 1, 3, 3, 3, 7, 9, 9}
	pred := func(v int) func(int) bool {
		return func(i int) bool { return vals[i] >= v }
	}
	require.Equal(t, 2, binarySearchPred(pred(3), 0, len(vals)))
	require.Equal(t, 5, binarySearchPred(pred(4), 0, len(vals)))
	require.Equal(t, 0, binarySearchPred(pred(0), 0, len(vals)))
	require.Equal(t, len(vals), binarySearchPred(pred(100), 0, len(vals)))
}

func Test_gallopSearch_matchesBinarySearch(t *testing.T) {
	vals := []int{1, 1, 3, 3, 3, 7, 9, 9, 12, 15, 15, 20}
	get := func(i int) int { return vals[i] }

	for v := 0; v <= 21; v++ {
		want := sort.Search(len(vals), func(i int) bool { return vals[i] >= v })
		for _, hint := range []int{0, len(vals) / 2, len(vals) - 1} {
			pred := func(i int) bool { return get(i) >= v }
			got := gallopSearch(pred, 0, len(vals), hint)
			require.Equal(t, want, got, "v=%d hint=%d", v, hint)
		}
	}
}

func Test_rangeSearchLeft_ascending(t *testing.T) {
	vals := []int64{10, 10, 20, 20, 30, 40, 40, 40}
	get := func(i int) int64 { return vals[i] }

	require.Equal(t, 0, rangeSearchLeft(get, 0, len(vals), 0, int64(5), false))
	require.Equal(t, 0, rangeSearchLeft(get, 0, len(vals), 0, int64(10), false))
	require.Equal(t, 2, rangeSearchLeft(get, 0, len(vals), 0, int64(15), false))
	require.Equal(t, 5, rangeSearchLeft(get, 0, len(vals), 2, int64(40), false))
	require.Equal(t, len(vals), rangeSearchLeft(get, 0, len(vals), 5, int64(50), false))
}

func Test_rangeSearchRight_ascending(t *testing.T) {
	vals := []int64{10, 10, 20, 20, 30, 40, 40, 40}
	get := func(i int) int64 { return vals[i] }

	require.Equal(t, 2, rangeSearchRight(get, 0, len(vals), 0, int64(10), false))
	require.Equal(t, 4, rangeSearchRight(get, 0, len(vals), 2, int64(20), false))
	require.Equal(t, len(vals), rangeSearchRight(get, 0, len(vals), 5, int64(40), false))
}

func Test_rangeSearch_descending(t *testing.T) {
	vals := []int64{40, 40, 30, 20, 20, 10}
	get := func(i int) int64 { return vals[i] }

	// desc order: rangeSearchLeft finds the first index with get(i) <= v.
	require.Equal(t, 0, rangeSearchLeft(get, 0, len(vals), 0, int64(40), true))
	require.Equal(t, 2, rangeSearchLeft(get, 0, len(vals), 0, int64(30), true))
	require.Equal(t, 3, rangeSearchRight(get, 0, len(vals), 0, int64(30), true))
}

func Test_computeRowsBound(t *testing.T) {
	pb, pe := 0, 10
	got, err := computeRowsBound(FBT_UNBOUNDED_PRECEDING, 5, 0, -1, pb, pe)
	require.NoError(t, err)
	require.Equal(t, 0, got)

	got, err = computeRowsBound(FBT_UNBOUNDED_FOLLOWING, 5, 0, 1, pb, pe)
	require.NoError(t, err)
	require.Equal(t, 10, got)

	got, err = computeRowsBound(FBT_CURRENT_ROW, 5, 0, -1, pb, pe)
	require.NoError(t, err)
	require.Equal(t, 5, got)

	got, err = computeRowsBound(FBT_PRECEDING, 5, 2, -1, pb, pe)
	require.NoError(t, err)
	require.Equal(t, 3, got)

	got, err = computeRowsBound(FBT_FOLLOWING, 5, 2, 1, pb, pe)
	require.NoError(t, err)
	require.Equal(t, 7, got)

	_, err = computeRowsBound(FBT_PRECEDING, 1, 5, -1, pb, pe)
	require.Error(t, err)
}

func Test_windowBoundariesState_updatePartition(t *testing.T) {
	partitionMask := maskFromBools([]bool{true, false, false, true, false, false})
	orderMask := maskFromBools([]bool{true, false, true, true, false, true})

	s := newWindowBoundariesState()
	s.updatePartition(0, 6, partitionMask, orderMask, true)
	require.Equal(t, 0, s.partitionBegin)
	require.Equal(t, 3, s.partitionEnd)
	require.Equal(t, 0, s.peerBegin)
	require.Equal(t, 2, s.peerEnd)

	s.updatePartition(2, 6, partitionMask, orderMask, true)
	require.Equal(t, 0, s.partitionBegin)
	require.Equal(t, 3, s.partitionEnd)
	require.Equal(t, 2, s.peerBegin)
	require.Equal(t, 3, s.peerEnd)

	s.updatePartition(3, 6, partitionMask, orderMask, true)
	require.Equal(t, 3, s.partitionBegin)
	require.Equal(t, 6, s.partitionEnd)
	require.Equal(t, 3, s.peerBegin)
	require.Equal(t, 5, s.peerEnd)
}

func Test_windowBoundariesState_ensureValidRange(t *testing.T) {
	c := newWindowColumnCache(common.BigintType(), false, 6)
	src := int64Vector([]int64{0, 1, 2, 3, 4, 5}, map[int]bool{0: true, 5: true})
	c.append(src, 0, 6)

	s := newWindowBoundariesState()
	s.partitionBegin, s.partitionEnd = 0, 6
	s.ensureValidRange(c, true, true)
	require.Equal(t, 1, s.validStart)
	require.Equal(t, 5, s.validEnd)
}
