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

	"github.com/stretchr/testify/require"

	"github.com/windowcore/windowcore/pkg/chunk"
	"github.com/windowcore/windowcore/pkg/common"
)

// Test_sortBin_sortsAndBuildsMasks builds a single bin holding two
// partitions (key column 0) unsorted by its order-by column (column 1) and
// checks sortBin produces sorted caches plus correct partition/order masks.
func Test_sortBin_sortsAndBuildsMasks(t *testing.T) {
	colTypes := []common.LType{common.BigintType(), common.BigintType()}
	scalarFlags := []bool{false, false}
	bin := newPartitionBin(colTypes, scalarFlags)

	// rows as (partitionKey, orderVal): (1,30) (1,10) (2,200) (1,20) (2,100).
	// sortBin sorts purely by ORDER BY, relying on the caller (PartitionSink)
	// to have already bucketed one partition per bin; the two partitions'
	// value ranges are kept disjoint here so a pure value sort still leaves
	// them contiguous, matching what a real single-bin-per-partition input
	// would look like after sorting.
	keys := int64Vector([]int64{1, 1, 2, 1, 2}, nil)
	vals := int64Vector([]int64{30, 10, 200, 20, 100}, nil)
	bin.append([]*chunk.Vector{keys, vals}, 0, 5)

	run := sortBin(bin, []int{1}, []bool{false}, []int{0})
	require.Equal(t, 5, run.count)

	gotKeys := make([]int64, 5)
	gotVals := make([]int64, 5)
	for i := 0; i < 5; i++ {
		gotKeys[i] = windowCacheGet[int64](run.caches[0], i)
		gotVals[i] = windowCacheGet[int64](run.caches[1], i)
	}
	// Partition 1's three rows sorted by value (10, 20, 30) come before
	// partition 2's two rows sorted by value (100, 200) — grouped by key,
	// ordered within each group.
	require.ElementsMatch(t, []int64{1, 1, 1}, gotKeys[:3])
	require.ElementsMatch(t, []int64{2, 2}, gotKeys[3:])
	require.Equal(t, []int64{10, 20, 30}, gotVals[:3])
	require.Equal(t, []int64{100, 200}, gotVals[3:])

	require.True(t, run.partitionMask.RowIsValid(0))
	require.True(t, run.partitionMask.RowIsValid(3))
	require.False(t, run.partitionMask.RowIsValid(1))
	require.False(t, run.partitionMask.RowIsValid(2))
	require.False(t, run.partitionMask.RowIsValid(4))

	require.True(t, run.orderMask.RowIsValid(0))
	require.True(t, run.orderMask.RowIsValid(1))
	require.True(t, run.orderMask.RowIsValid(2))
	require.True(t, run.orderMask.RowIsValid(3))
	require.True(t, run.orderMask.RowIsValid(4))
}

func Test_sortBin_peerGroupWithinPartition(t *testing.T) {
	colTypes := []common.LType{common.BigintType(), common.BigintType()}
	scalarFlags := []bool{false, false}
	bin := newPartitionBin(colTypes, scalarFlags)

	keys := int64Vector([]int64{1, 1, 1}, nil)
	vals := int64Vector([]int64{5, 5, 9}, nil)
	bin.append([]*chunk.Vector{keys, vals}, 0, 3)

	run := sortBin(bin, []int{1}, []bool{false}, []int{0})
	require.True(t, run.partitionMask.RowIsValid(0))
	require.False(t, run.partitionMask.RowIsValid(1))
	require.False(t, run.partitionMask.RowIsValid(2))

	require.True(t, run.orderMask.RowIsValid(0))
	require.False(t, run.orderMask.RowIsValid(1)) // value 5 tied with row 0
	require.True(t, run.orderMask.RowIsValid(2))   // value 9 starts a new peer group
}

func Test_PartitionSink_sinkCombineFinalize(t *testing.T) {
	colTypes := []common.LType{common.BigintType(), common.BigintType()}
	scalarFlags := []bool{false, false}
	sink := NewPartitionSink(colTypes, scalarFlags, []int{0}, []int{1}, []bool{false}, 14)
	local := sink.NewLocalState()

	keys := int64Vector([]int64{1, 2, 1}, nil)
	vals := int64Vector([]int64{100, 200, 50}, nil)
	batch := &chunk.Chunk{Data: []*chunk.Vector{keys, vals}}
	batch.SetCap(3)
	batch.SetCard(3)

	require.NoError(t, sink.Sink(local, batch))
	require.NoError(t, sink.Combine(local))

	runs := sink.Finalize()
	require.Len(t, runs, 2)

	var sawPartition1, sawPartition2 bool
	for _, run := range runs {
		key := windowCacheGet[int64](run.caches[0], 0)
		switch key {
		case 1:
			sawPartition1 = true
			require.Equal(t, 2, run.count)
			require.Equal(t, int64(50), windowCacheGet[int64](run.caches[1], 0))
			require.Equal(t, int64(100), windowCacheGet[int64](run.caches[1], 1))
		case 2:
			sawPartition2 = true
			require.Equal(t, 1, run.count)
			require.Equal(t, int64(200), windowCacheGet[int64](run.caches[1], 0))
		}
	}
	require.True(t, sawPartition1)
	require.True(t, sawPartition2)
}
