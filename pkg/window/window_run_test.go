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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windowcore/windowcore/pkg/chunk"
	"github.com/windowcore/windowcore/pkg/common"
)

// Test_WindowRun_rowNumberAndRunningSum drives the full Sink/Finalize/
// GetData lifecycle over two partitions with one ranking expression and one
// running-sum aggregate sharing the same PARTITION BY/ORDER BY, the way a
// real caller (one physical window operator per distinct OVER clause group)
// would.
func Test_WindowRun_rowNumberAndRunningSum(t *testing.T) {
	cfg := WindowRunConfig{
		PartitionByTypes: []common.LType{common.BigintType()},
		OrderByTypes:     []common.LType{common.BigintType()},
		OrderByDesc:      []bool{false},
		ValueTypes:       []common.LType{common.BigintType()},
		ValueIsScalar:    []bool{false},
	}
	rowNumber := baseExpr(WEK_ROW_NUMBER, common.BigintType())
	sum := baseExpr(WEK_AGGREGATE, common.BigintType())
	sum.ChildIdx = []int{0}
	sum.Aggr = NewAggrObject(NewSumAggr[int64](common.BigintType(), common.BigintType()), 1)
	sum.FrameMode = FM_ROWS
	sum.StartBoundTyp = FBT_UNBOUNDED_PRECEDING
	sum.EndBoundTyp = FBT_CURRENT_ROW
	cfg.Exprs = []*WindowExpr{rowNumber, sum}

	run := NewWindowRun(cfg)

	keys := int64Vector([]int64{1, 1, 2, 1, 2}, nil)
	orderVals := int64Vector([]int64{30, 10, 200, 20, 100}, nil)
	values := int64Vector([]int64{30, 10, 200, 20, 100}, nil)
	require.NoError(t, run.Sink(&WindowBatch{
		Count:       5,
		PartitionBy: []*chunk.Vector{keys},
		OrderBy:     []*chunk.Vector{orderVals},
		Values:      []*chunk.Vector{values},
	}))

	require.NoError(t, run.Finalize(context.Background()))

	type row struct {
		key, order, rowNum, sum int64
	}
	var rows []row
	for {
		out := &chunk.Chunk{}
		ok, err := run.GetData(context.Background(), out)
		require.NoError(t, err)
		if !ok {
			break
		}
		n := out.Card()
		keyCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[0])
		orderCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[1])
		rowNumCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[3])
		sumCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[4])
		for i := 0; i < n; i++ {
			rows = append(rows, row{keyCol[i], orderCol[i], rowNumCol[i], sumCol[i]})
		}
	}
	require.Len(t, rows, 5)

	byKey := map[int64][]row{}
	for _, r := range rows {
		byKey[r.key] = append(byKey[r.key], r)
	}
	require.Len(t, byKey[1], 3)
	require.Len(t, byKey[2], 2)

	for _, r := range byKey[1] {
		switch r.order {
		case 10:
			require.Equal(t, int64(1), r.rowNum)
			require.Equal(t, int64(10), r.sum)
		case 20:
			require.Equal(t, int64(2), r.rowNum)
			require.Equal(t, int64(30), r.sum)
		case 30:
			require.Equal(t, int64(3), r.rowNum)
			require.Equal(t, int64(60), r.sum)
		default:
			t.Fatalf("unexpected order value %d in partition 1", r.order)
		}
	}
	for _, r := range byKey[2] {
		switch r.order {
		case 100:
			require.Equal(t, int64(1), r.rowNum)
			require.Equal(t, int64(100), r.sum)
		case 200:
			require.Equal(t, int64(2), r.rowNum)
			require.Equal(t, int64(300), r.sum)
		default:
			t.Fatalf("unexpected order value %d in partition 2", r.order)
		}
	}
}

func Test_WindowRun_emptySinkProducesNoRows(t *testing.T) {
	cfg := WindowRunConfig{
		PartitionByTypes: []common.LType{common.BigintType()},
		OrderByTypes:     []common.LType{common.BigintType()},
		OrderByDesc:      []bool{false},
		ValueTypes:       []common.LType{},
		ValueIsScalar:    []bool{},
		Exprs:            []*WindowExpr{baseExpr(WEK_ROW_NUMBER, common.BigintType())},
	}
	run := NewWindowRun(cfg)
	require.NoError(t, run.Finalize(context.Background()))

	out := &chunk.Chunk{}
	ok, err := run.GetData(context.Background(), out)
	require.NoError(t, err)
	require.False(t, ok)
}
