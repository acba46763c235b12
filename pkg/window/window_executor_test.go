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

// newTestRun builds a two-partition run (rows 0-2, rows 3-4) over a single
// int64 column used as both ORDER BY key and every WindowExpr's argument:
// values [10, 20, 20, 5, 15], with a tie between rows 1 and 2.
func newTestRun() *partitionRun {
	values := newCacheFromInt64([]int64{10, 20, 20, 5, 15}, nil)
	return &partitionRun{
		colTypes:      []common.LType{common.BigintType()},
		caches:        []*windowColumnCache{values},
		count:         5,
		partitionMask: maskFromBools([]bool{true, false, false, true, false}),
		orderMask:     maskFromBools([]bool{true, true, false, true, true}),
		orderIdx:      []int{0},
		orderDesc:     []bool{false},
	}
}

func baseExpr(kind WindowExprKind, retTyp common.LType) *WindowExpr {
	return &WindowExpr{
		Kind:           kind,
		RetTyp:         retTyp,
		FilterIdx:      -1,
		StartOffsetIdx: -1,
		EndOffsetIdx:   -1,
		OffsetIdx:      -1,
		DefaultIdx:     -1,
	}
}

func evalAll(t *testing.T, run *partitionRun, expr *WindowExpr) []int64 {
	t.Helper()
	exec := newWindowExprExec(expr, run, 0, 0)
	exec.finalize()
	out := make([]int64, run.count)
	result := chunk.NewFlatVector(expr.RetTyp, run.count)
	for r := 0; r < run.count; r++ {
		require.NoError(t, exec.evaluate(r, result, r))
		out[r] = chunk.GetSliceInPhyFormatFlat[int64](result)[r]
	}
	return out
}

func Test_windowExprExec_rowNumber(t *testing.T) {
	run := newTestRun()
	expr := baseExpr(WEK_ROW_NUMBER, common.BigintType())
	require.Equal(t, []int64{1, 2, 3, 1, 2}, evalAll(t, run, expr))
}

func Test_windowExprExec_rank(t *testing.T) {
	run := newTestRun()
	expr := baseExpr(WEK_RANK, common.BigintType())
	require.Equal(t, []int64{1, 2, 2, 1, 2}, evalAll(t, run, expr))
}

func Test_windowExprExec_denseRank(t *testing.T) {
	run := newTestRun()
	expr := baseExpr(WEK_DENSE_RANK, common.BigintType())
	require.Equal(t, []int64{1, 2, 2, 1, 2}, evalAll(t, run, expr))
}

// Test_windowExprExec_cumeDist exercises both the tie-handling within a
// partition and the reset at a second partition's first row — the second
// partition's values would be silently wrong if evaluate forgot to refresh
// partition/peer boundaries for a non-aggregate kind.
func Test_windowExprExec_cumeDist(t *testing.T) {
	run := newTestRun()
	expr := baseExpr(WEK_CUME_DIST, common.DoubleType())
	exec := newWindowExprExec(expr, run, 0, 0)
	result := chunk.NewFlatVector(common.DoubleType(), run.count)
	got := make([]float64, run.count)
	for r := 0; r < run.count; r++ {
		require.NoError(t, exec.evaluate(r, result, r))
		got[r] = chunk.GetSliceInPhyFormatFlat[float64](result)[r]
	}
	want := []float64{1.0 / 3, 1.0, 1.0, 0.5, 1.0}
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-9, "row %d", i)
	}
}

func Test_windowExprExec_sumRunningFrame(t *testing.T) {
	run := newTestRun()
	expr := baseExpr(WEK_AGGREGATE, common.BigintType())
	expr.ChildIdx = []int{0}
	expr.Aggr = NewAggrObject(NewSumAggr[int64](common.BigintType(), common.BigintType()), 1)
	expr.FrameMode = FM_ROWS
	expr.StartBoundTyp = FBT_UNBOUNDED_PRECEDING
	expr.EndBoundTyp = FBT_CURRENT_ROW
	require.Equal(t, []int64{10, 30, 50, 5, 20}, evalAll(t, run, expr))
}

func Test_windowExprExec_leadDefaultsToNullAtPartitionEnd(t *testing.T) {
	run := newTestRun()
	expr := baseExpr(WEK_LEAD, common.BigintType())
	expr.ChildIdx = []int{0}

	exec := newWindowExprExec(expr, run, 0, 0)
	result := chunk.NewFlatVector(common.BigintType(), run.count)
	for r := 0; r < run.count; r++ {
		require.NoError(t, exec.evaluate(r, result, r))
	}
	data := chunk.GetSliceInPhyFormatFlat[int64](result)
	require.Equal(t, int64(20), data[0])
	require.Equal(t, int64(20), data[1])
	require.False(t, result.Mask.RowIsValid(2))
	require.Equal(t, int64(15), data[3])
	require.False(t, result.Mask.RowIsValid(4))
}

func Test_windowExprExec_firstLastValueWholePartition(t *testing.T) {
	run := newTestRun()
	first := baseExpr(WEK_FIRST_VALUE, common.BigintType())
	first.ChildIdx = []int{0}
	first.FrameMode = FM_ROWS
	first.StartBoundTyp = FBT_UNBOUNDED_PRECEDING
	first.EndBoundTyp = FBT_UNBOUNDED_FOLLOWING
	require.Equal(t, []int64{10, 10, 10, 5, 5}, evalAll(t, run, first))

	last := baseExpr(WEK_LAST_VALUE, common.BigintType())
	last.ChildIdx = []int{0}
	last.FrameMode = FM_ROWS
	last.StartBoundTyp = FBT_UNBOUNDED_PRECEDING
	last.EndBoundTyp = FBT_UNBOUNDED_FOLLOWING
	require.Equal(t, []int64{20, 20, 20, 15, 15}, evalAll(t, run, last))
}

func Test_windowExprExec_ntile(t *testing.T) {
	run := newTestRun()
	bucketCount := newWindowColumnCache(common.BigintType(), true, 1)
	bucketCount.append(int64Vector([]int64{2}, nil), 0, 1)
	run.caches = append(run.caches, bucketCount)

	expr := baseExpr(WEK_NTILE, common.BigintType())
	expr.ChildIdx = []int{1}
	// Partition A has 3 rows split into 2 buckets: bucket sizes 2, 1.
	// Partition B has 2 rows split into 2 buckets: bucket sizes 1, 1.
	require.Equal(t, []int64{1, 1, 2, 1, 2}, evalAll(t, run, expr))
}

func Test_windowExprExec_ntileZeroArgumentIsInvalidInput(t *testing.T) {
	run := newTestRun()
	bucketCount := newWindowColumnCache(common.BigintType(), true, 1)
	bucketCount.append(int64Vector([]int64{0}, nil), 0, 1)
	run.caches = append(run.caches, bucketCount)

	expr := baseExpr(WEK_NTILE, common.BigintType())
	expr.ChildIdx = []int{1}
	exec := newWindowExprExec(expr, run, 0, 0)
	exec.finalize()
	result := chunk.NewFlatVector(common.BigintType(), run.count)
	err := exec.evaluate(0, result, 0)
	require.Error(t, err)
	var werr *windowError
	require.ErrorAs(t, err, &werr)
	require.Equal(t, WindowErrInvalidInput, werr.Kind())
	require.Equal(t, "Argument for ntile must be greater than zero", werr.Error())
}

func Test_windowExprExec_ntileNullArgumentIsNull(t *testing.T) {
	run := newTestRun()
	bucketCount := newWindowColumnCache(common.BigintType(), true, 1)
	bucketCount.append(int64Vector([]int64{0}, map[int]bool{0: true}), 0, 1)
	run.caches = append(run.caches, bucketCount)

	expr := baseExpr(WEK_NTILE, common.BigintType())
	expr.ChildIdx = []int{1}
	exec := newWindowExprExec(expr, run, 0, 0)
	exec.finalize()
	result := chunk.NewFlatVector(common.BigintType(), run.count)
	require.NoError(t, exec.evaluate(0, result, 0))
	require.False(t, result.Mask.RowIsValid(0))
}
