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

// runSinglePartition drives one WindowRun over a single unpartitioned
// batch (no PARTITION BY columns, so every row hashes into the one bin
// PartitionSink.Sink falls back to) and returns the finalized value
// column of the sole WindowExpr, in ORDER BY order.
func runSinglePartition(t *testing.T, valueTypes []common.LType, valueScalar []bool, orderVals *chunk.Vector, values []*chunk.Vector, expr *WindowExpr) []int64 {
	t.Helper()
	cfg := WindowRunConfig{
		OrderByTypes:  []common.LType{common.BigintType()},
		OrderByDesc:   []bool{false},
		ValueTypes:    valueTypes,
		ValueIsScalar: valueScalar,
		Exprs:         []*WindowExpr{expr},
	}
	run := NewWindowRun(cfg)
	count := orderVals.Card()
	require.NoError(t, run.Sink(&WindowBatch{
		Count:   count,
		OrderBy: []*chunk.Vector{orderVals},
		Values:  values,
	}))
	require.NoError(t, run.Finalize(context.Background()))

	type row struct {
		order int64
		val   int64
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
		orderCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[0])
		resultCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[len(out.Data)-1])
		for i := 0; i < n; i++ {
			rows = append(rows, row{orderCol[i], resultCol[i]})
		}
	}
	require.Len(t, rows, count)

	byOrder := map[int64]int64{}
	for _, r := range rows {
		byOrder[r.order] = r.val
	}
	out := make([]int64, count)
	for i := 0; i < count; i++ {
		out[i] = byOrder[int64(i)]
	}
	return out
}

// Test_WindowRun_lagWithExplicitDefault drives LAG(x, 2, -1) OVER
// (ORDER BY o) end to end through Sink/Finalize/GetData: on
// x=[10,20,30,40] the first two rows have no row two positions back, so
// they fall through to the explicit default rather than null.
func Test_WindowRun_lagWithExplicitDefault(t *testing.T) {
	cfg := WindowRunConfig{
		OrderByTypes:  []common.LType{common.BigintType()},
		OrderByDesc:   []bool{false},
		ValueTypes:    []common.LType{common.BigintType(), common.BigintType(), common.BigintType()},
		ValueIsScalar: []bool{false, true, true},
	}
	lag := baseExpr(WEK_LAG, common.BigintType())
	lag.ChildIdx = []int{0}
	lag.OffsetIdx = 1
	lag.DefaultIdx = 2
	cfg.Exprs = []*WindowExpr{lag}

	run := NewWindowRun(cfg)
	orderVals := int64Vector([]int64{0, 1, 2, 3}, nil)
	xVals := int64Vector([]int64{10, 20, 30, 40}, nil)
	offsetVals := int64Vector([]int64{2, 2, 2, 2}, nil)
	defaultVals := int64Vector([]int64{-1, -1, -1, -1}, nil)
	require.NoError(t, run.Sink(&WindowBatch{
		Count:   4,
		OrderBy: []*chunk.Vector{orderVals},
		Values:  []*chunk.Vector{xVals, offsetVals, defaultVals},
	}))
	require.NoError(t, run.Finalize(context.Background()))

	got := drainResultsByOrder(t, run, 4)
	require.Equal(t, []int64{-1, -1, 10, 20}, got)
}

// Test_WindowRun_firstValueIgnoreNulls drives FIRST_VALUE(x) IGNORE NULLS
// OVER (ORDER BY o ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) on
// x=[NULL,NULL,7,8]: the running frame has no non-null row until row 2,
// after which every row's first non-null value is fixed at 7.
func Test_WindowRun_firstValueIgnoreNulls(t *testing.T) {
	first := baseExpr(WEK_FIRST_VALUE, common.BigintType())
	first.ChildIdx = []int{0}
	first.FrameMode = FM_ROWS
	first.StartBoundTyp = FBT_UNBOUNDED_PRECEDING
	first.EndBoundTyp = FBT_CURRENT_ROW
	first.IgnoreNulls = true

	orderVals := int64Vector([]int64{0, 1, 2, 3}, nil)
	xVals := int64Vector([]int64{0, 0, 7, 8}, map[int]bool{0: true, 1: true})
	got := runSinglePartition(t, []common.LType{common.BigintType()}, []bool{false}, orderVals, []*chunk.Vector{xVals}, first)
	require.Equal(t, []int64{0, 0, 7, 7}, got)

	run := newRunForNullCheck(t, orderVals, xVals, first)
	requireNullAt(t, run, []int{0, 1})
}

// Test_WindowRun_lastValueIgnoreNulls drives LAST_VALUE(x) IGNORE NULLS
// OVER (ORDER BY o ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED
// FOLLOWING) on x=[7,NULL,NULL,8]: every row shares the same whole-
// partition frame, whose last non-null value is 8, not the frame's raw
// last row (which is null).
func Test_WindowRun_lastValueIgnoreNulls(t *testing.T) {
	last := baseExpr(WEK_LAST_VALUE, common.BigintType())
	last.ChildIdx = []int{0}
	last.FrameMode = FM_ROWS
	last.StartBoundTyp = FBT_UNBOUNDED_PRECEDING
	last.EndBoundTyp = FBT_UNBOUNDED_FOLLOWING
	last.IgnoreNulls = true

	orderVals := int64Vector([]int64{0, 1, 2, 3}, nil)
	xVals := int64Vector([]int64{7, 0, 0, 8}, map[int]bool{1: true, 2: true})
	got := runSinglePartition(t, []common.LType{common.BigintType()}, []bool{false}, orderVals, []*chunk.Vector{xVals}, last)
	require.Equal(t, []int64{8, 8, 8, 8}, got)
}

// Test_WindowRun_nthValueIgnoreNulls drives NTH_VALUE(x, 2) IGNORE NULLS
// OVER (ORDER BY o ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED
// FOLLOWING) on x=[NULL,5,NULL,9,3]: the second non-null value in the
// whole-partition frame is 9, at index 3, not raw row index 1.
func Test_WindowRun_nthValueIgnoreNulls(t *testing.T) {
	nth := baseExpr(WEK_NTH_VALUE, common.BigintType())
	nth.ChildIdx = []int{0}
	nth.OffsetIdx = 1
	nth.FrameMode = FM_ROWS
	nth.StartBoundTyp = FBT_UNBOUNDED_PRECEDING
	nth.EndBoundTyp = FBT_UNBOUNDED_FOLLOWING
	nth.IgnoreNulls = true

	orderVals := int64Vector([]int64{0, 1, 2, 3, 4}, nil)
	xVals := int64Vector([]int64{0, 5, 0, 9, 3}, map[int]bool{0: true, 2: true})
	offsetVals := int64Vector([]int64{2, 2, 2, 2, 2}, nil)
	got := runSinglePartition(t, []common.LType{common.BigintType(), common.BigintType()}, []bool{false, true}, orderVals, []*chunk.Vector{xVals, offsetVals}, nth)
	require.Equal(t, []int64{9, 9, 9, 9, 9}, got)
}

// Test_WindowRun_leadIgnoreNulls drives LEAD(x) IGNORE NULLS OVER
// (ORDER BY o) on x=[10,NULL,30,NULL,50] with no explicit default: the
// walk skips null rows via C1's find-next-start machinery, and the last
// row (with no later non-null row in the partition) falls back to null
// rather than a default, since none was bound.
func Test_WindowRun_leadIgnoreNulls(t *testing.T) {
	lead := baseExpr(WEK_LEAD, common.BigintType())
	lead.ChildIdx = []int{0}
	lead.IgnoreNulls = true

	orderVals := int64Vector([]int64{0, 1, 2, 3, 4}, nil)
	xVals := int64Vector([]int64{10, 0, 30, 0, 50}, map[int]bool{1: true, 3: true})
	got := runSinglePartition(t, []common.LType{common.BigintType()}, []bool{false}, orderVals, []*chunk.Vector{xVals}, lead)
	require.Equal(t, []int64{30, 30, 50, 50, 0}, got)

	run := newRunForNullCheck(t, orderVals, xVals, lead)
	requireNullAt(t, run, []int{4})
}

// drainResultsByOrder is runSinglePartition's driver logic reused where
// the caller already built its own WindowRun (Test_WindowRun_lagWithExplicitDefault
// sinks a wider row schema than runSinglePartition's single-value-column
// helper supports).
func drainResultsByOrder(t *testing.T, run *WindowRun, count int) []int64 {
	t.Helper()
	byOrder := map[int64]int64{}
	for {
		out := &chunk.Chunk{}
		ok, err := run.GetData(context.Background(), out)
		require.NoError(t, err)
		if !ok {
			break
		}
		n := out.Card()
		orderCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[0])
		resultCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[len(out.Data)-1])
		for i := 0; i < n; i++ {
			byOrder[orderCol[i]] = resultCol[i]
		}
	}
	out := make([]int64, count)
	for i := 0; i < count; i++ {
		out[i] = byOrder[int64(i)]
	}
	return out
}

// newRunForNullCheck re-sinks the same fixture as its caller into a fresh
// WindowRun so a null-mask assertion can be made without disturbing the
// value comparison already drained from the first run (GetData's Chunk
// results are consumed once).
func newRunForNullCheck(t *testing.T, orderVals, xVals *chunk.Vector, expr *WindowExpr) *WindowRun {
	t.Helper()
	cfg := WindowRunConfig{
		OrderByTypes:  []common.LType{common.BigintType()},
		OrderByDesc:   []bool{false},
		ValueTypes:    []common.LType{common.BigintType()},
		ValueIsScalar: []bool{false},
		Exprs:         []*WindowExpr{expr},
	}
	run := NewWindowRun(cfg)
	require.NoError(t, run.Sink(&WindowBatch{
		Count:   orderVals.Card(),
		OrderBy: []*chunk.Vector{orderVals},
		Values:  []*chunk.Vector{xVals},
	}))
	require.NoError(t, run.Finalize(context.Background()))
	return run
}

// requireNullAt asserts that every order-by value in wantNullOrders maps
// to a null result somewhere in run's drained output.
func requireNullAt(t *testing.T, run *WindowRun, wantNullOrders []int) {
	t.Helper()
	want := map[int64]bool{}
	for _, o := range wantNullOrders {
		want[int64(o)] = true
	}
	seen := map[int64]bool{}
	for {
		out := &chunk.Chunk{}
		ok, err := run.GetData(context.Background(), out)
		require.NoError(t, err)
		if !ok {
			break
		}
		n := out.Card()
		orderCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[0])
		resultVec := out.Data[len(out.Data)-1]
		for i := 0; i < n; i++ {
			if want[orderCol[i]] {
				require.False(t, resultVec.Mask.RowIsValid(uint64(i)), "order %d expected null", orderCol[i])
				seen[orderCol[i]] = true
			}
		}
	}
	require.Len(t, seen, len(want))
}
