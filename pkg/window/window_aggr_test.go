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

func newCacheFromInt64(values []int64, nullAt map[int]bool) *windowColumnCache {
	c := newWindowColumnCache(common.BigintType(), false, len(values))
	c.append(int64Vector(values, nullAt), 0, len(values))
	return c
}

func Test_NewSumAggr_addRowFinalize(t *testing.T) {
	fn := NewSumAggr[int64](common.BigintType(), common.BigintType())
	cache := newCacheFromInt64([]int64{1, 2, 3, 4}, map[int]bool{2: true})

	state := make([]byte, fn.stateSize())
	fn.init(unsafe.Pointer(&state[0]))
	for i := 0; i < cache.len(); i++ {
		fn.addRow(unsafe.Pointer(&state[0]), cache, i)
	}

	result := chunk.NewFlatVector(common.BigintType(), 1)
	fn.finalize(unsafe.Pointer(&state[0]), result, 0)
	require.True(t, result.Mask.RowIsValid(0))
	require.Equal(t, int64(7), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_NewSumAggr_allNullIsNull(t *testing.T) {
	fn := NewSumAggr[int64](common.BigintType(), common.BigintType())
	cache := newCacheFromInt64([]int64{1, 2}, map[int]bool{0: true, 1: true})

	state := make([]byte, fn.stateSize())
	fn.init(unsafe.Pointer(&state[0]))
	for i := 0; i < cache.len(); i++ {
		fn.addRow(unsafe.Pointer(&state[0]), cache, i)
	}

	result := chunk.NewFlatVector(common.BigintType(), 1)
	fn.finalize(unsafe.Pointer(&state[0]), result, 0)
	require.False(t, result.Mask.RowIsValid(0))
}

func Test_NewSumAggr_combine(t *testing.T) {
	fn := NewSumAggr[int64](common.BigintType(), common.BigintType())
	left := newCacheFromInt64([]int64{1, 2}, nil)
	right := newCacheFromInt64([]int64{10, 20}, nil)

	ls := make([]byte, fn.stateSize())
	rs := make([]byte, fn.stateSize())
	fn.init(unsafe.Pointer(&ls[0]))
	fn.init(unsafe.Pointer(&rs[0]))
	for i := 0; i < left.len(); i++ {
		fn.addRow(unsafe.Pointer(&ls[0]), left, i)
	}
	for i := 0; i < right.len(); i++ {
		fn.addRow(unsafe.Pointer(&rs[0]), right, i)
	}
	fn.combine(unsafe.Pointer(&ls[0]), unsafe.Pointer(&rs[0]))

	result := chunk.NewFlatVector(common.BigintType(), 1)
	fn.finalize(unsafe.Pointer(&ls[0]), result, 0)
	require.Equal(t, int64(33), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_NewSumAggr_window(t *testing.T) {
	fn := NewSumAggr[int64](common.BigintType(), common.BigintType())
	cache := newCacheFromInt64([]int64{1, 2, 3, 4, 5}, map[int]bool{1: true})

	state := make([]byte, fn.stateSize())

	result := chunk.NewFlatVector(common.BigintType(), 1)
	fn.window(unsafe.Pointer(&state[0]), cache, 0, 5, result, 0)
	require.Equal(t, int64(13), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_NewCountAggr_nullCountsToo(t *testing.T) {
	fn := NewCountAggr(common.BigintType(), true)
	cache := newCacheFromInt64([]int64{1, 2, 3}, map[int]bool{1: true})

	state := make([]byte, fn.stateSize())
	fn.init(unsafe.Pointer(&state[0]))
	for i := 0; i < cache.len(); i++ {
		fn.addRow(unsafe.Pointer(&state[0]), cache, i)
	}
	result := chunk.NewFlatVector(common.BigintType(), 1)
	fn.finalize(unsafe.Pointer(&state[0]), result, 0)
	require.Equal(t, int64(3), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_NewCountAggr_excludesNulls(t *testing.T) {
	fn := NewCountAggr(common.BigintType(), false)
	cache := newCacheFromInt64([]int64{1, 2, 3}, map[int]bool{1: true})

	state := make([]byte, fn.stateSize())
	fn.init(unsafe.Pointer(&state[0]))
	for i := 0; i < cache.len(); i++ {
		fn.addRow(unsafe.Pointer(&state[0]), cache, i)
	}
	result := chunk.NewFlatVector(common.BigintType(), 1)
	fn.finalize(unsafe.Pointer(&state[0]), result, 0)
	require.Equal(t, int64(2), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_NewCountAggr_window(t *testing.T) {
	fn := NewCountAggr(common.BigintType(), false)
	cache := newCacheFromInt64([]int64{1, 2, 3, 4}, map[int]bool{0: true, 3: true})
	result := chunk.NewFlatVector(common.BigintType(), 1)
	fn.window(nil, cache, 0, 4, result, 0)
	require.Equal(t, int64(2), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_NewAvgAggr(t *testing.T) {
	fn := NewAvgAggr[int64](common.BigintType())
	cache := newCacheFromInt64([]int64{2, 4, 6}, nil)

	state := make([]byte, fn.stateSize())
	fn.init(unsafe.Pointer(&state[0]))
	for i := 0; i < cache.len(); i++ {
		fn.addRow(unsafe.Pointer(&state[0]), cache, i)
	}
	result := chunk.NewFlatVector(common.DoubleType(), 1)
	fn.finalize(unsafe.Pointer(&state[0]), result, 0)
	require.Equal(t, float64(4), chunk.GetSliceInPhyFormatFlat[float64](result)[0])
}

func Test_NewAvgAggr_emptyIsNull(t *testing.T) {
	fn := NewAvgAggr[int64](common.BigintType())
	state := make([]byte, fn.stateSize())
	fn.init(unsafe.Pointer(&state[0]))
	result := chunk.NewFlatVector(common.DoubleType(), 1)
	fn.finalize(unsafe.Pointer(&state[0]), result, 0)
	require.False(t, result.Mask.RowIsValid(0))
}

func Test_NewMinMaxAggr(t *testing.T) {
	minFn := NewMinAggr[int64](common.BigintType(), common.BigintType())
	maxFn := NewMaxAggr[int64](common.BigintType(), common.BigintType())
	cache := newCacheFromInt64([]int64{5, -1, 9, 3}, map[int]bool{2: true})

	minState := make([]byte, minFn.stateSize())
	maxState := make([]byte, maxFn.stateSize())
	minFn.init(unsafe.Pointer(&minState[0]))
	maxFn.init(unsafe.Pointer(&maxState[0]))
	for i := 0; i < cache.len(); i++ {
		minFn.addRow(unsafe.Pointer(&minState[0]), cache, i)
		maxFn.addRow(unsafe.Pointer(&maxState[0]), cache, i)
	}

	minResult := chunk.NewFlatVector(common.BigintType(), 1)
	maxResult := chunk.NewFlatVector(common.BigintType(), 1)
	minFn.finalize(unsafe.Pointer(&minState[0]), minResult, 0)
	maxFn.finalize(unsafe.Pointer(&maxState[0]), maxResult, 0)
	require.Equal(t, int64(-1), chunk.GetSliceInPhyFormatFlat[int64](minResult)[0])
	require.Equal(t, int64(5), chunk.GetSliceInPhyFormatFlat[int64](maxResult)[0])
}

func Test_NewMinMaxAggr_combine(t *testing.T) {
	minFn := NewMinAggr[int64](common.BigintType(), common.BigintType())
	left := newCacheFromInt64([]int64{5, 2}, nil)
	right := newCacheFromInt64([]int64{-3, 8}, nil)

	ls := make([]byte, minFn.stateSize())
	rs := make([]byte, minFn.stateSize())
	minFn.init(unsafe.Pointer(&ls[0]))
	minFn.init(unsafe.Pointer(&rs[0]))
	for i := 0; i < left.len(); i++ {
		minFn.addRow(unsafe.Pointer(&ls[0]), left, i)
	}
	for i := 0; i < right.len(); i++ {
		minFn.addRow(unsafe.Pointer(&rs[0]), right, i)
	}
	minFn.combine(unsafe.Pointer(&ls[0]), unsafe.Pointer(&rs[0]))

	result := chunk.NewFlatVector(common.BigintType(), 1)
	minFn.finalize(unsafe.Pointer(&ls[0]), result, 0)
	require.Equal(t, int64(-3), chunk.GetSliceInPhyFormatFlat[int64](result)[0])
}

func Test_NewAggrObject(t *testing.T) {
	fn := NewSumAggr[int64](common.BigintType(), common.BigintType())
	obj := NewAggrObject(fn, 1)
	require.Equal(t, "sum", obj.Name)
	require.Equal(t, 1, obj.ChildCount)
	require.Equal(t, fn.stateSize(), obj.PayloadSize)
}
