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

func int64Vector(values []int64, nullAt map[int]bool) *chunk.Vector {
	vec := chunk.NewFlatVector(common.BigintType(), len(values))
	data := chunk.GetSliceInPhyFormatFlat[int64](vec)
	for i, v := range values {
		data[i] = v
		if nullAt[i] {
			vec.Mask.SetInvalid(uint64(i))
		}
	}
	return vec
}

func Test_windowColumnCache_appendAndGet(t *testing.T) {
	c := newWindowColumnCache(common.BigintType(), false, 4)
	src := int64Vector([]int64{10, 20, 30, 40, 50}, map[int]bool{2: true})
	c.append(src, 0, 5)

	require.Equal(t, 5, c.len())
	for i, want := range []int64{10, 20, 0, 40, 50} {
		if i == 2 {
			require.True(t, c.isNull(i))
			continue
		}
		require.False(t, c.isNull(i))
		require.Equal(t, want, windowCacheGet[int64](c, i))
	}
}

func Test_windowColumnCache_growsPastInitialCapacity(t *testing.T) {
	c := newWindowColumnCache(common.BigintType(), false, 2)
	src := int64Vector([]int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, nil)
	c.append(src, 0, 9)

	require.Equal(t, 9, c.len())
	require.GreaterOrEqual(t, c.capacity, 9)
	for i := 0; i < 9; i++ {
		require.Equal(t, int64(i+1), windowCacheGet[int64](c, i))
	}
}

func Test_windowColumnCache_appendInChunks(t *testing.T) {
	c := newWindowColumnCache(common.BigintType(), false, 4)
	src := int64Vector([]int64{1, 2, 3, 4, 5, 6}, nil)
	c.append(src, 0, 3)
	c.append(src, 3, 3)

	require.Equal(t, 6, c.len())
	for i := 0; i < 6; i++ {
		require.Equal(t, int64(i+1), windowCacheGet[int64](c, i))
	}
}

func Test_windowColumnCache_scalarBroadcastsRowZero(t *testing.T) {
	c := newWindowColumnCache(common.BigintType(), true, 4)
	src := int64Vector([]int64{7}, nil)
	c.append(src, 0, 1)
	// A second append must be a no-op: scalar caches latch onto their
	// first value.
	src2 := int64Vector([]int64{99}, nil)
	c.append(src2, 0, 1)

	require.Equal(t, 1, c.len())
	for _, i := range []int{0, 1, 5} {
		require.Equal(t, int64(7), windowCacheGet[int64](c, i))
		require.False(t, c.isNull(i))
	}
}
