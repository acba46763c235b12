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
	"github.com/windowcore/windowcore/pkg/chunk"
	"github.com/windowcore/windowcore/pkg/common"
	"github.com/windowcore/windowcore/pkg/util"
)

// windowColumnCache holds one partition's worth of a single window
// argument column, materialized flat so the frame/segment-tree/ranking
// components can random-access any row in O(1) instead of re-scanning
// upstream chunks.
//
// isScalar short-circuits the whole cache to row 0 when the caller (the
// window executor, §4.5) already knows the argument is constant across
// the partition — e.g. an NTILE bucket count or an EXPR PRECEDING offset
// evaluated once — rather than pkg/window re-deriving constancy from a
// bound-expression tag it does not have.
type windowColumnCache struct {
	typ      common.LType
	vec      *chunk.Vector
	count    int
	capacity int
	isScalar bool
}

func newWindowColumnCache(typ common.LType, isScalar bool, capacity int) *windowColumnCache {
	if isScalar {
		capacity = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	return &windowColumnCache{
		typ:      typ,
		vec:      chunk.NewVector2(typ, capacity),
		capacity: capacity,
		isScalar: isScalar,
	}
}

// append copies n rows from src (at row offset srcOffset) onto the end
// of the cache, growing the backing vector's logical count. It is a
// no-op past the first call once isScalar is set, matching the "evaluate
// once" contract described above.
func (c *windowColumnCache) append(src *chunk.Vector, srcOffset, n int) {
	if c.isScalar {
		if c.count == 0 && n > 0 {
			chunk.Copy(src, c.vec, chunk.IncrSelectVectorInPhyFormatFlat(), srcOffset+1, srcOffset, 0)
			c.count = 1
		}
		return
	}
	if n == 0 {
		return
	}
	dstOffset := c.count
	needed := dstOffset + n
	if needed > c.capacity {
		c.grow(needed)
	}
	chunk.Copy(src, c.vec, chunk.IncrSelectVectorInPhyFormatFlat(), srcOffset+n, srcOffset, dstOffset)
	c.count = needed
}

// grow reallocates the backing vector to at least needed rows, copying
// the previously appended rows forward — the same geometric-growth shape
// pkg/chunk's own ColumnDataCollection uses for accumulating payload
// blocks.
func (c *windowColumnCache) grow(needed int) {
	newCap := util.NextPowerOfTwo(uint64(needed))
	grown := chunk.NewVector2(c.typ, int(newCap))
	if c.count > 0 {
		chunk.Copy(c.vec, grown, chunk.IncrSelectVectorInPhyFormatFlat(), c.count, 0, 0)
	}
	c.vec = grown
	c.capacity = int(newCap)
}

func (c *windowColumnCache) isNull(i int) bool {
	idx := i
	if c.isScalar {
		idx = 0
	}
	return !c.vec.Mask.RowIsValid(uint64(idx))
}

func (c *windowColumnCache) len() int {
	return c.count
}

// windowCacheGet reads row i of the cache as T. Methods in Go cannot
// carry their own type parameters, so this is a free function rather
// than a method on *windowColumnCache.
func windowCacheGet[T any](c *windowColumnCache, i int) T {
	idx := i
	if c.isScalar {
		idx = 0
	}
	return chunk.GetSliceInPhyFormatFlat[T](c.vec)[idx]
}
