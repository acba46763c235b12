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
	"unsafe"

	"github.com/windowcore/windowcore/pkg/chunk"
)

// defaultSegmentTreeLeafSize is the power-of-two leaf block size L used
// when util.WindowOptions.SegmentTreeLeafSize is left at its zero value,
// the way util.NextPowerOfTwo elsewhere in the teacher rounds allocation
// sizes.
const defaultSegmentTreeLeafSize = 64

// windowSegmentTree accelerates AGGREGATE window functions to O(log N/L)
// per row by pre-combining runs of L rows into leaf states and internal
// states, generic over pkg/window's own AggrFunc capability record —
// same shape as pkg/plan/aggregate.go's GroupedAggrHashTable driving a
// FunctionV2 through stateSize/init/update/combine/finalize, but built
// bottom-up over one partition's worth of a single input column instead
// of scattered by a hash-table row layout.
type windowSegmentTree struct {
	fn   *AggrFunc
	arg  *windowColumnCache
	n    int
	size int // fn.stateSize()

	// levels[0] holds one combined state per leaf block of L input rows;
	// levels[k] holds one combined state per L states of levels[k-1].
	levels [][]byte

	scratch []byte // one state, reused across evaluate calls
	isConstant bool
	constDone  bool

	leafSize int
}

func newWindowSegmentTree(fn *AggrFunc, arg *windowColumnCache, n int, isConstant bool, leafSize int) *windowSegmentTree {
	if leafSize <= 0 {
		leafSize = defaultSegmentTreeLeafSize
	}
	t := &windowSegmentTree{
		fn:         fn,
		arg:        arg,
		n:          n,
		size:       fn.stateSize(),
		isConstant: isConstant,
		leafSize:   leafSize,
	}
	t.scratch = make([]byte, t.size)
	return t
}

func (t *windowSegmentTree) newState() []byte {
	buf := make([]byte, t.size)
	t.fn.init(unsafe.Pointer(&buf[0]))
	return buf
}

func statePtr(buf []byte) unsafe.Pointer {
	return unsafe.Pointer(&buf[0])
}

// build constructs the leaf level and every internal level bottom-up,
// each state combining L states of the level below it (or L input rows
// for level 0), an O(N) pass over the whole partition run once from
// Finalize.
func (t *windowSegmentTree) build() {
	if t.n == 0 {
		return
	}
	leafCount := (t.n + t.leafSize - 1) / t.leafSize
	level0 := make([]byte, leafCount*t.size)
	for b := 0; b < leafCount; b++ {
		state := level0[b*t.size : (b+1)*t.size]
		t.fn.init(statePtr(state))
		lo := b * t.leafSize
		hi := min(lo+t.leafSize, t.n)
		for i := lo; i < hi; i++ {
			t.fn.addRow(statePtr(state), t.arg, i)
		}
	}
	t.levels = [][]byte{level0}

	cur := level0
	curCount := leafCount
	for curCount > 1 {
		nextCount := (curCount + t.leafSize - 1) / t.leafSize
		next := make([]byte, nextCount*t.size)
		for b := 0; b < nextCount; b++ {
			state := next[b*t.size : (b+1)*t.size]
			t.fn.init(statePtr(state))
			lo := b * t.leafSize
			hi := min(lo+t.leafSize, curCount)
			for i := lo; i < hi; i++ {
				t.fn.combine(statePtr(state), statePtr(cur[i*t.size:(i+1)*t.size]))
			}
		}
		t.levels = append(t.levels, next)
		cur = next
		curCount = nextCount
	}
}

// evaluate computes the aggregate over [begin, end) and writes it into
// result at resultIdx, walking up from the leaves the way spec.md §4.4
// describes: combine whichever whole blocks fall entirely inside the
// range at each level, and recurse into the row-level remainder directly
// on the input column.
func (t *windowSegmentTree) evaluate(begin, end int, result *chunk.Vector, resultIdx int) {
	if begin >= end {
		t.fn.init(statePtr(t.scratch))
		t.fn.finalize(statePtr(t.scratch), result, resultIdx)
		return
	}
	if t.fn.window != nil {
		t.fn.window(statePtr(t.scratch), t.arg, begin, end, result, resultIdx)
		return
	}

	state := make([]byte, t.size)
	t.fn.init(statePtr(state))
	t.combineRange(0, begin, end, state)
	t.fn.finalize(statePtr(state), result, resultIdx)
}

// combineRange folds [begin, end) at level (0 == raw input rows, k>0 ==
// blocks of levels[k-1]) into state, splitting the row-level remainder at
// the leaf level into a direct addRow scan.
func (t *windowSegmentTree) combineRange(level, begin, end int, state []byte) {
	if level == 0 {
		blockBegin := (begin + t.leafSize - 1) / t.leafSize
		blockEnd := end / t.leafSize
		lead := min(end, blockBegin*t.leafSize)
		for i := begin; i < lead; i++ {
			t.fn.addRow(statePtr(state), t.arg, i)
		}
		if blockBegin < blockEnd {
			t.combineRange(1, blockBegin, blockEnd, state)
		}
		// trail's lower bound is clamped to lead, not just begin: when
		// [begin, end) contains no whole block (blockBegin > blockEnd),
		// the loop above already consumes the entire range, and this one
		// must stay empty rather than re-adding the same rows.
		for i := max(lead, blockEnd*t.leafSize); i < end; i++ {
			t.fn.addRow(statePtr(state), t.arg, i)
		}
		return
	}

	lvl := t.levels[level-1]
	blockBegin := (begin + t.leafSize - 1) / t.leafSize
	blockEnd := end / t.leafSize
	lead := min(end, blockBegin*t.leafSize)
	for i := begin; i < lead; i++ {
		t.fn.combine(statePtr(state), statePtr(lvl[i*t.size:(i+1)*t.size]))
	}
	if blockBegin < blockEnd && level < len(t.levels) {
		t.combineRange(level+1, blockBegin, blockEnd, state)
	}
	for i := max(lead, blockEnd*t.leafSize); i < end; i++ {
		t.fn.combine(statePtr(state), statePtr(lvl[i*t.size:(i+1)*t.size]))
	}
}

// evaluateConstant handles the whole-partition specialization: the frame
// is always [partitionBegin, partitionEnd) (UNBOUNDED-UNBOUNDED, or
// CURRENT ROW RANGE with no ORDER BY), so it is computed once and
// broadcast to every row instead of walked per row.
func (t *windowSegmentTree) evaluateConstant(partitionBegin, partitionEnd int, result *chunk.Vector, resultIdx int) {
	if !t.constDone {
		t.fn.init(statePtr(t.scratch))
		for i := partitionBegin; i < partitionEnd; i++ {
			t.fn.addRow(statePtr(t.scratch), t.arg, i)
		}
		t.constDone = true
	}
	final := make([]byte, t.size)
	copy(final, t.scratch)
	t.fn.finalize(statePtr(final), result, resultIdx)
}
