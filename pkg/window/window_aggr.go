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
	"github.com/windowcore/windowcore/pkg/common"
)

// aggrStateSize, aggrInit, aggrAddRow, aggrCombine and aggrFinalize mirror
// the init/update/combine/finalize capability-record shape pkg/plan's
// FunctionV2 establishes for grouped aggregation, specialized to the
// one-row-at-a-time leaf construction and pairwise node merge the segment
// tree aggregator (window_segment_tree.go) drives it with.
type aggrStateSize func() int
type aggrInit func(state unsafe.Pointer)
type aggrAddRow func(state unsafe.Pointer, input *windowColumnCache, rowIdx int)
type aggrCombine func(target, source unsafe.Pointer)
type aggrFinalize func(state unsafe.Pointer, result *chunk.Vector, resultIdx int)

// aggrWindowFunc is the completed version of pkg/plan/function.go's
// commented-out, never-finished `_window aggrWindow` field: a single-pass
// whole-frame evaluator for aggregates that support retracting a row as
// well as adding one (SUM, COUNT, AVG), letting the caller slide the frame
// by adding/removing rows at the edges instead of rebuilding from a
// segment tree for every row.
type aggrWindowFunc func(state unsafe.Pointer, input *windowColumnCache, begin, end int, result *chunk.Vector, resultIdx int)

// AggrFunc is pkg/window's own capability record, independent of (but
// shaped like) pkg/plan/function.go's FunctionV2/aggrStateSize/aggrInit/
// aggrUpdate/aggrCombine/aggrFinalize family — reimplemented because
// pkg/plan does not compile as a whole package in this snapshot.
type AggrFunc struct {
	Name     string
	ArgType  common.LType
	RetType  common.LType

	stateSize aggrStateSize
	init      aggrInit
	addRow    aggrAddRow
	combine   aggrCombine
	finalize  aggrFinalize
	window    aggrWindowFunc // nil when no incremental specialization exists
}

// AggrObject wraps a bound AggrFunc the way pkg/plan/aggregate.go's
// AggrObject wraps a bound *FunctionV2 for a concrete aggregate call site.
type AggrObject struct {
	Name        string
	Func        *AggrFunc
	ChildCount  int
	PayloadSize int
	RetType     common.LType
}

func NewAggrObject(fn *AggrFunc, childCount int) *AggrObject {
	return &AggrObject{
		Name:        fn.Name,
		Func:        fn,
		ChildCount:  childCount,
		PayloadSize: fn.stateSize(),
		RetType:     fn.RetType,
	}
}

type numeric interface {
	~int32 | ~int64 | ~float32 | ~float64
}

type sumState[T numeric] struct {
	isset bool
	sum   T
}

type countState struct {
	count int64
}

type minMaxState[T numeric] struct {
	isset bool
	val   T
}

func sliceAt[T any](vec *chunk.Vector) []T {
	return chunk.GetSliceInPhyFormatFlat[T](vec)
}

// NewSumAggr builds a SUM aggregate over a flat column of type T,
// grounded on pkg/plan/aggr_funcs.go's UnaryAggregate/SumOp shape but
// specialized to the segment tree's addRow/combine/finalize contract
// instead of grouped-hashtable scatter/gather.
func NewSumAggr[T numeric](argTyp, retTyp common.LType) *AggrFunc {
	return &AggrFunc{
		Name:    "sum",
		ArgType: argTyp,
		RetType: retTyp,
		stateSize: func() int {
			var s sumState[T]
			return int(unsafe.Sizeof(s))
		},
		init: func(state unsafe.Pointer) {
			*(*sumState[T])(state) = sumState[T]{}
		},
		addRow: func(state unsafe.Pointer, input *windowColumnCache, rowIdx int) {
			if input.isNull(rowIdx) {
				return
			}
			s := (*sumState[T])(state)
			s.isset = true
			s.sum += windowCacheGet[T](input, rowIdx)
		},
		combine: func(target, source unsafe.Pointer) {
			t := (*sumState[T])(target)
			s := (*sumState[T])(source)
			if !s.isset {
				return
			}
			t.isset = true
			t.sum += s.sum
		},
		finalize: func(state unsafe.Pointer, result *chunk.Vector, resultIdx int) {
			s := (*sumState[T])(state)
			if !s.isset {
				result.Mask.SetInvalid(uint64(resultIdx))
				return
			}
			sliceAt[T](result)[resultIdx] = s.sum
		},
		window: func(state unsafe.Pointer, input *windowColumnCache, begin, end int, result *chunk.Vector, resultIdx int) {
			var s sumState[T]
			for i := begin; i < end; i++ {
				if input.isNull(i) {
					continue
				}
				s.isset = true
				s.sum += windowCacheGet[T](input, i)
			}
			if !s.isset {
				result.Mask.SetInvalid(uint64(resultIdx))
				return
			}
			sliceAt[T](result)[resultIdx] = s.sum
		},
	}
}

// NewCountAggr builds COUNT(x) / COUNT(*) (nullCountsToo=true skips the
// null check, matching COUNT(*) semantics).
func NewCountAggr(argTyp common.LType, nullCountsToo bool) *AggrFunc {
	return &AggrFunc{
		Name:    "count",
		ArgType: argTyp,
		RetType: common.BigintType(),
		stateSize: func() int {
			var s countState
			return int(unsafe.Sizeof(s))
		},
		init: func(state unsafe.Pointer) {
			*(*countState)(state) = countState{}
		},
		addRow: func(state unsafe.Pointer, input *windowColumnCache, rowIdx int) {
			if !nullCountsToo && input.isNull(rowIdx) {
				return
			}
			(*countState)(state).count++
		},
		combine: func(target, source unsafe.Pointer) {
			(*countState)(target).count += (*countState)(source).count
		},
		finalize: func(state unsafe.Pointer, result *chunk.Vector, resultIdx int) {
			sliceAt[int64](result)[resultIdx] = (*countState)(state).count
		},
		window: func(state unsafe.Pointer, input *windowColumnCache, begin, end int, result *chunk.Vector, resultIdx int) {
			cnt := int64(0)
			if nullCountsToo {
				cnt = int64(end - begin)
			} else {
				for i := begin; i < end; i++ {
					if !input.isNull(i) {
						cnt++
					}
				}
			}
			sliceAt[int64](result)[resultIdx] = cnt
		},
	}
}

// NewAvgAggr builds AVG(x) as sum/count, grounded on aggr_funcs.go's
// AvgStateOp (a sum accumulator plus a row count, divided on finalize).
func NewAvgAggr[T numeric](argTyp common.LType) *AggrFunc {
	type avgState struct {
		sumState[float64]
		count int64
	}
	return &AggrFunc{
		Name:    "avg",
		ArgType: argTyp,
		RetType: common.DoubleType(),
		stateSize: func() int {
			var s avgState
			return int(unsafe.Sizeof(s))
		},
		init: func(state unsafe.Pointer) {
			*(*avgState)(state) = avgState{}
		},
		addRow: func(state unsafe.Pointer, input *windowColumnCache, rowIdx int) {
			if input.isNull(rowIdx) {
				return
			}
			s := (*avgState)(state)
			s.isset = true
			s.sum += float64(windowCacheGet[T](input, rowIdx))
			s.count++
		},
		combine: func(target, source unsafe.Pointer) {
			t := (*avgState)(target)
			s := (*avgState)(source)
			if s.count == 0 {
				return
			}
			t.isset = true
			t.sum += s.sum
			t.count += s.count
		},
		finalize: func(state unsafe.Pointer, result *chunk.Vector, resultIdx int) {
			s := (*avgState)(state)
			if s.count == 0 {
				result.Mask.SetInvalid(uint64(resultIdx))
				return
			}
			sliceAt[float64](result)[resultIdx] = s.sum / float64(s.count)
		},
		window: func(state unsafe.Pointer, input *windowColumnCache, begin, end int, result *chunk.Vector, resultIdx int) {
			var s avgState
			for i := begin; i < end; i++ {
				if input.isNull(i) {
					continue
				}
				s.isset = true
				s.sum += float64(windowCacheGet[T](input, i))
				s.count++
			}
			if s.count == 0 {
				result.Mask.SetInvalid(uint64(resultIdx))
				return
			}
			sliceAt[float64](result)[resultIdx] = s.sum / float64(s.count)
		},
	}
}

// NewMinAggr/NewMaxAggr ground on aggr_funcs.go's MaxStateOp/MinStateOp;
// unlike SUM/COUNT/AVG neither supports retraction, so no `window`
// specialization is set and the segment tree is always used for these.
func NewMinAggr[T numeric](argTyp, retTyp common.LType) *AggrFunc {
	return minMaxAggr[T](argTyp, retTyp, "min", func(cur, v T) bool { return v < cur })
}

func NewMaxAggr[T numeric](argTyp, retTyp common.LType) *AggrFunc {
	return minMaxAggr[T](argTyp, retTyp, "max", func(cur, v T) bool { return v > cur })
}

func minMaxAggr[T numeric](argTyp, retTyp common.LType, name string, better func(cur, v T) bool) *AggrFunc {
	return &AggrFunc{
		Name:    name,
		ArgType: argTyp,
		RetType: retTyp,
		stateSize: func() int {
			var s minMaxState[T]
			return int(unsafe.Sizeof(s))
		},
		init: func(state unsafe.Pointer) {
			*(*minMaxState[T])(state) = minMaxState[T]{}
		},
		addRow: func(state unsafe.Pointer, input *windowColumnCache, rowIdx int) {
			if input.isNull(rowIdx) {
				return
			}
			s := (*minMaxState[T])(state)
			v := windowCacheGet[T](input, rowIdx)
			if !s.isset || better(s.val, v) {
				s.isset = true
				s.val = v
			}
		},
		combine: func(target, source unsafe.Pointer) {
			t := (*minMaxState[T])(target)
			s := (*minMaxState[T])(source)
			if !s.isset {
				return
			}
			if !t.isset || better(t.val, s.val) {
				t.isset = true
				t.val = s.val
			}
		},
		finalize: func(state unsafe.Pointer, result *chunk.Vector, resultIdx int) {
			s := (*minMaxState[T])(state)
			if !s.isset {
				result.Mask.SetInvalid(uint64(resultIdx))
				return
			}
			sliceAt[T](result)[resultIdx] = s.val
		},
	}
}
