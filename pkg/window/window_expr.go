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
)

type WindowExprKind int

const (
	WEK_AGGREGATE WindowExprKind = iota
	WEK_ROW_NUMBER
	WEK_RANK
	WEK_DENSE_RANK
	WEK_PERCENT_RANK
	WEK_CUME_DIST
	WEK_NTILE
	WEK_LEAD
	WEK_LAG
	WEK_FIRST_VALUE
	WEK_LAST_VALUE
	WEK_NTH_VALUE
)

type FrameMode int

const (
	FM_ROWS FrameMode = iota
	FM_RANGE
)

type FrameBoundType int

const (
	FBT_UNBOUNDED_PRECEDING FrameBoundType = iota
	FBT_PRECEDING
	FBT_CURRENT_ROW
	FBT_FOLLOWING
	FBT_UNBOUNDED_FOLLOWING
)

// WindowArg is one already-resolved argument column: the caller has
// already run its own expression evaluator over the OVER clause's
// sub-expressions and hands pkg/window the result.
type WindowArg struct {
	Vec      *chunk.Vector
	IsScalar bool
}

func (a WindowArg) valid() bool {
	return a.Vec != nil
}

// WindowExpr is the bound descriptor for one window-function expression
// within an OVER clause, the shape pkg/plan's own bound aggregate/join
// expressions take one step further along the pipeline than pkg/window
// starts from (see SPEC_FULL.md §4.5): every expression tree has already
// been evaluated into flat columns by the time this reaches pkg/window.
type WindowExpr struct {
	Kind        WindowExprKind
	RetTyp      common.LType
	PartitionBy []*chunk.Vector
	OrderBy     []*chunk.Vector
	OrderByDesc []bool
	Children    []WindowArg
	Filter      *chunk.Vector

	Aggr *AggrObject

	FrameMode     FrameMode
	StartBoundTyp FrameBoundType
	EndBoundTyp   FrameBoundType
	StartOffset   WindowArg
	EndOffset     WindowArg

	Offset  WindowArg // LEAD/LAG
	Default WindowArg // LEAD/LAG

	IgnoreNulls bool

	// ChildIdx/FilterIdx/*Idx locate this window expression's argument
	// columns within the wide row PartitionSink actually stores (§4.6):
	// since Sink ingests every window expression's arguments together as
	// one row schema before partitions are even known, a bound WindowExpr
	// needs to say *where* its own columns live in that shared schema.
	// -1 means "not present" for the single-column *Idx fields.
	ChildIdx       []int
	FilterIdx      int
	StartOffsetIdx int
	EndOffsetIdx   int
	OffsetIdx      int
	DefaultIdx     int
}

func (e *WindowExpr) isConstantAggregate() bool {
	if e.Kind != WEK_AGGREGATE {
		return false
	}
	unbounded := e.StartBoundTyp == FBT_UNBOUNDED_PRECEDING && e.EndBoundTyp == FBT_UNBOUNDED_FOLLOWING
	currentRowRangeNoOrder := e.FrameMode == FM_RANGE &&
		e.StartBoundTyp == FBT_CURRENT_ROW && e.EndBoundTyp == FBT_CURRENT_ROW &&
		len(e.OrderBy) == 0
	return unbounded || currentRowRangeNoOrder
}
