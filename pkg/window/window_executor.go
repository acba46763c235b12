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

// windowExprExec is C5: the bound, per-bin state for one WindowExpr,
// running entirely against one already-sorted partitionRun. It plays the
// role pkg/plan/aggr_funcs.go's UnaryAggregate plays for grouped
// aggregation, generalized to frame-aware, row-by-row evaluation.
//
// Unlike the literal three-call Sink/Finalize/Evaluate lifecycle spec.md
// §4.5 describes for a streaming operator, windowExprExec is constructed
// directly against a finalized partitionRun: PartitionSink (C6) already
// performed the equivalent of "Sink" by materializing every window
// expression's argument columns into the bin's row schema before sorting,
// so construction here plays Sink+Finalize in one step, and Evaluate is
// the only per-row call left to make.
type windowExprExec struct {
	expr *WindowExpr
	run  *partitionRun

	children []*windowColumnCache // expr.ChildIdx, resolved
	filter   *windowColumnCache   // expr.FilterIdx, or nil
	orderCol *windowColumnCache   // single ORDER BY column, for RANGE mode
	orderDesc bool

	ignoreNullsMask *windowColumnCache // == children[0], reused for IGNORE NULLS holes

	tree *windowSegmentTree // only for WEK_AGGREGATE

	startOffset *windowColumnCache
	endOffset   *windowColumnCache
	offsetCol   *windowColumnCache
	defaultCol  *windowColumnCache

	bounds *windowBoundariesState

	// ranking state, advanced row by row as Evaluate is called in order.
	rowNumber int
	rank      int
	denseRank int
}

func newWindowExprExec(expr *WindowExpr, run *partitionRun, valueOffset, leafSize int) *windowExprExec {
	e := &windowExprExec{
		expr:   expr,
		run:    run,
		bounds: newWindowBoundariesState(),
	}
	resolve := func(idx int) *windowColumnCache {
		if idx < 0 {
			return nil
		}
		return run.caches[valueOffset+idx]
	}
	for _, idx := range expr.ChildIdx {
		e.children = append(e.children, resolve(idx))
	}
	e.filter = resolve(expr.FilterIdx)
	e.startOffset = resolve(expr.StartOffsetIdx)
	e.endOffset = resolve(expr.EndOffsetIdx)
	e.offsetCol = resolve(expr.OffsetIdx)
	e.defaultCol = resolve(expr.DefaultIdx)

	if len(run.orderIdx) == 1 {
		e.orderCol = run.caches[run.orderIdx[0]]
		e.orderDesc = run.orderDesc[0]
	}
	if expr.IgnoreNulls && len(e.children) > 0 {
		e.ignoreNullsMask = e.children[0]
	}

	if expr.Kind == WEK_AGGREGATE && len(e.children) > 0 {
		arg := e.children[0]
		if e.filter != nil {
			// FILTER excludes rows from the aggregate the same way a NULL
			// argument does, so applying it once up front lets the segment
			// tree's addRow rely solely on isNull as it already does.
			arg = applyFilterMask(arg, e.filter)
		}
		e.tree = newWindowSegmentTree(expr.Aggr.Func, arg, run.count, expr.isConstantAggregate(), leafSize)
	}
	return e
}

// applyFilterMask materializes a copy of arg with every row whose filter
// value is false (or null) marked invalid, so the segment tree treats a
// FILTER-excluded row exactly like a NULL argument.
func applyFilterMask(arg, filter *windowColumnCache) *windowColumnCache {
	n := arg.count
	out := newWindowColumnCache(arg.typ, false, max(n, 1))
	if n > 0 {
		out.gather(arg, indexRange(0, n))
	}
	for i := 0; i < n; i++ {
		if filter.isNull(i) || !windowCacheGet[bool](filter, i) {
			out.vec.Mask.SetInvalid(uint64(i))
		}
	}
	return out
}

// finalize builds the segment tree, if any — the deferred half of
// construction, kept separate so WindowRun can build every executor for a
// bin before paying for any one tree (mirrors spec.md §4.5's own split
// between Sink and Finalize).
func (e *windowExprExec) finalize() {
	if e.tree != nil && !e.expr.isConstantAggregate() {
		e.tree.build()
	}
}

// frameBounds computes the six boundary indices for row r using C3, then
// resolves StartBoundTyp/EndBoundTyp into a concrete [begin, end) window
// frame per spec.md §4.3's rules table. Partition/peer discovery for row r
// has already run in evaluate, so this only resolves the frame itself.
func (e *windowExprExec) frameBounds(r int) (begin, end int, err error) {
	if e.expr.FrameMode == FM_ROWS {
		begin, err = e.rowsBound(e.expr.StartBoundTyp, r, e.startOffset, -1)
		if err != nil {
			return 0, 0, err
		}
		end, err = e.rowsBound(e.expr.EndBoundTyp, r, e.endOffset, 1)
		if err != nil {
			return 0, 0, err
		}
	} else {
		begin, err = e.rangeBound(r, e.expr.StartBoundTyp, e.startOffset, true)
		if err != nil {
			return 0, 0, err
		}
		end, err = e.rangeBound(r, e.expr.EndBoundTyp, e.endOffset, false)
		if err != nil {
			return 0, 0, err
		}
	}
	begin = max(begin, e.bounds.partitionBegin)
	end = min(end, e.bounds.partitionEnd)
	if end < begin {
		end = begin
	}
	return begin, end, nil
}

// rowsBound resolves one side of a ROWS frame. Unlike RANGE mode,
// ROWS CURRENT ROW means the current row itself, not its peer group — peer
// expansion for CURRENT ROW is a RANGE-only concept.
func (e *windowExprExec) rowsBound(boundTyp FrameBoundType, r int, offCache *windowColumnCache, sign int) (int, error) {
	switch boundTyp {
	case FBT_CURRENT_ROW:
		if sign < 0 {
			return r, nil
		}
		return r + 1, nil
	case FBT_PRECEDING, FBT_FOLLOWING:
		off := offsetValue(offCache)
		return computeRowsBound(boundTyp, r, off, sign, e.bounds.partitionBegin, e.bounds.partitionEnd)
	default:
		return computeRowsBound(boundTyp, r, 0, sign, e.bounds.partitionBegin, e.bounds.partitionEnd)
	}
}

// rangeBound resolves one side of a RANGE frame via C3's galloping search,
// seeding the hint from the previous row's result so consecutive rows in
// a monotonically advancing partition amortize to O(1) amortized search
// cost rather than O(log N) every row.
func (e *windowExprExec) rangeBound(r int, boundTyp FrameBoundType, offCache *windowColumnCache, isStart bool) (int, error) {
	switch boundTyp {
	case FBT_UNBOUNDED_PRECEDING:
		return e.bounds.partitionBegin, nil
	case FBT_UNBOUNDED_FOLLOWING:
		return e.bounds.partitionEnd, nil
	case FBT_CURRENT_ROW:
		if isStart {
			return e.bounds.peerBegin, nil
		}
		return e.bounds.peerEnd, nil
	case FBT_PRECEDING, FBT_FOLLOWING:
		if e.orderCol == nil {
			return 0, windowInvalidInputError("RANGE offset frame requires exactly one ORDER BY column")
		}
		e.bounds.ensureValidRange(e.orderCol, true, true)
		off := offsetValue(offCache)
		sign := 1
		if boundTyp == FBT_PRECEDING {
			sign = -1
		}
		if e.orderDesc {
			sign = -sign
		}
		v, err := rangeTarget(e.orderCol, r, off, sign)
		if err != nil {
			return 0, err
		}
		hint := e.bounds.startHint
		if !isStart {
			hint = e.bounds.endHint
		}
		var idx int
		switch e.orderCol.typ.GetInternalType() {
		case common.DOUBLE:
			get := func(i int) float64 { return windowCacheGet[float64](e.orderCol, i) }
			if isStart {
				idx = rangeSearchLeft(get, e.bounds.validStart, e.bounds.validEnd, hint, v.(float64), e.orderDesc)
			} else {
				idx = rangeSearchRight(get, e.bounds.validStart, e.bounds.validEnd, hint, v.(float64), e.orderDesc)
			}
		default:
			get := func(i int) int64 { return windowCacheGet[int64](e.orderCol, i) }
			if isStart {
				idx = rangeSearchLeft(get, e.bounds.validStart, e.bounds.validEnd, hint, v.(int64), e.orderDesc)
			} else {
				idx = rangeSearchRight(get, e.bounds.validStart, e.bounds.validEnd, hint, v.(int64), e.orderDesc)
			}
		}
		if isStart {
			e.bounds.startHint = idx
		} else {
			e.bounds.endHint = idx
		}
		return idx, nil
	default:
		return r, nil
	}
}

func offsetValue(c *windowColumnCache) int64 {
	if c == nil {
		return 0
	}
	switch c.typ.GetInternalType() {
	case common.DOUBLE:
		return int64(windowCacheGet[float64](c, 0))
	case common.FLOAT:
		return int64(windowCacheGet[float32](c, 0))
	default:
		return windowCacheGet[int64](c, 0)
	}
}

func rangeTarget(orderCol *windowColumnCache, r int, off int64, sign int) (any, error) {
	switch orderCol.typ.GetInternalType() {
	case common.DOUBLE:
		return windowCacheGet[float64](orderCol, r) + float64(sign)*float64(off), nil
	default:
		return windowCacheGet[int64](orderCol, r) + int64(sign)*off, nil
	}
}

// evaluate computes row r's result into result[resultIdx], dispatching by
// WindowExprKind exactly as spec.md §4.5's table lays out. Partition/peer
// discovery (C3) runs once here for every kind, not just aggregates — rank
// and navigation functions need bounds.partitionBegin/peerBegin refreshed
// per row just as much as an aggregate's frame resolution does.
func (e *windowExprExec) evaluate(r int, result *chunk.Vector, resultIdx int) error {
	needPeerEnd := e.expr.FrameMode == FM_RANGE || e.expr.EndBoundTyp == FBT_CURRENT_ROW ||
		e.expr.Kind == WEK_CUME_DIST || e.expr.Kind == WEK_PERCENT_RANK
	e.bounds.updatePartition(r, e.run.count, e.run.partitionMask, e.run.orderMask, needPeerEnd)

	switch e.expr.Kind {
	case WEK_AGGREGATE:
		return e.evaluateAggregate(r, result, resultIdx)
	case WEK_ROW_NUMBER:
		e.evaluateRowNumber(r, result, resultIdx)
	case WEK_RANK:
		e.evaluateRank(r, result, resultIdx)
	case WEK_DENSE_RANK:
		e.evaluateDenseRank(r, result, resultIdx)
	case WEK_PERCENT_RANK:
		e.evaluatePercentRank(r, result, resultIdx)
	case WEK_CUME_DIST:
		e.evaluateCumeDist(r, result, resultIdx)
	case WEK_NTILE:
		return e.evaluateNtile(r, result, resultIdx)
	case WEK_LEAD:
		e.evaluateLeadLag(r, result, resultIdx, 1)
	case WEK_LAG:
		e.evaluateLeadLag(r, result, resultIdx, -1)
	case WEK_FIRST_VALUE:
		return e.evaluateNthValue(r, result, resultIdx, 0, false)
	case WEK_LAST_VALUE:
		return e.evaluateNthValue(r, result, resultIdx, -1, false)
	case WEK_NTH_VALUE:
		return e.evaluateNthValue(r, result, resultIdx, int(offsetValue(e.offsetCol))-1, true)
	default:
		return windowInvalidInputError("unsupported window expression kind %d", e.expr.Kind)
	}
	return nil
}

func (e *windowExprExec) evaluateAggregate(r int, result *chunk.Vector, resultIdx int) error {
	begin, end, err := e.frameBounds(r)
	if err != nil {
		if werr, ok := err.(*windowError); ok && werr.Kind() == WindowErrOutOfRange {
			result.Mask.SetInvalid(uint64(resultIdx))
			return nil
		}
		return err
	}
	if e.expr.isConstantAggregate() {
		e.tree.evaluateConstant(e.bounds.partitionBegin, e.bounds.partitionEnd, result, resultIdx)
		return nil
	}
	e.tree.evaluate(begin, end, result, resultIdx)
	return nil
}

func (e *windowExprExec) evaluateRowNumber(r int, result *chunk.Vector, resultIdx int) {
	if r == e.bounds.partitionBegin {
		e.rowNumber = 0
	}
	e.rowNumber++
	sliceAt[int64](result)[resultIdx] = int64(e.rowNumber)
}

func (e *windowExprExec) evaluateRank(r int, result *chunk.Vector, resultIdx int) {
	if r == e.bounds.peerBegin {
		e.rank = r - e.bounds.partitionBegin + 1
	}
	sliceAt[int64](result)[resultIdx] = int64(e.rank)
}

func (e *windowExprExec) evaluateDenseRank(r int, result *chunk.Vector, resultIdx int) {
	if r == e.bounds.partitionBegin {
		e.denseRank = 0
	}
	if r == e.bounds.peerBegin {
		e.denseRank++
	}
	sliceAt[int64](result)[resultIdx] = int64(e.denseRank)
}

func (e *windowExprExec) evaluatePercentRank(r int, result *chunk.Vector, resultIdx int) {
	e.evaluateRank(r, result, resultIdx)
	n := e.bounds.partitionEnd - e.bounds.partitionBegin
	if n <= 1 {
		sliceAt[float64](result)[resultIdx] = 0
		return
	}
	rank := sliceAt[int64](result)[resultIdx]
	sliceAt[float64](result)[resultIdx] = float64(rank-1) / float64(n-1)
}

func (e *windowExprExec) evaluateCumeDist(r int, result *chunk.Vector, resultIdx int) {
	n := e.bounds.partitionEnd - e.bounds.partitionBegin
	peerRank := e.bounds.peerEnd - e.bounds.partitionBegin
	sliceAt[float64](result)[resultIdx] = float64(peerRank) / float64(n)
}

// evaluateNtile follows spec.md §4.5's exact NTILE formula: with n rows
// split into b buckets, the first n%b buckets get ceil(n/b) rows and the
// rest get floor(n/b). A null bucket-count argument yields a null result;
// a non-null argument < 1 is a user error, not a null.
func (e *windowExprExec) evaluateNtile(r int, result *chunk.Vector, resultIdx int) error {
	if e.children[0].isNull(0) {
		result.Mask.SetInvalid(uint64(resultIdx))
		return nil
	}
	n := e.bounds.partitionEnd - e.bounds.partitionBegin
	b := int(offsetValue(e.children[0]))
	if b <= 0 {
		return windowInvalidInputError("Argument for ntile must be greater than zero")
	}
	pos := r - e.bounds.partitionBegin
	base := n / b
	extra := n % b
	bigBucketRows := (base + 1) * extra
	var bucket int
	if pos < bigBucketRows {
		bucket = pos/(base+1) + 1
	} else {
		bucket = extra + (pos-bigBucketRows)/max(base, 1) + 1
	}
	sliceAt[int64](result)[resultIdx] = int64(bucket)
	return nil
}

// evaluateLeadLag walks dir rows away from r (IGNORE NULLS skips over null
// holes in children[0] via C1's findNextStart/findPrevStart), clamped to
// the partition and falling back to Default when out of range.
func (e *windowExprExec) evaluateLeadLag(r int, result *chunk.Vector, resultIdx int, dir int) {
	off := int(offsetValue(e.offsetCol))
	if off == 0 {
		off = 1
	}
	target := e.navigateRows(r, dir*off)
	if target < e.bounds.partitionBegin || target >= e.bounds.partitionEnd {
		e.writeDefaultOrNull(result, resultIdx)
		return
	}
	chunk.Copy(e.children[0].vec, result, chunk.NewSelectVector3([]int{rowInCache(e.children[0], target)}), 1, 0, resultIdx)
}

// navigateRows steps n logical rows from r within the partition, skipping
// null rows of the IGNORE NULLS column when set.
func (e *windowExprExec) navigateRows(r, n int) int {
	if e.ignoreNullsMask == nil {
		return r + n
	}
	cur := r
	for n > 0 {
		k := 1
		cur = findNextStartNonNull(e.ignoreNullsMask, cur+1, e.bounds.partitionEnd, &k)
		n--
	}
	for n < 0 {
		k := 1
		cur = findPrevStartNonNull(e.ignoreNullsMask, e.bounds.partitionBegin, cur, &k)
		n++
	}
	return cur
}

func findNextStartNonNull(c *windowColumnCache, l, r int, n *int) int {
	for i := l; i < r; i++ {
		if !c.isNull(i) {
			*n--
			if *n == 0 {
				return i
			}
		}
	}
	return r
}

func findPrevStartNonNull(c *windowColumnCache, l, r int, n *int) int {
	for i := r - 1; i >= l; i-- {
		if !c.isNull(i) {
			*n--
			if *n == 0 {
				return i
			}
		}
	}
	return l - 1
}

func rowInCache(c *windowColumnCache, row int) int {
	if c.isScalar {
		return 0
	}
	return row
}

func (e *windowExprExec) writeDefaultOrNull(result *chunk.Vector, resultIdx int) {
	if e.defaultCol != nil {
		chunk.Copy(e.defaultCol.vec, result, chunk.NewSelectVector3([]int{rowInCache(e.defaultCol, 0)}), 1, 0, resultIdx)
		return
	}
	result.Mask.SetInvalid(uint64(resultIdx))
}

// evaluateNthValue handles FIRST_VALUE (n=0), LAST_VALUE (n=-1, meaning
// last), and NTH_VALUE (n=offset-1), all counted from the frame's own
// [begin, end) — not the partition — and honoring IGNORE NULLS by
// skipping null rows within the frame.
func (e *windowExprExec) evaluateNthValue(r int, result *chunk.Vector, resultIdx, n int, fromOffset bool) error {
	begin, end, err := e.frameBounds(r)
	if err != nil {
		result.Mask.SetInvalid(uint64(resultIdx))
		return nil
	}
	if begin >= end {
		result.Mask.SetInvalid(uint64(resultIdx))
		return nil
	}
	var target int
	switch {
	case n == -1 && !fromOffset:
		target = e.lastNonNull(begin, end)
	default:
		target = e.nthNonNull(begin, end, n)
	}
	if target < begin || target >= end {
		e.writeDefaultOrNull(result, resultIdx)
		return nil
	}
	chunk.Copy(e.children[0].vec, result, chunk.NewSelectVector3([]int{rowInCache(e.children[0], target)}), 1, 0, resultIdx)
	return nil
}

// lastNonNull returns the highest-indexed non-null row in [begin, end),
// or begin-1 if none exists — LAST_VALUE's own frame-relative position
// isn't a fixed nth-non-null count the way FIRST_VALUE's (always 0) or
// NTH_VALUE's (offset-1) are, since the count of non-null rows in the
// frame isn't known ahead of the scan.
func (e *windowExprExec) lastNonNull(begin, end int) int {
	if e.ignoreNullsMask == nil {
		return end - 1
	}
	for i := end - 1; i >= begin; i-- {
		if !e.ignoreNullsMask.isNull(i) {
			return i
		}
	}
	return begin - 1
}

func (e *windowExprExec) nthNonNull(begin, end, n int) int {
	if e.ignoreNullsMask == nil {
		idx := begin + n
		if idx < begin || idx >= end {
			return end
		}
		return idx
	}
	if n < 0 {
		return begin - 1
	}
	seen := -1
	for i := begin; i < end; i++ {
		if !e.ignoreNullsMask.isNull(i) {
			seen++
			if seen == n {
				return i
			}
		}
	}
	return end
}
