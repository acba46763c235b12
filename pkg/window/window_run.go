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
	"runtime"
	"sync"
	"sync/atomic"

	treemap "github.com/liyue201/gostl/ds/map"
	"golang.org/x/sync/errgroup"

	"github.com/windowcore/windowcore/pkg/chunk"
	"github.com/windowcore/windowcore/pkg/common"
	"github.com/windowcore/windowcore/pkg/util"
)

// WindowRunConfig binds one shared (PARTITION BY, ORDER BY) definition to
// every WindowExpr that shares it, the way a single physical window
// operator in a real planner batches every OVER clause with an identical
// partitioning together into one sort/partition pass.
type WindowRunConfig struct {
	PartitionByTypes []common.LType
	OrderByTypes     []common.LType
	OrderByDesc      []bool

	// ValueTypes/ValueIsScalar is the union of every WindowExpr's
	// argument, filter and offset columns, referenced positionally by
	// each WindowExpr's ChildIdx/FilterIdx/*Idx fields (window_expr.go).
	ValueTypes    []common.LType
	ValueIsScalar []bool

	Exprs []*WindowExpr

	// MaxThreads caps the C7 bin worker pool; 0 means
	// runtime.GOMAXPROCS(0), per spec.md §4.7.
	MaxThreads int

	// HyperLogLogPrecision sizes the C6 cardinality sketch driving
	// estimatedNumBins; 0 defaults to the teacher's own New14() choice.
	HyperLogLogPrecision uint8

	// SegmentTreeLeafSize overrides C4's leaf block size; 0 defaults to
	// defaultSegmentTreeLeafSize.
	SegmentTreeLeafSize int
}

// WindowBatch is one input batch handed to WindowRun.Sink: already
// partitioned into PartitionBy/OrderBy/Values column groups matching
// WindowRunConfig's type lists.
type WindowBatch struct {
	Count       int
	PartitionBy []*chunk.Vector
	OrderBy     []*chunk.Vector
	Values      []*chunk.Vector
}

// WindowRun is pkg/window's public entry point: a plain constructor plus
// Sink/Finalize/GetData driver pair, deliberately not shaped as a pull
// operator with a Volcano-style Execute loop — see SPEC_FULL.md §0.2's
// "adapter, not operator" decision. Any executor (push or pull, this
// teacher's or another) drives it by calling these three methods in
// order.
type WindowRun struct {
	cfg      WindowRunConfig
	rowTypes []common.LType
	outTypes []common.LType

	sink  *PartitionSink
	local *localSinkState
	mu    sync.Mutex

	results   []*chunk.Chunk
	resultPos int
}

func NewWindowRun(cfg WindowRunConfig) *WindowRun {
	rowTypes := make([]common.LType, 0, len(cfg.PartitionByTypes)+len(cfg.OrderByTypes)+len(cfg.ValueTypes))
	rowTypes = append(rowTypes, cfg.PartitionByTypes...)
	rowTypes = append(rowTypes, cfg.OrderByTypes...)
	rowTypes = append(rowTypes, cfg.ValueTypes...)

	scalarFlags := make([]bool, len(rowTypes))
	for i := range cfg.PartitionByTypes {
		scalarFlags[i] = false
	}
	for i := range cfg.OrderByTypes {
		scalarFlags[len(cfg.PartitionByTypes)+i] = false
	}
	base := len(cfg.PartitionByTypes) + len(cfg.OrderByTypes)
	for i, s := range cfg.ValueIsScalar {
		scalarFlags[base+i] = s
	}

	partitionKeyIdx := indexRange(0, len(cfg.PartitionByTypes))
	orderByIdx := indexRange(len(cfg.PartitionByTypes), base)

	sink := NewPartitionSink(rowTypes, scalarFlags, partitionKeyIdx, orderByIdx, cfg.OrderByDesc, cfg.HyperLogLogPrecision)

	outTypes := make([]common.LType, 0, len(rowTypes)+len(cfg.Exprs))
	outTypes = append(outTypes, rowTypes...)
	for _, e := range cfg.Exprs {
		outTypes = append(outTypes, e.RetTyp)
	}

	return &WindowRun{
		cfg:      cfg,
		rowTypes: rowTypes,
		outTypes: outTypes,
		sink:     sink,
		local:    sink.NewLocalState(),
	}
}

func indexRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

// Sink ingests one WindowBatch. Safe for concurrent use by multiple
// upstream producer goroutines, each serialized through the same mutex
// spec.md §4.6 describes guarding the local buffer merge.
func (r *WindowRun) Sink(batch *WindowBatch) error {
	if batch.Count == 0 {
		return nil
	}
	row := &chunk.Chunk{Data: make([]*chunk.Vector, 0, len(r.rowTypes))}
	row.Data = append(row.Data, batch.PartitionBy...)
	row.Data = append(row.Data, batch.OrderBy...)
	row.Data = append(row.Data, batch.Values...)
	row.SetCap(batch.Count)
	row.SetCard(batch.Count)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink.Sink(r.local, row)
}

// Finalize combines the accumulated buffers, sorts every bin, and runs
// C7's per-bin two-pass window evaluation across a bounded worker pool —
// one goroutine claiming bins from a shared atomic cursor over a
// deterministically ordered directory, exactly spec.md §4.7's design.
func (r *WindowRun) Finalize(ctx context.Context) error {
	r.mu.Lock()
	err := r.sink.Combine(r.local)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	bins := r.sink.Finalize()
	dir := treemap.New[uint64, *partitionRun](func(a, b uint64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})
	for h, run := range bins {
		dir.Insert(h, run)
	}

	runs := make([]*partitionRun, 0, dir.Size())
	for it := dir.Begin(); it.IsValid(); it.Next() {
		runs = append(runs, it.Value())
	}

	maxThreads := r.cfg.MaxThreads
	if maxThreads <= 0 {
		maxThreads = runtime.GOMAXPROCS(0)
	}
	maxThreads = max(1, min(maxThreads, len(runs)))

	results := make([][]*chunk.Chunk, len(runs))
	var cursor atomic.Int64
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxThreads)
	for w := 0; w < maxThreads; w++ {
		group.Go(func() error {
			for {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				i := int(cursor.Add(1)) - 1
				if i >= len(runs) {
					return nil
				}
				out, err := r.processBin(runs[i])
				if err != nil {
					return err
				}
				results[i] = out
			}
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	for _, chunks := range results {
		r.results = append(r.results, chunks...)
	}
	return nil
}

// processBin runs every WindowExpr's executor over one sorted partition
// run and slices the results into output batches of at most
// util.DefaultVectorSize rows, each carrying the original row columns
// referenced alongside one freshly materialized column per WindowExpr —
// spec.md §4.7's second pass.
func (r *WindowRun) processBin(run *partitionRun) ([]*chunk.Chunk, error) {
	valueOffset := len(r.cfg.PartitionByTypes) + len(r.cfg.OrderByTypes)
	execs := make([]*windowExprExec, len(r.cfg.Exprs))
	for i, expr := range r.cfg.Exprs {
		execs[i] = newWindowExprExec(expr, run, valueOffset, r.cfg.SegmentTreeLeafSize)
	}
	for _, e := range execs {
		e.finalize()
	}

	var out []*chunk.Chunk
	n := run.count
	for lo := 0; lo < n; lo += util.DefaultVectorSize {
		hi := min(lo+util.DefaultVectorSize, n)
		batchLen := hi - lo

		outChunk := &chunk.Chunk{Data: make([]*chunk.Vector, 0, len(r.outTypes))}
		for _, c := range run.caches {
			sel := chunk.NewSelectVector3(indexRange(lo, hi))
			if c.isScalar {
				sel = chunk.NewSelectVector3(make([]int, batchLen))
			}
			vec := chunk.NewFlatVector(c.typ, batchLen)
			chunk.Copy(c.vec, vec, sel, batchLen, 0, 0)
			outChunk.Data = append(outChunk.Data, vec)
		}
		for ei, e := range execs {
			resVec := chunk.NewFlatVector(r.cfg.Exprs[ei].RetTyp, batchLen)
			for row := lo; row < hi; row++ {
				if err := e.evaluate(row, resVec, row-lo); err != nil {
					return nil, err
				}
			}
			outChunk.Data = append(outChunk.Data, resVec)
		}
		outChunk.SetCap(batchLen)
		outChunk.SetCard(batchLen)
		out = append(out, outChunk)
	}
	return out, nil
}

// GetData pulls the next materialized output batch into output, returning
// false once every bin's results have been drained. Finalize must have
// completed before the first call.
func (r *WindowRun) GetData(_ context.Context, output *chunk.Chunk) (bool, error) {
	if r.resultPos >= len(r.results) {
		output.SetCard(0)
		return false, nil
	}
	next := r.results[r.resultPos]
	r.resultPos++
	output.Data = next.Data
	output.SetCap(next.Cap())
	output.SetCard(next.Card())
	return true, nil
}
