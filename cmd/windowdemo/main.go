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

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.uber.org/zap"

	"github.com/windowcore/windowcore/pkg/chunk"
	"github.com/windowcore/windowcore/pkg/common"
	"github.com/windowcore/windowcore/pkg/util"
	"github.com/windowcore/windowcore/pkg/window"
)

func init() {
	cobra.OnInitialize(loadConfig)
	initRunCmd()
}

var demoCfg = &util.Config{}

var info = "windowdemo"
var RootCmd = &cobra.Command{
	Use:          "windowdemo",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use windowdemo run --help")
	},
}

// runFlags mirrors tpch1gCmd's flag-to-viper-key binding convention in
// cmd/tester/main.go, sized down to what a single-table window demo needs
// instead of a whole TPC-H query/data/result triple.
type runFlags struct {
	csvPath    string
	rows       int
	partitions int
}

var flags runFlags

var runInfo = "run a running-sum/ROW_NUMBER/RANK demo over PARTITION BY key ORDER BY order_val"
var runCmd = &cobra.Command{
	Use:   "run",
	Short: runInfo,
	Long:  runInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		initWindowOptions()
		return runDemo()
	},
}

func initWindowOptions() {
	demoCfg.Window.SegmentTreeLeafSize = viper.GetInt("window.segmentTreeLeafSize")
	demoCfg.Window.MaxThreads = viper.GetInt("window.maxThreads")
	demoCfg.Window.HyperLogLogPrecision = uint8(viper.GetUint("window.hyperLogLogPrecision"))
	demoCfg.Debug.MaxOutputRowCount = viper.GetInt("debug.maxOutputRowCount")
}

func initRunCmd() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&flags.csvPath, "csv", "", "CSV file with columns partition_key,order_val,value; generates a synthetic fixture when empty")
	runCmd.Flags().IntVar(&flags.rows, "rows", 20, "row count for the generated fixture (ignored with --csv)")
	runCmd.Flags().IntVar(&flags.partitions, "partitions", 4, "partition count for the generated fixture (ignored with --csv)")

}

var defCfgFilePaths = []string{".", "etc/windowdemo"}
var cfgFileName = "windowdemo.toml"

// loadConfig mirrors cmd/tester/main.go's loadConfig, but a missing file
// is not fatal here — the demo runs fine against WindowOptions' zero
// values (defaultSegmentTreeLeafSize, runtime.GOMAXPROCS, New14 HLL).
func loadConfig() {
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if util.FileIsValid(fpath) {
			viper.SetConfigFile(fpath)
			if err := viper.ReadInConfig(); err != nil {
				util.Warn("viper load config file failed",
					zap.String("fpath", fpath),
					zap.Error(err))
				continue
			}
			return
		}
	}
	util.Info("windowdemo.toml not found, running with default WindowOptions")
}

// row is one (partition_key, order_val, value) input triple, the plain
// shape both the CSV loader and the synthetic generator build into
// *chunk.Vector columns before handing them to window.WindowRun.Sink.
type row struct {
	key, order, value int64
}

func loadCSV(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	var rows []row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != 3 {
			return nil, fmt.Errorf("expected 3 csv columns (partition_key,order_val,value), got %d", len(rec))
		}
		key, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, err
		}
		order, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseInt(rec[2], 10, 64)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{key, order, value})
	}
	return rows, nil
}

// genFixture builds a synthetic fixture of n rows spread evenly across
// partitions partitions, ORDER BY order_val ascending within a partition
// once sorted by window.WindowRun itself (input order doesn't matter).
func genFixture(n, partitions int) []row {
	if partitions < 1 {
		partitions = 1
	}
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{
			key:   int64(i % partitions),
			order: int64(i),
			value: int64(rand.Intn(100)),
		}
	}
	return rows
}

// newWindowExpr builds a bare WindowExpr with every *Idx field defaulted
// to -1 ("not present"), the same convention window_executor_test.go's
// baseExpr helper uses, since a caller assembling a WindowExpr by hand has
// to set that itself: pkg/window's own zero value (0) would otherwise
// read as "column 0" instead of "absent".
func newWindowExpr(kind window.WindowExprKind, retTyp common.LType) *window.WindowExpr {
	return &window.WindowExpr{
		Kind:           kind,
		RetTyp:         retTyp,
		FilterIdx:      -1,
		StartOffsetIdx: -1,
		EndOffsetIdx:   -1,
		OffsetIdx:      -1,
		DefaultIdx:     -1,
	}
}

func rowsToVectors(rows []row) (key, order, value *chunk.Vector) {
	n := len(rows)
	key = chunk.NewFlatVector(common.BigintType(), n)
	order = chunk.NewFlatVector(common.BigintType(), n)
	value = chunk.NewFlatVector(common.BigintType(), n)
	keyData := chunk.GetSliceInPhyFormatFlat[int64](key)
	orderData := chunk.GetSliceInPhyFormatFlat[int64](order)
	valueData := chunk.GetSliceInPhyFormatFlat[int64](value)
	for i, r := range rows {
		keyData[i] = r.key
		orderData[i] = r.order
		valueData[i] = r.value
	}
	return
}

// runDemo builds one WindowRun computing ROW_NUMBER, RANK, and a running
// SUM (ROWS UNBOUNDED PRECEDING TO CURRENT ROW) over PARTITION BY
// partition_key ORDER BY order_val, drives Sink/Finalize/GetData to
// completion, and prints the result the way tpch1gCmd prints query
// results when Debug.PrintResult is set.
func runDemo() error {
	var rows []row
	var err error
	if flags.csvPath != "" {
		rows, err = loadCSV(flags.csvPath)
		if err != nil {
			return err
		}
	} else {
		rows = genFixture(flags.rows, flags.partitions)
	}
	if len(rows) == 0 {
		util.Warn("no input rows, nothing to do")
		return nil
	}

	cfg := window.WindowRunConfig{
		PartitionByTypes:     []common.LType{common.BigintType()},
		OrderByTypes:         []common.LType{common.BigintType()},
		OrderByDesc:          []bool{false},
		ValueTypes:           []common.LType{common.BigintType()},
		ValueIsScalar:        []bool{false},
		MaxThreads:           demoCfg.Window.MaxThreads,
		HyperLogLogPrecision: demoCfg.Window.HyperLogLogPrecision,
		SegmentTreeLeafSize:  demoCfg.Window.SegmentTreeLeafSize,
	}

	rowNumber := newWindowExpr(window.WEK_ROW_NUMBER, common.BigintType())
	rank := newWindowExpr(window.WEK_RANK, common.BigintType())
	sum := newWindowExpr(window.WEK_AGGREGATE, common.BigintType())
	sum.ChildIdx = []int{0}
	sum.Aggr = window.NewAggrObject(window.NewSumAggr[int64](common.BigintType(), common.BigintType()), 1)
	sum.FrameMode = window.FM_ROWS
	sum.StartBoundTyp = window.FBT_UNBOUNDED_PRECEDING
	sum.EndBoundTyp = window.FBT_CURRENT_ROW
	cfg.Exprs = []*window.WindowExpr{rowNumber, rank, sum}

	run := window.NewWindowRun(cfg)

	for lo := 0; lo < len(rows); lo += util.DefaultVectorSize {
		hi := min(lo+util.DefaultVectorSize, len(rows))
		key, order, value := rowsToVectors(rows[lo:hi])
		if err := run.Sink(&window.WindowBatch{
			Count:       hi - lo,
			PartitionBy: []*chunk.Vector{key},
			OrderBy:     []*chunk.Vector{order},
			Values:      []*chunk.Vector{value},
		}); err != nil {
			return err
		}
	}
	util.Info("sunk input rows", zap.Int("count", len(rows)))

	ctx := context.Background()
	if err := run.Finalize(ctx); err != nil {
		return err
	}

	printed := 0
	for {
		out := &chunk.Chunk{}
		ok, err := run.GetData(ctx, out)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n := out.Card()
		keyCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[0])
		orderCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[1])
		valueCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[2])
		rowNumCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[3])
		rankCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[4])
		sumCol := chunk.GetSliceInPhyFormatFlat[int64](out.Data[5])
		for i := 0; i < n; i++ {
			if demoCfg.Debug.MaxOutputRowCount > 0 && printed >= demoCfg.Debug.MaxOutputRowCount {
				break
			}
			fmt.Printf("partition=%d order=%d value=%d row_number=%d rank=%d running_sum=%d\n",
				keyCol[i], orderCol[i], valueCol[i], rowNumCol[i], rankCol[i], sumCol[i])
			printed++
		}
	}
	return nil
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
