package kv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/flatkv/cmd/util"
	"github.com/ValentinKolb/flatkv/lib/common"
	"github.com/ValentinKolb/flatkv/lib/db"
	"github.com/ValentinKolb/flatkv/lib/store"
	"github.com/ValentinKolb/flatkv/lib/store/lstore"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:   "perf",
		Short: "Performance testing tool for flat file dictionaries",
		Long: `Runs benchmarks against scratch dictionaries in the data directory. Every benchmark
uses its own dictionary (starting at --dict), which is destroyed afterwards.`,
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 4
	perfKeySpread  = 100
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. insert,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 4, util.WrapString("Number of goroutines sharing a dictionary (ignored for sorted inserts, which must happen in order)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread <= 0 || perfNumThreads <= 0 {
		return fmt.Errorf("keys and threads must be positive")
	}
	return nil
}

// perfTest is a single benchmark run against a fresh dictionary
type perfTest struct {
	name     string
	unsorted bool // needs Delete or unordered inserts
	preload  bool // insert all keys before the timer starts
	op       func(s store.IStore, i int) error
}

// perfResult combines the result of testing.Benchmark with the latencies seen by the timer
type perfResult struct {
	bench   testing.BenchmarkResult
	timer   gometrics.Timer
	errors  int64
	skipped bool
}

func runPerf(cmd *cobra.Command, _ []string) error {
	conf := storeConfig
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Performance testing tool for flat file dictionaries")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, conf.String())
	fmt.Fprintf(out, "Threads: %d\n", perfNumThreads)
	fmt.Fprintf(out, "Keys:    %d\n", perfKeySpread)
	fmt.Fprintln(out)

	if err := fs.MkdirAll(conf.DataDir, 0o755); err != nil {
		return err
	}

	keys, err := perfKeys(conf, perfKeySpread)
	if err != nil {
		return err
	}
	value := make([]byte, conf.ValueSize)
	for i := range value {
		value[i] = 'x'
	}

	tests := []perfTest{
		{name: "insert", op: func(s store.IStore, i int) error {
			if !conf.SortedMode {
				return s.Insert(keys[i%len(keys)], value)
			}
			// sorted dictionaries only accept increasing keys
			k, err := perfKey(conf, i)
			if err != nil {
				return err
			}
			return s.Insert(k, value)
		}},
		{name: "get", preload: true, op: func(s store.IStore, i int) error {
			_, _, err := s.Get(keys[i%len(keys)])
			return err
		}},
		{name: "update", preload: true, op: func(s store.IStore, i int) error {
			_, err := s.Update(keys[i%len(keys)], value)
			return err
		}},
		{name: "find", preload: true, op: func(s store.IStore, i int) error {
			_, err := s.Find(db.PredicateEquality(keys[i%len(keys)]))
			return err
		}},
		{name: "delete+insert", unsorted: true, preload: true, op: func(s store.IStore, i int) error {
			k := keys[i%len(keys)]
			if _, err := s.Delete(k); err != nil && !isNotFound(err) {
				return err
			}
			return s.Insert(k, value)
		}},
		{name: "mixed", unsorted: true, preload: true, op: func(s store.IStore, i int) error {
			k := keys[i%len(keys)]
			var err error
			switch i % 4 {
			case 0: // get
				_, _, err = s.Get(k)
			case 1: // update
				_, err = s.Update(k, value)
			case 2: // delete
				_, err = s.Delete(k)
				if isNotFound(err) {
					err = nil
				}
			case 3: // insert
				err = s.Insert(k, value)
			}
			return err
		}},
	}

	registry := lstore.NewRegistry(func(id uint64) store.DBFactory {
		return util.FlatFileFactory(fs, conf, id)
	})
	defer registry.CloseAll()

	fmt.Fprintln(out, "starting tests...")

	results := make(map[string]perfResult)
	for n, test := range tests {
		result := runPerfTest(registry, conf, conf.DictID+uint64(n), test, keys, value)
		results[test.name] = result
		printResult(out, test.name, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, conf); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// runPerfTest benchmarks test.op against dictionary id
func runPerfTest(registry *lstore.Registry, conf *common.StoreConfig, id uint64, test perfTest, keys [][]byte, value []byte) perfResult {
	if shouldSkip(test.name) || (test.unsorted && conf.SortedMode) {
		return perfResult{skipped: true}
	}

	timer := gometrics.NewTimer()
	var errCount atomic.Int64

	bench := testing.Benchmark(func(b *testing.B) {
		// start from an empty dictionary for every round
		if err := registry.Destroy(id); err != nil {
			plog.Warningf("(%s) - error resetting dictionary %d: %v", test.name, id, err)
		}
		s, err := registry.Get(id)
		if err != nil {
			b.Fatalf("(%s) - error opening dictionary %d: %v", test.name, id, err)
		}

		if test.preload {
			for _, k := range keys {
				if err := s.Insert(k, value); err != nil {
					plog.Warningf("(%s) - error inserting key: %v", test.name, err)
				}
			}
		}

		op := func(i int) {
			start := time.Now()
			if err := test.op(s, i); err != nil {
				errCount.Add(1)
				plog.Debugf("(%s) - error performing operation: %v", test.name, err)
			}
			timer.UpdateSince(start)
		}

		b.ResetTimer()

		if conf.SortedMode && test.name == "insert" {
			for i := 0; i < b.N; i++ {
				op(i)
			}
			return
		}

		var counter atomic.Int64
		b.SetParallelism(perfNumThreads)
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				op(int(counter.Add(1)))
			}
		})
	})

	if err := registry.Destroy(id); err != nil {
		plog.Warningf("(%s) - error destroying dictionary %d: %v", test.name, id, err)
	}

	return perfResult{bench: bench, timer: timer, errors: errCount.Load()}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var storeErr *store.Error
	return errors.As(err, &storeErr) && storeErr.Code == store.RetCNotFound
}

// perfKey encodes the i-th test key. Text keys are zero padded so they sort like numbers.
func perfKey(conf *common.StoreConfig, i int) ([]byte, error) {
	text := strconv.Itoa(i)
	if conf.KeyType == db.KeyTypeCharArray || conf.KeyType == db.KeyTypeNullTerminatedString {
		text = fmt.Sprintf("%0*d", conf.KeySize, i)
	}
	return db.EncodeKey(conf.KeyType, conf.KeySize, text)
}

// perfKeys encodes the keys 0..n-1 in ascending order
func perfKeys(conf *common.StoreConfig, n int) ([][]byte, error) {
	keys := make([][]byte, n)
	for i := range keys {
		k, err := perfKey(conf, i)
		if err != nil {
			return nil, fmt.Errorf("cannot create %d keys of %d bytes: %w", n, conf.KeySize, err)
		}
		keys[i] = k
	}

	compare := db.ComparatorFor(conf.KeyType)
	if !sort.SliceIsSorted(keys, func(i, j int) bool { return compare(keys[i], keys[j]) < 0 }) {
		return nil, fmt.Errorf("%d keys of %d bytes do not sort in insert order", n, conf.KeySize)
	}
	return keys, nil
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, test string, result perfResult) {
	if result.skipped || result.bench.NsPerOp() == 0 {
		fmt.Fprintf(out, "%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	snapshot := result.timer.Snapshot()
	p := snapshot.Percentiles([]float64{0.5, 0.99})

	fmt.Fprintf(out, "%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s\terrors=%d\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(p[0]), time.Duration(p[1]), result.errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult, conf *common.StoreConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P99Ns", "Errors", "Skipped",
		"KeyType", "KeySize", "ValueSize", "BufferedRows", "Sorted", "TrackLastInserted",
		"Threads", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp, opsPerSec, p50, p99 float64
		skipped := "true"

		if !result.skipped && result.bench.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
			p := result.timer.Snapshot().Percentiles([]float64{0.5, 0.99})
			p50, p99 = p[0], p[1]
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", p50),
			fmt.Sprintf("%.0f", p99),
			strconv.FormatInt(result.errors, 10),
			skipped,
			conf.KeyType.String(),
			strconv.Itoa(conf.KeySize),
			strconv.Itoa(conf.ValueSize),
			strconv.Itoa(conf.BufferedRows),
			strconv.FormatBool(conf.SortedMode),
			strconv.FormatBool(conf.TrackLastInserted),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
