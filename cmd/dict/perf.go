package dict

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/client"
	"github.com/ValentinKolb/dDict/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dDict servers",
		Long:    "Runs a concurrent load test (one writer adds a word while readers query it) followed by a benchmark per operation. All words used by the tests are prefixed with __test and removed afterwards.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfWordPrefix = "__test"
	perfNumThreads = 10
	perfReaders    = 5
	perfWordSpread = 100
	perfSkip       = make([]string, 0)

	// per request latencies, one timer per test
	perfRegistry = gometrics.NewRegistry()
)

// perfPercentiles are reported for every test
var perfPercentiles = []float64{0.5, 0.95, 0.99}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Tests to skip (comma separated - e.g. load,add-remove)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per benchmark"))
	key = "readers"
	perfTestCmd.Flags().Int(key, 5, util.WrapString("Number of concurrent readers (own connections) in the load test"))
	key = "words"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different words to use for the benchmarks"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfWordSpread = viper.GetInt("words")
	perfNumThreads = viper.GetInt("threads")
	perfReaders = viper.GetInt("readers")
	perfSkip = util.SplitList(viper.GetString("skip"))

	if perfWordSpread < 1 || perfNumThreads < 1 || perfReaders < 1 {
		return fmt.Errorf("words, threads and readers must be at least 1")
	}
	return nil
}

// perfResult combines the benchmark result with the latency distribution
type perfResult struct {
	bench   testing.BenchmarkResult
	latency gometrics.Timer
	errors  int64
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for dDict servers")

	// Print configuration
	config := util.GetClientConfig()
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d, Readers: %d, Words: %d\n", perfNumThreads, perfReaders, perfWordSpread)
	fmt.Println()

	results := make(map[string]*perfResult)

	if !shouldSkip("load") {
		res, err := runLoadTest(config)
		if err != nil {
			return err
		}
		results["load"] = res
		printResult("load", res)
	}

	fmt.Println("starting benchmarks...")

	results["query"] = benchmark("query", func(getWord func(int) string, iter func(func(string))) func(int) error {
		addWords("query", iter, "meaning")
		return func(i int) error {
			_, err := rpcDict.Query(getWord(i))
			return err
		}
	})
	printResult("query", results["query"])

	results["query-miss"] = benchmark("query-miss", func(getWord func(int) string, _ func(func(string))) func(int) error {
		return func(i int) error {
			_, err := rpcDict.Query(getWord(i) + "-missing")
			return err
		}
	})
	printResult("query-miss", results["query-miss"])

	results["add-remove"] = benchmark("add-remove", func(getWord func(int) string, _ func(func(string))) func(int) error {
		return func(i int) error {
			// the response status depends on the interleaving, only transport errors count
			if i%2 == 0 {
				_, err := rpcDict.Add(getWord(i/2), []string{"meaning"})
				return err
			}
			_, err := rpcDict.Remove(getWord(i / 2))
			return err
		}
	})
	printResult("add-remove", results["add-remove"])

	results["update-meaning"] = benchmark("update-meaning", func(getWord func(int) string, iter func(func(string))) func(int) error {
		addWords("update-meaning", iter, "a", "b")
		return func(i int) error {
			// swap a meaning back and forth
			_, err := rpcDict.UpdateMeaning(getWord(i), "a", "c")
			if err == nil {
				_, err = rpcDict.UpdateMeaning(getWord(i), "c", "a")
			}
			return err
		}
	})
	printResult("update-meaning", results["update-meaning"])

	results["mixed"] = benchmark("mixed", func(getWord func(int) string, iter func(func(string))) func(int) error {
		addWords("mixed", iter, "meaning")
		return func(i int) error {
			word := getWord(i)
			var err error
			switch i % 4 {
			case 0: // query
				_, err = rpcDict.Query(word)
			case 1: // add meaning
				_, err = rpcDict.AddMeaning(word, "extra")
			case 2: // query
				_, err = rpcDict.Query(word)
			case 3: // update meaning back
				_, err = rpcDict.UpdateMeaning(word, "extra", "extra-"+strconv.Itoa(i))
			}
			return err
		}
	})
	printResult("mixed", results["mixed"])

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Load test
// --------------------------------------------------------------------------

// runLoadTest adds a word on one connection while perfReaders connections
// query it at the same time
func runLoadTest(config *common.ClientConfig) (*perfResult, error) {
	word := perfWordPrefix + "-load"
	timer := gometrics.GetOrRegisterTimer("load", perfRegistry)
	res := &perfResult{latency: timer}

	// every participant gets its own connection
	clients := make([]client.IDictionary, 0, perfReaders+1)
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()
	for i := 0; i < perfReaders+1; i++ {
		c, err := newDictClient(config)
		if err != nil {
			return nil, fmt.Errorf("load test: %w", err)
		}
		clients = append(clients, c)
	}

	fmt.Println("starting load test...")
	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	found := 0

	run := func(name string, fn func() (*common.Response, error)) {
		defer wg.Done()
		<-start
		t0 := time.Now()
		resp, err := fn()
		timer.UpdateSince(t0)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.errors++
			fmt.Printf("  %-10s error: %v\n", name, err)
			return
		}
		if resp.OK() && len(resp.Meanings) > 0 {
			found++
		}
		fmt.Printf("  %-10s %-8s %s\n", name, resp.Status, time.Since(t0))
	}

	wg.Add(1)
	go run("writer", func() (*common.Response, error) {
		return clients[0].Add(word, []string{"a word for testing"})
	})
	for i := 1; i <= perfReaders; i++ {
		wg.Add(1)
		go run(fmt.Sprintf("reader-%d", i), func() (*common.Response, error) {
			return clients[i].Query(word)
		})
	}

	t0 := time.Now()
	close(start)
	wg.Wait()
	elapsed := time.Since(t0)

	fmt.Printf("  %d/%d readers saw the word\n\n", found, perfReaders)
	if _, err := clients[0].Remove(word); err != nil {
		log.Printf("(load) - error removing word: %v\n", err)
	}

	// one op per participant, so ns/op is comparable with the benchmarks
	res.bench = testing.BenchmarkResult{N: perfReaders + 1, T: elapsed}
	return res, nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// benchmark runs one parallel benchmark. setup receives the word helpers,
// may prepare the dictionary and returns the operation for iteration i.
// All words are removed afterwards.
func benchmark(name string, setup func(getWord func(int) string, iter func(func(string))) func(i int) error) *perfResult {
	timer := gometrics.GetOrRegisterTimer(name, perfRegistry)
	res := &perfResult{latency: timer}
	if shouldSkip(name) {
		return res
	}

	var errMu sync.Mutex
	res.bench = testing.Benchmark(func(b *testing.B) {
		getWord, iter := getWords(name)

		// cleanup
		b.Cleanup(func() {
			iter(func(w string) {
				if _, err := rpcDict.Remove(w); err != nil {
					log.Printf("(%s) - error removing word: %v\n", name, err)
				}
			})
		})

		op := setup(getWord, iter)

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				t0 := time.Now()
				err := op(counter)
				timer.UpdateSince(t0)
				if err != nil {
					errMu.Lock()
					res.errors++
					errMu.Unlock()
					log.Printf("(%s) - error: %v\n", name, err)
				}
				counter++
			}
		})
	})
	return res
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// addWords adds every test word with the given meanings, failures are logged
func addWords(test string, iter func(func(string)), meanings ...string) {
	iter(func(w string) {
		resp, err := rpcDict.Add(w, meanings)
		if err != nil {
			log.Printf("(%s) - setup error: %v\n", test, err)
		} else if !resp.OK() && resp.Status != "duplicate" {
			log.Printf("(%s) - setup failed: %s\n", test, resp.Message)
		}
	})
}

// creates an array of test words and functions to work with them
func getWords(prefix string) (func(int) string, func(func(string))) {
	words := make([]string, perfWordSpread)
	for i := 0; i < perfWordSpread; i++ {
		words[i] = fmt.Sprintf("%s-%s-%d", perfWordPrefix, prefix, i)
	}

	// Function to get a word by index (with wraparound)
	getWord := func(i int) string {
		return words[i%perfWordSpread]
	}

	// Function to iterate over all words and apply a function to each
	iterateWords := func(fn func(string)) {
		for _, w := range words {
			fn(w)
		}
	}

	return getWord, iterateWords
}

// printResult prints the result of a test in a formatted way
func printResult(test string, res *perfResult) {
	if res.bench.N == 0 {
		fmt.Printf("%-16sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(res.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	ps := res.latency.Percentiles(perfPercentiles)

	// Print the formatted result
	fmt.Printf("%-16s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p95=%s p99=%s\terrors=%d\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]), res.errors)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]*perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"P50Ns", "P95Ns", "P99Ns", "MaxNs", "Requests", "Errors",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Transport", "DelayMs", "Threads", "Readers", "Words",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// sorted for stable output
	tests := make([]string, 0, len(results))
	for test := range results {
		tests = append(tests, test)
	}
	slices.Sort(tests)

	// Write test results
	for _, test := range tests {
		res := results[test]
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if res.bench.N == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(res.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		latency := res.latency.Snapshot()
		ps := latency.Percentiles(perfPercentiles)

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(latency.Max(), 10),
			strconv.FormatInt(latency.Count(), 10),
			strconv.FormatInt(res.errors, 10),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("transport"),
			strconv.FormatInt(config.DelayMillisecond, 10),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfReaders),
			strconv.Itoa(perfWordSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
