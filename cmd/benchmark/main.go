// Command benchmark runs the synthetic workloads on every cache model.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	--csv       Output results in CSV format (default: human-readable)
//	--json      Output results as a JSON report
//	--models    Comma-separated model kinds (default: table,list,akita)
//	--core      Run only the core workloads
//	-v          Log each run as it completes
//
// Example:
//
//	# Compare the list model against the reference table
//	go run ./cmd/benchmark --models table,list
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark --csv > results.csv
//
// Every model is checked against the table model; the command exits with
// status 1 when any run disagrees or fails.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/sarchlab/csim/benchmarks"
	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/logging"
)

func main() {
	csvOutput := pflag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := pflag.Bool("json", false, "Output results as a JSON report")
	models := pflag.StringSlice("models", kindNames(cache.Kinds()), "Model kinds to run")
	core := pflag.Bool("core", false, "Run only the core workloads")
	verbose := pflag.BoolP("verbose", "v", false, "Log each run as it completes")
	pflag.Parse()

	if *verbose {
		logging.SetupLogging(logging.WithLogLevel("info"))
	}

	config := benchmarks.DefaultConfig()
	config.Output = os.Stdout
	config.Verbose = *verbose
	config.Models = nil
	for _, name := range *models {
		kind, err := cache.ParseKind(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		config.Models = append(config.Models, kind)
	}

	harness := benchmarks.NewHarness(config)
	if *core {
		harness.AddWorkloads(benchmarks.GetCoreWorkloads())
	} else {
		harness.AddWorkloads(benchmarks.GetWorkloads())
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		fmt.Println("csim Benchmark Harness")
		fmt.Println("======================")
		fmt.Printf("Models: %v\n", config.Models)
		fmt.Println("")

		harness.PrintResults(results)
	}

	summary := benchmarks.Summarize(results)
	if summary.Disagreements > 0 || summary.Errors > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d runs disagree with the table model, %d failed\n",
			summary.Disagreements, summary.TotalRuns, summary.Errors)
		os.Exit(1)
	}
}

func kindNames(kinds []cache.Kind) []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return names
}
