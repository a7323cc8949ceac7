// Package main provides a profiling wrapper for csim to identify performance
// bottlenecks in the cache models.
package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/spf13/pflag"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
	"github.com/sarchlab/csim/trace"
)

var (
	setBits       = pflag.IntP("set-bits", "s", 4, "number of set index bits")
	associativity = pflag.IntP("associativity", "E", 1, "number of lines per set")
	blockBits     = pflag.IntP("block-bits", "b", 4, "number of block offset bits")
	model         = pflag.String("model", string(cache.KindTable), "cache model: table, list, or akita")
	repeat        = pflag.Int("repeat", 100, "number of times to replay the trace")
	cpuProfile    = pflag.String("cpuprofile", "", "write cpu profile to file")
	memProfile    = pflag.String("memprofile", "", "write memory profile to file")
)

func main() {
	pflag.Parse()

	if pflag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <trace>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		pflag.PrintDefaults()
		os.Exit(1)
	}

	tracePath := pflag.Arg(0)

	records, err := trace.LoadFile(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
		os.Exit(1)
	}

	kind, err := cache.ParseKind(*model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	g := cache.Geometry{SetBits: *setBits, Associativity: *associativity, BlockBits: *blockBits}
	m, err := cache.NewModel(kind, g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating model: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s (%d accesses)\n", tracePath, len(records))
	fmt.Printf("Model: %s %s\n", kind, g)

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()

	var sum sim.Summary
	for i := 0; i < *repeat; i++ {
		m.Reset()
		sum = sim.New(m).RunRecords(records)
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	accesses := uint64(*repeat) * sum.Accesses

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("hits:%d misses:%d evictions:%d\n", sum.Hits, sum.Misses, sum.Evictions)
	fmt.Printf("Replays: %d\n", *repeat)
	fmt.Printf("Accesses simulated: %d\n", accesses)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if accesses > 0 {
		fmt.Printf("Accesses/second: %.0f\n", float64(accesses)/elapsed.Seconds())
	}
}
