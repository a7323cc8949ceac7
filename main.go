// Package main provides the entry point for csim.
// csim is a trace-driven set-associative LRU cache simulator.
//
// For the full CLI, use: go run ./cmd/csim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("csim - Set-Associative Cache Simulator")
	fmt.Println("Replays valgrind memory traces against an LRU cache")
	fmt.Println("")
	fmt.Println("Usage: csim [-hv] -s <num> -E <num> -b <num> -t <file>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -s         Number of set index bits")
	fmt.Println("  -E         Number of lines per set")
	fmt.Println("  -b         Number of block offset bits")
	fmt.Println("  -t         Trace file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/csim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark' to compare the cache models.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/csim' instead.")
	}
}
