// Command csim replays a valgrind memory trace against a set-associative LRU
// cache and prints the hit, miss, and eviction counts.
//
// Usage:
//
//	csim [-hv] -s <num> -E <num> -b <num> -t <file>
//
// Example:
//
//	csim -s 4 -E 1 -b 4 -t traces/yi.trace
//	hits:4 misses:5 evictions:3
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/config"
)

func main() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		atexit.Exit(130)
	}()

	atexit.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	if errors.Is(err, config.ErrMissingArgument) {
		missing := strings.TrimPrefix(err.Error(), config.ErrMissingArgument.Error()+": ")
		_, _ = fmt.Fprintf(stderr, "csim: Missing required command line argument (%s)\n", missing)
	} else {
		_, _ = fmt.Fprintf(stderr, "csim: %v\n", err)
	}

	var ue *usageError
	if errors.As(err, &ue) {
		_, _ = fmt.Fprint(stderr, usage)
	}

	return 1
}
