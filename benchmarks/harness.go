// Package benchmarks provides synthetic workloads and a harness that runs
// them across the cache model back ends.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/logging"
	"github.com/sarchlab/csim/logging/logfields"
	"github.com/sarchlab/csim/sim"
	"github.com/sarchlab/csim/trace"
)

// Version is reported in JSON benchmark reports.
const Version = "1.0.0"

// BenchmarkResult holds the results of one workload on one model.
type BenchmarkResult struct {
	// Name identifies the workload
	Name string `json:"name"`

	// Description explains what the workload exercises
	Description string `json:"description"`

	// Model is the back end the workload ran on
	Model cache.Kind `json:"model"`

	// Geometry is the cache geometry, e.g. "s=4 E=1 b=4"
	Geometry string `json:"geometry"`

	Accesses  uint64  `json:"accesses"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`

	// Agrees is true when the counts equal those of the table model
	Agrees bool `json:"agrees"`

	// Error is set when the model could not be built for the geometry
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to replay the workload
	WallTime time.Duration `json:"wall_time_ns"`
}

// Workload defines a single synthetic trace.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload exercises
	Description string

	// Geometry is the cache the workload is designed for
	Geometry cache.Geometry

	// Records generates the trace. It is called once per model.
	Records func() []trace.Record
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Models lists the back ends to run each workload on (default: all)
	Models []cache.Kind

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose logs each run as it completes
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Models:  cache.Kinds(),
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs workloads and reports results.
type Harness struct {
	config    HarnessConfig
	workloads []Workload
	log       logrus.FieldLogger
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if len(config.Models) == 0 {
		config.Models = cache.Kinds()
	}
	return &Harness{
		config:    config,
		workloads: []Workload{},
		log:       logging.DefaultLogger.WithField(logfields.LogComponent, "benchmarks"),
	}
}

// AddWorkload adds a workload to the harness.
func (h *Harness) AddWorkload(w Workload) {
	h.workloads = append(h.workloads, w)
}

// AddWorkloads adds multiple workloads to the harness.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// RunAll executes every workload on every configured model and returns one
// result per pair, grouped by workload.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.workloads)*len(h.config.Models))

	for _, w := range h.workloads {
		results = append(results, h.runWorkload(w)...)
	}

	return results
}

func (h *Harness) runWorkload(w Workload) []BenchmarkResult {
	reference, err := replay(cache.KindTable, w)
	if err != nil {
		h.log.WithError(err).WithField(logfields.Geometry, w.Geometry.String()).
			Warn("reference model rejected workload")
	}

	results := make([]BenchmarkResult, 0, len(h.config.Models))
	for _, kind := range h.config.Models {
		result := BenchmarkResult{
			Name:        w.Name,
			Description: w.Description,
			Model:       kind,
			Geometry:    w.Geometry.String(),
		}

		start := time.Now()
		sum, err := replay(kind, w)
		result.WallTime = time.Since(start)

		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Accesses = sum.Accesses
		result.Hits = sum.Hits
		result.Misses = sum.Misses
		result.Evictions = sum.Evictions
		result.HitRate = sum.HitRate()
		result.Agrees = sum == reference

		if h.config.Verbose {
			h.log.WithFields(logrus.Fields{
				"workload":      w.Name,
				logfields.Model: kind,
				"agrees":        result.Agrees,
				"wall":          result.WallTime,
			}).Info("workload finished")
		}

		results = append(results, result)
	}

	return results
}

func replay(kind cache.Kind, w Workload) (sim.Summary, error) {
	model, err := cache.NewModel(kind, w.Geometry)
	if err != nil {
		return sim.Summary{}, err
	}

	return sim.New(model).RunRecords(w.Records()), nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== csim Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	last := ""
	for _, r := range results {
		if r.Name != last {
			_, _ = fmt.Fprintf(h.config.Output, "Workload: %s\n", r.Name)
			_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
			_, _ = fmt.Fprintf(h.config.Output, "  Geometry:    %s\n", r.Geometry)
			last = r.Name
		}

		_, _ = fmt.Fprintf(h.config.Output, "  --- %s ---\n", r.Model)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
			continue
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Accesses:  %d\n", r.Accesses)
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:      %d\n", r.Hits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses:    %d\n", r.Misses)
		_, _ = fmt.Fprintf(h.config.Output, "  Evictions: %d\n", r.Evictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Hit Rate:  %.1f%%\n", 100*r.HitRate)
		_, _ = fmt.Fprintf(h.config.Output, "  Agrees:    %v\n", r.Agrees)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
	}
	_, _ = fmt.Fprintln(h.config.Output, "")
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,model,geometry,accesses,hits,misses,evictions,hit_rate,agrees,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%s,%d,%d,%d,%d,%.4f,%v,%d\n",
			r.Name,
			r.Model,
			r.Geometry,
			r.Accesses,
			r.Hits,
			r.Misses,
			r.Evictions,
			r.HitRate,
			r.Agrees,
			r.WallTime.Nanoseconds(),
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Models run for each workload
	Models []cache.Kind `json:"models"`
}

// ReportSummary contains aggregate statistics across all results.
type ReportSummary struct {
	// TotalRuns is the number of (workload, model) pairs
	TotalRuns int `json:"total_runs"`

	// Disagreements counts runs whose counts differ from the table model
	Disagreements int `json:"disagreements"`

	// Errors counts runs whose model could not be built
	Errors int `json:"errors"`

	// TotalAccesses is the sum of all replayed accesses
	TotalAccesses uint64 `json:"total_accesses"`

	// TotalWallTime is the total wall clock time for all runs
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalRuns: len(results)}
	for _, r := range results {
		switch {
		case r.Error != "":
			s.Errors++
		case !r.Agrees:
			s.Disagreements++
		}
		s.TotalAccesses += r.Accesses
		s.TotalWallTime += r.WallTime
	}

	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Models:    h.config.Models,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
