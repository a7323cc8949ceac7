// Package report formats the counters of a simulation run.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
)

// Text prints the summary line csim-ref prints.
func Text(w io.Writer, s sim.Summary) error {
	_, err := fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		s.Hits, s.Misses, s.Evictions)
	return err
}

// WriteResultsFile writes "hits misses evictions" to path, the hand-off file
// the cachelab driver reads.
func WriteResultsFile(path string, s sim.Summary) error {
	data := fmt.Sprintf("%d %d %d\n", s.Hits, s.Misses, s.Evictions)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	return nil
}

// Report describes one run for machine consumption.
type Report struct {
	RunID     string         `json:"run_id"`
	Trace     string         `json:"trace"`
	Model     cache.Kind     `json:"model"`
	Geometry  GeometryReport `json:"geometry"`
	Hits      uint64         `json:"hits"`
	Misses    uint64         `json:"misses"`
	Evictions uint64         `json:"evictions"`
	Accesses  uint64         `json:"accesses"`
	HitRate   float64        `json:"hit_rate"`
	WallTime  time.Duration  `json:"wall_time_ns"`
}

// GeometryReport is the geometry with derived sizes.
type GeometryReport struct {
	SetBits       int    `json:"s"`
	Associativity int    `json:"E"`
	BlockBits     int    `json:"b"`
	Sets          uint64 `json:"sets"`
	BlockSize     uint64 `json:"block_size"`
}

// NewReport builds a Report with a fresh run ID.
func NewReport(tracePath string, kind cache.Kind, g cache.Geometry, s sim.Summary, wall time.Duration) Report {
	return Report{
		RunID: xid.New().String(),
		Trace: tracePath,
		Model: kind,
		Geometry: GeometryReport{
			SetBits:       g.SetBits,
			Associativity: g.Associativity,
			BlockBits:     g.BlockBits,
			Sets:          g.NumSets(),
			BlockSize:     g.BlockSize(),
		},
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
		Accesses:  s.Accesses,
		HitRate:   s.HitRate(),
		WallTime:  wall,
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var csvHeader = []string{
	"run_id", "trace", "model", "s", "E", "b",
	"hits", "misses", "evictions", "accesses", "hit_rate", "wall_time_ns",
}

// WriteCSV writes one row per report after a header row.
func WriteCSV(w io.Writer, reports []Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range reports {
		row := []string{
			r.RunID,
			r.Trace,
			string(r.Model),
			strconv.Itoa(r.Geometry.SetBits),
			strconv.Itoa(r.Geometry.Associativity),
			strconv.Itoa(r.Geometry.BlockBits),
			strconv.FormatUint(r.Hits, 10),
			strconv.FormatUint(r.Misses, 10),
			strconv.FormatUint(r.Evictions, 10),
			strconv.FormatUint(r.Accesses, 10),
			strconv.FormatFloat(r.HitRate, 'f', 4, 64),
			strconv.FormatInt(r.WallTime.Nanoseconds(), 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
