// Package record keeps a per-access log of a simulation run.
package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
)

// A Recorder stores every classified access. It is a sim.Observer.
type Recorder interface {
	sim.Observer

	// Flush writes buffered rows and reports the first error met so far.
	Flush() error

	// Close flushes and releases the destination.
	Close() error
}

// Row is one recorded access.
type Row struct {
	Seq      uint64
	Time     uint64
	Op       string
	Address  uint64
	Size     uint64
	SetIndex uint64
	Tag      uint64
	Outcome  string
	ExtraHit bool
}

var columns = []string{
	"seq", "time", "op", "address", "size", "set_index", "tag", "outcome", "extra_hit",
}

func newRow(seq uint64, g cache.Geometry, r sim.Result) Row {
	return Row{
		Seq:      seq,
		Time:     r.Time,
		Op:       r.Record.Op.String(),
		Address:  r.Record.Address,
		Size:     r.Record.Size,
		SetIndex: g.SetIndex(r.Record.Address),
		Tag:      g.Tag(r.Record.Address),
		Outcome:  r.Outcome.String(),
		ExtraHit: r.ExtraHit,
	}
}

// Open creates a recorder for path. Paths ending in .csv get a CSV file,
// anything else an SQLite database. An empty path picks a fresh SQLite file
// name in the working directory. Existing files are never overwritten.
func Open(path string, g cache.Geometry) (Recorder, error) {
	if path == "" {
		path = "csim_record_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("record file %s already exists", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create record file: %w", err)
		}
		return newCSV(f, f.Close, g), nil
	}

	return NewSQLite(path, g)
}
