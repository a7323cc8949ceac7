package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
)

// CSVRecorder writes accesses as CSV rows, buffering up to bufferSize rows.
type CSVRecorder struct {
	w          *csv.Writer
	closer     func() error
	geometry   cache.Geometry
	rows       []Row
	bufferSize int
	seq        uint64
	err        error
}

// NewCSV writes a header and then one row per access to w.
func NewCSV(w io.Writer, g cache.Geometry) *CSVRecorder {
	return newCSV(w, nil, g)
}

func newCSV(w io.Writer, closer func() error, g cache.Geometry) *CSVRecorder {
	r := &CSVRecorder{
		w:          csv.NewWriter(w),
		closer:     closer,
		geometry:   g,
		bufferSize: 1000,
	}
	r.err = r.w.Write(columns)

	return r
}

// Observe buffers one access.
func (r *CSVRecorder) Observe(res sim.Result) {
	r.seq++
	r.rows = append(r.rows, newRow(r.seq, r.geometry, res))
	if len(r.rows) >= r.bufferSize {
		_ = r.Flush()
	}
}

// Flush writes the buffered rows.
func (r *CSVRecorder) Flush() error {
	if r.err != nil {
		return r.err
	}

	for _, row := range r.rows {
		err := r.w.Write([]string{
			strconv.FormatUint(row.Seq, 10),
			strconv.FormatUint(row.Time, 10),
			row.Op,
			fmt.Sprintf("%#x", row.Address),
			strconv.FormatUint(row.Size, 10),
			strconv.FormatUint(row.SetIndex, 10),
			fmt.Sprintf("%#x", row.Tag),
			row.Outcome,
			strconv.FormatBool(row.ExtraHit),
		})
		if err != nil {
			r.err = err
			return err
		}
	}
	r.rows = r.rows[:0]

	r.w.Flush()
	r.err = r.w.Error()

	return r.err
}

// Close flushes and closes the destination when the recorder owns it.
func (r *CSVRecorder) Close() error {
	err := r.Flush()
	if r.closer != nil {
		err = errors.Join(err, r.closer())
		r.closer = nil
	}

	return err
}
