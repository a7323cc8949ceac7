package trace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrTraceUnreadable is returned when a trace source cannot be opened or
// decoded.
var ErrTraceUnreadable = errors.New("trace unreadable")

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

// Reader streams data access records from a trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

// NewReader reads plain trace text from r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Reader{scanner: scanner}
}

// Next returns the next data access. It returns io.EOF at the end of the
// trace. A malformed line ends the stream: that call and every later call
// return a *MalformedRecordError.
func (r *Reader) Next() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}

	for r.scanner.Scan() {
		r.line++

		rec, ok, err := ParseLine(r.scanner.Text())
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				malformed.Line = r.line
			}
			r.err = err
			return Record{}, err
		}
		if !ok {
			continue
		}

		rec.Line = r.line
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("%w: %w", ErrTraceUnreadable, err)
		return Record{}, r.err
	}

	r.err = io.EOF
	return Record{}, io.EOF
}

// ReadAll collects every data access of a trace.
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)

	var records []Record
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Write renders records in trace syntax, one per line. Data accesses are
// indented by one space as valgrind does.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		prefix := " "
		if rec.Op == Instruction {
			prefix = ""
		}
		if _, err := fmt.Fprintf(bw, "%s%s\n", prefix, rec); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// File is a trace opened from disk.
type File struct {
	*Reader

	path    string
	file    *os.File
	closers []func() error
}

// Open opens a trace file. Files compressed with zstd or gzip are detected by
// their magic number and decompressed on the fly.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceUnreadable, err)
	}

	t := &File{path: path, file: f}

	src := bufio.NewReader(f)
	head, _ := src.Peek(len(zstdMagic))

	var r io.Reader = src
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(src)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: create zstd decoder: %w", ErrTraceUnreadable, err)
		}
		t.closers = append(t.closers, func() error { dec.Close(); return nil })
		r = dec
	case bytes.HasPrefix(head, gzipMagic):
		dec, err := gzip.NewReader(src)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: create gzip decoder: %w", ErrTraceUnreadable, err)
		}
		t.closers = append(t.closers, dec.Close)
		r = dec
	}

	t.Reader = NewReader(r)

	return t, nil
}

// LoadFile reads every data access of the trace file at path.
func LoadFile(path string) ([]Record, error) {
	t, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.Close() }()

	var records []Record
	for {
		rec, err := t.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Path returns the path the trace was opened from.
func (t *File) Path() string {
	return t.path
}

// Close releases the decoder and the underlying file.
func (t *File) Close() error {
	var errs []error
	for _, c := range t.closers {
		errs = append(errs, c())
	}
	errs = append(errs, t.file.Close())

	return errors.Join(errs...)
}
