// Package trace reads valgrind-style memory traces.
//
// Each line of a trace describes one access:
//
//	I 0400d7d4,8
//	 L 7ff0005b8,8
//	 S 7ff0005c8,8
//	 M 0421c7f0,4
//
// Instruction fetches (I) are not memory hierarchy traffic for the simulated
// data cache and are skipped by the reader.
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op is the kind of a trace record.
type Op byte

const (
	// Load reads from memory.
	Load Op = 'L'
	// Store writes to memory.
	Store Op = 'S'
	// Modify is a load immediately followed by a store to the same address.
	Modify Op = 'M'
	// Instruction is an instruction fetch.
	Instruction Op = 'I'
)

func (o Op) String() string {
	return string(rune(o))
}

// IsData reports whether the op is a data access that the cache model sees.
func (o Op) IsData() bool {
	return o == Load || o == Store || o == Modify
}

// ErrMalformedRecord is the error class of lines that do not follow the
// trace grammar.
var ErrMalformedRecord = errors.New("malformed trace record")

// MalformedRecordError describes a line that could not be parsed.
type MalformedRecordError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d (%q): %s",
			ErrMalformedRecord, e.Line, e.Text, e.Reason)
	}

	return fmt.Sprintf("%s (%q): %s", ErrMalformedRecord, e.Text, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Record is one parsed trace line.
type Record struct {
	Op      Op
	Address uint64
	// Size is the number of bytes accessed. It is carried for reporting;
	// the cache model treats every access as touching a single line.
	Size uint64
	// Line is the 1-based line number in the source, or 0 when unknown.
	Line int
}

// String renders the record in trace syntax, without the leading space.
func (r Record) String() string {
	return fmt.Sprintf("%s %x,%d", r.Op, r.Address, r.Size)
}

// ParseLine parses one trace line. ok is false for lines that carry no data
// access: blank lines and well-formed instruction fetches.
func ParseLine(text string) (rec Record, ok bool, err error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Record{}, false, nil
	}

	fail := func(reason string) (Record, bool, error) {
		return Record{}, false, &MalformedRecordError{Text: text, Reason: reason}
	}

	op := Op(s[0])
	if op != Instruction && !op.IsData() {
		return fail(fmt.Sprintf("unknown operation %q", s[0]))
	}

	rest := s[1:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return fail("expected whitespace after operation")
	}
	rest = strings.TrimSpace(rest)

	addrText, sizeText, found := strings.Cut(rest, ",")
	if !found {
		return fail("expected <address>,<size>")
	}

	addrText = strings.TrimPrefix(strings.TrimPrefix(addrText, "0x"), "0X")
	addr, perr := strconv.ParseUint(addrText, 16, 64)
	if perr != nil {
		return fail(fmt.Sprintf("bad address %q", addrText))
	}

	size, perr := strconv.ParseUint(sizeText, 10, 64)
	if perr != nil {
		return fail(fmt.Sprintf("bad size %q", sizeText))
	}

	// Instruction fetches are checked like data accesses, then skipped.
	if op == Instruction {
		return Record{}, false, nil
	}

	return Record{Op: op, Address: addr, Size: size}, true, nil
}
