package cache

import (
	"errors"
	"fmt"
)

// MaxLines bounds the number of lines a table may allocate. The whole table
// is allocated when the cache is built, so geometries beyond this are refused.
const MaxLines = 1 << 30

var (
	// ErrInvalidGeometry is returned when the construction parameters cannot
	// describe a cache.
	ErrInvalidGeometry = errors.New("invalid cache geometry")

	// ErrUnsupportedGeometry is returned when a model back end cannot
	// represent an otherwise valid geometry.
	ErrUnsupportedGeometry = errors.New("geometry not supported by model")
)

// Geometry describes the shape of a set-associative cache.
type Geometry struct {
	// SetBits is the number of set index bits. The cache has 2^SetBits sets.
	SetBits int
	// Associativity is the number of lines per set.
	Associativity int
	// BlockBits is the number of block offset bits. Blocks are 2^BlockBits
	// bytes.
	BlockBits int
}

// Validate checks that the geometry describes a cache that can be built.
func (g Geometry) Validate() error {
	if g.Associativity < 1 {
		return fmt.Errorf("%w: associativity must be >= 1, got %d",
			ErrInvalidGeometry, g.Associativity)
	}
	if g.SetBits < 0 || g.BlockBits < 0 {
		return fmt.Errorf("%w: set and block bits must be non-negative (s=%d, b=%d)",
			ErrInvalidGeometry, g.SetBits, g.BlockBits)
	}
	if g.SetBits+g.BlockBits > 64 {
		return fmt.Errorf("%w: s+b must be <= 64, got %d",
			ErrInvalidGeometry, g.SetBits+g.BlockBits)
	}
	if g.SetBits > 30 || uint64(g.Associativity) > MaxLines>>uint(g.SetBits) {
		return fmt.Errorf("%w: %s needs more than %d lines",
			ErrInvalidGeometry, g, uint64(MaxLines))
	}

	return nil
}

// NumSets returns the number of sets.
func (g Geometry) NumSets() uint64 {
	return 1 << uint(g.SetBits)
}

// BlockSize returns the block size in bytes. It is 0 when BlockBits is 64.
func (g Geometry) BlockSize() uint64 {
	return 1 << uint(g.BlockBits)
}

// NumLines returns the total number of lines in the cache.
func (g Geometry) NumLines() uint64 {
	return g.NumSets() * uint64(g.Associativity)
}

func (g Geometry) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", g.SetBits, g.Associativity, g.BlockBits)
}

// SetIndex extracts bits [BlockBits, BlockBits+SetBits) of addr.
func (g Geometry) SetIndex(addr uint64) uint64 {
	return (addr >> uint(g.BlockBits)) & lowMask(g.SetBits)
}

// Tag keeps only the address bits above the set index and block offset
// fields. Tags are compared in place, without shifting them down.
func (g Geometry) Tag(addr uint64) uint64 {
	return addr &^ lowMask(g.SetBits+g.BlockBits)
}

// BlockOffset returns the position of addr within its block.
func (g Geometry) BlockOffset(addr uint64) uint64 {
	return addr & lowMask(g.BlockBits)
}

// BlockAddress clears the block offset bits of addr.
func (g Geometry) BlockAddress(addr uint64) uint64 {
	return addr &^ lowMask(g.BlockBits)
}

// lowMask returns a mask with the n lowest bits set. Go defines shifts by 64
// or more as producing 0, so n == 64 yields all ones.
func lowMask(n int) uint64 {
	return (uint64(1) << uint(n)) - 1
}
