package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// DirectoryModel runs accesses through an Akita cache directory with its LRU
// victim finder. Akita stores the block-aligned address as the tag, which is
// equivalent to comparing tags within a set.
type DirectoryModel struct {
	geometry  Geometry
	directory *akitacache.DirectoryImpl
}

// NewDirectoryModel builds an empty Akita-backed model. Akita sizes sets and
// blocks with int, so geometries with more than 2^30 sets or blocks larger
// than 2^62 bytes are refused.
func NewDirectoryModel(g Geometry) (*DirectoryModel, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.BlockBits > 62 || g.SetBits > 30 {
		return nil, fmt.Errorf("%w: akita needs b <= 62 and s <= 30, got %s",
			ErrUnsupportedGeometry, g)
	}

	return &DirectoryModel{
		geometry: g,
		directory: akitacache.NewDirectory(
			int(g.NumSets()),
			g.Associativity,
			int(g.BlockSize()),
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Geometry returns the cache geometry.
func (m *DirectoryModel) Geometry() Geometry {
	return m.geometry
}

// Access classifies an access to addr. The directory keeps its own LRU
// queue, so the logical time is not needed.
func (m *DirectoryModel) Access(addr uint64, _ uint64) Outcome {
	blockAddr := m.geometry.BlockAddress(addr)

	block := m.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		m.directory.Visit(block)
		return Hit
	}

	// The victim finder prefers invalid blocks, then the LRU end of the queue.
	victim := m.directory.FindVictim(blockAddr)
	outcome := MissFill
	if victim.IsValid {
		outcome = MissEvict
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	m.directory.Visit(victim)

	return outcome
}

// Reset invalidates every block.
func (m *DirectoryModel) Reset() {
	m.directory.Reset()
}
