package cache

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// ListModel keeps a fixed-capacity recency list per set, so a hit or an
// eviction costs O(1) regardless of associativity. Sets are created on first
// touch, which keeps sparse traces against very wide caches cheap.
type ListModel struct {
	geometry Geometry
	sets     map[uint64]*simplelru.LRU[uint64, struct{}]
}

// NewListModel builds an empty list-based model.
func NewListModel(g Geometry) (*ListModel, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	return &ListModel{
		geometry: g,
		sets:     make(map[uint64]*simplelru.LRU[uint64, struct{}]),
	}, nil
}

// Geometry returns the cache geometry.
func (m *ListModel) Geometry() Geometry {
	return m.geometry
}

// Access classifies an access to addr. Recency is the list order, so the
// logical time is not needed.
func (m *ListModel) Access(addr uint64, _ uint64) Outcome {
	set := m.setFor(m.geometry.SetIndex(addr))
	tag := m.geometry.Tag(addr)

	if _, ok := set.Get(tag); ok {
		return Hit
	}

	if set.Add(tag, struct{}{}) {
		return MissEvict
	}

	return MissFill
}

// Reset drops every set.
func (m *ListModel) Reset() {
	m.sets = make(map[uint64]*simplelru.LRU[uint64, struct{}])
}

func (m *ListModel) setFor(setIndex uint64) *simplelru.LRU[uint64, struct{}] {
	set, ok := m.sets[setIndex]
	if ok {
		return set
	}

	// Associativity was validated to be >= 1, the only failure NewLRU has.
	set, err := simplelru.NewLRU[uint64, struct{}](m.geometry.Associativity, nil)
	if err != nil {
		panic(err)
	}
	m.sets[setIndex] = set

	return set
}
