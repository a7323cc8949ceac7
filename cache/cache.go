// Package cache models a set-associative cache with LRU replacement.
//
// Only address membership is tracked: a line remembers the tag it holds and
// the logical time it was last touched, never any data. The reference model
// is Cache, which keeps every line of every set in one flat table. ListModel
// and DirectoryModel implement the same Model interface on top of library
// recency structures and are expected to classify every access identically.
package cache

import "fmt"

// Line is one slot of a set.
type Line struct {
	// Tag holds the address bits above the set index and block offset.
	// It is meaningful only when Valid is set.
	Tag uint64
	// Valid is false until the line first receives a tag.
	Valid bool
	// LastUsed is the logical time of the most recent access to the line.
	LastUsed uint64
}

// Cache is a set-associative cache whose lines live in a single table of
// NumSets*Associativity entries. Line w of set s is at index
// s*Associativity+w.
type Cache struct {
	geometry Geometry
	ways     int
	lines    []Line
}

// New builds an empty cache. All lines start invalid.
func New(g Geometry) (*Cache, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	return &Cache{
		geometry: g,
		ways:     g.Associativity,
		lines:    make([]Line, g.NumLines()),
	}, nil
}

// Geometry returns the cache geometry.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// set returns the lines of one set, sharing storage with the table.
func (c *Cache) set(setIndex uint64) []Line {
	start := setIndex * uint64(c.ways)
	return c.lines[start : start+uint64(c.ways)]
}

// Set returns a copy of the lines of one set.
func (c *Cache) Set(setIndex uint64) []Line {
	if setIndex >= c.geometry.NumSets() {
		panic(fmt.Sprintf("set index %d out of range (%d sets)",
			setIndex, c.geometry.NumSets()))
	}

	lines := make([]Line, c.ways)
	copy(lines, c.set(setIndex))

	return lines
}

// Access classifies an access to addr at logical time now and updates the
// touched line.
//
// The whole set is searched for the tag before an empty line is considered,
// so a match always wins over a hole earlier in the set. On a miss the first
// empty line is filled; if there is none, the least recently used line is
// replaced.
func (c *Cache) Access(addr uint64, now uint64) Outcome {
	tag := c.geometry.Tag(addr)
	lines := c.set(c.geometry.SetIndex(addr))

	empty := -1
	for i := range lines {
		if !lines[i].Valid {
			if empty < 0 {
				empty = i
			}
			continue
		}

		if lines[i].Tag == tag {
			lines[i].LastUsed = now
			return Hit
		}
	}

	if empty >= 0 {
		lines[empty] = Line{Tag: tag, Valid: true, LastUsed: now}
		return MissFill
	}

	victim := lruIndex(lines)
	lines[victim] = Line{Tag: tag, Valid: true, LastUsed: now}

	return MissEvict
}

// Victim returns the way that would be evicted from a full set: the line
// with the smallest LastUsed, lowest index first on ties.
func (c *Cache) Victim(setIndex uint64) int {
	return lruIndex(c.set(setIndex))
}

// Reset invalidates every line.
func (c *Cache) Reset() {
	clear(c.lines)
}

// lruIndex scans every line and keeps only a strictly smaller timestamp as
// the new minimum.
func lruIndex(lines []Line) int {
	victim := 0
	for i := 1; i < len(lines); i++ {
		if lines[i].LastUsed < lines[victim].LastUsed {
			victim = i
		}
	}

	return victim
}
