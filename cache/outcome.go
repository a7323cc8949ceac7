package cache

// Outcome classifies a single access against the cache.
type Outcome int

const (
	// Hit means a valid line in the set already held the tag.
	Hit Outcome = iota
	// MissFill means the tag was absent and an empty line received it.
	MissFill
	// MissEvict means the tag was absent, the set was full, and the least
	// recently used line was replaced.
	MissEvict
)

// String returns the csim-ref verbose wording for the outcome.
func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case MissFill:
		return "miss"
	case MissEvict:
		return "miss eviction"
	default:
		return "unknown"
	}
}

// IsMiss reports whether the outcome counts as a miss.
func (o Outcome) IsMiss() bool {
	return o == MissFill || o == MissEvict
}

// IsEviction reports whether the outcome displaced a valid line.
func (o Outcome) IsEviction() bool {
	return o == MissEvict
}
