package sim

import (
	"fmt"
	"io"
)

// Summary accumulates the counters of a run.
type Summary struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	// Accesses counts classified records.
	Accesses uint64 `json:"accesses"`
	// Modifies counts the Modify records among them.
	Modifies uint64 `json:"modifies"`
}

// Add folds one result into the summary.
func (s *Summary) Add(r Result) {
	s.Accesses++

	switch {
	case r.Outcome.IsEviction():
		s.Misses++
		s.Evictions++
	case r.Outcome.IsMiss():
		s.Misses++
	default:
		s.Hits++
	}

	if r.ExtraHit {
		s.Modifies++
		s.Hits++
	}
}

// HitRate returns hits over all hit/miss events, or 0 for an empty run.
func (s Summary) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Check verifies the counter identities every run must satisfy.
func (s Summary) Check() error {
	if s.Evictions > s.Misses {
		return fmt.Errorf("evictions (%d) exceed misses (%d)", s.Evictions, s.Misses)
	}
	if s.Hits+s.Misses != s.Accesses+s.Modifies {
		return fmt.Errorf("hits+misses (%d) != accesses+modifies (%d)",
			s.Hits+s.Misses, s.Accesses+s.Modifies)
	}

	return nil
}

// VerboseObserver prints each access the way csim-ref -v does, e.g.
// "M 20,1 miss eviction hit".
func VerboseObserver(w io.Writer) Observer {
	return ObserverFunc(func(r Result) {
		line := r.Record.String() + " " + r.Outcome.String()
		if r.ExtraHit {
			line += " hit"
		}
		_, _ = fmt.Fprintln(w, line)
	})
}
