package cache

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned for a model kind that does not exist.
var ErrUnknownModel = errors.New("unknown cache model")

// A Model classifies accesses against a set-associative LRU cache.
//
// Access is called once per memory access with a logical time that strictly
// increases between calls. Models that track recency by position rather than
// by timestamp may ignore it.
type Model interface {
	Access(addr uint64, now uint64) Outcome
	Geometry() Geometry
	Reset()
}

// Kind names a Model implementation.
type Kind string

const (
	// KindTable is the flat line table with timestamp LRU.
	KindTable Kind = "table"
	// KindList keeps one recency list per set.
	KindList Kind = "list"
	// KindAkita delegates tag and LRU bookkeeping to an Akita directory.
	KindAkita Kind = "akita"
)

// Kinds lists every model kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindTable, KindList, KindAkita}
}

// ParseKind converts a model name into a Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// NewModel builds an empty model of the given kind.
func NewModel(kind Kind, g Geometry) (Model, error) {
	switch kind {
	case KindTable, "":
		return New(g)
	case KindList:
		return NewListModel(g)
	case KindAkita:
		return NewDirectoryModel(g)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, string(kind))
	}
}
