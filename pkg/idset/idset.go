// Package idset provides the enumeration sources that PBS field schemas
// validate values against.
//
// A [Source] is either a fixed [Set] of valid strings or a [Lazy] set whose
// contents are supplied on first use. Lazy sets exist because a schema is
// declared before the entity kinds it refers to have necessarily been parsed:
// a species file can only know its own section names once it has been
// tokenized, and it can only know the valid moves once the move file has been
// imported.
package idset

import (
	"slices"
)

// Source is a set of valid strings that a field value must belong to.
type Source interface {
	// Contains reports whether value is a member of the set.
	Contains(value string) (bool, error)

	// Members returns every member of the set in ascending order.
	Members() ([]string, error)
}

// Compile-time assertions.
var (
	_ Source = Set(nil)
	_ Source = (*Lazy)(nil)
)

// Set is a fixed set of valid strings. The nil Set is empty and ready to use.
type Set map[string]struct{}

// New returns a [Set] holding values.
func New(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// FromKeys returns a [Set] holding the keys of m.
func FromKeys[V any](m map[string]V) Set {
	s := make(Set, len(m))
	for k := range m {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts values into s.
func (s Set) Add(values ...string) {
	for _, v := range values {
		s[v] = struct{}{}
	}
}

// Has reports whether value is in s.
func (s Set) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Contains implements [Source.Contains]. It never fails.
func (s Set) Contains(value string) (bool, error) {
	return s.Has(value), nil
}

// Members implements [Source.Members]. It never fails.
func (s Set) Members() ([]string, error) {
	return s.Sorted(), nil
}

// Sorted returns the members of s in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of members in s.
func (s Set) Len() int { return len(s) }
