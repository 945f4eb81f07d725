package idset

import "errors"

// ErrNotBound is returned when a [Lazy] set is queried before a supplier has
// been bound to it.
var ErrNotBound = errors.New("idset: lazy set has no supplier bound")

// ErrAlreadyBound is returned by [Lazy.Bind] when the set already has a
// supplier.
var ErrAlreadyBound = errors.New("idset: lazy set already has a supplier bound")

// Supplier produces the contents of a [Lazy] set.
type Supplier func() Set

// Lazy is a deferred, cached, single-assignment [Source].
//
// The supplier runs at most once, on the first call to [Lazy.Contains] or
// [Lazy.Members]; its result is cached for the lifetime of the Lazy. A Lazy
// is owned by the pipeline run that created it and is discarded with it.
//
// Lazy is not safe for concurrent use; an import pass is single-threaded.
type Lazy struct {
	supplier Supplier
	resolved bool
	set      Set
}

// NewLazy returns a [Lazy] set. supplier may be nil, in which case it must be
// provided later through [Lazy.Bind].
func NewLazy(supplier Supplier) *Lazy {
	return &Lazy{supplier: supplier}
}

// Bind attaches supplier to l. Returns [ErrAlreadyBound] if l already has a
// supplier, whether it was given at construction or by an earlier Bind.
func (l *Lazy) Bind(supplier Supplier) error {
	if supplier == nil {
		return errors.New("idset: bind nil supplier")
	}

	if l.supplier != nil {
		return ErrAlreadyBound
	}
	l.supplier = supplier
	return nil
}

// Bound reports whether l has a supplier.
func (l *Lazy) Bound() bool {
	return l.supplier != nil
}

// Contains implements [Source.Contains].
// Returns [ErrNotBound] when no supplier has been bound yet.
func (l *Lazy) Contains(value string) (bool, error) {
	s, err := l.resolve()
	if err != nil {
		return false, err
	}
	return s.Has(value), nil
}

// Members implements [Source.Members].
// Returns [ErrNotBound] when no supplier has been bound yet.
func (l *Lazy) Members() ([]string, error) {
	s, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return s.Sorted(), nil
}

// resolve runs the supplier on first use and returns the cached set.
func (l *Lazy) resolve() (Set, error) {
	if l.resolved {
		return l.set, nil
	}
	if l.supplier == nil {
		return nil, ErrNotBound
	}
	l.set = l.supplier()
	if l.set == nil {
		l.set = Set{}
	}
	l.resolved = true
	return l.set, nil
}
