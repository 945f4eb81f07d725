package pbs

import (
	"fmt"

	"github.com/MrWong99/pbsimport/internal/schema"
)

// emptyList returns a non-nil empty sequence so that it encodes as [].
func emptyList() []any { return []any{} }

// tuples returns the [][]any value of key, or nil when absent.
func tuples(r *schema.Record, key string) ([][]any, error) {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	t, ok := v.([][]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected value groups, got %T", key, v)
	}
	return t, nil
}

// list returns the []any value of key, or nil when absent.
func list(r *schema.Record, key string) ([]any, error) {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a value list, got %T", key, v)
	}
	return l, nil
}

// rows turns positional groups into rows keyed by names. Groups shorter than
// names leave the missing columns nil.
func rows(groups [][]any, names ...string) []map[string]any {
	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		row := make(map[string]any, len(names))
		for i, n := range names {
			if i < len(g) {
				row[n] = g[i]
			} else {
				row[n] = nil
			}
		}
		out = append(out, row)
	}
	return out
}

// chunk splits a flat list into groups of size n. A short final group is
// kept as is.
func chunk(flat []any, n int) [][]any {
	out := make([][]any, 0, (len(flat)+n-1)/n)
	for i := 0; i < len(flat); i += n {
		out = append(out, flat[i:min(i+n, len(flat))])
	}
	return out
}
