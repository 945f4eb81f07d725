package schema

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one parsed section: an insertion-ordered mapping from target
// field name to typed value. Values are int, float64, bool, string, nil,
// []any, [][]any, or whatever shape a fix-up hook restructures them into.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty [Record].
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// Get returns the value of key and whether it is present.
func (r *Record) Get(key string) (any, bool) {
	return r.fields.Get(key)
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.fields.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (r *Record) Set(key string, value any) {
	r.fields.Set(key, value)
}

// SetDefault stores value under key unless key is already present.
func (r *Record) SetDefault(key string, value any) {
	if !r.Has(key) {
		r.fields.Set(key, value)
	}
}

// Delete removes key.
func (r *Record) Delete(key string) {
	r.fields.Delete(key)
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.fields.Len())
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Len returns the number of fields.
func (r *Record) Len() int { return r.fields.Len() }

// ID returns the record identifier, derived from the section header.
func (r *Record) ID() string { return r.String("ID") }

// Name returns the record name, derived from the section header.
func (r *Record) Name() string { return r.String("Name") }

// String returns the value of key when it is a string, and "" otherwise.
func (r *Record) String(key string) string {
	v, _ := r.Get(key)
	s, _ := v.(string)
	return s
}

// Int returns the value of key when it is an int.
func (r *Record) Int(key string) (int, bool) {
	v, _ := r.Get(key)
	n, ok := v.(int)
	return n, ok
}

// Strings returns the string elements of a sequence-valued key. Elements
// that are not strings are skipped.
func (r *Record) Strings(key string) []string {
	v, _ := r.Get(key)
	var out []string
	switch vs := v.(type) {
	case []string:
		out = append(out, vs...)
	case []any:
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Map returns a shallow copy of the fields as a plain map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, r.fields.Len())
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		m[p.Key] = p.Value
	}
	return m
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.fields.MarshalJSON()
}
