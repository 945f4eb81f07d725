// Package schema interprets raw PBS field values according to a compact
// per-field type grammar and assembles them into records.
//
// A [Field] maps a raw key to a target field name, a type pattern and the
// enumeration sources its enumerated codes validate against. Patterns are
// strings of single-character type codes:
//
//	i  signed integer          f  float
//	u  unsigned integer        b  boolean (any non-empty value is true)
//	v  positive integer        n  identifier (letters, digits, _; no leading digit)
//	x  hexadecimal integer     s, m  string
//	e  enumerated string       q  free text: the rest of the raw value, verbatim
//	y  integer or enumerated string
//
// A leading '*' repeats the codes as a group over the whole comma-separated
// value; a '^' marks the codes after it as a trailing group repeated after
// the codes before it. An upper-case code yields nil for an empty slot.
//
//	Interpret("a,b,c", "*s", nil)            // []any{"a", "b", "c"}
//	Interpret("1,TACKLE,5,GROWL", "*ue", ..) // [][]any{{1, "TACKLE"}, {5, "GROWL"}}
package schema
